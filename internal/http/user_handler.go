package api

import (
	"net/http"

	"eventplanner/internal/domain/user"
)

// @Summary     List users
// @Tags        admin
// @Security    BearerAuth
// @Produce     json
// @Param       page  query     int  false  "Page number"
// @Success     200   {object}  page.Page[user.User]
// @Failure     403   {object}  apperr.AppError  "forbidden"
// @Router      /api/v1/admin/users [get]
func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSvc.List(r.Context(), principalFrom(r), queryPage(r))
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// @Summary     Get user
// @Tags        admin
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      int64  true  "User ID"
// @Success     200  {object}  user.User
// @Failure     404  {object}  apperr.AppError  "not found"
// @Router      /api/v1/admin/users/{id} [get]
func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	u, err := h.userSvc.Get(r.Context(), principalFrom(r), id)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// @Summary     Create user
// @Tags        admin
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body      user.AdminInput  true  "User"
// @Success     201      {object}  map[string]any
// @Failure     400      {object}  apperr.AppError  "validation failed"
// @Router      /api/v1/admin/users [post]
func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in user.AdminInput
	if err := decodeJSON(r, &in); err != nil {
		errorResponse(w, r, err)
		return
	}
	u, err := h.userSvc.Create(r.Context(), principalFrom(r), in)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "User created successfully", map[string]any{"user": u})
}

// @Summary     Update user
// @Tags        admin
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      int64            true  "User ID"
// @Param       request  body      user.AdminInput  true  "User, empty password keeps the current one"
// @Success     200      {object}  map[string]any
// @Failure     400      {object}  apperr.AppError  "validation failed"
// @Router      /api/v1/admin/users/{id} [put]
func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	var in user.AdminInput
	if err := decodeJSON(r, &in); err != nil {
		errorResponse(w, r, err)
		return
	}
	u, err := h.userSvc.Update(r.Context(), principalFrom(r), id, in)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "User updated successfully", map[string]any{"user": u})
}

// @Summary     Delete user
// @Tags        admin
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      int64  true  "User ID"
// @Success     200  {object}  map[string]any
// @Failure     409  {object}  apperr.AppError  "own account or user with events"
// @Router      /api/v1/admin/users/{id} [delete]
func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	if err := h.userSvc.Delete(r.Context(), principalFrom(r), id); err != nil {
		errorResponse(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "User deleted successfully", nil)
}

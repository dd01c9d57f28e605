package api

import (
	"net/http"

	"eventplanner/internal/domain/user"
)

// @Summary     Current profile
// @Tags        profile
// @Security    BearerAuth
// @Produce     json
// @Success     200  {object}  user.User
// @Failure     401  {object}  apperr.AppError  "login required"
// @Router      /api/v1/profile [get]
func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.userSvc.Profile(r.Context(), principalFrom(r))
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// @Summary     Update profile
// @Tags        profile
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body      user.ProfileInput  true  "Profile"
// @Success     200      {object}  map[string]any
// @Failure     400      {object}  apperr.AppError  "validation failed"
// @Router      /api/v1/profile [put]
func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req user.ProfileInput
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, err)
		return
	}
	u, err := h.userSvc.UpdateProfile(r.Context(), principalFrom(r), req)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Profile updated", map[string]any{"user": u})
}

// @Summary     Change password
// @Tags        profile
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body      user.PasswordInput  true  "Passwords"
// @Success     200      {object}  map[string]any
// @Failure     400      {object}  apperr.AppError  "validation failed"
// @Router      /api/v1/profile/password [put]
func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req user.PasswordInput
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, err)
		return
	}
	if err := h.userSvc.ChangePassword(r.Context(), principalFrom(r), req); err != nil {
		errorResponse(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated", nil)
}

// @Summary     Replace avatar
// @Tags        profile
// @Security    BearerAuth
// @Accept      multipart/form-data
// @Produce     json
// @Param       avatar  formData  file  true  "jpeg, png or gif, at most 2 MB"
// @Success     200     {object}  map[string]any
// @Failure     400     {object}  apperr.AppError  "invalid image"
// @Router      /api/v1/profile/avatar [put]
func (h *Handler) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	file, err := formImage(w, r, "avatar")
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	defer file.Close()

	u, err := h.userSvc.UpdateAvatar(r.Context(), principalFrom(r), file)
	if err != nil {
		errorResponse(w, r, imageError("avatar", err))
		return
	}
	writeMessage(w, http.StatusOK, "Avatar updated", map[string]any{"user": u})
}

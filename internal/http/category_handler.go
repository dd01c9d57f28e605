package api

import (
	"net/http"

	"eventplanner/internal/domain/category"
)

// @Summary     List categories
// @Tags        categories
// @Produce     json
// @Success     200  {array}  category.Category
// @Router      /api/v1/categories [get]
func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.categorySvc.List(r.Context())
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// @Summary     List categories with event counts
// @Tags        admin
// @Security    BearerAuth
// @Produce     json
// @Success     200  {array}   category.Category
// @Failure     403  {object}  apperr.AppError  "forbidden"
// @Router      /api/v1/admin/categories [get]
func (h *Handler) handleAdminListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.categorySvc.ListAdmin(r.Context(), principalFrom(r))
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// @Summary     Create category
// @Tags        admin
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body      category.Input  true  "Category"
// @Success     201      {object}  map[string]any
// @Failure     400      {object}  apperr.AppError  "validation failed"
// @Router      /api/v1/admin/categories [post]
func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in category.Input
	if err := decodeJSON(r, &in); err != nil {
		errorResponse(w, r, err)
		return
	}
	c, err := h.categorySvc.Create(r.Context(), principalFrom(r), in)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Category created successfully", map[string]any{"category": c})
}

// @Summary     Rename category
// @Tags        admin
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      int64           true  "Category ID"
// @Param       request  body      category.Input  true  "Category"
// @Success     200      {object}  map[string]any
// @Failure     400      {object}  apperr.AppError  "validation failed"
// @Failure     404      {object}  apperr.AppError  "not found"
// @Router      /api/v1/admin/categories/{id} [put]
func (h *Handler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	var in category.Input
	if err := decodeJSON(r, &in); err != nil {
		errorResponse(w, r, err)
		return
	}
	c, err := h.categorySvc.Update(r.Context(), principalFrom(r), id, in)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Category updated successfully", map[string]any{"category": c})
}

// @Summary     Delete category
// @Tags        admin
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      int64  true  "Category ID"
// @Success     200  {object}  map[string]any
// @Failure     409  {object}  apperr.AppError  "category still has events"
// @Router      /api/v1/admin/categories/{id} [delete]
func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	if err := h.categorySvc.Delete(r.Context(), principalFrom(r), id); err != nil {
		errorResponse(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Category deleted successfully", nil)
}

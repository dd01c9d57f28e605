package api

import (
	"net/http"
)

// @Summary     Register for an event
// @Tags        registrations
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      int64  true  "Event ID"
// @Success     201  {object}  map[string]any
// @Failure     401  {object}  apperr.AppError  "login required"
// @Failure     403  {object}  apperr.AppError  "event archived"
// @Failure     404  {object}  apperr.AppError  "not found"
// @Failure     409  {object}  apperr.AppError  "full or already registered"
// @Failure     429  {object}  apperr.AppError  "rate limited"
// @Router      /api/v1/events/{id}/register [post]
func (h *Handler) handleRegisterForEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	reg, err := h.regSvc.Register(r.Context(), principalFrom(r), id)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Successfully registered for the event", map[string]any{"registration": reg})
}

// @Summary     Cancel a registration
// @Tags        registrations
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      int64  true  "Event ID"
// @Success     200  {object}  map[string]any
// @Failure     403  {object}  apperr.AppError  "event archived"
// @Failure     409  {object}  apperr.AppError  "not registered"
// @Router      /api/v1/events/{id}/unregister [delete]
func (h *Handler) handleUnregisterFromEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	if err := h.regSvc.Unregister(r.Context(), principalFrom(r), id); err != nil {
		errorResponse(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Successfully unregistered from the event", nil)
}

// @Summary     My registrations
// @Tags        registrations
// @Security    BearerAuth
// @Produce     json
// @Success     200  {array}   registration.Listed
// @Router      /api/v1/my-registrations [get]
func (h *Handler) handleMyRegistrations(w http.ResponseWriter, r *http.Request) {
	items, err := h.regSvc.ListMine(r.Context(), principalFrom(r))
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// @Summary     All registrations
// @Tags        admin
// @Security    BearerAuth
// @Produce     json
// @Param       page  query     int  false  "Page number"
// @Success     200   {object}  page.Page[registration.Listed]
// @Failure     403   {object}  apperr.AppError  "forbidden"
// @Router      /api/v1/admin/registrations [get]
func (h *Handler) handleAdminRegistrations(w http.ResponseWriter, r *http.Request) {
	res, err := h.regSvc.ListAll(r.Context(), principalFrom(r), queryPage(r))
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

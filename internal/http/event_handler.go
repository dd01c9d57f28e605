package api

import (
	"net/http"
	"strconv"

	"eventplanner/internal/domain/event"
	"eventplanner/internal/platform/apperr"
)

func eventFilter(r *http.Request) (event.Filter, error) {
	q := r.URL.Query()
	f := event.Filter{
		Search:  q.Get("search"),
		Weekday: q.Get("weekday"),
		Status:  q.Get("status"),
		Page:    queryPage(r),
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, apperr.FieldErrors{"category_id": "must be an integer"}
		}
		f.CategoryID = id
	}
	return f, nil
}

// @Summary     List upcoming events
// @Description Active events only, soonest first, 12 per page.
// @Tags        events
// @Produce     json
// @Param       search       query     string  false  "Substring of title or description"
// @Param       category_id  query     int     false  "Category"
// @Param       weekday      query     string  false  "Day name, e.g. friday"
// @Param       page         query     int     false  "Page number"
// @Success     200          {object}  page.Page[event.Listed]
// @Failure     400          {object}  apperr.AppError  "invalid filter"
// @Router      /api/v1/events [get]
func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	f, err := eventFilter(r)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	f.Status = ""
	res, err := h.eventSvc.ListPublic(r.Context(), f)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// @Summary     Event details
// @Tags        events
// @Produce     json
// @Param       id   path      int64  true  "Event ID"
// @Success     200  {object}  event.Detail
// @Failure     404  {object}  apperr.AppError  "not found"
// @Router      /api/v1/events/{id} [get]
func (h *Handler) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	d, err := h.eventSvc.Get(r.Context(), principalFrom(r), id)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// @Summary     List all events
// @Tags        admin
// @Security    BearerAuth
// @Produce     json
// @Param       search  query     string  false  "Substring of title or description"
// @Param       status  query     string  false  "active or archived"
// @Param       page    query     int     false  "Page number"
// @Success     200     {object}  page.Page[event.Listed]
// @Failure     403     {object}  apperr.AppError  "forbidden"
// @Router      /api/v1/admin/events [get]
func (h *Handler) handleAdminListEvents(w http.ResponseWriter, r *http.Request) {
	f, err := eventFilter(r)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	res, err := h.eventSvc.ListAdmin(r.Context(), principalFrom(r), f)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// @Summary     Create event
// @Tags        admin
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body      event.Input  true  "Event"
// @Success     201      {object}  map[string]any
// @Failure     400      {object}  apperr.AppError  "validation failed"
// @Failure     403      {object}  apperr.AppError  "forbidden"
// @Router      /api/v1/admin/events [post]
func (h *Handler) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in event.Input
	if err := decodeJSON(r, &in); err != nil {
		errorResponse(w, r, err)
		return
	}
	e, err := h.eventSvc.Create(r.Context(), principalFrom(r), in)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Event created successfully", map[string]any{"event": e})
}

// @Summary     Update event
// @Tags        admin
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      int64        true  "Event ID"
// @Param       request  body      event.Input  true  "Event"
// @Success     200      {object}  map[string]any
// @Failure     400      {object}  apperr.AppError  "validation failed"
// @Failure     404      {object}  apperr.AppError  "not found"
// @Router      /api/v1/admin/events/{id} [put]
func (h *Handler) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	var in event.Input
	if err := decodeJSON(r, &in); err != nil {
		errorResponse(w, r, err)
		return
	}
	e, err := h.eventSvc.Update(r.Context(), principalFrom(r), id, in)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Event updated successfully", map[string]any{"event": e})
}

// @Summary     Replace event image
// @Tags        admin
// @Security    BearerAuth
// @Accept      multipart/form-data
// @Produce     json
// @Param       id     path      int64  true  "Event ID"
// @Param       image  formData  file   true  "jpeg, png or gif, at most 2 MB"
// @Success     200    {object}  map[string]any
// @Failure     400    {object}  apperr.AppError  "invalid image"
// @Router      /api/v1/admin/events/{id}/image [put]
func (h *Handler) handleEventImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	file, err := formImage(w, r, "image")
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	defer file.Close()

	e, err := h.eventSvc.ReplaceImage(r.Context(), principalFrom(r), id, file)
	if err != nil {
		errorResponse(w, r, imageError("image", err))
		return
	}
	writeMessage(w, http.StatusOK, "Event image updated", map[string]any{"event": e})
}

// @Summary     Archive event
// @Description The event stays stored and visible to admins.
// @Tags        admin
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      int64  true  "Event ID"
// @Success     200  {object}  map[string]any
// @Failure     403  {object}  apperr.AppError  "forbidden"
// @Failure     404  {object}  apperr.AppError  "not found"
// @Router      /api/v1/admin/events/{id} [delete]
func (h *Handler) handleArchiveEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	if err := h.eventSvc.Archive(r.Context(), principalFrom(r), id); err != nil {
		errorResponse(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Event archived successfully", nil)
}

// @Summary     Purge archived event
// @Tags        admin
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      int64  true  "Event ID"
// @Success     200  {object}  map[string]any
// @Failure     409  {object}  apperr.AppError  "event not archived"
// @Router      /api/v1/admin/events/{id}/purge [delete]
func (h *Handler) handlePurgeEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	if err := h.eventSvc.Purge(r.Context(), principalFrom(r), id); err != nil {
		errorResponse(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Event deleted permanently", nil)
}

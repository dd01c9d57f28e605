package api

import (
	"errors"
	"net/http"
	"strings"

	"eventplanner/internal/domain/access"
	"eventplanner/internal/domain/category"
	"eventplanner/internal/domain/event"
	"eventplanner/internal/domain/registration"
	"eventplanner/internal/domain/user"
	"eventplanner/internal/platform/apperr"
)

// errorResponse writes err as JSON. Login-required errors become a 303 to the
// login route for browser clients.
func errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	appErr := mapError(err)
	status := appErr.StatusCode()

	if status >= http.StatusInternalServerError {
		slogLogger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", appErr.Err,
		)
	}

	if appErr.Location != "" {
		if wantsHTML(r) {
			http.Redirect(w, r, appErr.Location, http.StatusSeeOther)
			return
		}
		w.Header().Set("Location", appErr.Location)
	}
	writeJSON(w, status, appErr)
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal("internal_error", "internal server error", nil)
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var fields apperr.FieldErrors
	if errors.As(err, &fields) {
		return apperr.Validation("the given data was invalid", fields)
	}

	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		return apperr.LoginRequired(loginPath, err)
	case errors.Is(err, access.ErrForbidden):
		return apperr.Forbidden("forbidden", "insufficient permissions", err)

	case errors.Is(err, event.ErrEventNotFound):
		return apperr.NotFound("event_not_found", "event not found", err)
	case errors.Is(err, event.ErrNotArchived):
		return apperr.Conflict("event_not_archived", "only archived events can be purged", err)

	case errors.Is(err, registration.ErrEventArchived):
		return apperr.Forbidden("event_archived", "this event is archived", err)
	case errors.Is(err, registration.ErrEventFull):
		return apperr.Conflict("event_full", "this event is full", err)
	case errors.Is(err, registration.ErrAlreadyRegistered):
		return apperr.Conflict("already_registered", "you are already registered for this event", err)
	case errors.Is(err, registration.ErrNotRegistered):
		return apperr.Conflict("not_registered", "you are not registered for this event", err)
	case errors.Is(err, registration.ErrContention):
		return apperr.Conflict("registration_busy", "too many registrations at once, please try again", err)

	case errors.Is(err, category.ErrCategoryNotFound):
		return apperr.NotFound("category_not_found", "category not found", err)
	case errors.Is(err, category.ErrHasDependents):
		return apperr.Conflict("category_has_events", "cannot delete a category that still has events", err)

	case errors.Is(err, user.ErrUserNotFound):
		return apperr.NotFound("user_not_found", "user not found", err)
	case errors.Is(err, user.ErrInvalidCredentials):
		return apperr.Unauthorized("invalid_credentials", "invalid credentials", err)
	case errors.Is(err, user.ErrSelfDeletion):
		return apperr.Conflict("self_deletion", "you cannot delete your own account", err)
	case errors.Is(err, user.ErrHasEvents):
		return apperr.Conflict("user_has_events", "cannot delete a user who created events", err)
	case errors.Is(err, user.ErrEmailTaken):
		return apperr.Validation("the given data was invalid", apperr.FieldErrors{"email": "has already been taken"})

	default:
		return apperr.Internal("internal_error", http.StatusText(http.StatusInternalServerError), err)
	}
}

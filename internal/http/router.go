package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"eventplanner/internal/domain/category"
	"eventplanner/internal/domain/event"
	"eventplanner/internal/domain/registration"
	"eventplanner/internal/domain/user"
	"eventplanner/internal/platform/apperr"
	jwtpkg "eventplanner/internal/platform/jwt"
)

const loginPath = "/api/v1/auth/login"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Users         *user.Service
	Events        *event.Service
	Categories    *category.Service
	Registrations *registration.Service
	JWT           *jwtpkg.Manager
	DB            Pinger
	// Uploads serves stored blobs under /storage/.
	Uploads http.Handler

	CORSAllowedOrigins []string
	// RegisterPerMinute bounds register/unregister calls per client IP.
	RegisterPerMinute int
}

type Handler struct {
	userSvc     *user.Service
	eventSvc    *event.Service
	categorySvc *category.Service
	regSvc      *registration.Service
	jwtMgr      *jwtpkg.Manager
	db          Pinger
}

func NewRouter(d Deps) http.Handler {
	h := &Handler{
		userSvc:     d.Users,
		eventSvc:    d.Events,
		categorySvc: d.Categories,
		regSvc:      d.Registrations,
		jwtMgr:      d.JWT,
		db:          d.DB,
	}

	origins := d.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	perMinute := d.RegisterPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", h.handleReady)
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	if d.Uploads != nil {
		r.Handle("/storage/*", http.StripPrefix("/storage/", d.Uploads))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate(d.JWT, d.Users))

		r.With(RateLimit(rate.Every(time.Minute/5), 5)).Post("/auth/register", h.handleSignUp)
		r.With(RateLimit(rate.Every(time.Minute/5), 5)).Post("/auth/login", h.handleLogin)

		r.Get("/events", h.handleListEvents)
		r.Get("/events/{id}", h.handleGetEvent)
		r.Get("/categories", h.handleListCategories)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth)

			limit := RateLimit(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
			r.With(limit).Post("/events/{id}/register", h.handleRegisterForEvent)
			r.With(limit).Delete("/events/{id}/unregister", h.handleUnregisterFromEvent)
			r.Get("/my-registrations", h.handleMyRegistrations)

			r.Get("/profile", h.handleGetProfile)
			r.Put("/profile", h.handleUpdateProfile)
			r.Put("/profile/password", h.handleChangePassword)
			r.Put("/profile/avatar", h.handleUpdateAvatar)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/events", h.handleAdminListEvents)
				r.Post("/events", h.handleCreateEvent)
				r.Put("/events/{id}", h.handleUpdateEvent)
				r.Put("/events/{id}/image", h.handleEventImage)
				r.Delete("/events/{id}", h.handleArchiveEvent)
				r.Delete("/events/{id}/purge", h.handlePurgeEvent)

				r.Get("/categories", h.handleAdminListCategories)
				r.Post("/categories", h.handleCreateCategory)
				r.Put("/categories/{id}", h.handleUpdateCategory)
				r.Delete("/categories/{id}", h.handleDeleteCategory)

				r.Get("/users", h.handleListUsers)
				r.Get("/users/{id}", h.handleGetUser)
				r.Post("/users", h.handleCreateUser)
				r.Put("/users/{id}", h.handleUpdateUser)
				r.Delete("/users/{id}", h.handleDeleteUser)

				r.Get("/registrations", h.handleAdminRegistrations)
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeMessage is the JSON form of a redirect with a flash message.
func writeMessage(w http.ResponseWriter, status int, msg string, extra map[string]any) {
	body := map[string]any{"message": msg}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.BadRequest("invalid_input", "invalid body", err)
	}
	return nil
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	idStr := chi.URLParam(r, name)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequest("invalid_input", "invalid id", err)
	}
	return id, nil
}

func queryPage(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return n
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "db_unavailable",
			"message": "database not configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "db_unavailable",
			"message": "database not ready",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RouterDeps are the collaborators of NewRouter that are not handlers.
type RouterDeps struct {
	Verifier TokenVerifier
	Observer RequestObserver
	// Metrics serves /metrics; nil leaves the route unmounted.
	Metrics http.Handler
	DB      Pinger
	Redis   Pinger

	// RateLimitPerMinute is the per-IP budget; 0 disables limiting.
	RateLimitPerMinute int
	AllowedOrigins     []string
}

// NewRouter builds and returns the Chi router with all routes configured.
// Health, metrics and the signup/login/refresh endpoints are public; every
// other route requires an access token.
func NewRouter(h *Handlers, deps RouterDeps, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	if deps.Observer != nil {
		r.Use(Instrument(deps.Observer))
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if deps.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(deps.RateLimitPerMinute, time.Minute))
	}

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandlerFunc(deps.DB, deps.Redis, log))

		r.Post("/accounts/signup", h.Signup)
		r.Post("/accounts/login", h.Login)
		r.Post("/accounts/refresh", h.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(deps.Verifier))

			r.Post("/accounts/logout", h.Logout)

			r.Get("/hotels", h.ListHotels)
			r.Get("/hotels/details", h.HotelDetails)
			r.Get("/hotels/search", h.SearchHotels)
			r.Post("/hotels/search", h.SearchHotels)

			r.Get("/bookmarks", h.ListBookmarks)
			r.Post("/bookmarks", h.AddBookmark)
			r.Delete("/bookmarks", h.DeleteBookmark)
			r.Get("/bookmarks/search", h.SearchBookmarked)
		})
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)

package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"namaz-tracker/internal/handlers"
	"namaz-tracker/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	prayerHandler *handlers.PrayerHandler,
	dashboardHandler *handlers.DashboardHandler,
	wsHandler http.HandlerFunc,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		// ──── Prayer Routes ────
		r.Route("/prayers", func(r chi.Router) {
			r.Get("/items", prayerHandler.Items) // Public

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Get("/records", prayerHandler.Records)
				r.Get("/history", prayerHandler.History)
				r.Get("/stats", dashboardHandler.Stats)
				r.Get("/{date}", prayerHandler.Get)
				r.Put("/{date}/{prayer}", prayerHandler.Set)
				r.Post("/{date}/{prayer}/toggle", prayerHandler.Toggle)
			})
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHandler)
	})

	return r
}

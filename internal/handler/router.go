package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/GoArmGo/StudentRegistry/internal/core/ports"
	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/GoArmGo/StudentRegistry/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDeps - зависимости HTTP-слоя.
type RouterDeps struct {
	Auth           usecase.AuthUseCase
	Admin          usecase.AdminUseCase
	Health         ports.HealthChecker
	Logger         *slog.Logger
	RequestTimeout time.Duration
	CORSOrigins    []string
}

// NewRouter собирает все маршруты API.
func NewRouter(deps RouterDeps) http.Handler {
	authHandler := NewAuthHandler(deps.Auth, deps.Logger)
	adminHandler := NewAdminHandler(deps.Admin, deps.Logger)
	authenticate := Authenticate(deps.Auth, deps.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(deps.Logger))
	r.Use(Recoverer(deps.Logger))
	if deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, msgRouteNotFound, deps.Logger)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed, deps.Logger)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, envelope{Success: true, Message: "Welcome to Student Registration System API"}, deps.Logger)
	})
	r.Get("/healthz", healthz(deps.Health, deps.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/profile", authHandler.GetProfile)
			r.Post("/profile/qrcode", authHandler.RegenerateQRCode)
			r.Put("/profile/password", authHandler.ChangePassword)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(RequireRole(deps.Logger, domain.RoleAdmin))

			r.Get("/users", adminHandler.ListUsers)
			r.Get("/users/{id}", adminHandler.GetUser)
			r.Put("/users/{id}", adminHandler.UpdateUser)
			r.Delete("/users/{id}", adminHandler.DeleteUser)
			r.Post("/users/{id}/qrcode", adminHandler.RegenerateQRCode)
		})
	})

	return r
}

func healthz(checker ports.HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.Ping(r.Context()); err != nil {
				respondWithError(w, http.StatusServiceUnavailable, "Database unavailable", logger)
				return
			}
		}
		respondWithJSON(w, http.StatusOK, envelope{Success: true, Message: "ok"}, logger)
	}
}

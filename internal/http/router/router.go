package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shopvio/shop-session-service/internal/domain"
	"github.com/shopvio/shop-session-service/internal/health"
	"github.com/shopvio/shop-session-service/internal/http/handler"
	"github.com/shopvio/shop-session-service/internal/http/middleware"
	"github.com/shopvio/shop-session-service/internal/http/response"
	"github.com/shopvio/shop-session-service/internal/security"
	"github.com/shopvio/shop-session-service/internal/service"
)

type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	JWTManager       *security.JWTManager
	RBACService      service.RoleAuthorizer
	Logger           *slog.Logger
	CORSOrigins      []string
	AuthRateLimitRPM int
	APIRateLimitRPM  int
	Readiness        *health.ProbeRunner
	EnableOTelHTTP   bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	if dep.Logger != nil {
		r.Use(middleware.StructuredRequestLogger(dep.Logger))
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())

	authLimiter := middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute).Middleware()

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, "ok", map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, "ready", map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, "ready", map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.With(authLimiter).Post("/register", dep.AuthHandler.Register)
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.With(authLimiter).Post("/refreshToken", dep.AuthHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthMiddleware(dep.JWTManager))
				r.Use(middleware.RequireAnyRole(dep.RBACService, domain.RoleAdmin, domain.RoleUser))
				r.Post("/details", dep.AuthHandler.Details)
				r.Put("/details", dep.UserHandler.Update)
				r.Post("/logout", dep.AuthHandler.Logout)
				r.Get("/sessions", dep.UserHandler.ListSessions)
				r.Delete("/sessions/{sessionID}", dep.UserHandler.RevokeSession)
				r.Post("/sessions/revoke-others", dep.UserHandler.RevokeOtherSessions)
			})
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}

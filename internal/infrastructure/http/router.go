package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/http/middleware"
)

// APIVersion is reported in X-API-Version.
const APIVersion = "1"

type RouterConfig struct {
	MessagesHandler *handlers.MessagesHandler
	ProjectsHandler *handlers.ProjectsHandler
	UsageHandler    *handlers.UsageHandler
	AdminHandler    *handlers.AdminHandler
	HealthHandler   *handlers.HealthHandler
	RequireJWT      func(http.Handler) http.Handler // bearer identity token for everything user-facing
	RequireAdmin    func(http.Handler) http.Handler // X-Scaffold-Admin-Secret for /admin/*
	Log             zerolog.Logger
	Secure          func(http.Handler) http.Handler
	CORS            func(http.Handler) http.Handler
	IPRateLimit     func(http.Handler) http.Handler
	UserRateLimit   func(http.Handler) http.Handler // applied to admissions only
	Metrics         bool                            // expose /metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	r.Use(middleware.APIVersion(APIVersion))
	r.Use(chimid.AllowContentType("application/json"))
	r.Use(chimid.SetHeader("Content-Type", "application/json"))
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.ProjectsHandler != nil {
		r.Get("/templates", cfg.ProjectsHandler.Templates)
	}

	userLimit := cfg.UserRateLimit
	if userLimit == nil {
		userLimit = func(next http.Handler) http.Handler { return next }
	}

	r.Group(func(r chi.Router) {
		r.Use(cfg.RequireJWT)

		if cfg.ProjectsHandler != nil {
			r.Route("/projects", func(r chi.Router) {
				r.With(userLimit).Post("/", cfg.ProjectsHandler.Create)
				r.Get("/", cfg.ProjectsHandler.List)
				r.Route("/{projectID}", func(r chi.Router) {
					r.Get("/", cfg.ProjectsHandler.Get)
					if cfg.MessagesHandler != nil {
						r.With(userLimit).Post("/messages", cfg.MessagesHandler.Create)
						r.Get("/messages", cfg.MessagesHandler.List)
					}
				})
			})
		}
		if cfg.UsageHandler != nil {
			r.Get("/usage", cfg.UsageHandler.Get)
		}
	})

	if cfg.AdminHandler != nil && cfg.RequireAdmin != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(cfg.RequireAdmin)
			r.Post("/users/{userID}/credits", cfg.AdminHandler.GrantCredits)
		})
	}

	return r
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimid.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("request_id", chimid.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

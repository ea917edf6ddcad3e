package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"money-manager/internal/config"
	"money-manager/internal/handler"
	"money-manager/internal/middleware"
)

type Handlers struct {
	Auth        *handler.AuthHandler
	Category    *handler.CategoryHandler
	Transaction *handler.TransactionHandler
	User        *handler.UserHandler
	Admin       *handler.AdminHandler
	Audit       *handler.AuditHandler
}

// HealthFunc reports whether backing services are reachable.
type HealthFunc func(ctx context.Context) error

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, handlers Handlers, health HealthFunc) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.Actor)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.With(middleware.RegisterLimit()).Post("/register", handlers.Auth.Register)
			auth.With(middleware.LoginLimit()).Post("/login", handlers.Auth.Login)
			auth.With(middleware.VerifyEmailLimit()).Get("/verify-email", handlers.Auth.VerifyEmail)
			auth.With(middleware.ResendVerifyLimit()).Post("/resend-verification", handlers.Auth.ResendVerification)
			auth.With(middleware.ForgotPasswordLimit()).Post("/forgot-password", handlers.Auth.ForgotPassword)
			auth.With(middleware.ResetPasswordLimit()).Post("/reset-password", handlers.Auth.ResetPassword)
			auth.With(authMiddleware.RequireAuth).Get("/me", handlers.Auth.Me)
		})

		api.Group(func(private chi.Router) {
			private.Use(authMiddleware.RequireAuth)

			private.Route("/categories", func(c chi.Router) {
				c.Post("/", handlers.Category.Create)
				c.Get("/", handlers.Category.List)
				c.Get("/{id}", handlers.Category.Get)
				c.Put("/{id}", handlers.Category.Update)
				c.Delete("/{id}", handlers.Category.Delete)
			})

			private.Route("/transactions", func(t chi.Router) {
				t.Post("/", handlers.Transaction.Create)
				t.Get("/", handlers.Transaction.List)
				t.Get("/search", handlers.Transaction.List)
				t.Get("/search-suggestions", handlers.Transaction.Suggestions)
				t.Get("/export", handlers.Transaction.Export)
				t.Post("/bulk-delete", handlers.Transaction.BulkDelete)
				t.Post("/duplicate/{id}", handlers.Transaction.Duplicate)
				t.Get("/{id}", handlers.Transaction.Get)
				t.Put("/{id}", handlers.Transaction.Update)
				t.Delete("/{id}", handlers.Transaction.Delete)
			})

			private.Route("/user", func(u chi.Router) {
				u.Get("/profile", handlers.User.Profile)
				u.Put("/profile", handlers.User.UpdateProfile)
				u.Post("/change-password", handlers.User.ChangePassword)
				u.Delete("/delete-account", handlers.User.DeleteAccount)
				u.Get("/dashboard", handlers.User.Dashboard)
				u.Get("/statistics", handlers.User.Statistics)
				u.Get("/charts/category-breakdown", handlers.User.CategoryChart)
				u.Get("/charts/monthly-trend", handlers.User.MonthlyTrend)
				u.Post("/reports/generate", handlers.User.GenerateReport)
			})

			private.Route("/admin", func(a chi.Router) {
				a.Use(authMiddleware.RequireAdmin)

				a.Get("/users", handlers.Admin.ListUsers)
				a.Get("/users/{id}", handlers.Admin.GetUser)
				a.Put("/users/{id}/toggle-status", handlers.Admin.ToggleStatus)
				a.Delete("/users/{id}", handlers.Admin.DeleteUser)
				a.Get("/transactions", handlers.Admin.ListTransactions)
				a.Get("/transactions/export", handlers.Admin.ExportTransactions)
				a.Get("/stats", handlers.Admin.Stats)
				a.Post("/reports/generate", handlers.Admin.GenerateReport)
				a.Get("/audit", handlers.Audit.List)
			})
		})
	})

	return r
}

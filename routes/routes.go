package routes

import (
	"net/http"
	"strings"

	_ "github.com/Dosada05/efootball-cup/docs"
	"github.com/Dosada05/efootball-cup/handlers"
	"github.com/Dosada05/efootball-cup/middleware"
	"github.com/Dosada05/efootball-cup/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Tournament *handlers.TournamentHandler
	Bracket    *handlers.BracketHandler
	Match      *handlers.MatchHandler
	Dashboard  *handlers.DashboardHandler
	Admin      *handlers.AdminHandler
}

type Options struct {
	JWTSecret          string
	CORSAllowedOrigins []string
	// AuthLimiter ограничивает частоту запросов к /auth (логин, регистрация, сброс пароля).
	AuthLimiter *middleware.IPRateLimiter
	// UploadDir раздается по UploadPublicPath, если файлы хранятся локально. Пусто при R2.
	UploadDir        string
	UploadPublicPath string
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.Metrics)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	if opts.UploadDir != "" {
		prefix := strings.TrimRight(opts.UploadPublicPath, "/")
		fs := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(opts.UploadDir)))
		router.Handle(prefix+"/*", fs)
	}

	authenticate := middleware.Authenticate(opts.JWTSecret)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/approval-status", h.Auth.ApprovalStatus)

			r.Group(func(r chi.Router) {
				if opts.AuthLimiter != nil {
					r.Use(opts.AuthLimiter.Middleware)
				}
				r.Post("/register", h.Auth.Register)
				r.Post("/login", h.Auth.Login)
				r.Post("/forgot-password", h.Auth.ForgotPassword)
				r.Post("/reset-password", h.Auth.ResetPassword)
			})
		})

		// Публичные маршруты турниров
		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.Tournament.List)
			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", h.Tournament.Get)
				r.Get("/entrants", h.Tournament.Entrants)
				r.Get("/bracket", h.Bracket.GetBracket)

				r.With(authenticate).Post("/register", h.Tournament.Register)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/matches/{matchID}", func(r chi.Router) {
				r.Get("/", h.Match.Get)
				r.Post("/result", h.Match.SubmitResult)
			})

			r.Route("/me", func(r chi.Router) {
				r.Get("/", h.User.GetMe)
				r.Get("/matches", h.Dashboard.Matches)
				r.Get("/notifications", h.Dashboard.Notifications)
				r.Post("/notifications/{notificationID}/read", h.Dashboard.MarkRead)
			})
		})

		// Только для администраторов
		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRole(models.RoleAdmin))

			r.Get("/users", h.Admin.ListUsers)
			r.Post("/users/{userID}/approve", h.Admin.ApproveUser)
			r.Post("/users/{userID}/reject", h.Admin.RejectUser)

			r.Post("/tournaments", h.Tournament.Create)
			r.Post("/tournaments/{tournamentID}/bracket", h.Bracket.Generate)

			r.Get("/matches", h.Admin.ListMatches)
			r.Post("/matches/{matchID}/override", h.Match.Override)
		})
	})
}

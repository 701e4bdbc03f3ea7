package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-otp-api/internal/application/auth"
	"github.com/go-otp-api/internal/config"
	"github.com/go-otp-api/internal/transport/http/handler"
	appmiddleware "github.com/go-otp-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router along with the auth
// service it wires (the cleanup worker drives the same service instance).
func NewRouter(cfg *config.Config, deps *Deps) (http.Handler, auth.Service) {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authSvc := auth.NewService(auth.ServiceDeps{
		Users:    deps.Users,
		Codes:    deps.Codes,
		Notifier: deps.Notifier,
		Hasher:   deps.Hasher,
		Tokens:   deps.Tokens,
		Clock:    deps.Clock,
		Policy: auth.Policy{
			CodeTTL:      cfg.CodeTTL,
			MaxAttempts:  cfg.CodeMaxAttempts,
			RateLimit:    cfg.CodeRateLimit,
			RateWindow:   cfg.CodeRateWindow,
			CleanupGrace: cfg.CleanupGrace,
		},
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)

	// 5 requests/second, burst of 10 — applied to the public auth endpoints.
	// The per-user issuance limit in the code store is the real policy; this
	// only blunts bulk abuse from one address.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/auth/request-code", authH.RequestCode)
		r.With(sensitiveRL.Limit).Post("/auth/redeem-code", authH.RedeemCode)

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(authSvc))
			r.Get("/auth/me", authH.Me)
		})
	})

	return r, authSvc
}

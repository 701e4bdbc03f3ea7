package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-otp-api/internal/application/auth"
	"github.com/go-otp-api/internal/config"
	"github.com/go-otp-api/internal/infrastructure/hash"
	jwtinfra "github.com/go-otp-api/internal/infrastructure/jwt"
	"github.com/go-otp-api/internal/infrastructure/postgres"
	"github.com/go-otp-api/internal/infrastructure/smtp"
	"github.com/go-otp-api/internal/infrastructure/sns"
	"github.com/go-otp-api/internal/pkg/clock"
	transporthttp "github.com/go-otp-api/internal/transport/http"
	"github.com/go-otp-api/internal/worker"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()

	db, err := postgres.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		logger.Error("run migrations", "err", err)
		os.Exit(1)
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		logger.Error("load JWT keys", "err", err)
		os.Exit(1)
	}

	notifier, err := newNotifier(cfg)
	if err != nil {
		logger.Error("build notifier", "driver", cfg.NotifierDriver, "err", err)
		os.Exit(1)
	}

	deps := &transporthttp.Deps{
		Users:    postgres.NewUserRepo(db),
		Codes:    postgres.NewVerificationRepo(db),
		Notifier: notifier,
		Hasher:   hash.NewBcrypt(),
		Tokens:   jwtProvider,
		Clock:    clock.System{},
	}

	router, authSvc := transporthttp.NewRouter(cfg, deps)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	cleanup := worker.NewCleanup(authSvc, logger, cfg.CleanupInterval)
	go cleanup.Run(workerCtx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	stopWorker()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// newNotifier picks the delivery driver: SMTP by default, SNS topic publish
// when configured.
func newNotifier(cfg *config.Config) (auth.Notifier, error) {
	switch cfg.NotifierDriver {
	case "sns":
		return sns.NewSender(cfg)
	case "smtp", "":
		return smtp.NewMailer(cfg), nil
	default:
		return nil, fmt.Errorf("unknown notifier driver %q", cfg.NotifierDriver)
	}
}

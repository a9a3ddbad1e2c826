package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"student_connect/internal/auth"
	"student_connect/internal/config"
	"student_connect/internal/http_server/handlers/login"
	profileHandlers "student_connect/internal/http_server/handlers/profile"
	"student_connect/internal/http_server/handlers/register"
	resendCode "student_connect/internal/http_server/handlers/resend_code"
	verifyEmail "student_connect/internal/http_server/handlers/verify_email"
	"student_connect/internal/http_server/middleware/identity"
	sl "student_connect/internal/lib/logger"
	"student_connect/internal/mailer"
	"student_connect/internal/profile"
	"student_connect/internal/rabbitmq"
	"student_connect/internal/storage/postgres"
	redisStorage "student_connect/internal/storage/redis"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad(configPath())

	log := setupLogger(cfg.Env)

	log.Info("starting student connect service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	if err := postgres.Migrate(cfg); err != nil {
		log.Error("failed to run migrations", sl.Err(err))
		os.Exit(1)
	}

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	var cache profile.DirectoryCache
	if cfg.Redis.Addr != "" {
		redisRepo, err := redisStorage.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CacheTTL)
		if err != nil {
			log.Error("failed to connect redis", sl.Err(err))
			os.Exit(1)
		}
		defer redisRepo.Close()
		cache = redisRepo

		log.Info("directory cache enabled", slog.String("addr", cfg.Redis.Addr))
	}

	mail, closeMail, err := setupMailer(cfg)
	if err != nil {
		log.Error("failed to set up mail transport", sl.Err(err))
		os.Exit(1)
	}
	defer closeMail()

	authService := auth.New(
		log, storage, storage, storage, mail,
		cfg.Tokens.SessionSecret,
		cfg.Tokens.SessionTTL,
		cfg.Tokens.VerificationCodeTTL,
	)
	profileService := profile.New(log, storage, storage, storage, cache)

	router := setupRouter(log, cfg, authService, profileService)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", sl.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupRouter(
	log *slog.Logger,
	cfg *config.Config,
	authService *auth.Auth,
	profileService *profile.Service,
) *chi.Mux {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTPServer.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Student Connect API is running"))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", register.New(log, validate, authService))
		r.Post("/verify-email", verifyEmail.New(log, validate, authService))
		r.Post("/resend-code", resendCode.New(log, validate, authService))
		r.Post("/login", login.New(log, validate, authService))
	})

	r.Route("/api/profile", func(r chi.Router) {
		r.Use(identity.New(log, cfg.Tokens.SessionSecret))
		r.Get("/me", profileHandlers.Get(log, profileService))
		r.Put("/update", profileHandlers.Update(log, profileService))
		r.Get("/directory", profileHandlers.Directory(log, profileService))
	})

	return r
}

// setupMailer picks the outbound transport: direct SMTP, or a queue publish
// consumed by cmd/mail_sender.
func setupMailer(cfg *config.Config) (auth.MailSender, func(), error) {
	if cfg.Mailer.Mode == "amqp" {
		client, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
		if err != nil {
			return nil, nil, err
		}

		return client, client.Close, nil
	}

	return mailer.New(cfg.SMTP), func() {}, nil
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	return "./config/config.yaml"
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

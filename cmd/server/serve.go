package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-openings/internal/auth"
	"campus-openings/internal/config"
	"campus-openings/internal/database"
	"campus-openings/internal/handlers"
	"campus-openings/internal/mail"
	"campus-openings/internal/repository"
	"campus-openings/internal/server"
	"campus-openings/internal/service"
	"campus-openings/internal/storage"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serverPort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server.

Configuration comes from the environment (and a .env file if present).
Indexes are ensured on startup; failures are logged and do not stop the
server. SIGINT and SIGTERM trigger a graceful shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverPort, "port", "", "listen port (default: PORT or 8000)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serverPort != "" {
		cfg.Port = serverPort
	}

	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info().Msg("starting campus openings server")

	db, err := database.Connect(context.Background(), cfg.MongoURI, cfg.DBName, cfg.UseTransactions, logger)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Disconnect(ctx); err != nil {
			logger.Error().Err(err).Msg("mongo disconnect error")
		}
	}()

	if err := ensureIndexes(context.Background(), db, cfg, logger); err != nil {
		logger.Warn().Err(err).Msg("failed to create indexes")
	}

	handler, err := buildRouter(cfg, db, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	return waitAndShutdown(srv, stop, serverErr, cfg.ShutdownTimeout, logger)
}

func buildRouter(cfg config.Config, db *database.Mongo, logger zerolog.Logger) (http.Handler, error) {
	users := repository.NewUserRepo(db, cfg.BcryptCost)
	sections := repository.NewSectionRepo(db)
	jobs := repository.NewJobRepo(db)

	tokens := auth.NewTokenService(users, cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	var uploader service.Uploader
	if cfg.StorageEnabled() {
		s3, err := storage.NewS3Uploader(context.Background(), storage.Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("object storage: %w", err)
		}
		uploader = s3
	} else {
		logger.Warn().Msg("S3_BUCKET not set, file uploads are disabled")
	}

	var mailer service.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = mail.NewResendMailer(cfg.ResendAPIKey, cfg.FromEmail, logger)
	} else {
		logger.Warn().Msg("RESEND_API_KEY not set, verification emails are logged only")
		mailer = mail.NewLogMailer(logger)
	}

	accounts := service.NewUserService(users, tokens, uploader, mailer, cfg.BaseURL, logger)
	profiles := service.NewProfileService(users, sections, db, logger)
	postings := service.NewJobService(jobs, users, db, uploader, logger)

	uploads := handlers.Uploads{Dir: cfg.UploadDir, MaxBytes: cfg.MaxUploadBytes}
	cookies := handlers.Cookies{
		Secure:     cfg.CookieSecure,
		SameSite:   handlers.ParseSameSite(cfg.CookieSameSite),
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}

	return server.NewRouter(server.Handlers{
		Auth:    handlers.NewAuthHandler(accounts, cookies, uploads),
		User:    handlers.NewUserHandler(accounts, uploads),
		Job:     handlers.NewJobHandler(postings, uploads),
		Profile: handlers.NewProfileHandler(profiles, uploads),
	}, server.Options{
		Tokens:             tokens,
		Users:              users,
		CORSOrigins:        cfg.CORSOrigins,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		Logger:             logger,
		Ping:               db.Ping,
	}), nil
}

// waitAndShutdown blocks until a shutdown signal arrives or the server stops
// on its own. A listener error is returned as is; a signal drains in-flight
// requests within timeout.
func waitAndShutdown(srv *http.Server, stop <-chan os.Signal, serverErr <-chan error, timeout time.Duration, logger zerolog.Logger) error {
	select {
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err, ok := <-serverErr:
		if ok && err != nil {
			logger.Error().Err(err).Msg("http server error")
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}

package main

import (
	"context"
	"fmt"
	"time"

	"campus-openings/internal/config"
	"campus-openings/internal/database"
	"campus-openings/internal/repository"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create MongoDB indexes and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

		db, err := database.Connect(cmd.Context(), cfg.MongoURI, cfg.DBName, cfg.UseTransactions, logger)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer func() { _ = db.Disconnect(context.Background()) }()

		if err := ensureIndexes(cmd.Context(), db, cfg, logger); err != nil {
			return err
		}
		logger.Info().Msg("indexes created")
		return nil
	},
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func ensureIndexes(ctx context.Context, db *database.Mongo, cfg config.Config, logger zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	repos := map[string]indexer{
		"users":    repository.NewUserRepo(db, cfg.BcryptCost),
		"jobs":     repository.NewJobRepo(db),
		"sections": repository.NewSectionRepo(db),
	}
	for name, repo := range repos {
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
		logger.Debug().Str("repo", name).Msg("indexes ensured")
	}
	return nil
}

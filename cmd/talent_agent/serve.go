package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/talent-reconciler/internal/config"
	"github.com/jonathan/talent-reconciler/internal/db"
	"github.com/jonathan/talent-reconciler/internal/locking"
	"github.com/jonathan/talent-reconciler/internal/server"
	"github.com/jonathan/talent-reconciler/internal/talent"
	"github.com/jonathan/talent-reconciler/internal/verification"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes CV analysis, decision and skill group verification endpoints backed by PostgreSQL.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if servePort != 0 {
		cfg.Server.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	vopts := verification.Options{}
	if cfg.Redis.URL != "" {
		client, err := locking.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() { _ = client.Close() }()
		vopts.Locker = locking.NewRedisLocker(client, locking.RedisOptions{
			Prefix: "talent:verification:",
			TTL:    cfg.Redis.LockTTL,
			Retry:  cfg.Redis.LockRetry,
			Logger: logger.Named("locking"),
		})
		logger.Info("using redis verification locks")
	}

	svc := newDatabaseService(database, cfg, vopts, logger)
	srv, err := server.New(*cfg, svc, logger.Named("http"))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx)
}

// openDatabase connects the pool and applies pending migrations when enabled
func openDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*db.DB, error) {
	database, err := db.Connect(ctx, cfg.Database.URL, db.PoolOptions{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		results, err := database.Migrate(ctx)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		for _, r := range results {
			logger.Info("migration applied", zap.Int64("version", r.Version), zap.String("source", r.Source))
		}
	}
	return database, nil
}

// newDatabaseService wires the service to PostgreSQL for every store
func newDatabaseService(database *db.DB, cfg *config.Config, vopts verification.Options, logger *zap.Logger) *talent.Service {
	return talent.NewService(talent.Stores{
		Profiles:      database,
		Catalogs:      database,
		Analyses:      database,
		Verifications: database,
		Experts:       database,
		GroupSkills:   database,
	}, talent.Options{
		Matching:     cfg.Matching,
		Verification: vopts,
		Logger:       logger,
	})
}

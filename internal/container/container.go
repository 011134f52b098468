// Package container wires the application's services and manages their
// lifecycle
package container

import (
	"context"
	"fmt"

	"gokw/adapters/memory"
	"gokw/adapters/postgres"
	"gokw/adapters/stats/ranktest"
	"gokw/app"
	"gokw/internal"
	"gokw/internal/config"
	"gokw/internal/errors"
	"gokw/internal/metrics"
	"gokw/internal/migration"
	"gokw/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB      *sqlx.DB
	Metrics *metrics.Metrics

	// Repositories
	Runs ports.RunRepository

	// Services
	Tester   ports.RankTestPort
	Checker  *app.EligibilityChecker
	Engine   *app.RankTestService
	Metadata *app.MetadataService
	Pipeline *app.ComparisonService
}

// New builds a container that keeps runs in memory
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level))
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		Runs:    memory.NewRunRepository(),
		Tester:  ranktest.NewTester(),
	}
	c.Checker = app.NewEligibilityChecker(logger)
	c.Engine = app.NewRankTestService(c.Tester, logger)
	c.Metadata = app.NewMetadataService(logger)
	c.initPipeline()
	return c, nil
}

// Open builds a container and, when a database URL is configured, connects
// to PostgreSQL and persists runs there
func Open(ctx context.Context, cfg *config.Config) (*Container, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		c.Logger.Debug("DATABASE_URL not set, runs are kept in memory")
		return c, nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// InitWithDatabase moves run persistence to PostgreSQL, migrating the
// schema first when configured to
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.PingContext(ctx); err != nil {
		return errors.DatabaseError("database connection test failed", err)
	}
	c.DB = db

	if c.Config.Database.MigrateOnStart {
		runner := migration.NewRunner()
		if err := runner.Run(ctx, db); err != nil {
			return errors.Wrap(err, "database migration failed")
		}
		c.Logger.Info("schema migrated to version %s", runner.Version())
	}

	c.Runs = postgres.NewRunRepository(db)
	c.initPipeline()
	c.Logger.Info("runs are persisted to PostgreSQL")
	return nil
}

// ComputeOptions returns the configured defaults for rank test runs
func (c *Container) ComputeOptions() app.ComputeOptions {
	return app.ComputeOptions{
		MinGroupSize: c.Config.Analysis.MinGroupSize,
		Workers:      c.Config.Analysis.Workers,
	}
}

// Shutdown releases the database connection if one is held
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

func (c *Container) initPipeline() {
	c.Pipeline = app.NewComparisonService(c.Checker, c.Engine, c.Runs, c.Metrics, c.Logger)
}

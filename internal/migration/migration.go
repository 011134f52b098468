package migration

import (
	"context"

	"gokw/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Step is one named, idempotent schema statement
type Step struct {
	Name string
	SQL  string
}

// Steps returns the migration statements in execution order
func (r *MigrationRunner) Steps() []Step {
	return []Step{
		{Name: "create comparison_runs table", SQL: `
		CREATE TABLE IF NOT EXISTS comparison_runs (
			id UUID PRIMARY KEY,
			comparison TEXT NOT NULL,
			disposition VARCHAR(32) NOT NULL,
			reason TEXT,
			method VARCHAR(32) NOT NULL,
			min_group_size INTEGER NOT NULL,
			features INTEGER NOT NULL DEFAULT 0,
			tested INTEGER NOT NULL DEFAULT 0,
			fingerprint VARCHAR(64),
			runtime_ms BIGINT NOT NULL DEFAULT 0,
			result JSONB,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`},
		{Name: "create comparison_run_rows table", SQL: `
		CREATE TABLE IF NOT EXISTS comparison_run_rows (
			run_id UUID NOT NULL REFERENCES comparison_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			feature TEXT NOT NULL,
			counts JSONB NOT NULL,
			medians JSONB NOT NULL,
			statistic DOUBLE PRECISION,
			p_value DOUBLE PRECISION,
			PRIMARY KEY (run_id, position)
		)`},
		{Name: "index runs by creation time", SQL: "CREATE INDEX IF NOT EXISTS idx_comparison_runs_created_at ON comparison_runs(created_at DESC)"},
		{Name: "index runs by comparison", SQL: "CREATE INDEX IF NOT EXISTS idx_comparison_runs_comparison ON comparison_runs(comparison)"},
		{Name: "index rows by p-value", SQL: "CREATE INDEX IF NOT EXISTS idx_comparison_run_rows_p_value ON comparison_run_rows(run_id, p_value) WHERE p_value IS NOT NULL"},
	}
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, step := range r.Steps() {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to %s", step.Name))
		}
	}
	return nil
}

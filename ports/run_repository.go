package ports

import (
	"context"

	"gokw/domain/core"
	"gokw/domain/stats"
)

// RunRepository persists pipeline runs
type RunRepository interface {
	// SaveRun inserts or replaces a run
	SaveRun(ctx context.Context, run *stats.Run) error

	// GetRun retrieves a run by ID; core.ErrRunNotFound when absent
	GetRun(ctx context.Context, id core.RunID) (*stats.Run, error)

	// ListRuns returns the most recent runs first, up to limit
	ListRuns(ctx context.Context, limit int) ([]stats.RunSummary, error)
}

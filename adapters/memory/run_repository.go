// Package memory provides in-process implementations of the repository
// ports, used when no database is configured and in tests.
package memory

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"

	"gokw/domain/core"
	"gokw/domain/stats"
	"gokw/ports"
)

// RunRepository keeps runs in a map. Runs are copied on the way in and
// out so callers never share state with the store.
type RunRepository struct {
	mu   sync.RWMutex
	runs map[core.RunID][]byte
	meta map[core.RunID]stats.RunSummary
}

var _ ports.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates an empty repository
func NewRunRepository() *RunRepository {
	return &RunRepository{
		runs: make(map[core.RunID][]byte),
		meta: make(map[core.RunID]stats.RunSummary),
	}
}

// SaveRun inserts or replaces a run
func (r *RunRepository) SaveRun(ctx context.Context, run *stats.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = data
	r.meta[run.ID] = run.Summary()
	return nil
}

// GetRun retrieves a run by ID
func (r *RunRepository) GetRun(ctx context.Context, id core.RunID) (*stats.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	data, ok := r.runs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, core.ErrRunNotFound
	}
	var run stats.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns summaries newest first. UUIDv7 IDs break timestamp ties.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]stats.RunSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]stats.RunSummary, 0, len(r.meta))
	for _, s := range r.meta {
		out = append(out, s)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b stats.RunSummary) int {
		if c := b.CreatedAt.Time().Compare(a.CreatedAt.Time()); c != 0 {
			return c
		}
		return strings.Compare(b.ID.String(), a.ID.String())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

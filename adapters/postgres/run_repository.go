package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gokw/domain/core"
	"gokw/domain/stats"
	"gokw/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RunRepositoryImpl implements ports.RunRepository for PostgreSQL. The full
// result table is kept as JSONB on the run; per-feature rows are also
// written to comparison_run_rows for SQL queries over p-values.
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

type runRecord struct {
	ID           uuid.UUID      `db:"id"`
	Comparison   string         `db:"comparison"`
	Disposition  string         `db:"disposition"`
	Reason       sql.NullString `db:"reason"`
	Method       string         `db:"method"`
	MinGroupSize int            `db:"min_group_size"`
	Features     int            `db:"features"`
	Tested       int            `db:"tested"`
	Fingerprint  sql.NullString `db:"fingerprint"`
	RuntimeMs    int64          `db:"runtime_ms"`
	Result       []byte         `db:"result"`
	CreatedAt    time.Time      `db:"created_at"`
}

func newRunRecord(run *stats.Run) (*runRecord, error) {
	id, err := uuid.Parse(run.ID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: run id %q", core.ErrInvalidInput, run.ID)
	}
	rec := &runRecord{
		ID:           id,
		Comparison:   run.Comparison,
		Disposition:  run.Disposition.String(),
		Reason:       sql.NullString{String: run.Reason, Valid: run.Reason != ""},
		Method:       string(run.Method),
		MinGroupSize: run.MinGroupSize,
		Fingerprint:  sql.NullString{String: run.Fingerprint.String(), Valid: !run.Fingerprint.IsEmpty()},
		RuntimeMs:    run.RuntimeMs,
		CreatedAt:    run.CreatedAt.Time(),
	}
	if run.Result != nil {
		rec.Features = run.Result.Len()
		rec.Tested = run.Result.TestedCount()
		if rec.Result, err = json.Marshal(run.Result); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (rec *runRecord) toRun() (*stats.Run, error) {
	run := &stats.Run{
		ID:           core.RunID(rec.ID.String()),
		Comparison:   rec.Comparison,
		Reason:       rec.Reason.String,
		Method:       stats.Method(rec.Method),
		MinGroupSize: rec.MinGroupSize,
		Fingerprint:  core.Hash(rec.Fingerprint.String),
		RuntimeMs:    rec.RuntimeMs,
		CreatedAt:    core.NewTimestamp(rec.CreatedAt),
	}
	if err := run.Disposition.UnmarshalText([]byte(rec.Disposition)); err != nil {
		return nil, err
	}
	if len(rec.Result) > 0 {
		run.Result = &stats.ResultTable{}
		if err := json.Unmarshal(rec.Result, run.Result); err != nil {
			return nil, fmt.Errorf("decode result of run %s: %w", rec.ID, err)
		}
	}
	return run, nil
}

// SaveRun inserts or replaces a run and its rows in one transaction
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, run *stats.Run) error {
	rec, err := newRunRecord(run)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO comparison_runs (id, comparison, disposition, reason, method, min_group_size, features, tested, fingerprint, runtime_ms, result, created_at)
		VALUES (:id, :comparison, :disposition, :reason, :method, :min_group_size, :features, :tested, :fingerprint, :runtime_ms, :result, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			comparison = EXCLUDED.comparison,
			disposition = EXCLUDED.disposition,
			reason = EXCLUDED.reason,
			method = EXCLUDED.method,
			min_group_size = EXCLUDED.min_group_size,
			features = EXCLUDED.features,
			tested = EXCLUDED.tested,
			fingerprint = EXCLUDED.fingerprint,
			runtime_ms = EXCLUDED.runtime_ms,
			result = EXCLUDED.result
	`, rec)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM comparison_run_rows WHERE run_id = $1`, rec.ID); err != nil {
		return err
	}
	if run.Result != nil {
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO comparison_run_rows (run_id, position, feature, counts, medians, statistic, p_value)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, row := range run.Result.Rows {
			counts, err := json.Marshal(row.Counts)
			if err != nil {
				return err
			}
			medians, err := json.Marshal(row.Medians)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, rec.ID, i, row.Feature.String(), counts, medians, row.Statistic(), row.PValue()); err != nil {
				return fmt.Errorf("insert row %s of run %s: %w", row.Feature, run.ID, err)
			}
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*stats.Run, error) {
	var rec runRecord
	err := r.db.GetContext(ctx, &rec, `
		SELECT id, comparison, disposition, reason, method, min_group_size, features, tested, fingerprint, runtime_ms, result, created_at
		FROM comparison_runs
		WHERE id = $1
	`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.toRun()
}

// ListRuns returns run summaries newest first
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]stats.RunSummary, error) {
	query := `
		SELECT id, comparison, disposition, reason, method, min_group_size, features, tested, fingerprint, runtime_ms, NULL::jsonb AS result, created_at
		FROM comparison_runs
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var recs []runRecord
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, err
	}

	summaries := make([]stats.RunSummary, 0, len(recs))
	for _, rec := range recs {
		run, err := rec.toRun()
		if err != nil {
			return nil, err
		}
		s := run.Summary()
		s.Features = rec.Features
		s.Tested = rec.Tested
		summaries = append(summaries, s)
	}
	return summaries, nil
}

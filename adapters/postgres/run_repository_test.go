package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"gokw/domain/core"
	"gokw/domain/stats"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRecordRoundTrip(t *testing.T) {
	table := stats.NewResultTable(stats.MethodMannWhitneyU, []core.GroupLabel{"case", "ctrl"}, []int{6, 7}, 6, []core.FeatureID{"f1", "f2"})
	table.Rows[0].Counts[0], table.Rows[0].Counts[1] = 6, 7
	table.Rows[0].Medians[0], table.Rows[0].Medians[1] = core.Float(1), core.Float(2)
	table.Rows[0].Test = &stats.TestResult{Statistic: 12, PValue: 0.04}

	run := &stats.Run{
		ID:           core.NewRunID(),
		Comparison:   "dx__case_vs_ctrl",
		Disposition:  stats.DispositionTwoGroup,
		Method:       stats.MethodMannWhitneyU,
		MinGroupSize: 6,
		Result:       table,
		Fingerprint:  table.Fingerprint(),
		RuntimeMs:    3,
		CreatedAt:    core.NewTimestamp(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}

	rec, err := newRunRecord(run)
	require.NoError(t, err)
	assert.Equal(t, "run_two_group_test", rec.Disposition)
	assert.Equal(t, 2, rec.Features)
	assert.Equal(t, 1, rec.Tested)
	assert.False(t, rec.Reason.Valid)
	assert.True(t, rec.Fingerprint.Valid)

	back, err := rec.toRun()
	require.NoError(t, err)
	assert.Equal(t, run.ID, back.ID)
	assert.Equal(t, run.Disposition, back.Disposition)
	assert.Equal(t, run.Result.Rows, back.Result.Rows)
	assert.True(t, run.CreatedAt.Time().Equal(back.CreatedAt.Time()))
}

func TestRunRecordAbortWithoutResult(t *testing.T) {
	run := &stats.Run{
		ID:          core.NewRunID(),
		Comparison:  "site__a_vs_b_vs_c",
		Disposition: stats.DispositionAbort,
		Reason:      "number of sample groups is < 2",
		Method:      stats.MethodNone,
	}
	rec, err := newRunRecord(run)
	require.NoError(t, err)
	assert.True(t, rec.Reason.Valid)
	assert.Nil(t, rec.Result)

	back, err := rec.toRun()
	require.NoError(t, err)
	assert.Nil(t, back.Result)
	assert.Equal(t, run.Reason, back.Reason)

	_, err = newRunRecord(&stats.Run{ID: "not-a-uuid"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

var runColumns = []string{"id", "comparison", "disposition", "reason", "method", "min_group_size", "features", "tested", "fingerprint", "runtime_ms", "result", "created_at"}

func newMockRepository(t *testing.T) (*RunRepositoryImpl, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &RunRepositoryImpl{db: sqlx.NewDb(db, "postgres")}, mock
}

func twoGroupRun() *stats.Run {
	table := stats.NewResultTable(stats.MethodMannWhitneyU, []core.GroupLabel{"case", "ctrl"}, []int{6, 7}, 6, []core.FeatureID{"f1", "f2"})
	table.Rows[0].Counts[0], table.Rows[0].Counts[1] = 6, 7
	table.Rows[0].Test = &stats.TestResult{Statistic: 12, PValue: 0.04}
	return &stats.Run{
		ID:           core.NewRunID(),
		Comparison:   "dx__case_vs_ctrl",
		Disposition:  stats.DispositionTwoGroup,
		Method:       stats.MethodMannWhitneyU,
		MinGroupSize: 6,
		Result:       table,
		Fingerprint:  table.Fingerprint(),
		CreatedAt:    core.NewTimestamp(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
}

func TestSaveRunWritesRunAndRows(t *testing.T) {
	repo, mock := newMockRepository(t)
	run := twoGroupRun()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO comparison_runs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comparison_run_rows WHERE run_id = $1")).
		WithArgs(run.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare("INSERT INTO comparison_run_rows")
	prep.ExpectExec().
		WithArgs(run.ID.String(), 0, "f1", sqlmock.AnyArg(), sqlmock.AnyArg(), 12.0, 0.04).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs(run.ID.String(), 1, "f2", sqlmock.AnyArg(), sqlmock.AnyArg(), nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunAbortSkipsRows(t *testing.T) {
	repo, mock := newMockRepository(t)
	run := &stats.Run{
		ID:          core.NewRunID(),
		Comparison:  "site__a",
		Disposition: stats.DispositionAbort,
		Reason:      "number of sample groups is < 2",
		Method:      stats.MethodNone,
		CreatedAt:   core.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO comparison_runs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM comparison_run_rows").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunRollsBackOnInsertError(t *testing.T) {
	repo, mock := newMockRepository(t)
	run := twoGroupRun()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO comparison_runs").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.SaveRun(context.Background(), run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert run "+run.ID.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRunScansRecord(t *testing.T) {
	repo, mock := newMockRepository(t)
	run := twoGroupRun()
	rec, err := newRunRecord(run)
	require.NoError(t, err)

	rows := sqlmock.NewRows(runColumns).AddRow(
		rec.ID.String(), rec.Comparison, rec.Disposition, nil, rec.Method, rec.MinGroupSize,
		rec.Features, rec.Tested, rec.Fingerprint.String, rec.RuntimeMs, rec.Result, rec.CreatedAt,
	)
	mock.ExpectQuery(`(?s)SELECT id, comparison, .+ FROM comparison_runs\s+WHERE id = \$1`).
		WithArgs(run.ID.String()).
		WillReturnRows(rows)

	got, err := repo.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, stats.DispositionTwoGroup, got.Disposition)
	assert.Equal(t, run.Fingerprint, got.Fingerprint)
	require.NotNil(t, got.Result)
	assert.Equal(t, 1, got.Result.TestedCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRunNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := core.NewRunID()

	mock.ExpectQuery("FROM comparison_runs").
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows(runColumns))

	_, err := repo.GetRun(context.Background(), id)
	assert.ErrorIs(t, err, core.ErrRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRunsAppliesLimit(t *testing.T) {
	repo, mock := newMockRepository(t)
	newer, older := core.NewRunID(), core.NewRunID()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(runColumns).
		AddRow(newer.String(), "dx__case_vs_ctrl", "run_two_group_test", nil, "mann_whitney_u", 6, 2, 1, "abc", 3, nil, at.Add(time.Minute)).
		AddRow(older.String(), "site__a", "abort", "number of sample groups is < 2", "none", 6, 0, 0, nil, 0, nil, at)
	mock.ExpectQuery(`(?s)FROM comparison_runs\s+ORDER BY created_at DESC, id DESC\s+LIMIT \$1`).
		WithArgs(2).
		WillReturnRows(rows)

	got, err := repo.ListRuns(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer, got[0].ID)
	assert.Equal(t, 2, got[0].Features)
	assert.Equal(t, 1, got[0].Tested)
	assert.Equal(t, older, got[1].ID)
	assert.Equal(t, stats.DispositionAbort, got[1].Disposition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

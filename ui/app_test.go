package ui

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gokw/adapters/memory"
	"gokw/domain/core"
	"gokw/domain/stats"
	"gokw/internal"
)

func newTestApp(t *testing.T) (*App, *stats.Run) {
	t.Helper()
	repo := memory.NewRunRepository()

	table := stats.NewResultTable(stats.MethodKruskalWallis, []core.GroupLabel{"A", "B", "C"}, []int{3, 3, 3}, 3, []core.FeatureID{"geneX"})
	table.Rows[0].Counts = []int{3, 3, 3}
	for k := range table.Rows[0].Medians {
		table.Rows[0].Medians[k] = core.Float(float64(3*k + 2))
	}
	table.Rows[0].Test = &stats.TestResult{Statistic: 7.2, PValue: 0.0273}

	run := &stats.Run{
		ID:           core.NewRunID(),
		Comparison:   "site__A_vs_B_vs_C",
		Disposition:  stats.DispositionMultiGroup,
		Method:       stats.MethodKruskalWallis,
		MinGroupSize: 3,
		Result:       table,
		CreatedAt:    core.Now(),
	}
	require.NoError(t, repo.SaveRun(context.Background(), run))

	app, err := NewApp(Config{Port: "0"}, repo, internal.NewLoggerTo(io.Discard, internal.LogLevelError))
	require.NoError(t, err)
	return app, run
}

func get(t *testing.T, app *App, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndexListsRuns(t *testing.T) {
	app, run := newTestApp(t)

	rec := get(t, app, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "site__A_vs_B_vs_C")
	assert.Contains(t, rec.Body.String(), "/runs/"+run.ID.String())
}

func TestRunReport(t *testing.T) {
	app, run := newTestApp(t)

	rec := get(t, app, "/runs/"+run.ID.String())
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "geneX")

	rec = get(t, app, "/runs/"+run.ID.String()+"/report.md")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "| geneX |")
}

func TestRunNotFound(t *testing.T) {
	app, _ := newTestApp(t)

	rec := get(t, app, "/runs/"+core.NewRunID().String())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, app, "/runs/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewAppRequiresRepository(t *testing.T) {
	_, err := NewApp(Config{}, nil, nil)
	assert.Error(t, err)
}

func TestRunReportEscapesNames(t *testing.T) {
	app, run := newTestApp(t)
	run.ID = core.NewRunID()
	run.Comparison = "<script>alert(1)</script>"
	run.Reason = "<img src=x onerror=alert(2)>"
	require.NoError(t, app.runs.SaveRun(context.Background(), run))

	rec := get(t, app, "/runs/"+run.ID.String())
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.NotContains(t, body, "<img src=x")
	assert.Contains(t, body, "&lt;img src=x onerror=alert(2)&gt;")
}

package report

import (
	"strings"
	"testing"

	"gokw/domain/core"
	"gokw/domain/stats"

	"github.com/stretchr/testify/assert"
)

func sampleRun() *stats.Run {
	table := stats.NewResultTable(stats.MethodKruskalWallis, []core.GroupLabel{"A", "B", "C"}, []int{6, 7, 8}, 6, []core.FeatureID{"f1", "f2", "f3"})
	for i, p := range []float64{0.5, 0.001, -1} {
		row := &table.Rows[i]
		for k := range row.Counts {
			row.Counts[k] = 6
			row.Medians[k] = core.Float(float64(k + 1))
		}
		if p >= 0 {
			row.Test = &stats.TestResult{Statistic: 9.5, PValue: p}
		}
	}
	return &stats.Run{
		ID:           core.NewRunID(),
		Comparison:   "site__a_vs_b_vs_c",
		Disposition:  stats.DispositionMultiGroup,
		Method:       stats.MethodKruskalWallis,
		MinGroupSize: 6,
		Result:       table,
		Fingerprint:  table.Fingerprint(),
		CreatedAt:    core.Now(),
	}
}

func TestMarkdownOrdersByPValue(t *testing.T) {
	md := string(Markdown(sampleRun(), DefaultTopFeatures))

	assert.Contains(t, md, "# site__a_vs_b_vs_c")
	assert.Contains(t, md, "3 features, 2 tested")
	assert.Contains(t, md, "| A | 6 |")
	assert.Less(t, strings.Index(md, "| f2 |"), strings.Index(md, "| f1 |"))
	assert.NotContains(t, md, "| f3 |")
}

func TestMarkdownTopLimit(t *testing.T) {
	md := string(Markdown(sampleRun(), 1))
	assert.Contains(t, md, "| f2 |")
	assert.NotContains(t, md, "| f1 |")
}

func TestMarkdownAbortedRun(t *testing.T) {
	run := &stats.Run{
		ID:          core.NewRunID(),
		Comparison:  "dx__a_vs_b",
		Disposition: stats.DispositionAbort,
		Reason:      "number of sample groups is < 2",
		Method:      stats.MethodNone,
	}
	md := string(Markdown(run, 0))
	assert.Contains(t, md, `> number of sample groups is \< 2`)
	assert.Contains(t, string(HTML([]byte(md))), "number of sample groups is &lt; 2")
	assert.NotContains(t, md, "## Groups")
}

func TestHTMLRendersTables(t *testing.T) {
	out := string(HTML(Markdown(sampleRun(), 0)))
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "site__a_vs_b_vs_c")
}

func TestHTMLEscapesInputNames(t *testing.T) {
	run := sampleRun()
	run.Comparison = "<script>alert(1)</script>"
	run.Reason = "<img src=x onerror=alert(2)>"
	run.Result.Groups[0] = "[a](javascript:alert(3))"
	run.Result.Rows[1].Feature = "f2|<b>bold</b>"

	out := string(HTML(Markdown(run, 0)))
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<img")
	assert.NotContains(t, out, "<b>")
	assert.NotContains(t, out, `href="javascript:`)
	assert.Contains(t, out, "&lt;img src=x onerror=alert(2)&gt;")
	assert.Contains(t, out, "&lt;b&gt;bold&lt;/b&gt;")
}

func TestHTMLDropsRawHTML(t *testing.T) {
	out := string(HTML([]byte("<img src=x onerror=alert(2)>\n\ntext <span>inline</span>\n")))
	assert.NotContains(t, out, "<img")
	assert.NotContains(t, out, "<span>")
	assert.Contains(t, out, "text")
}

func TestMarkdownNoEligibleRows(t *testing.T) {
	run := sampleRun()
	for i := range run.Result.Rows {
		run.Result.Rows[i].Test = nil
	}
	md := string(Markdown(run, 0))
	assert.Contains(t, md, core.ErrNoEligibleRows.Error()+" (minimum 6)")
}

// Package report renders comparison runs as markdown and HTML
package report

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gokw/domain/core"
	"gokw/domain/stats"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// DefaultTopFeatures is how many tested features the report lists
const DefaultTopFeatures = 25

// Markdown summarizes a run: header facts, then the tested features with the
// smallest p-values
func Markdown(run *stats.Run, top int) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", escape(run.Comparison))
	fmt.Fprintf(&b, "- **Run:** `%s`\n", run.ID)
	fmt.Fprintf(&b, "- **Created:** %s\n", run.CreatedAt)
	fmt.Fprintf(&b, "- **Disposition:** %s\n", run.Disposition)
	fmt.Fprintf(&b, "- **Method:** %s\n", run.Method)
	fmt.Fprintf(&b, "- **Minimum group size:** %d\n", run.MinGroupSize)
	if run.Reason != "" {
		fmt.Fprintf(&b, "\n> %s\n", escape(run.Reason))
	}

	t := run.Result
	if t == nil {
		return b.Bytes()
	}

	fmt.Fprintf(&b, "\n## Groups\n\n| Group | Samples |\n|---|---:|\n")
	for k, g := range t.Groups {
		fmt.Fprintf(&b, "| %s | %d |\n", escape(g.String()), t.GroupSizes[k])
	}

	fmt.Fprintf(&b, "\n## Features\n\n%d features, %d tested", t.Len(), t.TestedCount())
	if !run.Fingerprint.IsEmpty() {
		fmt.Fprintf(&b, ", fingerprint `%s`", run.Fingerprint.Short())
	}
	b.WriteString("\n")

	rows := make([]stats.ResultRow, 0, t.TestedCount())
	for _, r := range t.Rows {
		if r.Tested() {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		fmt.Fprintf(&b, "\n%s (minimum %d).\n", core.ErrNoEligibleRows, t.MinGroupSize)
		return b.Bytes()
	}
	slices.SortStableFunc(rows, func(x, y stats.ResultRow) int {
		return cmp.Compare(x.Test.PValue, y.Test.PValue)
	})
	if top > 0 && len(rows) > top {
		rows = rows[:top]
	}

	b.WriteString("\n| Feature |")
	for _, g := range t.Groups {
		fmt.Fprintf(&b, " Median %s |", escape(g.String()))
	}
	b.WriteString(" Statistic | p-value |\n|---|")
	for range t.Groups {
		b.WriteString("---:|")
	}
	b.WriteString("---:|---:|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s |", escape(r.Feature.String()))
		for k := range t.Groups {
			fmt.Fprintf(&b, " %s |", formatValue(r.Medians[k]))
		}
		fmt.Fprintf(&b, " %s | %s |\n", strconv.FormatFloat(r.Test.Statistic, 'f', 4, 64), strconv.FormatFloat(r.Test.PValue, 'g', 4, 64))
	}
	return b.Bytes()
}

// markdownEscaper neutralizes markdown and HTML syntax in names that come
// from input files and requests
var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"<", "\\<",
	">", "\\>",
	"[", "\\[",
	"]", "\\]",
	"|", "\\|",
	"`", "\\`",
	"*", "\\*",
	"&", "&amp;",
	"\r", " ",
	"\n", " ",
)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func formatValue(v core.NullFloat64) string {
	if v.IsMissing() {
		return "NA"
	}
	return strconv.FormatFloat(v.Float64, 'g', 6, 64)
}

// HTML renders markdown to an HTML fragment. Raw HTML in the input is
// dropped and only safe link protocols are rendered.
func HTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML | html.Safelink})
	return markdown.ToHTML(md, p, renderer)
}

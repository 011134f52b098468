package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"gokw/adapters/excel"
	"gokw/app"
	"gokw/domain/dataset"
	"gokw/domain/stats"
	"gokw/domain/testcov"
	"gokw/internal/config"
	"gokw/internal/container"

	"github.com/spf13/cobra"
)

// inputFlags are shared by every command that reads files
type inputFlags struct {
	delimiter string
	missing   []string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "Field delimiter: tab, comma or a single character (default: DELIMITER, comma for .csv)")
	cmd.Flags().StringSliceVar(&f.missing, "missing", nil, "Tokens read as missing values (default: empty, NA, NaN, nan, NULL)")
}

// reader opens path with the delimiter from the flag, else from the file
// extension for .csv, else from configuration
func (f *inputFlags) reader(cfg *config.Config, path string) (*excel.DataReader, error) {
	rc := excel.DefaultReaderConfig()
	if len(f.missing) > 0 {
		rc.MissingTokens = f.missing
	}
	switch {
	case f.delimiter != "":
		r, err := config.ParseDelimiter(f.delimiter)
		if err != nil {
			return nil, err
		}
		rc.Delimiter = r
	case strings.EqualFold(filepath.Ext(path), ".csv"):
	default:
		rc.Delimiter = cfg.Analysis.DelimiterRune()
	}
	return excel.NewDataReader(path, rc), nil
}

func openContainer(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return container.Open(ctx, cfg)
}

func loadMatrixAndGroups(ctx context.Context, c *container.Container, in *inputFlags, matrixPath, groupsPath string) (*dataset.FeatureMatrix, *dataset.GroupAssignment, error) {
	mr, err := in.reader(c.Config, matrixPath)
	if err != nil {
		return nil, nil, err
	}
	m, err := mr.ReadMatrix(ctx)
	if err != nil {
		return nil, nil, err
	}
	gr, err := in.reader(c.Config, groupsPath)
	if err != nil {
		return nil, nil, err
	}
	g, err := gr.ReadGroups(ctx)
	if err != nil {
		return nil, nil, err
	}
	return m, g, nil
}

func newCheckCmd() *cobra.Command {
	var in inputFlags
	var matrixPath, groupsPath string
	var minGroupSize int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Decide whether a matrix and group file support a rank test",
		Long: `Check the sample sets and group sizes and report the disposition:
run_multi_group_test, run_two_group_test, or abort with the reason.

Example: gokw check --matrix data.tsv --groups groups.tsv --min-group-size 6`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			m, g, err := loadMatrixAndGroups(cmd.Context(), c, &in, matrixPath, groupsPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("min-group-size") {
				minGroupSize = c.Config.Analysis.MinGroupSize
			}

			disposition, err := c.Checker.Check(m, g, minGroupSize)
			fmt.Fprintf(cmd.OutOrStdout(), "disposition: %s\n", disposition)
			printGroupSizes(cmd.OutOrStdout(), g)
			return err
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&matrixPath, "matrix", "", "Feature matrix file (.tsv, .csv, .txt or .xlsx)")
	cmd.Flags().StringVar(&groupsPath, "groups", "", "Sample to group file with a header row")
	cmd.Flags().IntVar(&minGroupSize, "min-group-size", stats.DefaultMinGroupSize, "Minimum samples per group")
	_ = cmd.MarkFlagRequired("matrix")
	_ = cmd.MarkFlagRequired("groups")
	return cmd
}

func newComputeCmd() *cobra.Command {
	var in inputFlags
	var matrixPath, groupsPath, outPath, name string
	var minGroupSize, workers int

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Run the rank test on every feature and write the result table",
		Long: `Check eligibility, then run Kruskal-Wallis (three or more groups) or
Mann-Whitney U (two groups) on every feature meeting the minimum group size.
The result is written as TSV, or as a spreadsheet when --out ends in .xlsx.

Example: gokw compute --matrix data.tsv --groups groups.tsv --out results.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := openContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			m, g, err := loadMatrixAndGroups(ctx, c, &in, matrixPath, groupsPath)
			if err != nil {
				return err
			}
			opts := c.ComputeOptions()
			if cmd.Flags().Changed("min-group-size") {
				opts.MinGroupSize = minGroupSize
			}
			if cmd.Flags().Changed("workers") {
				opts.Workers = workers
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(groupsPath), filepath.Ext(groupsPath))
			}

			run, err := c.Pipeline.RunComparison(ctx, m, testcov.Comparison{Name: name, Groups: g.Groups(), Assignment: g}, opts)
			if err != nil {
				return err
			}
			if run.Result == nil {
				return fmt.Errorf("%s: %s", run.Comparison, run.Reason)
			}
			if err := writeResult(cmd.OutOrStdout(), outPath, run.Result); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "run %s: %s tested %d of %d features\n", run.ID, run.Method, run.Result.TestedCount(), run.Result.Len())
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&matrixPath, "matrix", "", "Feature matrix file (.tsv, .csv, .txt or .xlsx)")
	cmd.Flags().StringVar(&groupsPath, "groups", "", "Sample to group file with a header row")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file (.tsv or .xlsx); stdout when empty")
	cmd.Flags().StringVar(&name, "name", "", "Comparison name recorded with the run (default: groups file name)")
	cmd.Flags().IntVar(&minGroupSize, "min-group-size", stats.DefaultMinGroupSize, "Minimum non-missing samples per group")
	cmd.Flags().IntVar(&workers, "workers", 1, "Rows evaluated concurrently")
	_ = cmd.MarkFlagRequired("matrix")
	_ = cmd.MarkFlagRequired("groups")
	return cmd
}

func newTestcovCmd() *cobra.Command {
	var in inputFlags
	var metadataPath string

	cmd := &cobra.Command{
		Use:   "testcov [test-covariate-file]",
		Short: "Validate a Test-Covariate rule file",
		Long: `Parse a Test-Covariate file (variable, role, values; no header) and list
its rules. With --metadata every variable must be a metadata column.

Example: gokw testcov rules.tsv --metadata samples.tsv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			var columns []string
			if metadataPath != "" {
				mr, err := in.reader(cfg, metadataPath)
				if err != nil {
					return err
				}
				t, err := mr.ReadMetadata(ctx)
				if err != nil {
					return err
				}
				columns = t.Columns()
			}

			tr, err := in.reader(cfg, args[0])
			if err != nil {
				return err
			}
			spec, err := tr.ReadTestCov(ctx, columns)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LINE\tVARIABLE\tROLE\tVALUES")
			for _, r := range spec.Rules {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.Line, r.Variable, r.Role, r.Raw)
			}
			return w.Flush()
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&metadataPath, "metadata", "", "Metadata file whose columns the variables must name")
	return cmd
}

// comparisons filters metadata by the rule file and builds its comparisons
func comparisons(ctx context.Context, c *container.Container, in *inputFlags, testcovPath, metadataPath string, m *dataset.FeatureMatrix) ([]testcov.Comparison, error) {
	mr, err := in.reader(c.Config, metadataPath)
	if err != nil {
		return nil, err
	}
	t, err := mr.ReadMetadata(ctx)
	if err != nil {
		return nil, err
	}
	tr, err := in.reader(c.Config, testcovPath)
	if err != nil {
		return nil, err
	}
	spec, err := tr.ReadTestCov(ctx, t.Columns())
	if err != nil {
		return nil, err
	}
	if err := c.Metadata.UseSpecIDColumn(spec, t); err != nil {
		return nil, err
	}
	if m != nil {
		c.Metadata.CheckSamples(t, m.Samples())
	}
	filtered, err := c.Metadata.Apply(spec, t)
	if err != nil {
		return nil, err
	}
	return c.Metadata.MakeTestGroups(spec, filtered)
}

func newGroupsCmd() *cobra.Command {
	var in inputFlags
	var testcovPath, metadataPath string

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Build the comparison groups a Test-Covariate file defines",
		Long: `Apply the Restrict, Exclude, NumFilter and Unique rules to the metadata,
then list one comparison per Covariate rule with its group sizes.

Example: gokw groups --testcov rules.tsv --metadata samples.tsv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := openContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			comps, err := comparisons(ctx, c, &in, testcovPath, metadataPath, nil)
			if err != nil {
				return err
			}
			for _, comp := range comps {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", comp.Name)
				printGroupSizes(cmd.OutOrStdout(), comp.Assignment)
			}
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&testcovPath, "testcov", "", "Test-Covariate rule file")
	cmd.Flags().StringVar(&metadataPath, "metadata", "", "Sample metadata file")
	_ = cmd.MarkFlagRequired("testcov")
	_ = cmd.MarkFlagRequired("metadata")
	return cmd
}

func newRunCmd() *cobra.Command {
	var in inputFlags
	var matrixPath, testcovPath, metadataPath, outDir, format string
	var minGroupSize, workers int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every comparison of a Test-Covariate file against a matrix",
		Long: `Filter the metadata, build the comparisons, and run the rank test pipeline
for each one. Each tested comparison's result table is written to
<out-dir>/<comparison>.<format>; aborted comparisons are reported with
their reason.

Example: gokw run --matrix data.tsv --testcov rules.tsv --metadata samples.tsv --out-dir results`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if format != "tsv" && format != "xlsx" {
				return fmt.Errorf("--format must be tsv or xlsx, got %q", format)
			}
			c, err := openContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			mr, err := in.reader(c.Config, matrixPath)
			if err != nil {
				return err
			}
			m, err := mr.ReadMatrix(ctx)
			if err != nil {
				return err
			}
			comps, err := comparisons(ctx, c, &in, testcovPath, metadataPath, m)
			if err != nil {
				return err
			}

			opts := c.ComputeOptions()
			if cmd.Flags().Changed("min-group-size") {
				opts.MinGroupSize = minGroupSize
			}
			if cmd.Flags().Changed("workers") {
				opts.Workers = workers
			}
			runs, err := c.Pipeline.Run(ctx, app.ComparisonRequest{Matrix: m, Comparisons: comps, Options: opts})
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COMPARISON\tDISPOSITION\tMETHOD\tTESTED\tOUTPUT")
			for _, run := range runs {
				if run.Result == nil {
					fmt.Fprintf(w, "%s\t%s\t%s\t-\t%s\n", run.Comparison, run.Disposition, run.Method, run.Reason)
					continue
				}
				path := filepath.Join(outDir, run.Comparison+"."+format)
				if err := writeResult(nil, path, run.Result); err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n", run.Comparison, run.Disposition, run.Method, run.Result.TestedCount(), run.Result.Len(), path)
			}
			return w.Flush()
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&matrixPath, "matrix", "", "Feature matrix file (.tsv, .csv, .txt or .xlsx)")
	cmd.Flags().StringVar(&testcovPath, "testcov", "", "Test-Covariate rule file")
	cmd.Flags().StringVar(&metadataPath, "metadata", "", "Sample metadata file")
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "Directory for result tables")
	cmd.Flags().StringVar(&format, "format", "tsv", "Result format: tsv or xlsx")
	cmd.Flags().IntVar(&minGroupSize, "min-group-size", stats.DefaultMinGroupSize, "Minimum non-missing samples per group")
	cmd.Flags().IntVar(&workers, "workers", 1, "Rows evaluated concurrently")
	_ = cmd.MarkFlagRequired("matrix")
	_ = cmd.MarkFlagRequired("testcov")
	_ = cmd.MarkFlagRequired("metadata")
	return cmd
}

// writeResult writes t to path by extension, or as TSV to stdout when path
// is empty
func writeResult(stdout io.Writer, path string, t *stats.ResultTable) error {
	if path == "" {
		return excel.WriteResultTSV(stdout, t)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		err = excel.WriteResultXLSX(f, t)
	} else {
		err = excel.WriteResultTSV(f, t)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func printGroupSizes(w io.Writer, g *dataset.GroupAssignment) {
	sizes := g.Sizes()
	for _, label := range g.Groups() {
		fmt.Fprintf(w, "  %s\t%d\n", label, sizes[label])
	}
}

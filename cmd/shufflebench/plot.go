package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"shufflebench/internal/benchmark"
	"shufflebench/internal/config"
	"shufflebench/internal/report"
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render the per-metric charts of a benchmark log",
	Long: `Groups the benchmark log by a column (tuple size and partition count by default)
and renders one chart per group and metric against the thread count, plus one
combined image per metric. Time charts show the tuple generation baseline of the
source machine; throughput charts can overlay the theoretical maximum from an
extracted write-out lookup table. Charts are written below
<output-dir>/<source>[/<output-prefix>].`,
	Example: `  shufflebench plot --source server --input-file results.csv --output-dir plots
  shufflebench plot --source laptop --run 5f0c... --metric Throughput --locale de`,
	Args: cobra.NoArgs,
	RunE: runPlot,
}

func init() {
	rootCmd.AddCommand(plotCmd)
	addTableFlags(plotCmd)
	plotCmd.Flags().String("source", "", "Machine the log comes from (laptop, server)")
	plotCmd.Flags().String("output-dir", "plots", "Directory for the charts, one subdirectory per source")
	plotCmd.Flags().String("output-prefix", "", "Subdirectory below <output-dir>/<source> for this run")
	plotCmd.Flags().String("grouping-column", "", "Column to group by (default report.grouping_column)")
	plotCmd.Flags().String("theoretical", "", "Write-out lookup table for the throughput overlay")
	plotCmd.Flags().String("sync-mode", "", "Write-out mode of the overlay (default report.sync_mode)")
	plotCmd.Flags().String("locale", "", "Locale for point labels (default report.locale)")
	plotCmd.Flags().String("format", "", "Image format (default report.format)")
	plotCmd.Flags().StringSlice("metric", nil, "Metrics to render (default all)")
	plotCmd.Flags().Float64("total-tuples", 0, "Fixed tuple count for throughput (default report.total_tuples)")
	plotCmd.Flags().Duration("window", 0, "Measurement window of the write-out table (default report.window)")
	_ = plotCmd.MarkFlagRequired("source")
}

func runPlot(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("source")
	if !knownSource(source) {
		return errors.Newf("unknown source %q, expected one of %v", source, config.Sources)
	}
	selected, err := selectMetrics(cmd)
	if err != nil {
		return err
	}
	table, err := loadTable(cmd)
	if err != nil {
		return err
	}

	column := stringSetting(cmd, "grouping-column", "report.grouping_column")
	groups, err := report.GroupBy(table.Records, column)
	if err != nil {
		return err
	}
	formatter, err := report.NewFormatter(stringSetting(cmd, "locale", "report.locale"))
	if err != nil {
		return err
	}
	sync, err := benchmark.ParseMode(stringSetting(cmd, "sync-mode", "report.sync_mode"))
	if err != nil {
		return err
	}

	outDir, _ := cmd.Flags().GetString("output-dir")
	outDir = filepath.Join(outDir, source)
	if prefix, _ := cmd.Flags().GetString("output-prefix"); prefix != "" {
		outDir = filepath.Join(outDir, prefix)
	}
	r := &report.Renderer{
		OutDir:       outDir,
		Format:       stringSetting(cmd, "format", "report.format"),
		Formatter:    formatter,
		TotalTuples:  totalTuples(cmd),
		Synchronised: sync,
		Window:       durationSetting(cmd, "window", "report.window"),
		Observer:     pipelineMetrics,
		Benchmarks:   table.Benchmarks(),
	}

	baselines := config.Baselines(source)
	if len(baselines) == 0 {
		return errors.Newf("no tuple generation baseline for source %q", source)
	}
	r.Baseline = func(size float64) (float64, bool) {
		v, ok := baselines[size]
		return v, ok
	}
	lookup, err := loadLookup(cmd, source)
	if err != nil {
		return err
	}
	r.Lookup = lookup

	out := cmd.OutOrStdout()
	for _, m := range selected {
		art, err := r.Render(groups, m)
		if errors.Is(err, report.ErrEmptyGroup) {
			slog.Warn("Nothing to plot", "metric", m.Name)
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "metric %s", m.Name)
		}
		fmt.Fprintf(out, "%s: %s (%d panels", m.Name, art.Composite, len(art.Panels))
		if len(art.Skipped) > 0 {
			fmt.Fprintf(out, ", skipped %s", strings.Join(art.Skipped, ", "))
		}
		fmt.Fprintln(out, ")")
	}
	return nil
}

func selectMetrics(cmd *cobra.Command) ([]report.Metric, error) {
	names, _ := cmd.Flags().GetStringSlice("metric")
	if len(names) == 0 {
		return report.DefaultMetrics(), nil
	}
	var out []report.Metric
	for _, n := range names {
		m, ok := report.FindMetric(n)
		if !ok {
			var known []string
			for _, d := range report.DefaultMetrics() {
				known = append(known, d.Name)
			}
			return nil, errors.Newf("unknown metric %q, expected one of %s", n, strings.Join(known, ", "))
		}
		out = append(out, m)
	}
	return out, nil
}

// loadLookup reads the theoretical maximum table given by --theoretical. If
// the flag is not set, the table extracted for source next to the input log
// is used when it exists.
func loadLookup(cmd *cobra.Command, source string) (*benchmark.Lookup, error) {
	path, _ := cmd.Flags().GetString("theoretical")
	if path == "" {
		input, _ := cmd.Flags().GetString("input-file")
		if input == "" {
			return nil, nil
		}
		path = benchmark.LookupPath(filepath.Dir(input), source)
		if _, err := os.Stat(path); err != nil {
			return nil, nil
		}
	}
	rows, err := benchmark.LoadWriteOuts(path)
	if err != nil {
		return nil, err
	}
	slog.Info("Using theoretical maximum", "path", path, "rows", len(rows))
	return benchmark.NewLookup(rows), nil
}

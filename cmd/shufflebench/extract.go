package main

import (
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"shufflebench/internal/benchmark"
	"shufflebench/internal/config"
	"shufflebench/internal/ui"
)

var extractCmd = &cobra.Command{
	Use:   "extract <write-out log>",
	Short: "Extract the theoretical maximum lookup table from a write-out log",
	Long: `Parses "Benchmarking (...) using N Partitions and T Thread(s): written XB tuples: M Mio"
lines, converts the million counts to absolute tuple counts and stores the rows
as <output-dir>/<source>-theoretical-slotted-page.json for the plot command.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().String("source", "", "Machine the log comes from (laptop, server)")
	extractCmd.Flags().String("output-dir", ".", "Directory for the lookup table")
	_ = extractCmd.MarkFlagRequired("source")
}

func runExtract(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("source")
	if !knownSource(source) {
		return errors.Newf("unknown source %q, expected one of %v", source, config.Sources)
	}
	rows, err := benchmark.LoadWriteOut(args[0])
	if err != nil {
		return err
	}
	pipelineMetrics.ObserveWriteOuts(rows)
	if len(rows) == 0 {
		slog.Warn("No write-out measurements found", "input", args[0])
	}

	dir, _ := cmd.Flags().GetString("output-dir")
	path := benchmark.LookupPath(dir, source)
	if err := benchmark.SaveWriteOuts(path, rows); err != nil {
		return err
	}
	slog.Info("Saved lookup table", "path", path, "rows", len(rows))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.WriteOutTable(rows))
	fmt.Fprintf(out, "Saved %d rows to %s\n", len(rows), path)
	return nil
}

func knownSource(s string) bool {
	for _, known := range config.Sources {
		if s == known {
			return true
		}
	}
	return false
}

package main

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"shufflebench/internal/benchmark"
	"shufflebench/internal/db"
)

// addTableFlags registers the flags selecting a benchmark table: a log file
// or an archived run.
func addTableFlags(cmd *cobra.Command) {
	cmd.Flags().String("input-file", "", "Delimited benchmark log")
	cmd.Flags().String("run", "", "Archived run ID to read instead of --input-file")
	cmd.Flags().Bool("strict", false, "Fail when any row could not be parsed")
	addStoreFlags(cmd)
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("db", "", "Archive location (default archive.db)")
	cmd.Flags().String("db-type", "", "Archive backend, sqlite or postgres (default archive.type)")
}

// newStoreFunc can be replaced in tests.
var newStoreFunc = db.NewStore

func openStore(cmd *cobra.Command) (db.Store, error) {
	return newStoreFunc(db.StoreConfig{
		Type:             stringSetting(cmd, "db-type", "archive.type"),
		ConnectionString: stringSetting(cmd, "db", "archive.db"),
	})
}

// loadTable reads the table selected by the table flags, reports parse
// issues and fails on them with --strict.
func loadTable(cmd *cobra.Command) (*benchmark.Table, error) {
	input, _ := cmd.Flags().GetString("input-file")
	runID, _ := cmd.Flags().GetString("run")

	var table *benchmark.Table
	switch {
	case input != "" && runID != "":
		return nil, errors.New("--input-file and --run are mutually exclusive")
	case input != "":
		t, err := benchmark.LoadLog(input)
		if err != nil {
			return nil, err
		}
		table = t
	case runID != "":
		store, err := openStore(cmd)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		records, err := store.LoadRecords(runID)
		if err != nil {
			return nil, err
		}
		issues, err := store.LoadIssues(runID)
		if err != nil {
			return nil, err
		}
		table = &benchmark.Table{Records: records, Issues: issues}
		input = "run " + runID
	default:
		return nil, errors.New("one of --input-file or --run is required")
	}

	pipelineMetrics.ObserveTable(table)
	slog.Info("Parsed benchmark log", "input", input, "records", len(table.Records), "benchmarks", len(table.Benchmarks()))
	if n := table.InvalidRows(); n > 0 {
		slog.Warn("Rows with parse issues", "input", input, "rows", n, "issues", len(table.Issues))
		for _, is := range table.Issues {
			slog.Debug("Parse issue", "line", is.Line, "column", is.Column, "raw", is.Raw, "reason", is.Reason)
		}
		if strict, _ := cmd.Flags().GetBool("strict"); strict {
			return nil, errors.Newf("%s: %d rows with parse issues", input, n)
		}
	}
	if len(table.Records) == 0 {
		return nil, errors.Wrapf(benchmark.ErrNoRecords, "%s", input)
	}
	return table, nil
}

// totalTuples is the fixed tuple count for throughput, zero meaning each
// row's own Tuples column.
func totalTuples(cmd *cobra.Command) float64 {
	return float64Setting(cmd, "total-tuples", "report.total_tuples")
}

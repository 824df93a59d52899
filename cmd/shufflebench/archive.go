package main

import (
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"shufflebench/internal/benchmark"
	"shufflebench/internal/config"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Store a parsed benchmark log in the run archive",
	Long: `Parses a benchmark log and stores every record, together with the rows that
could not be parsed, as a new run in the archive. A write-out log can be
attached to the same run with --writeout. Other commands read an archived run
with --run <id>.`,
	Args: cobra.NoArgs,
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.Flags().String("source", "", "Machine the log comes from (laptop, server)")
	archiveCmd.Flags().String("input-file", "", "Delimited benchmark log")
	archiveCmd.Flags().String("writeout", "", "Write-out log to archive with the run")
	archiveCmd.Flags().Bool("strict", false, "Fail when any row could not be parsed")
	addStoreFlags(archiveCmd)
	_ = archiveCmd.MarkFlagRequired("source")
	_ = archiveCmd.MarkFlagRequired("input-file")
}

func runArchive(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("source")
	if !knownSource(source) {
		return errors.Newf("unknown source %q, expected one of %v", source, config.Sources)
	}
	table, err := loadTable(cmd)
	if err != nil {
		return err
	}

	var writeOuts []benchmark.WriteOut
	if path, _ := cmd.Flags().GetString("writeout"); path != "" {
		if writeOuts, err = benchmark.LoadWriteOut(path); err != nil {
			return err
		}
		pipelineMetrics.ObserveWriteOuts(writeOuts)
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	input, _ := cmd.Flags().GetString("input-file")
	id, err := store.SaveRun(source, input, table)
	if err != nil {
		return err
	}
	if len(writeOuts) > 0 {
		if err := store.SaveWriteOuts(id, writeOuts); err != nil {
			return err
		}
	}
	slog.Info("Archived run", "id", id, "records", len(table.Records), "issues", len(table.Issues), "writeouts", len(writeOuts))
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shufflebench/internal/benchmark"
	"shufflebench/internal/report"
	"shufflebench/internal/ui"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the best throughput per group and benchmark",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	addTableFlags(summaryCmd)
	summaryCmd.Flags().String("reference", "", "Benchmark the speedup is relative to (default report.reference)")
	summaryCmd.Flags().String("locale", "", "Locale for numbers (default report.locale)")
	summaryCmd.Flags().Float64("total-tuples", 0, "Fixed tuple count for throughput (default report.total_tuples)")
}

func runSummary(cmd *cobra.Command, args []string) error {
	table, err := loadTable(cmd)
	if err != nil {
		return err
	}
	formatter, err := report.NewFormatter(stringSetting(cmd, "locale", "report.locale"))
	if err != nil {
		return err
	}
	reference := stringSetting(cmd, "reference", "report.reference")

	summaries := benchmark.Summarize(table.Records, reference, totalTuples(cmd))
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Title(fmt.Sprintf("Best throughput (speedup vs. %s)", reference)))
	fmt.Fprintln(out, ui.SummaryTable(summaries, formatter))
	if n := table.InvalidRows(); n > 0 {
		fmt.Fprintln(out, ui.Warn(fmt.Sprintf("%d rows with parse issues were skipped or partially read", n)))
	}
	return nil
}

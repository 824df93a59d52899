package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"shufflebench/internal/report"
)

var partitionsCmd = &cobra.Command{
	Use:   "partitions",
	Short: "Plot time against the partition count for one benchmark",
	Args:  cobra.NoArgs,
	RunE:  runPartitions,
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Plot a throughput comparison of several systems from a YAML dataset",
	Example: `  shufflebench compare --input flink.yaml --output plots/flink.svg

flink.yaml:
  categories: ["4 bytes", "16 bytes", "100 bytes"]
  tuples: [672000000, 336000000, 74800000]
  systems:
    - name: Apache Flink
      seconds: [76, 39.2, 14.5]`,
	Args: cobra.NoArgs,
	RunE: runCompare,
}

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Plot peak heap usage per implementation from a YAML dataset",
	Args:  cobra.NoArgs,
	RunE:  runMemory,
}

func init() {
	rootCmd.AddCommand(partitionsCmd, compareCmd, memoryCmd)

	addTableFlags(partitionsCmd)
	partitionsCmd.Flags().String("benchmark", "", "Benchmark to plot (default report.partition_benchmark)")
	partitionsCmd.Flags().String("output-dir", "plots", "Directory for the chart")
	partitionsCmd.Flags().String("format", "", "Image format (default report.format)")
	partitionsCmd.Flags().String("locale", "", "Locale for point labels (default report.locale)")

	for _, c := range []*cobra.Command{compareCmd, memoryCmd} {
		c.Flags().String("input", "", "YAML dataset")
		c.Flags().String("output", "", "Image file, the extension selects the format")
		c.Flags().String("locale", "", "Locale for bar labels (default report.locale)")
		_ = c.MarkFlagRequired("input")
		_ = c.MarkFlagRequired("output")
	}
}

func runPartitions(cmd *cobra.Command, args []string) error {
	table, err := loadTable(cmd)
	if err != nil {
		return err
	}
	f, err := report.NewFormatter(stringSetting(cmd, "locale", "report.locale"))
	if err != nil {
		return err
	}
	name := stringSetting(cmd, "benchmark", "report.partition_benchmark")
	dir, _ := cmd.Flags().GetString("output-dir")
	path := filepath.Join(dir, "Partitions_"+name+"."+stringSetting(cmd, "format", "report.format"))

	if err := report.RenderPartitions(table.Records, name, f, path); err != nil {
		return err
	}
	pipelineMetrics.ObserveChart("Partitions")
	fmt.Fprintf(cmd.OutOrStdout(), "Partitions: %s\n", path)
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	c, err := report.LoadComparison(input)
	if err != nil {
		return err
	}
	f, err := report.NewFormatter(stringSetting(cmd, "locale", "report.locale"))
	if err != nil {
		return err
	}
	if err := report.RenderComparison(c, f, output); err != nil {
		return err
	}
	pipelineMetrics.ObserveChart("Comparison")
	fmt.Fprintf(cmd.OutOrStdout(), "Comparison: %s\n", output)
	return nil
}

func runMemory(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	m, err := report.LoadMemory(input)
	if err != nil {
		return err
	}
	f, err := report.NewFormatter(stringSetting(cmd, "locale", "report.locale"))
	if err != nil {
		return err
	}
	if err := report.RenderMemory(m, f, output); err != nil {
		return err
	}
	pipelineMetrics.ObserveChart("Memory")
	fmt.Fprintf(cmd.OutOrStdout(), "Memory: %s\n", output)
	return nil
}

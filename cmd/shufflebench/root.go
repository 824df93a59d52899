package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"shufflebench/internal/config"
	"shufflebench/internal/metrics"
	"shufflebench/internal/telemetry"
)

var exit = os.Exit
var cfgFile string

// Per-invocation state, set up before every command runs.
var (
	metricsRegistry *prometheus.Registry
	pipelineMetrics *metrics.Metrics
	closeLog        func() error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shufflebench",
	Short: "Input relations and reports for the shuffle benchmarks",
	Long: `shufflebench generates the binary tuple relations the shuffle benchmarks
consume and turns the benchmark logs into charts, lookup tables and summaries.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		exit(1)
	}
}

func init() {
	cobra.OnFinalize(finish)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./shufflebench.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics to this textfile when done")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("metrics_file", rootCmd.PersistentFlags().Lookup("metrics-file"))
}

// setup loads and validates the configuration, installs the logger and a
// fresh metrics registry.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.Load(cfgFile); err != nil {
		return err
	}
	if err := config.ValidateConfig(); err != nil {
		return err
	}
	closeFn, err := telemetry.InitLogger(viper.GetBool("verbose"), viper.GetString("log_file"))
	if err != nil {
		return err
	}
	closeLog = closeFn

	metricsRegistry = prometheus.NewRegistry()
	pipelineMetrics = metrics.NewMetrics(metricsRegistry)
	return nil
}

// finish runs after every command, failed or not.
func finish() {
	if path := viper.GetString("metrics_file"); path != "" && metricsRegistry != nil {
		if err := telemetry.WriteMetrics(path, metricsRegistry); err != nil {
			telemetry.LogError("Failed to write metrics", err, "path", path)
		}
	}
	if closeLog != nil {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: closing log file: %v\n", err)
		}
		closeLog = nil
	}
}

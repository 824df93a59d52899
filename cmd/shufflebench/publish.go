package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"shufflebench/internal/publish"
)

// uploader is a publish.Uploader holding a client that must be closed.
type uploader interface {
	publish.Uploader
	Close() error
}

// newUploaderFunc can be replaced in tests.
var newUploaderFunc = func(ctx context.Context, bucket string) (uploader, error) {
	return publish.NewGCSUploader(ctx, bucket)
}

var publishCmd = &cobra.Command{
	Use:   "publish <dir>",
	Short: "Upload rendered charts and lookup tables to a GCS bucket",
	Long: `Uploads every file below <dir> to the bucket named by --target, keeping the
relative paths below the target prefix. Credentials come from the standard
Google application default credentials.`,
	Example: "  shufflebench publish plots --target gs://bench-results/2026-10-19",
	Args:    cobra.ExactArgs(1),
	RunE:    runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().String("target", "", "Destination gs://bucket[/prefix] (default publish.target)")
	publishCmd.Flags().Int("retries", 0, "Retries per file (default publish.retries)")
	publishCmd.Flags().Duration("retry-delay", 0, "Delay between retries (default publish.retry_delay)")
}

func runPublish(cmd *cobra.Command, args []string) error {
	dir := args[0]
	fi, err := os.Stat(dir)
	if err != nil {
		return errors.Wrapf(err, "publish source")
	}
	if !fi.IsDir() {
		return errors.Newf("%s is not a directory", dir)
	}
	target, err := publish.ParseTarget(stringSetting(cmd, "target", "publish.target"))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	u, err := newUploaderFunc(ctx, target.Bucket)
	if err != nil {
		return err
	}
	defer func() {
		if err := u.Close(); err != nil {
			slog.Warn("Closing storage client", "error", err)
		}
	}()

	opts := publish.Options{
		MaxRetries: intSetting(cmd, "retries", "publish.retries"),
		RetryDelay: durationSetting(cmd, "retry-delay", "publish.retry_delay"),
	}
	stats, err := publish.PublishDir(ctx, u, dir, target.Prefix, opts)
	fmt.Fprintf(cmd.OutOrStdout(), "Published %d files (%s) to %s in %s\n",
		stats.Files, humanize.Bytes(uint64(stats.Bytes)), target, stats.Duration.Round(time.Millisecond))
	if stats.Failed > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d files failed\n", stats.Failed)
	}
	return err
}

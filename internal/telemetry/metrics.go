package telemetry

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// WriteMetrics writes everything g gathers to path in the Prometheus text
// format, for pickup by a node exporter textfile collector.
func WriteMetrics(path string, g prometheus.Gatherer) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return errors.Wrapf(err, "writing metrics to %s", path)
	}
	return nil
}

package ui

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shufflebench/internal/benchmark"
	"shufflebench/internal/db"
	"shufflebench/internal/relation"
	"shufflebench/internal/report"
)

func TestTable(t *testing.T) {
	out := Table([]string{"A", "B"}, [][]string{{"1", "2"}, {"3", "4"}})
	for _, s := range []string{"A", "B", "1", "4", "╭", "╯"} {
		assert.Contains(t, out, s)
	}
}

func TestResultsTable(t *testing.T) {
	out := ResultsTable([]relation.Result{
		{Spec: relation.Spec{Name: "relation_int_small.bin", Type: relation.Int, Count: 5000}, Bytes: 40000, Duration: 3 * time.Millisecond},
		{Spec: relation.Spec{Name: "broken.bin", Type: relation.Double, Count: 10}, Err: errors.New("disk full")},
	})
	assert.Contains(t, out, "relation_int_small.bin")
	assert.Contains(t, out, "5,000")
	assert.Contains(t, out, "39 KiB")
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "disk full")
}

func TestWriteOutTable(t *testing.T) {
	out := WriteOutTable([]benchmark.WriteOut{{Synchronised: true, Partitions: 32, Threads: 20, TupleBytes: 4, WrittenTuples: 672_000_000}})
	assert.Contains(t, out, "synchronised")
	assert.Contains(t, out, "4B")
	assert.Contains(t, out, "672,000,000")
}

func TestSummaryTable(t *testing.T) {
	f, err := report.NewFormatter("de")
	require.NoError(t, err)
	out := SummaryTable([]benchmark.Summary{
		{Group: "Tuple0016-0032", Benchmark: "Radix", Threads: 2, TimeSec: 1.5, Throughput: 224_000_000, Speedup: 1.25},
		{Group: "Tuple0016-0032", Benchmark: "Hybrid", Threads: 1, TimeSec: 3},
	}, f)
	assert.Contains(t, out, "1,50")
	assert.Contains(t, out, "2,2×10^8")
	assert.Contains(t, out, "1,25x")
	assert.Contains(t, out, "-")
}

func TestRunsTable(t *testing.T) {
	out := RunsTable([]db.Run{{ID: "run-1", Source: "laptop", Input: "a.csv", CreatedAt: time.Now().Add(-2 * time.Hour), Records: 3, Issues: 2}})
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "laptop")
	assert.Contains(t, out, "2 hours ago")
}

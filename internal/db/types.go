package db

import (
	"time"

	"github.com/cockroachdb/errors"

	"shufflebench/internal/benchmark"
)

var ErrRunNotFound = errors.New("run not found")

// Run is one archived parse of a benchmark log.
type Run struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Input     string    `json:"input"`
	CreatedAt time.Time `json:"created_at"`
	Records   int       `json:"records"`
	Issues    int       `json:"issues"`
	WriteOuts int       `json:"writeouts"`
}

// Store archives parsed benchmark runs.
type Store interface {
	Close() error
	// SaveRun stores a parsed table and returns the new run ID.
	SaveRun(source, input string, table *benchmark.Table) (string, error)
	SaveWriteOuts(runID string, rows []benchmark.WriteOut) error
	LoadRecords(runID string) ([]benchmark.Record, error)
	LoadIssues(runID string) ([]benchmark.Issue, error)
	LoadWriteOuts(runID string) ([]benchmark.WriteOut, error)
	// ListRuns returns runs newest first; limit <= 0 returns all.
	ListRuns(limit int) ([]Run, error)
	DeleteRun(runID string) error
}

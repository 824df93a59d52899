package db

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shufflebench/internal/benchmark"
)

const archiveLog = `A-Benchmark shuffle
SmbLockFreeBatched,16,336000000,5.0 GB,32,1,4.0,1,2,3000000,4000000,5000000,6000000,7,8,1.1,1,3.0
Radix,16,336000000,5.0 GB,32,2,abc,1,2,3200000,4200000,5200000,6200000,7,8,1.3,2,3.0
Short,4
`

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func parseArchiveLog(t *testing.T) *benchmark.Table {
	t.Helper()
	table, err := benchmark.ParseLog(strings.NewReader(archiveLog))
	require.NoError(t, err)
	return table
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	table := parseArchiveLog(t)

	id, err := store.SaveRun("laptop", "results.csv", table)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	records, err := store.LoadRecords(id)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, want := range table.Records {
		got := records[i]
		assert.Equal(t, want.Line, got.Line)
		assert.Equal(t, want.Schema, got.Schema)
		assert.Equal(t, want.Benchmark, got.Benchmark)
		assert.Equal(t, want.GroupKey, got.GroupKey)
		for c := benchmark.ColTupleSize; int(c) < benchmark.NumColumns; c++ {
			if math.IsNaN(want.Value(c)) {
				assert.True(t, math.IsNaN(got.Value(c)), "line %d column %s", want.Line, c)
				continue
			}
			assert.Equal(t, want.Value(c), got.Value(c), "line %d column %s", want.Line, c)
		}
	}
	assert.Equal(t, "Tuple0016-0032", records[0].GroupKey)
	assert.Empty(t, records[2].GroupKey)

	issues, err := store.LoadIssues(id)
	require.NoError(t, err)
	assert.Equal(t, table.Issues, issues)
}

func TestSQLiteStore_WriteOuts(t *testing.T) {
	store := newTestStore(t)
	id, err := store.SaveRun("server", "results.csv", parseArchiveLog(t))
	require.NoError(t, err)

	rows := []benchmark.WriteOut{
		{Synchronised: true, Partitions: 32, Threads: 2, TupleBytes: 16, WrittenTuples: 380_000_000},
		{Synchronised: false, Partitions: 32, Threads: 1, TupleBytes: 16, WrittenTuples: 200_000_000},
	}
	require.NoError(t, store.SaveWriteOuts(id, rows))

	got, err := store.LoadWriteOuts(id)
	require.NoError(t, err)
	assert.Equal(t, []benchmark.WriteOut{rows[1], rows[0]}, got)

	err = store.SaveWriteOuts("missing", rows)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestSQLiteStore_ListAndDelete(t *testing.T) {
	store := newTestStore(t)
	table := parseArchiveLog(t)

	first, err := store.SaveRun("laptop", "a.csv", table)
	require.NoError(t, err)
	second, err := store.SaveRun("server", "b.csv", &benchmark.Table{})
	require.NoError(t, err)
	require.NoError(t, store.SaveWriteOuts(second, []benchmark.WriteOut{{Partitions: 1, Threads: 1, TupleBytes: 4, WrittenTuples: 1}}))

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, "server", runs[0].Source)
	assert.Equal(t, 1, runs[0].WriteOuts)
	assert.Equal(t, first, runs[1].ID)
	assert.Equal(t, 3, runs[1].Records)
	assert.Equal(t, 2, runs[1].Issues)
	assert.False(t, runs[1].CreatedAt.IsZero())

	runs, err = store.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	require.NoError(t, store.DeleteRun(first))
	_, err = store.LoadRecords(first)
	assert.True(t, errors.Is(err, ErrRunNotFound))
	assert.True(t, errors.Is(store.DeleteRun(first), ErrRunNotFound))

	runs, err = store.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	id, err := store.SaveRun("laptop", "a.csv", parseArchiveLog(t))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()
	records, err := store.LoadRecords(id)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestDollarBind(t *testing.T) {
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", dollarBind("INSERT INTO t (a, b) VALUES (?, ?)"))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

package benchmark

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func TestParseDataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/parse", func(t *testing.T, d *datadriven.TestData) string {
		if d.Cmd != "parse" {
			d.Fatalf(t, "unknown command %s", d.Cmd)
		}
		table, err := ParseLog(strings.NewReader(d.Input))
		require.NoError(t, err)

		var b strings.Builder
		for _, r := range table.Records {
			fmt.Fprintf(&b, "rec line=%d schema=%s bench=%s key=%s", r.Line, r.Schema, r.Benchmark, r.GroupKey)
			for _, c := range []Column{ColTupleSize, ColTuples, ColGB, ColPartitions, ColThreads, ColTimeSec, ColIPC} {
				fmt.Fprintf(&b, " %s=%s", c, fmtFloat(r.Value(c)))
			}
			b.WriteString("\n")
		}
		for _, is := range table.Issues {
			fmt.Fprintf(&b, "issue line=%d column=%s reason=%s\n", is.Line, is.Column, is.Reason)
		}
		fmt.Fprintf(&b, "invalid rows: %d\n", table.InvalidRows())
		return b.String()
	})
}

func TestWriteOutDataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/writeout", func(t *testing.T, d *datadriven.TestData) string {
		rows, err := ParseWriteOut(strings.NewReader(d.Input))
		require.NoError(t, err)
		var b strings.Builder
		for _, r := range rows {
			fmt.Fprintf(&b, "mode=%s tuple_bytes=%d partitions=%d threads=%d written=%d\n",
				r.Mode(), r.TupleBytes, r.Partitions, r.Threads, r.WrittenTuples)
		}
		return b.String()
	})
}

func TestParseLineExample(t *testing.T) {
	rec, issues := ParseLine(1, "SmbBatched,0016,672000000,64GB,0032,0020,1.37,1,2,3,4,5,6,7,8,9,10,11")
	assert.Empty(t, issues)
	assert.Equal(t, "SmbBatched", rec.Benchmark)
	assert.Equal(t, 16.0, rec.Value(ColTupleSize))
	assert.Equal(t, 32.0, rec.Value(ColPartitions))
	assert.Equal(t, 20.0, rec.Value(ColThreads))
	assert.Equal(t, 1.37, rec.Value(ColTimeSec))
	assert.Equal(t, 64.0, rec.Value(ColGB))
	assert.Equal(t, "Tuple0016-0032", rec.GroupKey)

	key, err := rec.Field(GroupColumn)
	require.NoError(t, err)
	assert.Equal(t, "Tuple0016-0032", key)
}

func TestParseLineWideRow(t *testing.T) {
	fields := make([]string, 21)
	for i := range fields {
		fields[i] = strconv.Itoa(i)
	}
	fields[0] = "Wide"
	rec, issues := ParseLine(7, strings.Join(fields, ","))
	assert.Equal(t, SchemaWide, rec.Schema)
	require.Len(t, issues, 1)
	assert.Equal(t, "trailing fields dropped", issues[0].Reason)
	// Position 6 is dropped, so time_sec comes from field 7.
	assert.Equal(t, 7.0, rec.Value(ColTimeSec))
	assert.Equal(t, 18.0, rec.Value(ColGHz))
}

func TestShortLineKeepsRow(t *testing.T) {
	table, err := ParseLog(strings.NewReader("A,1\n"))
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	r := table.Records[0]
	assert.False(t, r.Valid(ColPartitions))
	assert.False(t, r.Valid(ColTimeSec))
	assert.Equal(t, 1, table.InvalidRows())
}

func TestZeroPad(t *testing.T) {
	tests := map[string]string{
		"16":    "0016",
		"0016":  "0016",
		"4":     "0004",
		"12345": "12345",
		"-4":    "-004",
		"":      "0000",
	}
	for in, want := range tests {
		assert.Equal(t, want, ZeroPad(in, 4), in)
	}
}

func TestGroupKeyOrderMatchesNumericOrder(t *testing.T) {
	type pair struct{ size, parts int }
	pairs := []pair{{100, 8}, {4, 1024}, {16, 32}, {4, 32}, {16, 4}, {100, 64}, {4, 2}}

	byKey := append([]pair(nil), pairs...)
	sort.Slice(byKey, func(i, j int) bool {
		return GroupKey(strconv.Itoa(byKey[i].size), strconv.Itoa(byKey[i].parts)) <
			GroupKey(strconv.Itoa(byKey[j].size), strconv.Itoa(byKey[j].parts))
	})
	byNum := append([]pair(nil), pairs...)
	sort.Slice(byNum, func(i, j int) bool {
		if byNum[i].size != byNum[j].size {
			return byNum[i].size < byNum[j].size
		}
		return byNum[i].parts < byNum[j].parts
	})
	assert.Equal(t, byNum, byKey)
}

func TestParseColumn(t *testing.T) {
	c, err := ParseColumn("LLC_misses")
	require.NoError(t, err)
	assert.Equal(t, ColLLCMisses, c)

	_, err = ParseColumn("nope")
	assert.True(t, errors.Is(err, ErrUnknownColumn))
	assert.Len(t, ColumnNames(), NumColumns)
}

func TestLoadLogMissingFile(t *testing.T) {
	_, err := LoadLog(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestRecordThroughput(t *testing.T) {
	rec, _ := ParseLine(1, "X,4,1000,1GB,8,2,0.5,0,0,0,0,0,0,0,0,0,0,0")
	assert.Equal(t, 2000.0, rec.Throughput(0))
	assert.Equal(t, 1344000000.0, rec.Throughput(672000000))

	rec, _ = ParseLine(1, "X,4,1000,1GB,8,2,oops,0,0,0,0,0,0,0,0,0,0,0")
	assert.True(t, math.IsNaN(rec.Throughput(0)))
}

func TestLoadLogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	content := "A-Benchmark shuffle\nSmb,4,100,1GB,32,1,1,0,0,0,0,0,0,0,0,0,0,0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	table, err := LoadLog(path)
	require.NoError(t, err)
	assert.Len(t, table.Records, 1)
	assert.Equal(t, []string{"Smb"}, table.Benchmarks())
}

func TestParseLogSkipsBlankAndHeaderLines(t *testing.T) {
	input := "\n   \nA-Benchmark shuffle,B-tuple_size\n  A-Benchmark again\nSmb,4,100,1GB,32,1,1,0,0,0,0,0,0,0,0,0,0,0\n\n"
	table, err := ParseLog(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	assert.Equal(t, 5, table.Records[0].Line)
	assert.Empty(t, table.Issues)
}

package benchmark

import (
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Column identifies one column of the canonical benchmark log schema.
type Column int

const (
	ColBenchmark Column = iota
	ColTupleSize
	ColTuples
	ColGB
	ColPartitions
	ColThreads
	ColTimeSec
	ColCycles
	ColKCycles
	ColInstructions
	ColL1Misses
	ColLLCMisses
	ColBranchMisses
	ColTaskClock
	ColScale
	ColIPC
	ColCPUs
	ColGHz
	numColumns
)

// GroupColumn is the name of the derived tuple-size/partition grouping column.
const GroupColumn = "tuple_size-Partitions"

var columnNames = [numColumns]string{
	"Benchmark", "tuple_size", "Tuples", "GB", "Partitions", "Threads", "time_sec",
	"cycles", "kcycles", "instructions", "L1_misses", "LLC_misses", "branch_misses",
	"task_clock", "scale", "IPC", "CPUs", "GHz",
}

// NumColumns is the column count of the canonical schema.
const NumColumns = int(numColumns)

var ErrUnknownColumn = errors.New("unknown column")

func (c Column) String() string {
	if c < 0 || c >= numColumns {
		return "Column(" + strconv.Itoa(int(c)) + ")"
	}
	return columnNames[c]
}

// ColumnNames returns the canonical column names in log order.
func ColumnNames() []string {
	return append([]string(nil), columnNames[:]...)
}

// ParseColumn maps a column name to its Column.
func ParseColumn(name string) (Column, error) {
	for i, n := range columnNames {
		if n == name {
			return Column(i), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownColumn, "%q", name)
}

// SchemaVersion is the log layout detected from a row's field count.
type SchemaVersion int

const (
	// SchemaV1 is the canonical layout.
	SchemaV1 SchemaVersion = iota
	// SchemaV2 carries one extra column at position 6 which is dropped.
	SchemaV2
	// SchemaShort has fewer fields than SchemaV1; missing fields are padded.
	SchemaShort
	// SchemaWide has more fields than SchemaV2; trailing fields are dropped.
	SchemaWide
)

func (v SchemaVersion) String() string {
	switch v {
	case SchemaV1:
		return "v1"
	case SchemaV2:
		return "v2"
	case SchemaShort:
		return "short"
	case SchemaWide:
		return "wide"
	}
	return "unknown"
}

// Record is one row of benchmark output. Numeric cells that could not be
// parsed hold NaN.
type Record struct {
	Line      int
	Schema    SchemaVersion
	Benchmark string
	// TupleSizeField and PartitionsField keep the zero-padded raw text used
	// for the grouping key.
	TupleSizeField  string
	PartitionsField string
	GroupKey        string
	values          [numColumns]float64
}

// NewRecord returns a record with every numeric column missing. tupleSize
// and partitions are the raw key fields; if either is empty the record has
// no GroupKey.
func NewRecord(line int, name, tupleSize, partitions string) Record {
	r := Record{Line: line, Benchmark: name}
	for i := range r.values {
		r.values[i] = math.NaN()
	}
	if tupleSize != "" {
		r.TupleSizeField = ZeroPad(tupleSize, KeyWidth)
	}
	if partitions != "" {
		r.PartitionsField = ZeroPad(partitions, KeyWidth)
	}
	if r.TupleSizeField != "" && r.PartitionsField != "" {
		r.GroupKey = GroupKey(r.TupleSizeField, r.PartitionsField)
	}
	return r
}

// Set stores v in column c. ColBenchmark and out of range columns are
// ignored.
func (r *Record) Set(c Column, v float64) {
	if c <= ColBenchmark || c >= numColumns {
		return
	}
	r.values[c] = v
}

// Value returns the numeric value of c, NaN if missing. ColBenchmark is never
// numeric.
func (r Record) Value(c Column) float64 {
	if c <= ColBenchmark || c >= numColumns {
		return math.NaN()
	}
	return r.values[c]
}

// Valid reports whether column c holds a parsed number.
func (r Record) Valid(c Column) bool {
	return !math.IsNaN(r.Value(c))
}

// Field returns a column's value as text for grouping. Numbers are formatted
// in their shortest form; missing values yield "NaN".
func (r Record) Field(name string) (string, error) {
	switch name {
	case GroupColumn:
		return r.GroupKey, nil
	case columnNames[ColBenchmark]:
		return r.Benchmark, nil
	}
	c, err := ParseColumn(name)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(r.values[c], 'f', -1, 64), nil
}

// Throughput is total tuples divided by elapsed seconds. When total is zero
// the row's own Tuples column is used.
func (r Record) Throughput(total float64) float64 {
	if total == 0 {
		total = r.Value(ColTuples)
	}
	return total / r.Value(ColTimeSec)
}

// Issue records a cell or row that could not be parsed as expected.
type Issue struct {
	Line   int
	Column string
	Raw    string
	Reason string
}

// Table is the ordered result of parsing a benchmark log.
type Table struct {
	Records []Record
	Issues  []Issue
}

// InvalidRows returns the number of distinct rows with at least one issue.
func (t *Table) InvalidRows() int {
	seen := make(map[int]struct{})
	for _, is := range t.Issues {
		seen[is.Line] = struct{}{}
	}
	return len(seen)
}

// Benchmarks returns the distinct benchmark names in first-seen order.
func (t *Table) Benchmarks() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, r := range t.Records {
		if _, ok := seen[r.Benchmark]; ok {
			continue
		}
		seen[r.Benchmark] = struct{}{}
		names = append(names, r.Benchmark)
	}
	return names
}

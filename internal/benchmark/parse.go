package benchmark

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// HeaderSentinel starts the header line written before each benchmark.
	HeaderSentinel = "A-Benchmark"
	// Delimiter separates fields in the delimited log.
	Delimiter = ","
	// KeyWidth is the zero-padded width of tuple size and partition fields.
	KeyWidth = 4
	// v2ExtraColumn is the position of the extra field in SchemaV2 rows.
	v2ExtraColumn = 6
)

var ErrNoRecords = errors.New("no benchmark records")

// volumeSuffixes are stripped from the GB column before numeric coercion.
var volumeSuffixes = []string{"GiB", "GB"}

// LoadLog parses the delimited benchmark log at path.
func LoadLog(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	t, err := ParseLog(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return t, nil
}

// maxLineBytes bounds a single log line for both log parsers.
const maxLineBytes = 1024 * 1024

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return scanner
}

// ParseLog reads a delimited benchmark log. Blank lines and header lines are
// skipped. Malformed rows are kept with missing values and reported in
// Table.Issues; only read errors are returned.
func ParseLog(r io.Reader) (*Table, error) {
	t := &Table{}
	scanner := newScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, HeaderSentinel) {
			continue
		}
		rec, issues := ParseLine(line, text)
		t.Records = append(t.Records, rec)
		t.Issues = append(t.Issues, issues...)
	}
	if err := scanner.Err(); err != nil {
		return t, errors.Wrap(err, "reading benchmark log")
	}
	return t, nil
}

// ParseLine converts one delimited row into a Record.
func ParseLine(line int, text string) (Record, []Issue) {
	fields := strings.Split(text, Delimiter)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	var name, tupleSize, partitions string
	fields, schema := reshape(fields)
	if len(fields) > 0 {
		name = fields[ColBenchmark]
	}
	if len(fields) > int(ColTupleSize) {
		tupleSize = fields[ColTupleSize]
	}
	if len(fields) > int(ColPartitions) {
		partitions = fields[ColPartitions]
	}
	rec := NewRecord(line, name, tupleSize, partitions)
	rec.Schema = schema

	var issues []Issue
	switch rec.Schema {
	case SchemaShort:
		issues = append(issues, Issue{Line: line, Raw: text,
			Reason: "expected " + strconv.Itoa(NumColumns) + " fields, got " + strconv.Itoa(len(fields))})
	case SchemaWide:
		issues = append(issues, Issue{Line: line, Raw: text,
			Reason: "trailing fields dropped"})
	}

	for c := ColTupleSize; c < numColumns && int(c) < len(fields); c++ {
		raw := fields[c]
		if c == ColGB {
			raw = stripVolumeUnit(raw)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			issues = append(issues, Issue{Line: line, Column: c.String(), Raw: fields[c], Reason: "not a number"})
			continue
		}
		rec.values[c] = v
	}
	return rec, issues
}

// reshape maps a row onto the canonical column layout based on its field
// count.
func reshape(fields []string) ([]string, SchemaVersion) {
	switch n := len(fields); {
	case n == NumColumns:
		return fields, SchemaV1
	case n < NumColumns:
		return fields, SchemaShort
	case n == NumColumns+1:
		return dropColumn(fields, v2ExtraColumn), SchemaV2
	default:
		return dropColumn(fields, v2ExtraColumn)[:NumColumns], SchemaWide
	}
}

func dropColumn(fields []string, i int) []string {
	out := make([]string, 0, len(fields)-1)
	out = append(out, fields[:i]...)
	return append(out, fields[i+1:]...)
}

func stripVolumeUnit(s string) string {
	for _, suffix := range volumeSuffixes {
		if strings.HasSuffix(s, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(s, suffix))
		}
	}
	return s
}

// ZeroPad left-pads s with zeros to width, keeping a leading sign in front.
func ZeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	sign := ""
	if s != "" && (s[0] == '-' || s[0] == '+') {
		sign, s = s[:1], s[1:]
	}
	return sign + strings.Repeat("0", width-len(sign)-len(s)) + s
}

// GroupKey builds the composite tuple-size/partition key, e.g. "Tuple0016-0032".
// Both parts are zero padded so that lexical and numeric order agree.
func GroupKey(tupleSize, partitions string) string {
	return "Tuple" + ZeroPad(tupleSize, KeyWidth) + "-" + ZeroPad(partitions, KeyWidth)
}

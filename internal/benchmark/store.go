package benchmark

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
)

type writeOutJSON struct {
	Synchronised  int   `json:"synchronised"`
	Partitions    int   `json:"partitions"`
	Threads       int   `json:"threads"`
	TupleBytes    int   `json:"tuple_bytes"`
	WrittenTuples int64 `json:"written_tuples"`
}

// MarshalJSON encodes the mode as 0 (not-synchronised) or 1 (synchronised).
func (w WriteOut) MarshalJSON() ([]byte, error) {
	j := writeOutJSON{Partitions: w.Partitions, Threads: w.Threads, TupleBytes: w.TupleBytes, WrittenTuples: w.WrittenTuples}
	if w.Synchronised {
		j.Synchronised = 1
	}
	return json.Marshal(j)
}

func (w *WriteOut) UnmarshalJSON(data []byte) error {
	var j writeOutJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*w = WriteOut{
		Synchronised:  j.Synchronised != 0,
		Partitions:    j.Partitions,
		Threads:       j.Threads,
		TupleBytes:    j.TupleBytes,
		WrittenTuples: j.WrittenTuples,
	}
	return nil
}

// LookupPath is where the theoretical maximum table for a source is stored.
func LookupPath(dir, source string) string {
	return filepath.Join(dir, source+"-theoretical-slotted-page.json")
}

// SaveWriteOuts writes rows as a JSON array of records.
func SaveWriteOuts(path string, rows []WriteOut) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}
	if rows == nil {
		rows = []WriteOut{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal write-out rows")
	}
	return os.WriteFile(path, data, 0644)
}

// LoadWriteOuts reads a file written by SaveWriteOuts.
func LoadWriteOuts(path string) ([]WriteOut, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var rows []WriteOut
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal %s", path)
	}
	SortWriteOuts(rows)
	return rows, nil
}

// Lookup answers theoretical maximum throughput queries over write-out rows.
type Lookup struct {
	rows []WriteOut
}

func NewLookup(rows []WriteOut) *Lookup {
	return &Lookup{rows: rows}
}

// Point is one thread count with its throughput in tuples per second.
type Point struct {
	Threads    int
	Throughput float64
}

// Series returns the theoretical maximum throughput per thread count for one
// mode, tuple width and partition count. window is the measurement interval
// the written tuple counts refer to.
func (l *Lookup) Series(synchronised bool, tupleBytes, partitions int, window time.Duration) []Point {
	if window <= 0 {
		return nil
	}
	var pts []Point
	for _, r := range l.rows {
		if r.Synchronised != synchronised || r.TupleBytes != tupleBytes || r.Partitions != partitions {
			continue
		}
		pts = append(pts, Point{Threads: r.Threads, Throughput: float64(r.WrittenTuples) / window.Seconds()})
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].Threads < pts[j].Threads })
	return pts
}

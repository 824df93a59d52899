package benchmark

import (
	"io"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
)

const (
	// ModeSynchronised and ModeNotSynchronised are the two write-out modes.
	ModeSynchronised    = "synchronised"
	ModeNotSynchronised = "not-synchronised"
)

// writeOutRegex matches lines such as
// Benchmarking (not-synchronised) using 32 Partitions and 20 Thread(s): written 4B tuples: 672.00 Mio
var writeOutRegex = regexp.MustCompile(
	`Benchmarking \((not-synchronised|synchronised)\) using (\d+) Partitions and (\d+) Thread\(s\): written (\d+)B tuples: ([\d.]+) Mio`)

// WriteOut is one measurement of the slotted page write-out benchmark: how
// many tuples all threads wrote within the measurement window.
type WriteOut struct {
	Synchronised  bool  `json:"-"`
	Partitions    int   `json:"partitions"`
	Threads       int   `json:"threads"`
	TupleBytes    int   `json:"tuple_bytes"`
	WrittenTuples int64 `json:"written_tuples"`
}

// Mode returns the synchronisation mode token of w.
func (w WriteOut) Mode() string {
	if w.Synchronised {
		return ModeSynchronised
	}
	return ModeNotSynchronised
}

// ParseMode maps a mode token to the Synchronised flag.
func ParseMode(s string) (bool, error) {
	switch s {
	case ModeSynchronised:
		return true, nil
	case ModeNotSynchronised:
		return false, nil
	}
	return false, errors.Newf("unknown synchronisation mode %q", s)
}

// LoadWriteOut parses the write-out log at path.
func LoadWriteOut(path string) ([]WriteOut, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	return ParseWriteOut(f)
}

// ParseWriteOut extracts every matching line from r, sorted by mode, tuple
// width, partitions and threads. Non-matching lines are ignored.
func ParseWriteOut(r io.Reader) ([]WriteOut, error) {
	var out []WriteOut
	scanner := newScanner(r)
	for scanner.Scan() {
		m := writeOutRegex.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		w := WriteOut{Synchronised: m[1] == ModeSynchronised}
		var err error
		if w.Partitions, err = strconv.Atoi(m[2]); err != nil {
			return nil, errors.Wrapf(err, "partitions %q", m[2])
		}
		if w.Threads, err = strconv.Atoi(m[3]); err != nil {
			return nil, errors.Wrapf(err, "threads %q", m[3])
		}
		if w.TupleBytes, err = strconv.Atoi(m[4]); err != nil {
			return nil, errors.Wrapf(err, "tuple bytes %q", m[4])
		}
		if w.WrittenTuples, err = MioToAbsolute(m[5]); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading write-out log")
	}
	SortWriteOuts(out)
	return out, nil
}

// SortWriteOuts orders rows by (mode, tuple bytes, partitions, threads), with
// not-synchronised first.
func SortWriteOuts(rows []WriteOut) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Synchronised != b.Synchronised {
			return !a.Synchronised
		}
		if a.TupleBytes != b.TupleBytes {
			return a.TupleBytes < b.TupleBytes
		}
		if a.Partitions != b.Partitions {
			return a.Partitions < b.Partitions
		}
		return a.Threads < b.Threads
	})
}

var (
	hundred       = apd.New(100, 0)
	hundredthsMio = int64(1_000_000 / 100)
)

// MioToAbsolute converts a count in millions with two decimals, e.g. "12.34",
// to an absolute count. The value is scaled to hundredths and truncated
// before being multiplied out, in exact decimal arithmetic, so that 0.29
// yields 290000 and not 289999.
func MioToAbsolute(s string) (int64, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %q as millions", s)
	}
	if d.Negative {
		return 0, errors.Newf("negative tuple count %q", s)
	}
	ctx := apd.BaseContext.WithPrecision(40)
	ctx.Rounding = apd.RoundDown
	var scaled apd.Decimal
	if _, err := ctx.Mul(&scaled, d, hundred); err != nil {
		return 0, errors.Wrapf(err, "scaling %q", s)
	}
	if _, err := ctx.RoundToIntegralValue(&scaled, &scaled); err != nil {
		return 0, errors.Wrapf(err, "truncating %q", s)
	}
	hundredths, err := scaled.Int64()
	if err != nil {
		return 0, errors.Wrapf(err, "converting %q", s)
	}
	if hundredths > math.MaxInt64/hundredthsMio {
		return 0, errors.Newf("tuple count %q million overflows int64", s)
	}
	return hundredths * hundredthsMio, nil
}

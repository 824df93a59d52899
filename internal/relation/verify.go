package relation

import (
	"bufio"
	"io"
	"math"
	"os"

	"github.com/cockroachdb/errors"
)

var (
	ErrTruncated   = errors.New("file size is not a multiple of the tuple width")
	ErrOutOfDomain = errors.New("value outside generation domain")
)

// Stats summarizes a verified relation file.
type Stats struct {
	Tuples int64
	Bytes  int64
	Min    float64
	Max    float64
}

// Verify decodes the relation at path and checks that its size is a whole
// number of tuples and that every element lies in the generation domain.
func Verify(path string, t DataType) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return Stats{}, errors.Wrapf(err, "stat %s", path)
	}
	st := Stats{Bytes: fi.Size(), Min: math.Inf(1), Max: math.Inf(-1)}
	tw := int64(t.TupleWidth())
	if st.Bytes%tw != 0 {
		return st, errors.Wrapf(ErrTruncated, "%s: %d bytes, tuple width %d", path, st.Bytes, tw)
	}
	st.Tuples = st.Bytes / tw

	r := bufio.NewReaderSize(f, 1<<20)
	buf := make([]byte, chunkTuples*int(tw))
	var index int64
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			elems := n / t.Width()
			for i := 0; i < elems; i++ {
				v := Decode(buf[:n], t, i)
				if !InDomain(t, v) {
					return st, errors.Wrapf(ErrOutOfDomain, "%s: element %d = %v", path, index+int64(i), v)
				}
				st.Min = math.Min(st.Min, v)
				st.Max = math.Max(st.Max, v)
			}
			index += int64(elems)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return st, errors.Wrapf(err, "reading %s", path)
		}
	}
	if st.Tuples == 0 {
		st.Min, st.Max = 0, 0
	}
	return st, nil
}

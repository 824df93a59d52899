package relation

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"math/rand/v2"

	"github.com/cockroachdb/errors"
)

// chunkTuples bounds the memory used per write call.
const chunkTuples = 1 << 16

// Write streams count uniformly distributed (a, b) tuples of type t to w in
// native byte order. Tuples are written in generation order with no header.
func Write(w io.Writer, t DataType, count int64, rng *rand.Rand) (int64, error) {
	if t != Int && t != Float && t != Double {
		return 0, errors.Wrapf(ErrUnknownDataType, "%d", int(t))
	}
	bw := bufio.NewWriterSize(w, 1<<20)
	width := t.Width()
	buf := make([]byte, chunkTuples*2*width)

	var written int64
	for remaining := count; remaining > 0; {
		n := int64(chunkTuples)
		if remaining < n {
			n = remaining
		}
		chunk := buf[:n*2*int64(width)]
		fill(chunk, t, rng)
		m, err := bw.Write(chunk)
		written += int64(m)
		if err != nil {
			return written, errors.Wrap(err, "writing tuples")
		}
		remaining -= n
	}
	if err := bw.Flush(); err != nil {
		return written, errors.Wrap(err, "flushing tuples")
	}
	return written, nil
}

func fill(chunk []byte, t DataType, rng *rand.Rand) {
	switch t {
	case Int:
		for off := 0; off < len(chunk); off += 4 {
			binary.NativeEndian.PutUint32(chunk[off:], uint32(int32(rng.IntN(IntMax+1))))
		}
	case Float:
		for off := 0; off < len(chunk); off += 4 {
			v := float32(rng.Float64() * FloatMax)
			binary.NativeEndian.PutUint32(chunk[off:], math.Float32bits(v))
		}
	case Double:
		for off := 0; off < len(chunk); off += 8 {
			binary.NativeEndian.PutUint64(chunk[off:], math.Float64bits(rng.Float64()*FloatMax))
		}
	}
}

// Decode returns the element at index i of a tuple stream as float64.
func Decode(b []byte, t DataType, i int) float64 {
	switch t {
	case Int:
		return float64(int32(binary.NativeEndian.Uint32(b[i*4:])))
	case Float:
		return float64(math.Float32frombits(binary.NativeEndian.Uint32(b[i*4:])))
	default:
		return math.Float64frombits(binary.NativeEndian.Uint64(b[i*8:]))
	}
}

// InDomain reports whether v is a value the generator can produce for t.
func InDomain(t DataType, v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	switch t {
	case Int:
		return v >= 0 && v <= IntMax && v == math.Trunc(v)
	default:
		return v >= 0 && v <= FloatMax
	}
}

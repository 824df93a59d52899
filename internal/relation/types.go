package relation

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// DataType is the element type shared by both fields of a tuple.
type DataType int

const (
	Int DataType = iota
	Float
	Double
)

const (
	// IntMax is the inclusive upper bound for integer elements.
	IntMax = 1_000_000
	// FloatMax is the upper bound for floating point elements.
	FloatMax = 1_000_000.0
)

var ErrUnknownDataType = errors.New("unknown data type")

func (t DataType) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("DataType(%d)", int(t))
	}
}

// Width returns the size of a single element in bytes.
func (t DataType) Width() int {
	if t == Double {
		return 8
	}
	return 4
}

// TupleWidth returns the size of one (a, b) pair in bytes.
func (t DataType) TupleWidth() int {
	return 2 * t.Width()
}

// ParseDataType accepts the tags int, float and double.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int":
		return Int, nil
	case "float":
		return Float, nil
	case "double":
		return Double, nil
	}
	return 0, errors.Wrapf(ErrUnknownDataType, "%q", s)
}

// Spec describes one relation to generate.
type Spec struct {
	Name  string
	Type  DataType
	Count int64
}

// ExpectedSize is the file size a relation of this spec must have.
func (s Spec) ExpectedSize() int64 {
	return s.Count * int64(s.Type.TupleWidth())
}

// ParseSpec parses "name=type:count", e.g. "relation_int.bin=int:250000000".
// Underscores are allowed in the count.
func ParseSpec(s string) (Spec, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return Spec{}, errors.Newf("relation %q: expected name=type:count", s)
	}
	typ, count, ok := strings.Cut(rest, ":")
	if !ok {
		return Spec{}, errors.Newf("relation %q: expected name=type:count", s)
	}
	dt, err := ParseDataType(typ)
	if err != nil {
		return Spec{}, errors.Wrapf(err, "relation %q", s)
	}
	var n int64
	if _, err := fmt.Sscan(strings.ReplaceAll(count, "_", ""), &n); err != nil {
		return Spec{}, errors.Wrapf(err, "relation %q: count", s)
	}
	if n <= 0 {
		return Spec{}, errors.Newf("relation %q: count must be positive", s)
	}
	return Spec{Name: name, Type: dt, Count: n}, nil
}

// DefaultRelations is the input set used by the shuffle benchmarks.
func DefaultRelations() []Spec {
	return []Spec{
		{Name: "relation_int_small.bin", Type: Int, Count: 5_000},
		{Name: "relation_int.bin", Type: Int, Count: 250_000_000},
		{Name: "relation_int_large.bin", Type: Int, Count: 4 * 250_000_000},
		{Name: "relation_float.bin", Type: Float, Count: 125_000_000},
		{Name: "relation_double.bin", Type: Double, Count: 62_500_000},
	}
}

// String formats s in the form accepted by ParseSpec.
func (s Spec) String() string {
	return fmt.Sprintf("%s=%s:%d", s.Name, s.Type, s.Count)
}

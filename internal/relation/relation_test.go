package relation

import (
	"bytes"
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataType(t *testing.T) {
	tests := []struct {
		in    string
		want  DataType
		width int
	}{
		{"int", Int, 4},
		{"float", Float, 4},
		{"double", Double, 8},
		{" Double ", Double, 8},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			dt, err := ParseDataType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dt)
			assert.Equal(t, tt.width, dt.Width())
		})
	}

	_, err := ParseDataType("long")
	assert.True(t, errors.Is(err, ErrUnknownDataType))
}

func TestParseSpec(t *testing.T) {
	spec, err := ParseSpec("relation_int.bin=int:250_000_000")
	require.NoError(t, err)
	assert.Equal(t, Spec{Name: "relation_int.bin", Type: Int, Count: 250_000_000}, spec)

	for _, bad := range []string{"", "x", "x=int", "x=long:5", "x=int:abc", "x=int:0", "=int:5"} {
		_, err := ParseSpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestWriteSize(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, dt := range []DataType{Int, Float, Double} {
		var buf bytes.Buffer
		n, err := Write(&buf, dt, 5000, rng)
		require.NoError(t, err)
		assert.Equal(t, int64(5000*dt.TupleWidth()), n)
		assert.Equal(t, 5000*2*dt.Width(), buf.Len())
	}
}

func TestWriteDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	_, err := Write(&a, Double, 1000, rand.New(rand.NewPCG(7, 7)))
	require.NoError(t, err)
	_, err = Write(&b, Double, 1000, rand.New(rand.NewPCG(7, 7)))
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestGenerateAndVerify(t *testing.T) {
	dir := t.TempDir()
	for _, dt := range []DataType{Int, Float, Double} {
		spec := Spec{Name: "relation_" + dt.String() + ".bin", Type: dt, Count: 5000}
		res := Generate(context.Background(), dir, spec, 42)
		require.NoError(t, res.Err)
		assert.Equal(t, spec.ExpectedSize(), res.Bytes)

		fi, err := os.Stat(res.Path)
		require.NoError(t, err)
		assert.Equal(t, int64(5000*2*dt.Width()), fi.Size())

		st, err := Verify(res.Path, dt)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), st.Tuples)
		assert.GreaterOrEqual(t, st.Min, 0.0)
		assert.LessOrEqual(t, st.Max, 1_000_000.0)

		_, err = os.Stat(res.Path + ".tmp")
		assert.True(t, os.IsNotExist(err))
	}
}

func TestIntSmallRelationSize(t *testing.T) {
	dir := t.TempDir()
	res := Generate(context.Background(), dir, Spec{Name: "small.bin", Type: Int, Count: 5000}, 0)
	require.NoError(t, res.Err)
	fi, err := os.Stat(res.Path)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), fi.Size())
}

func TestVerifyRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 12), 0644))

	_, err := Verify(path, Int)
	assert.True(t, errors.Is(err, ErrTruncated))

	_, err = Verify(path, Double)
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestVerifyRejectsOutOfDomain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neg.bin")
	data := []byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0}
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err := Verify(path, Int)
	assert.True(t, errors.Is(err, ErrOutOfDomain))
}

type recordingObserver struct {
	calls  int
	failed int
}

func (o *recordingObserver) ObserveRelation(_ DataType, _ int64, _ time.Duration, err error) {
	o.calls++
	if err != nil {
		o.failed++
	}
}

func TestGenerateAllIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	// A regular file where a directory is expected makes relation creation
	// fail for the one relation that points into it.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	specs := []Spec{
		{Name: "a.bin", Type: Int, Count: 100},
		{Name: filepath.Join("blocker", "b.bin"), Type: Float, Count: 100},
		{Name: "c.bin", Type: Double, Count: 100},
		{Name: "d.bin", Type: Int, Count: 0},
	}
	obs := &recordingObserver{}
	results, err := GenerateAll(context.Background(), dir, specs, Options{Workers: 2, Seed: 3, Observer: obs})
	require.Error(t, err)

	var batch *BatchError
	require.True(t, errors.As(err, &batch))
	require.Len(t, batch.Failed, 2)
	assert.Equal(t, "blocker/b.bin", filepath.ToSlash(batch.Failed[0].Spec.Name))
	assert.Equal(t, "d.bin", batch.Failed[1].Spec.Name)
	assert.Contains(t, err.Error(), "d.bin")

	require.Len(t, results, 4)
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[2].Err)
	for _, i := range []int{0, 2} {
		_, statErr := os.Stat(results[i].Path)
		assert.NoError(t, statErr)
	}
	assert.Equal(t, 4, obs.calls)
	assert.Equal(t, 2, obs.failed)
}

func TestGenerateAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GenerateAll(ctx, t.TempDir(), []Spec{{Name: "x.bin", Type: Int, Count: 10}}, Options{})
	var batch *BatchError
	require.True(t, errors.As(err, &batch))
	require.Len(t, batch.Failed, 1)
	assert.True(t, errors.Is(batch.Failed[0].Err, context.Canceled))
}

func TestDefaultRelations(t *testing.T) {
	rels := DefaultRelations()
	require.Len(t, rels, 5)
	assert.Equal(t, int64(5_000), rels[0].Count)
	assert.Equal(t, int64(40_000), rels[0].ExpectedSize())
	assert.Equal(t, Double, rels[4].Type)
}

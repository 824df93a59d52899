package relation

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// Observer receives one callback per finished relation.
type Observer interface {
	ObserveRelation(t DataType, tuples int64, elapsed time.Duration, err error)
}

// Options configures GenerateAll.
type Options struct {
	// Workers bounds the number of relations written concurrently. Zero means
	// runtime.NumCPU().
	Workers int
	// Seed makes generation reproducible when non-zero. Relation i is seeded
	// with Seed+i.
	Seed     uint64
	Observer Observer
}

// Result is the outcome of generating one relation.
type Result struct {
	Spec     Spec
	Path     string
	Bytes    int64
	Duration time.Duration
	Err      error
}

// BatchError is returned by GenerateAll when at least one relation failed.
type BatchError struct {
	Failed []Result
}

func (e *BatchError) Error() string {
	names := make([]string, len(e.Failed))
	for i, r := range e.Failed {
		names[i] = r.Spec.Name + ": " + r.Err.Error()
	}
	return "generating relations: " + strings.Join(names, "; ")
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, r := range e.Failed {
		errs[i] = r.Err
	}
	return errs
}

// Generate writes one relation into dir. The file is written under a
// temporary name and renamed into place once complete, so a failed relation
// never leaves a truncated file behind.
func Generate(ctx context.Context, dir string, spec Spec, seed uint64) Result {
	start := time.Now()
	res := Result{Spec: spec, Path: filepath.Join(dir, spec.Name)}
	res.Bytes, res.Err = generate(ctx, res.Path, spec, seed)
	res.Duration = time.Since(start)
	return res
}

func generate(ctx context.Context, path string, spec Spec, seed uint64) (int64, error) {
	if spec.Count <= 0 {
		return 0, errors.Newf("relation %s: count must be positive, got %d", spec.Name, spec.Count)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, errors.Wrapf(err, "creating directory for %s", spec.Name)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, errors.Wrapf(err, "creating %s", tmp)
	}

	rng := newRand(seed)
	n, err := Write(&ctxWriter{ctx: ctx, w: f}, spec.Type, spec.Count, rng)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.Wrapf(cerr, "closing %s", tmp)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return n, errors.Wrapf(err, "relation %s", spec.Name)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return n, errors.Wrapf(err, "renaming %s", tmp)
	}
	return n, nil
}

// GenerateAll writes every relation in specs into dir on a bounded worker
// pool. A failing relation does not stop the others; all failures are
// reported together once the batch is done. Results are returned in the order
// of specs.
func GenerateAll(ctx context.Context, dir string, specs []Spec, opts Options) ([]Result, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result, len(specs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, spec := range specs {
		seed := uint64(0)
		if opts.Seed != 0 {
			seed = opts.Seed + uint64(i)
		}
		g.Go(func() error {
			slog.Info("Creating relation", "name", spec.Name, "type", spec.Type.String(),
				"tuples", humanize.Comma(spec.Count), "size", humanize.IBytes(uint64(spec.ExpectedSize())))
			res := Generate(ctx, dir, spec, seed)
			if opts.Observer != nil {
				opts.Observer.ObserveRelation(spec.Type, spec.Count, res.Duration, res.Err)
			}
			if res.Err != nil {
				slog.Error("Failed to create relation", "name", spec.Name, "error", res.Err)
			} else {
				slog.Info("Created relation", "path", res.Path, "duration", res.Duration.Round(time.Millisecond))
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		return results, &BatchError{Failed: failed}
	}
	return results, nil
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// ctxWriter stops a long write once ctx is done.
type ctxWriter struct {
	ctx context.Context
	w   io.Writer
}

func (c *ctxWriter) Write(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.w.Write(p)
}

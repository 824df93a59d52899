// Package publish uploads rendered report artifacts to object storage.
package publish

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
)

const gcsScheme = "gs://"

var ErrInvalidTarget = errors.New("invalid publish target")

// Target is a bucket and an object name prefix.
type Target struct {
	Bucket string
	Prefix string
}

func (t Target) String() string {
	if t.Prefix == "" {
		return gcsScheme + t.Bucket
	}
	return gcsScheme + t.Bucket + "/" + t.Prefix
}

// ParseTarget parses gs://bucket[/prefix].
func ParseTarget(s string) (Target, error) {
	rest, ok := strings.CutPrefix(s, gcsScheme)
	if !ok {
		return Target{}, errors.Wrapf(ErrInvalidTarget, "%q: expected %sbucket[/prefix]", s, gcsScheme)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Target{}, errors.Wrapf(ErrInvalidTarget, "%q: missing bucket", s)
	}
	return Target{Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
}

// Uploader stores one object.
type Uploader interface {
	Upload(ctx context.Context, object, contentType string, r io.Reader) error
}

// Options control retries of failed uploads.
type Options struct {
	MaxRetries int
	RetryDelay time.Duration
}

// Stats summarizes one PublishDir call.
type Stats struct {
	Files    int
	Bytes    int64
	Failed   int
	Duration time.Duration
}

// PublishDir uploads every regular file below dir as prefix/<relative path>.
// A failing file does not stop the others; all failures are returned
// together once the walk is done.
func PublishDir(ctx context.Context, u Uploader, dir, prefix string, opts Options) (Stats, error) {
	start := time.Now()
	var (
		stats Stats
		errs  error
	)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		object := path.Join(prefix, filepath.ToSlash(rel))

		n, err := uploadWithRetry(ctx, u, p, object, opts)
		if err != nil {
			slog.Error("Upload failed", "file", p, "object", object, "error", err)
			stats.Failed++
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "uploading %s", p))
			return nil
		}
		stats.Files++
		stats.Bytes += n
		slog.Debug("Uploaded", "object", object, "size", humanize.Bytes(uint64(n)))
		return nil
	})
	stats.Duration = time.Since(start)
	if err != nil {
		return stats, errors.Wrapf(err, "walking %s", dir)
	}
	return stats, errs
}

func uploadWithRetry(ctx context.Context, u Uploader, file, object string, opts Options) (int64, error) {
	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(opts.RetryDelay):
			}
		}
		n, err := uploadFile(ctx, u, file, object)
		if err == nil {
			return n, nil
		}
		lastErr = err
		if attempt < opts.MaxRetries {
			slog.Warn("Upload attempt failed, retrying", "attempt", attempt+1, "object", object, "error", err)
		}
	}
	return 0, errors.Wrapf(lastErr, "after %d attempts", opts.MaxRetries+1)
}

func uploadFile(ctx context.Context, u Uploader, file, object string) (int64, error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if err := u.Upload(ctx, object, ContentType(object), f); err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// ContentType guesses the MIME type of an artifact from its extension.
func ContentType(name string) string {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".svg":
		return "image/svg+xml"
	case ".json":
		return "application/json"
	case ".db":
		return "application/vnd.sqlite3"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}
	return "application/octet-stream"
}

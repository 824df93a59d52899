package main

import (
	"context"
	"io"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]string
	failOn  string
	closed  bool
}

func (f *fakeUploader) Upload(ctx context.Context, object, contentType string, r io.Reader) error {
	if object == f.failOn {
		return errors.New("permission denied")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[object] = contentType + ":" + string(data)
	return nil
}

func (f *fakeUploader) Close() error {
	f.closed = true
	return nil
}

func withFakeUploader(t *testing.T, f *fakeUploader) {
	t.Helper()
	old := newUploaderFunc
	newUploaderFunc = func(ctx context.Context, bucket string) (uploader, error) {
		f.bucket = bucket
		return f, nil
	}
	t.Cleanup(func() { newUploaderFunc = old })
}

func TestPublish(t *testing.T) {
	dir := inTempDir(t)
	plots := filepath.Join(dir, "plots")
	writeFile(t, plots, "Time_Combined.svg", "<svg/>")
	writeFile(t, plots, filepath.Join("Time", "Time_Tuple0004-0032.svg"), "<svg/>")
	writeFile(t, plots, "server-theoretical-slotted-page.json", "[]")

	f := &fakeUploader{objects: map[string]string{}}
	withFakeUploader(t, f)

	out, err := executeCommand(rootCmd, "publish", plots, "--target", "gs://bench/2026/run1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Published 3 files")
	assert.Equal(t, "bench", f.bucket)
	assert.True(t, f.closed)

	var keys []string
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{
		"2026/run1/Time/Time_Tuple0004-0032.svg",
		"2026/run1/Time_Combined.svg",
		"2026/run1/server-theoretical-slotted-page.json",
	}, keys)
	assert.Equal(t, "application/json:[]", f.objects["2026/run1/server-theoretical-slotted-page.json"])
}

func TestPublishFailures(t *testing.T) {
	dir := inTempDir(t)
	plots := filepath.Join(dir, "plots")
	writeFile(t, plots, "a.svg", "<svg/>")
	writeFile(t, plots, "b.svg", "<svg/>")

	f := &fakeUploader{objects: map[string]string{}, failOn: "b.svg"}
	withFakeUploader(t, f)

	out, err := executeCommand(rootCmd, "publish", plots, "--target", "gs://bench", "--retries", "1", "--retry-delay", "1ms")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Contains(t, out, "Published 1 files")
	assert.Contains(t, out, "1 files failed")
	assert.Contains(t, f.objects, "a.svg")

	_, err = executeCommand(rootCmd, "publish", plots, "--target", "s3://bench")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gs://")

	_, err = executeCommand(rootCmd, "publish", filepath.Join(dir, "missing"), "--target", "gs://bench")
	require.Error(t, err)
}

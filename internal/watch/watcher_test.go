package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeTrace(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "rollouts.jsonl")
	writeTrace(t, path, "{}\n")

	var calls int32
	w, err := New(path, func() { atomic.AddInt32(&calls, 1) }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// Two writes well inside the debounce window.
	writeTrace(t, path, "{}\n")
	time.Sleep(50 * time.Millisecond)
	writeTrace(t, path, "{}\n")

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls),
		"rapid writes collapse to one callback")

	// A write after the window fires again.
	time.Sleep(DefaultDebounce)
	writeTrace(t, path, "{}\n")
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "rollouts.jsonl")
	writeTrace(t, path, "{}\n")

	var calls int32
	w, err := New(path, func() { atomic.AddInt32(&calls, 1) }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	writeTrace(t, filepath.Join(dir, "other.jsonl"), "{}\n")
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWatcherStopReleasesSubscription(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "rollouts.jsonl")

	w, err := New(path, func() {}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())

	w.Stop()
	// A second Stop is a no-op, not a panic.
	w.Stop()
}

func TestWatcherStartTwice(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "rollouts.jsonl"), func() {}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Start())
	w.Stop()
}

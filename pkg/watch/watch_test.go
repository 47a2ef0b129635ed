package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/watch"
)

func TestWatch_NoPaths(t *testing.T) {
	t.Parallel()

	err := watch.Watch(context.Background(), nil, 0, func(context.Context) {})
	require.ErrorIs(t, err, watch.ErrNoPaths)
}

func TestWatch_MissingDirectory(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "gone", "a.go")

	err := watch.Watch(context.Background(), []string{missing}, 0, func(context.Context) {})
	require.Error(t, err)
}

func TestWatch_DebouncesWrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "a.go")
	other := filepath.Join(dir, "b.go")

	require.NoError(t, os.WriteFile(target, []byte("package a\n"), 0o600))

	var calls atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- watch.Watch(ctx, []string{target}, 50*time.Millisecond, func(context.Context) { calls.Add(1) })
	}()

	// Give the watcher time to register before writing.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(target, []byte("package a\n\nvar x = 1\n"), 0o600)

		return calls.Load() > 0
	}, 5*time.Second, 200*time.Millisecond)

	// Let the last write's debounce fire.
	time.Sleep(200 * time.Millisecond)

	settled := calls.Load()

	require.NoError(t, os.WriteFile(other, []byte("package b\n"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, settled, calls.Load(), "unwatched files do not trigger")

	cancel()
	require.NoError(t, <-done)
}

// Package watch re-runs a callback when any of a set of files changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Watch is given zero.
const DefaultDebounce = 200 * time.Millisecond

// ErrNoPaths indicates Watch was called without files.
var ErrNoPaths = errors.New("no paths to watch")

// Option configures Watch.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger for watcher errors. Nil is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Watch calls fn once every time the watched files settle after a change.
// Changes closer together than debounce are coalesced into one call. Parent
// directories are watched rather than the files themselves so that editors
// that save by renaming a temporary file are noticed. Watch blocks until ctx
// is canceled and then returns nil.
func Watch(ctx context.Context, paths []string, debounce time.Duration, fn func(context.Context), opts ...Option) error {
	if len(paths) == 0 {
		return ErrNoPaths
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	targets := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{}, len(paths))

	for _, path := range paths {
		abs, absErr := filepath.Abs(path)
		if absErr != nil {
			return fmt.Errorf("resolve %s: %w", path, absErr)
		}

		targets[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for dir := range dirs {
		addErr := watcher.Add(dir)
		if addErr != nil {
			return fmt.Errorf("watch %s: %w", dir, addErr)
		}
	}

	timer := time.NewTimer(debounce)
	timer.Stop()

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if _, watched := targets[filepath.Clean(event.Name)]; !watched {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			o.logger.DebugContext(ctx, "file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case <-timer.C:
			fn(ctx)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			o.logger.WarnContext(ctx, "file watcher error", "error", watchErr)
		}
	}
}

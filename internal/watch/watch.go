// Package watch notices changes to the JSON collection file made outside the
// running process, such as another CLI invocation or an editor.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notebox/internal/checksum"
)

// DefaultDebounce collapses the create/write/rename burst of one atomic
// rewrite into a single check.
const DefaultDebounce = 150 * time.Millisecond

// ChangeCallback is called with the file path when its content changed.
type ChangeCallback func(path string)

// File watches the directory containing path and calls cb whenever the
// file's content checksum changes, until ctx is cancelled. Removing the file
// counts as a change.
func File(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, cb ChangeCallback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: an atomic rename replaces the file's inode.
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}
	name := filepath.Base(path)
	last := sum(path)

	logger.Info("watcher: started", slog.String("path", path))

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			timerCh = nil
			cur := sum(path)
			if cur == last {
				continue
			}
			last = cur
			logger.Debug("watcher: collection changed", slog.String("path", path))
			if cb != nil {
				cb(path)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerCh = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// sum returns the checksum of the file, or "" when it does not exist.
func sum(path string) string {
	digest, err := checksum.File(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	if err != nil {
		return "unreadable"
	}
	return digest
}

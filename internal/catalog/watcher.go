package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventCallback is called after a watcher-driven reload.
// kind is "reloaded" on success and "failed" when the new file was rejected.
type EventCallback func(kind string, path string)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads the catalog whenever its dataset file changes, until ctx is
// cancelled. The parent directory is watched rather than the file itself so
// that atomic replace-by-rename is picked up. Bursts of events are collapsed
// into one reload.
func (c *Catalog) Watch(ctx context.Context, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	target, err := filepath.Abs(c.opts.Path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}

	c.logger.Info("watcher: started", slog.String("path", target))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDebounce)
			fire = timer.C
		} else {
			timer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			c.logger.Info("watcher: stopped")
			return nil

		case <-fire:
			changed, err := c.Load()
			if err != nil {
				// The previous snapshot stays active.
				c.logger.Warn("watcher: reload failed",
					slog.String("path", target),
					slog.String("error", err.Error()))
				if cb != nil {
					cb("failed", target)
				}
				continue
			}
			if changed && cb != nil {
				cb("reloaded", target)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

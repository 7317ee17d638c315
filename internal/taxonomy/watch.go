package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the registry whenever profile files in its directory
// change, so taxonomy edits take effect without a restart. Blocks until
// ctx is done. Events are debounced so an editor save burst triggers a
// single reload.
func (r *Registry) Watch(ctx context.Context, debounce time.Duration) error {
	if r.dir == "" {
		return errors.New("taxonomy watch: no directory configured")
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(r.dir); err != nil {
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}
	r.logger.Info("watching taxonomy profiles", "dir", r.dir, "debounce", debounce)

	ticker := time.NewTicker(debounce)
	defer ticker.Stop()
	dirty := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(ev.Name))
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) ||
				ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
				dirty = true
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("taxonomy watcher error", "error", err)

		case <-ticker.C:
			if !dirty {
				continue
			}
			dirty = false
			if err := r.Load(); err != nil {
				r.logger.Error("taxonomy reload failed", "error", err)
				continue
			}
			r.logger.Info("taxonomy profiles reloaded", "profiles", r.Len())
		}
	}
}

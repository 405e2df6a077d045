package dataset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/abelbrown/postexplorer/internal/logging"
	"github.com/abelbrown/postexplorer/internal/trigger"
)

// WatchDelay is how long the documents must stay quiet before a reload.
const WatchDelay = 500 * time.Millisecond

// ErrRemoteWatch is returned when asked to watch an http source.
var ErrRemoteWatch = errors.New("only local sources can be watched")

// Watch calls onChange after any of the source's documents is written,
// coalescing bursts of events. It blocks until ctx is done.
func Watch(ctx context.Context, src Source, delay time.Duration, onChange func()) error {
	if src.Remote() {
		return ErrRemoteWatch
	}
	if delay <= 0 {
		delay = WatchDelay
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch directories, not files: editors replace files by rename.
	targets := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range []string{src.PostsPath, src.ManifestPath, src.InsightsPath} {
		full, err := filepath.Abs(src.Resolve(p))
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		targets[full] = true
		dirs[filepath.Dir(full)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			logging.Warn("cannot watch directory", "dir", dir, "error", err)
		}
	}
	if len(watcher.WatchList()) == 0 {
		return fmt.Errorf("watch %s: no directory could be watched", src.Base)
	}

	timer := trigger.NewTimer(delay, onChange)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if full, err := filepath.Abs(ev.Name); err == nil && targets[full] {
				logging.Debug("dataset document changed", "file", ev.Name, "op", ev.Op.String())
				timer.Trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("file watcher error", "error", err)
		}
	}
}

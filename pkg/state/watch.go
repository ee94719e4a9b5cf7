package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeFunc receives the ref of a snapshot file that changed on disk.
type ChangeFunc func(ref Ref)

// Watch reports snapshot files created or rewritten under the store until ctx
// is cancelled. Bursts of events for the same file within debounce collapse
// into one notification.
func (s *FileStore) Watch(ctx context.Context, debounce time.Duration, fn ChangeFunc) error {
	if fn == nil {
		return fmt.Errorf("state: change func is required")
	}
	modules := filepath.Join(s.dir, NamespaceModules)
	if err := os.MkdirAll(modules, 0o755); err != nil {
		return fmt.Errorf("state: create %s: %w", modules, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("state: watcher: %w", err)
	}
	defer watcher.Close()
	for _, dir := range []string{s.dir, modules} {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("state: watch %s: %w", dir, err)
		}
	}

	pending := map[Ref]time.Time{}
	ticker := time.NewTicker(tickInterval(debounce))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			ref, ok := s.refForPath(event.Name)
			if !ok {
				continue
			}
			pending[ref] = time.Now()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn().Err(err).Str("dir", s.dir).Msg("snapshot watcher error")
		case now := <-ticker.C:
			for ref, seen := range pending {
				if now.Sub(seen) < debounce {
					continue
				}
				delete(pending, ref)
				s.logger.Debug().Str("namespace", ref.Namespace).Str("name", ref.Name).Msg("snapshot changed on disk")
				fn(ref)
			}
		}
	}
}

func tickInterval(debounce time.Duration) time.Duration {
	if debounce <= 0 {
		return 10 * time.Millisecond
	}
	if interval := debounce / 2; interval > time.Millisecond {
		return interval
	}
	return time.Millisecond
}

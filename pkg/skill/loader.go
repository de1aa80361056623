package skill

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// LoadBundledDir parses every skill file in dir and upserts them into the
// store as bundled skills, preserving usage stats for ones that already
// exist under the same name.
func (m *Manager) LoadBundledDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("skill: read bundled dir %q: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := m.loadBundledFile(path); err != nil {
			slog.Warn("skipping malformed bundled skill file", "path", path, "error", err)
		}
	}
	return m.Refresh()
}

func (m *Manager) loadBundledFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}
	s, err := ParseBundled(data)
	if err != nil {
		return err
	}
	s.AgentID = m.agentID
	s.CreatedAt = time.Now().UTC()

	row, err := s.toRow()
	if err != nil {
		return err
	}
	if err := m.db.UpsertBundledSkill(row); err != nil {
		return fmt.Errorf("skill: upsert bundled %q: %w", s.Name, err)
	}
	return nil
}

// WatchBundledDir watches dir for changes and reloads the bundled skill set
// on write/create events, debounced the same way the teacher's config file
// watcher is. This is best-effort: a failed reload logs a warning and keeps
// the last-good active set rather than propagating an error (spec.md §5.5).
func (m *Manager) WatchBundledDir(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("skill: create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("skill: watch %q: %w", dir, err)
	}

	go m.watchLoop(ctx, watcher, dir)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, dir string) {
	defer watcher.Close()

	const debounceDelay = 200 * time.Millisecond
	var debounceTimer *time.Timer
	reload := func() {
		if err := m.LoadBundledDir(dir); err != nil {
			slog.Warn("bundled skill reload failed, keeping last-good set", "dir", dir, "error", err)
		} else {
			slog.Info("reloaded bundled skills", "dir", dir)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("bundled skill watcher error", "error", err)
		}
	}
}

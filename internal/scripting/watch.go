package scripting

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadDir reloads every scope that was loaded from dir, keeping each
// scope's instruction limit and facts. A scope whose scripts fail to load
// keeps its previous VM. A scope unloaded or replaced while its reload runs
// is left as it is.
//
// Postcondition: returns the number of scopes reloaded and the joined load
// errors, if any.
func (m *Manager) ReloadDir(dir string) (int, error) {
	want := filepath.Clean(dir)
	m.mu.RLock()
	pending := make(map[string]*vm)
	for key, v := range m.vms {
		if filepath.Clean(v.src.dir) == want {
			pending[key] = v
		}
	}
	m.mu.RUnlock()

	keys := make([]string, 0, len(pending))
	for k := range pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var failed []string
	reloaded := 0
	for _, key := range keys {
		prev := pending[key]
		next, err := m.build(key, prev.src.dir, prev.src.limit, prev.src.facts)
		if err != nil {
			failed = append(failed, err.Error())
			continue
		}
		if !m.swap(key, prev, next) {
			next.close()
			m.logger.Debug("scripting: scope changed during reload", zap.String("scope", key))
			continue
		}
		reloaded++
	}
	if len(failed) > 0 {
		return reloaded, fmt.Errorf("scripting: reload %q: %s", dir, strings.Join(failed, "; "))
	}
	return reloaded, nil
}

// swap replaces key's VM with next only while it is still prev, and closes
// prev on success.
func (m *Manager) swap(key string, prev, next *vm) bool {
	m.mu.Lock()
	if m.vms[key] != prev {
		m.mu.Unlock()
		return false
	}
	m.vms[key] = next
	m.mu.Unlock()
	prev.close()
	return true
}

// Watch reloads the scopes loaded from dir whenever a .lua file in dir is
// written, created, removed, or renamed. It blocks until ctx is cancelled.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns nil on cancellation, or an error if the watcher
// cannot be started.
func (m *Manager) Watch(ctx context.Context, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("scripting: creating watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("scripting: watching %q: %w", dir, err)
	}
	m.logger.Info("scripting: watching scripts", zap.String("dir", dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".lua" || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) {
				continue
			}
			n, err := m.ReloadDir(dir)
			if err != nil {
				m.logger.Warn("scripting: reload failed",
					zap.String("file", ev.Name),
					zap.Int("reloaded", n),
					zap.Error(err),
				)
				continue
			}
			m.logger.Info("scripting: scripts reloaded",
				zap.String("file", ev.Name),
				zap.Int("scopes", n),
			)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn("scripting: watcher error", zap.Error(err))
		}
	}
}

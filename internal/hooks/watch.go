package hooks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchFunc receives the results of each triggered pipeline run.
type WatchFunc func(results []RuleResult, failed bool)

// Watch re-runs matching rules whenever files under root change.
// Events are debounced so editor save bursts trigger one run.
func (p *Pipeline) Watch(ctx context.Context, root string, debounce time.Duration, fn WatchFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addDirs(watcher, root); err != nil {
		return err
	}

	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	pending := make(map[string]bool)
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				// New directories get watched too.
				addDirs(watcher, event.Name)
				continue
			}
			rel, err := filepath.Rel(root, event.Name)
			if err != nil {
				rel = event.Name
			}
			if p.anyRuleMatches(rel) {
				pending[rel] = true
				timer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if p.log != nil {
				p.log.Warn("watch error", map[string]interface{}{"error": err.Error()})
			}

		case <-timer.C:
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
			}
			pending = make(map[string]bool)

			results, failed := p.Run(ctx, files)
			fn(results, failed)
		}
	}
}

func (p *Pipeline) anyRuleMatches(path string) bool {
	for i := range p.cfg.Hooks {
		if p.cfg.Hooks[i].Matches(path) {
			return true
		}
	}
	return false
}

func addDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep walking the rest
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if strings.HasPrefix(base, ".") && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

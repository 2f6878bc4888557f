package shared

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// ShouldReloadConfig reports whether an fsnotify event warrants a config reload.
//
// Some editors save via temp file + rename, so the event path may not match
// the watched path exactly; the base filename is compared as a fallback.
func ShouldReloadConfig(configPath, configBase string, event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	if name == configPath {
		return true
	}
	if filepath.Base(name) == configBase {
		return true
	}
	return false
}

// WatchConfig watches the config file's directory and invokes onChange with
// the freshly loaded config whenever the file is rewritten. A load failure is
// logged and the previous config stays in effect. Returns when ctx is done.
func WatchConfig(ctx context.Context, path string, logger *log.Logger, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	cleaned := filepath.Clean(path)
	base := filepath.Base(cleaned)

	// Watch the directory rather than the file itself so rename-based saves
	// keep the watch alive.
	if err := watcher.Add(filepath.Dir(cleaned)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ShouldReloadConfig(cleaned, base, event) {
				continue
			}

			config, err := LoadConfig(cleaned)
			if err != nil {
				logger.Warnf("config changed but reload failed: %v", err)
				continue
			}

			logger.Infof("config reloaded from %v", cleaned)
			onChange(config)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("config watcher error: %v", err)
		}
	}
}

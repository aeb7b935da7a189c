package facility

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"shipdesk/internal/logger"
)

// Watch reloads the directory whenever the facility file changes.
// Editors often replace files via rename, so the watch sits on the
// parent directory and filters on the file name. Blocks until ctx ends.
func Watch(ctx context.Context, path string, dir *Directory) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Infof("watching facility file %s for changes", abs)

	// Debounce: writers often emit several events per save.
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(200 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("facility watcher: %v", err)
		case <-pending:
			pending = nil
			if err := dir.ReloadFrom(abs); err != nil {
				logger.Warnf("facility reload failed, keeping previous directory: %v", err)
				continue
			}
			logger.Infof("facility directory reloaded (%d facilities)", dir.Len())
		}
	}
}

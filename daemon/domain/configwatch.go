package domain

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/coldwatch/hmi-core/daemon/logger"
)

// WatchConfigDrift watches path for writes, renames or removals after startup and
// logs a single warning per event. Config is an immutable startup
// snapshot; this never triggers a reload, it only tells the operator
// their edit did not take effect until restart.
func WatchConfigDrift(path string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
					logger.Warning("config file %s changed on disk (%s), restart to apply", path, event.Op)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warning("config watcher error: %v", err)
			}
		}
	}()

	return watcher, nil
}

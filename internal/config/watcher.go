package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// ModelMapWatcher invalidates the model-map cache when the file changes on
// disk. The parent directory is watched so the file may appear after start.
type ModelMapWatcher struct {
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// WatchModelMap starts watching the configured model-map file.
func WatchModelMap() (*ModelMapWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	path := ModelMapFile()
	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &ModelMapWatcher{
		watcher: watcher,
		stopCh:  make(chan struct{}),
		running: true,
	}
	go w.loop(filepath.Clean(path))
	return w, nil
}

func (w *ModelMapWatcher) loop(path string) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				logrus.Debugf("model map changed (%s), invalidating cache", event.Op)
				ResetModelMapCache()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logrus.Warnf("model map watcher: %v", err)
		case <-w.stopCh:
			return
		}
	}
}

// Stop stops the watcher. Safe to call more than once.
func (w *ModelMapWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
	w.watcher.Close()
}

package auth

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/augment-usage-tui/internal/logger"
)

// Watcher feeds a credential store from a cookie file on disk, reloading
// whenever the file changes. This is the credential input path for the TUI:
// paste the session cookie into the file and the store picks it up.
type Watcher struct {
	store         *Store
	filePath      string
	watcher       *fsnotify.Watcher
	stopChan      chan struct{}
	stopOnce      sync.Once
	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// NewWatcher loads the cookie file into the store (a missing file is not an
// error) and starts watching for changes.
func NewWatcher(store *Store, filePath string) (*Watcher, error) {
	w := &Watcher{
		store:    store,
		filePath: filePath,
		stopChan: make(chan struct{}),
	}

	w.loadFile()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.watcher = watcher

	// Watch the directory to catch file creation and editor rename-replace
	dir := filepath.Dir(filePath)
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, err
	}

	go w.watchLoop()
	return w, nil
}

// watchLoop handles file system events with debouncing.
func (w *Watcher) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Only care about the cookie file
			if filepath.Base(event.Name) != filepath.Base(w.filePath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.debounceMu.Lock()
				if w.debounceTimer != nil {
					w.debounceTimer.Stop()
				}
				w.debounceTimer = time.AfterFunc(debounceInterval, w.loadFile)
				w.debounceMu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("cookie watcher error", "error", err)

		case <-w.stopChan:
			return
		}
	}
}

// loadFile reads the cookie file and pushes its content into the store.
// A deleted or emptied file clears the credential.
func (w *Watcher) loadFile() {
	data, err := os.ReadFile(w.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			if w.store.IsAuthenticated() {
				logger.Info("cookie file removed, clearing credential", "path", w.filePath)
				w.store.Clear()
			}
			return
		}
		logger.Error("failed to read cookie file", "path", w.filePath, "error", err)
		return
	}

	if err := w.store.Set(string(data)); err != nil {
		logger.Warn("cookie file contains an invalid credential", "path", w.filePath, "error", err)
	}
}

// Close stops watching. Idempotent.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		err = w.watcher.Close()
	})
	return err
}

package project

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change represents a detected edit of the watched project file.
type Change struct {
	Path string
	At   time.Time
}

// Watcher monitors a project file for edits using fsnotify. Events are
// debounced so an editor's burst of writes produces a single Change,
// which is the recompute trigger: callers reload and re-run the engine
// once per burst instead of once per write.
type Watcher struct {
	Path    string
	Changes <-chan Change // Read-only external channel

	changes chan Change // Internal write channel
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// debounce is how long the watcher waits after the last write before
// emitting a Change.
const debounce = 100 * time.Millisecond

// NewWatcher creates a watcher for the given project file path.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ch := make(chan Change, 4)
	return &Watcher{
		Path:    path,
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
	}, nil
}

// Start begins watching. The file's directory is watched rather than
// the file itself, so editors that replace-on-save keep being tracked.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.Path)); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and channels.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done // Wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	var pending time.Time
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				if !pending.IsZero() {
					w.changes <- Change{Path: w.Path, At: pending}
				}
				return
			}
			if !w.isProjectFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			if !pending.IsZero() && time.Since(pending) >= debounce {
				w.changes <- Change{Path: w.Path, At: pending}
				pending = time.Time{}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; keep looping.
		}
	}
}

func (w *Watcher) isProjectFile(name string) bool {
	return filepath.Base(name) == filepath.Base(w.Path)
}

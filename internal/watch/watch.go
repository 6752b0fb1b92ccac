// Package watch monitors the changes output directory so an operator
// editing commit and tag messages gets immediate feedback on which
// packages are ready for the next stage.
package watch

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event reports an edit to a message artifact.
type Event struct {
	Package string // package the artifact belongs to
	File    string // absolute path to the artifact
}

// Watcher monitors the per-package artifact directories under a changes
// root using fsnotify.
type Watcher struct {
	Dir    string
	Events <-chan Event // read-only external channel

	names   map[string]bool
	events  chan Event
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// New creates a watcher for the given changes root. Only files whose
// base name is in names are reported.
func New(dir string, names ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	nameSet := make(map[string]bool, len(names))
	for _, n := range names {
		nameSet[n] = true
	}

	ch := make(chan Event, 16)
	w := &Watcher{
		Dir:     dir,
		Events:  ch,
		names:   nameSet,
		events:  ch,
		done:    make(chan struct{}),
		watcher: fw,
	}
	return w, nil
}

// Start begins watching the changes root and every package directory
// already under it. Package directories created later are picked up
// automatically.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Dir); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := w.watcher.Add(filepath.Join(w.Dir, entry.Name())); err != nil {
			return err
		}
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and channels.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done // wait for loop to exit
	close(w.events)
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Debounce: editors fire several events per save.
	const debounce = 100 * time.Millisecond
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					w.emit(file)
				}
				return
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					// A new package entered the release cycle.
					w.watcher.Add(event.Name)
					continue
				}
			}

			if !w.isArtifact(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending[event.Name] = time.Now()
			}

		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= debounce {
					w.emit(file)
					delete(pending, file)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal.
		}
	}
}

func (w *Watcher) isArtifact(name string) bool {
	return w.names[filepath.Base(name)]
}

func (w *Watcher) emit(file string) {
	w.events <- Event{
		Package: filepath.Base(filepath.Dir(file)),
		File:    file,
	}
}

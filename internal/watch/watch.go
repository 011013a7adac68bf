// Package watch polls data directories for changes so the pair census can
// be refreshed while the application is open.
package watch

import (
	"os"
	"sync"
	"time"
)

// Fingerprint summarizes a directory set: how many files it holds and the
// newest modification time among them. Two equal fingerprints mean no
// relevant change was observed.
type Fingerprint struct {
	Files  int
	Latest time.Time
}

// DirWatcher periodically fingerprints a set of directories and triggers a
// callback whenever the fingerprint changes. Missing directories count as
// empty, so a watcher can be started before the data tree exists.
type DirWatcher struct {
	dirs          []string
	checkInterval time.Duration
	stopCh        chan struct{}
	onChange      func()

	mu       sync.Mutex
	baseline Fingerprint
}

// NewDirWatcher creates a watcher over dirs with the given poll interval.
// The baseline is taken immediately.
func NewDirWatcher(checkInterval time.Duration, dirs ...string) *DirWatcher {
	return &DirWatcher{
		dirs:          dirs,
		checkInterval: checkInterval,
		stopCh:        make(chan struct{}),
		baseline:      Snapshot(dirs...),
	}
}

// OnChange sets the callback to invoke when a change is detected. The
// callback is called from a background goroutine - use appropriate
// synchronization if updating UI. Set it before Start.
func (w *DirWatcher) OnChange(callback func()) {
	w.onChange = callback
}

// Start begins polling in a background goroutine.
func (w *DirWatcher) Start() {
	// Create a fresh stop channel in case we're restarting
	w.stopCh = make(chan struct{})
	go w.watchLoop()
}

// Stop stops the watcher goroutine.
func (w *DirWatcher) Stop() {
	close(w.stopCh)
}

// Baseline returns the fingerprint changes are compared against.
func (w *DirWatcher) Baseline() Fingerprint {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.baseline
}

// ResetBaseline re-fingerprints the directories so pending changes stop
// triggering notifications.
func (w *DirWatcher) ResetBaseline() {
	current := Snapshot(w.dirs...)
	w.mu.Lock()
	w.baseline = current
	w.mu.Unlock()
}

// watchLoop polls until stopped. After each notification the baseline
// advances to the observed state, so the watcher keeps reporting later
// changes instead of firing once.
func (w *DirWatcher) watchLoop() {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			current := Snapshot(w.dirs...)
			w.mu.Lock()
			changed := current != w.baseline
			if changed {
				w.baseline = current
			}
			w.mu.Unlock()
			if changed && w.onChange != nil {
				w.onChange()
			}
		}
	}
}

// Snapshot fingerprints dirs. Directories that cannot be read contribute
// nothing.
func Snapshot(dirs ...string) Fingerprint {
	var fp Fingerprint
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			fp.Files++
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if mt := info.ModTime(); mt.After(fp.Latest) {
				fp.Latest = mt
			}
		}
	}
	return fp
}

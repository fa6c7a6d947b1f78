//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package watch reports changes made by other programs to the files of
// open documents.
package watch

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// A Watcher sends the paths of watched files that were written or replaced.
// Directories are watched rather than files so that files replaced by a
// rename are still seen.
type Watcher struct {
	watcher *fsnotify.Watcher
	events  chan string
	logger  *slog.Logger

	mu    sync.Mutex
	files map[string]string // absolute path -> path as added
	dirs  map[string]int    // watched directory -> number of watched files in it
}

func New(logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher: fw,
		events:  make(chan string, 16),
		logger:  logger,
		files:   make(map[string]string),
		dirs:    make(map[string]int),
	}
	go w.run()
	return w, nil
}

// Events delivers changed paths, as they were passed to Add.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Add starts watching path. Adding a watched path does nothing.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[abs]; ok {
		return nil
	}
	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.files[abs] = path
	return nil
}

// Remove stops watching path.
func (w *Watcher) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[abs]; !ok {
		return nil
	}
	delete(w.files, abs)
	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] == 0 {
		delete(w.dirs, dir)
		return w.watcher.Remove(dir)
	}
	return nil
}

// Sync watches exactly the given paths.
func (w *Watcher) Sync(paths []string) {
	wanted := make(map[string]bool)
	for _, path := range paths {
		if abs, err := filepath.Abs(path); err == nil {
			wanted[abs] = true
		}
		if err := w.Add(path); err != nil {
			w.logger.Warn("cannot watch file", "path", path, "error", err)
		}
	}
	w.mu.Lock()
	var stale []string
	for abs := range w.files {
		if !wanted[abs] {
			stale = append(stale, abs)
		}
	}
	w.mu.Unlock()
	for _, abs := range stale {
		w.Remove(abs)
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) run() {
	defer close(w.events)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			path, watched := w.files[filepath.Clean(event.Name)]
			w.mu.Unlock()
			if !watched {
				continue
			}
			select {
			case w.events <- path:
			default:
				// a change for this path is probably already queued
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

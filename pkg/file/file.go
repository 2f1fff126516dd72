// Package file provides a ripple.Watcher for a file on disk, backed by
// fsnotify.
//
// The watcher observes the file's directory rather than the file itself so
// that editors replacing the file through a rename are still seen.
//
//	w := file.New("/etc/app/theme.json")
//	done, err := ripple.Bind(ctx, g, ripple.On(w, file.Contents), w, queue)
package file

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/zoobzio/ripple"
)

// Contents is the channel a Watcher is conventionally bound to.
const Contents = "contents"

// Watcher emits a file's contents whenever they change.
type Watcher struct {
	path string
}

// New creates a Watcher for path.
func New(path string) *Watcher {
	return &Watcher{path: filepath.Clean(path)}
}

// Path returns the watched path.
func (w *Watcher) Path() string {
	return w.path
}

// Watch emits the current contents immediately and then the new contents
// after every write, create or rename that changes them. Empty contents
// are not emitted after the first value. The file must exist when Watch is
// called.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	initial, err := os.ReadFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", w.path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch directory of %s: %w", w.path, err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer fsw.Close()

		last := initial
		select {
		case out <- initial:
		case <-ctx.Done():
			return
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}

				// An empty read is a truncate that the following write
				// will complete.
				data, err := os.ReadFile(w.path)
				if err != nil || len(data) == 0 || bytes.Equal(data, last) {
					continue
				}
				last = data

				select {
				case out <- data:
				case <-ctx.Done():
					return
				}

			case _, ok := <-fsw.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return out, nil
}

var _ ripple.Watcher = (*Watcher)(nil)

/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package invalidate watches a compilation's file/context dependencies
// and turns filesystem change events into the BuildDependency set that
// drives the next incremental make cycle (spec §4.D "Incrementality",
// SPEC_FULL.md §13). Grounded on the teacher's
// internal/platform.FSNotifyFileWatcher abstraction, generalized from a
// single generate-session watch loop to an arbitrary file-dependency set.
package invalidate

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Op mirrors the subset of filesystem operations the core cares about.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
)

// Event is one observed filesystem change.
type Event struct {
	Path string
	Op   Op
}

// Watcher watches an explicit set of files (spec §3 Artifact
// "FileDependencies"/"ContextDependencies") and emits one Event for each
// fsnotify event it receives; changes are not coalesced (spec §5 "external collaborators enforce wall-clock
// budgets" — the core itself stays a passive consumer of this channel).
type Watcher struct {
	fsw    *fsnotify.Watcher
	events chan Event
	errors chan error

	mu      sync.Mutex
	watched map[string]bool
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// New starts an fsnotify-backed watcher with no paths registered yet.
func New() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("invalidate: creating fsnotify watcher: %w", err)
	}
	w := &Watcher{
		fsw:     fsw,
		events:  make(chan Event, 256),
		errors:  make(chan error, 16),
		watched: map[string]bool{},
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.translate()
	}()
	return w, nil
}

// Watch adds a file to the watch set. Re-adding an already-watched path
// is a no-op (fsnotify itself would otherwise return a benign error).
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		return fmt.Errorf("invalidate: watching %q: %w", path, err)
	}
	w.watched[path] = true
	return nil
}

// Sync reconciles the watch set against the current file/context
// dependency sets of a build, adding newly discovered paths. Modules that
// drop out of the dependency set (e.g. an import was removed) are left
// watched; a stray extra watch is harmless, unlike a missed invalidation.
func (w *Watcher) Sync(fileDeps, contextDeps map[string]bool) error {
	for p := range fileDeps {
		if err := w.Watch(p); err != nil {
			return err
		}
	}
	for p := range contextDeps {
		if err := w.Watch(p); err != nil {
			return err
		}
	}
	return nil
}

// Events returns the channel of translated filesystem events.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors returns the channel of watcher-level errors (distinct from
// per-file build diagnostics, spec §7).
func (w *Watcher) Errors() <-chan error { return w.errors }

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	w.mu.Unlock()

	w.wg.Wait()
	err := w.fsw.Close()
	close(w.events)
	close(w.errors)
	return err
}

func (w *Watcher) translate() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			var op Op
			switch {
			case ev.Op&fsnotify.Create != 0:
				op |= OpCreate
			case ev.Op&fsnotify.Write != 0:
				op |= OpWrite
			case ev.Op&fsnotify.Remove != 0:
				op |= OpRemove
			case ev.Op&fsnotify.Rename != 0:
				op |= OpRename
			}
			if op == 0 {
				continue
			}
			w.mu.Lock()
			closed := w.closed
			w.mu.Unlock()
			if closed {
				return
			}
			select {
			case w.events <- Event{Path: ev.Name, Op: op}:
			case <-w.done:
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		case <-w.done:
			return
		}
	}
}

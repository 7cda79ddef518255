/*
Copyright 2025 The goARRG Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package main

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"goarrg.com/debug"
)

// shaderWatcher coalesces file events in a directory into a single pending
// reload flag that the frame loop polls.
type shaderWatcher struct {
	logger  *debug.Logger
	watcher *fsnotify.Watcher
	pending chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

func newShaderWatcher(logger *debug.Logger, dir string) (*shaderWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create watcher")
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, debug.ErrorWrapf(err, "Failed to watch %q", dir)
	}

	w := &shaderWatcher{
		logger:  logger,
		watcher: watcher,
		pending: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *shaderWatcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.VPrintf("Shader change: %s", event)
			select {
			case w.pending <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WPrintf("Watcher error: %v", err)
		}
	}
}

// changed reports whether anything changed since the last call, it never blocks.
func (w *shaderWatcher) changed() bool {
	select {
	case <-w.pending:
		return true
	default:
		return false
	}
}

func (w *shaderWatcher) close() {
	close(w.done)
	w.wg.Wait()
	if err := w.watcher.Close(); err != nil {
		w.logger.WPrintf("Failed to close watcher: %v", err)
	}
}

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

package mve

import (
	"goarrg.com"
	"goarrg.com/debug"
)

type platform struct{}

func (platform) Abort()                           { panic("Fatal Error") }
func (platform) AbortPopup(f string, args ...any) { panic("Fatal Error") }

// fallback serves assertions on values that live outside a Renderer, such as
// VertexData and shader reflection lookups.
var fallback = struct {
	platform goarrg.PlatformInterface
	logger   *debug.Logger
}{
	platform: platform{},
	logger:   debug.NewLogger("mve"),
}

func abort(fmt string, args ...any) {
	fallback.logger.EPrintf(fmt, args...)
	fallback.platform.Abort()
}

func (r *Renderer) abort(fmt string, args ...any) {
	r.logger.EPrintf(fmt, args...)
	r.platform.Abort()
}

// check aborts with a description of what failed when a driver call errors.
func (r *Renderer) check(err error, what string, args ...any) {
	if err != nil {
		r.abort("Failed to "+what+": %v", append(args, err)...)
	}
}

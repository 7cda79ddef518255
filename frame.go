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
	"goarrg.com/rhi/mve/internal/container"
)

// frameInFlight is the host side of one ring entry. Its command buffer, fence
// and semaphores live in the driver under the same slot index.
type frameInFlight struct {
	// pending holds deferred action ids to run when this slot is next current.
	pending container.Queue[uint64]
}

// drawState is only meaningful between BeginFrame and EndFrame.
type drawState struct {
	drawing    bool
	slot       int
	image      uint32
	renderPass bool
	bound      bool
	pipeline   GraphicsPipeline
}

func (r *Renderer) initFrames() {
	r.logger.VPrintf("Creating %d frames in flight", r.config.framesInFlight)
	r.check(r.driver.CreateFrames(r.config.framesInFlight), "create %d frames in flight", r.config.framesInFlight)
	r.frames = make([]frameInFlight, r.config.framesInFlight)
	r.frameIndex = 0
}

// FramesInFlight returns the size of the frame ring.
func (r *Renderer) FramesInFlight() int {
	r.noCopy.Check()
	return len(r.frames)
}

// FrameIndex returns the ring slot the current or next frame records into.
func (r *Renderer) FrameIndex() int {
	r.noCopy.Check()
	return r.frameIndex
}

// Drawing reports whether a frame is being recorded.
func (r *Renderer) Drawing() bool {
	r.noCopy.Check()
	return r.draw.drawing
}

func (r *Renderer) assertDrawing(what string) {
	if !r.draw.drawing {
		r.abort("%s called outside of BeginFrame/EndFrame", what)
	}
}

func (r *Renderer) assertNotDrawing(what string) {
	if r.draw.drawing {
		r.abort("%s called while drawing", what)
	}
}

func (r *Renderer) assertRenderPass(what string) {
	r.assertDrawing(what)
	if !r.draw.renderPass {
		r.abort("%s called outside of a render pass", what)
	}
}

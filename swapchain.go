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
	"time"

	"goarrg.com/gmath"
)

// Window is the windowing collaborator the swapchain is sized against.
type Window interface {
	// FramebufferSize returns the drawable size in pixels, zero on either
	// axis while minimized.
	FramebufferSize() gmath.Extent3i32
	// WaitEvents blocks until the window receives an event.
	WaitEvents()
	SetResizeCallback(func(gmath.Extent3i32))
}

func (r *Renderer) initSwapchain() {
	r.window.SetResizeCallback(func(size gmath.Extent3i32) {
		r.logger.VPrintf("Window resized: %dx%d", size.X, size.Y)
		r.resizePending = true
	})
	r.createSwapchain()
}

// waitForExtent blocks until the window reports a drawable area.
func (r *Renderer) waitForExtent() gmath.Extent3i32 {
	size := r.window.FramebufferSize()
	for size.X == 0 || size.Y == 0 {
		r.window.WaitEvents()
		size = r.window.FramebufferSize()
	}
	return size
}

func (r *Renderer) createSwapchain() {
	size := r.waitForExtent()
	extent, err := r.driver.CreateSwapchain(size)
	r.check(err, "create swapchain of size %dx%d", size.X, size.Y)
	r.extent = extent
}

func (r *Renderer) recreateSwapchain() {
	r.profiler.Start("RecreateSwapchain")
	defer r.profiler.Stop("RecreateSwapchain")

	start := time.Now()
	size := r.waitForExtent()

	r.check(r.driver.WaitIdle(), "wait for device idle")
	r.driver.DestroySwapchain()

	extent, err := r.driver.CreateSwapchain(size)
	r.check(err, "recreate swapchain of size %dx%d", size.X, size.Y)
	r.extent = extent
	r.resizePending = false

	r.recreateFramebuffers()
	r.logger.IPrintf("Swapchain recreated: %dx%d, took: %v", extent.X, extent.Y, time.Since(start))
}

// recreateFramebuffers rebuilds every live framebuffer in place so handles
// held by clients stay valid, then notifies observers of the new textures.
func (r *Renderer) recreateFramebuffers() {
	live := r.framebuffers.handles()
	for _, h := range live {
		fb := r.framebuffers.get(h)
		texture := r.textures.get(Handle(fb.texture))

		r.driver.DestroyFramebuffer(fb.native)
		r.driver.DestroyTexture(texture.native)

		native, nativeTexture, size, err := r.driver.CreateFramebuffer()
		r.check(err, "recreate framebuffer %d", h)

		fb.native = native
		fb.size = size
		texture.native = nativeTexture
		texture.size = size
		r.logger.VPrintf("Recreated framebuffer: %d texture: %d size: %dx%d", h, fb.texture, size.X, size.Y)
	}
	for _, h := range live {
		fb := r.framebuffers.get(h)
		for _, o := range fb.observers {
			o.FramebufferRecreated(Framebuffer(h), fb.texture)
		}
	}
}

// Resize rebuilds the swapchain against the window's current size, blocking
// while the window has no drawable area.
func (r *Renderer) Resize() {
	r.noCopy.Check()
	r.assertNotDrawing("Resize")
	r.recreateSwapchain()
}

// Extent returns the size of the swapchain images.
func (r *Renderer) Extent() gmath.Extent3i32 {
	r.noCopy.Check()
	return r.extent
}

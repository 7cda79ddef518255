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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goarrg.com/gmath"
)

func TestResizeWaitsForNonZeroExtent(t *testing.T) {
	r, d, w := newTestRenderer(2)
	w.size = gmath.Extent3i32{}
	w.sizes = []gmath.Extent3i32{{}, {X: 0, Y: 100, Z: 1}, {X: 100, Y: 0, Z: 1}, {X: 800, Y: 600, Z: 1}}

	mark := len(d.calls)
	r.Resize()
	assert.Equal(t, 4, w.waits)
	assert.Equal(t, []string{"WaitIdle", "DestroySwapchain", "CreateSwapchain(800x600)"}, d.since(mark))
	assert.True(t, d.swapchainLive)
	assert.Equal(t, gmath.Extent3i32{X: 800, Y: 600, Z: 1}, r.Extent())
}

func TestResizeCallbackRebuildsAtFrameBoundary(t *testing.T) {
	r, d, w := newTestRenderer(2)

	require.True(t, r.BeginFrame())
	w.resize(gmath.Extent3i32{X: 320, Y: 200, Z: 1})
	assert.Equal(t, 1, d.swapchains, "rebuilt while recording")
	r.EndFrame()
	assert.Equal(t, 2, d.swapchains)
	assert.Equal(t, gmath.Extent3i32{X: 320, Y: 200, Z: 1}, r.Extent())

	// minimized between frames, BeginFrame blocks until restored
	w.resize(gmath.Extent3i32{})
	w.sizes = []gmath.Extent3i32{{X: 1024, Y: 768, Z: 1}}
	runFrame(t, r, nil)
	assert.Equal(t, 3, d.swapchains)
	assert.Equal(t, 1, w.waits)
	assert.Equal(t, gmath.Extent3i32{X: 1024, Y: 768, Z: 1}, r.Extent())
}

func TestResizeWhileDrawing(t *testing.T) {
	r, _, _ := newTestRenderer(2)
	require.True(t, r.BeginFrame())
	assert.Panics(t, func() { r.Resize() })
}

func TestFramebufferRecreatedInPlace(t *testing.T) {
	r, d, w := newTestRenderer(2)

	type notification struct {
		fb  Framebuffer
		tex Texture
	}
	var got []notification
	observer := FramebufferObserverFunc(func(fb Framebuffer, tex Texture) {
		// the framebuffer is already rebuilt when observers run
		assert.Equal(t, r.Extent(), r.FramebufferSize(fb))
		got = append(got, notification{fb, tex})
	})

	fb := r.CreateFramebuffer(observer)
	tex := r.FramebufferTexture(fb)
	oldFramebuffer := r.framebuffers.get(Handle(fb)).native
	oldTexture := r.textures.get(Handle(tex)).native
	assert.Equal(t, gmath.Extent3i32{X: 640, Y: 480, Z: 1}, r.FramebufferSize(fb))

	w.size = gmath.Extent3i32{X: 800, Y: 600, Z: 1}
	r.Resize()

	assert.Equal(t, []notification{{fb, tex}}, got)
	assert.Equal(t, tex, r.FramebufferTexture(fb))
	assert.Equal(t, gmath.Extent3i32{X: 800, Y: 600, Z: 1}, r.FramebufferSize(fb))
	assert.Equal(t, gmath.Extent3i32{X: 800, Y: 600, Z: 1}, r.TextureSize(tex))
	assert.False(t, d.isLive(oldFramebuffer))
	assert.False(t, d.isLive(oldTexture))
	assert.Equal(t, 1, d.liveCount("framebuffer"))
	assert.Equal(t, 1, d.liveCount("texture"))

	r.ObserveFramebuffer(fb, observer)
	r.Resize()
	assert.Len(t, got, 3)
}

func TestDestroyFramebuffer(t *testing.T) {
	r, d, _ := newTestRenderer(2)
	fb := r.CreateFramebuffer()
	tex := r.FramebufferTexture(fb)
	assert.Panics(t, func() { r.DestroyTexture(tex) })

	r.DestroyFramebuffer(fb)
	assert.Panics(t, func() { r.TextureSize(tex) })
	assert.Panics(t, func() { r.FramebufferSize(fb) })

	runFrame(t, r, nil)
	assert.Equal(t, 1, d.liveCount("framebuffer"))
	runFrame(t, r, nil)
	assert.Equal(t, 0, d.liveCount("framebuffer"))
	assert.Equal(t, 0, d.liveCount("texture"))

	// destroyed framebuffers are not rebuilt
	r.Resize()
	assert.Equal(t, 0, d.liveCount("framebuffer"))
}

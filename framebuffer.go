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
	"goarrg.com/gmath"
)

// FramebufferObserver is notified after a framebuffer was rebuilt for a new
// swapchain extent. The texture handle is unchanged but its contents and
// size are new, descriptor bindings sampling it must be rewritten.
type FramebufferObserver interface {
	FramebufferRecreated(framebuffer Framebuffer, texture Texture)
}

type FramebufferObserverFunc func(framebuffer Framebuffer, texture Texture)

func (f FramebufferObserverFunc) FramebufferRecreated(framebuffer Framebuffer, texture Texture) {
	f(framebuffer, texture)
}

type framebufferRecord struct {
	native    NativeFramebuffer
	texture   Texture
	size      gmath.Extent3i32
	observers []FramebufferObserver
}

// CreateFramebuffer creates an offscreen target sized to the swapchain that
// renders into a texture it owns.
func (r *Renderer) CreateFramebuffer(observers ...FramebufferObserver) Framebuffer {
	r.noCopy.Check()
	native, nativeTexture, size, err := r.driver.CreateFramebuffer()
	r.check(err, "create framebuffer")

	texture := r.textures.insert(textureRecord{
		native:      nativeTexture,
		format:      TextureFormatRGBA,
		size:        size,
		framebuffer: true,
	})
	h := r.framebuffers.insert(framebufferRecord{
		native:    native,
		texture:   Texture(texture),
		size:      size,
		observers: append([]FramebufferObserver(nil), observers...),
	})
	r.logger.VPrintf("Framebuffer created: %d texture: %d size: %dx%d", h, texture, size.X, size.Y)
	return Framebuffer(h)
}

func (r *Renderer) ObserveFramebuffer(framebuffer Framebuffer, observer FramebufferObserver) {
	r.noCopy.Check()
	fb := r.framebuffers.get(Handle(framebuffer))
	fb.observers = append(fb.observers, observer)
}

// DestroyFramebuffer releases the framebuffer together with its texture.
func (r *Renderer) DestroyFramebuffer(framebuffer Framebuffer) {
	r.noCopy.Check()
	fb := r.framebuffers.retire(Handle(framebuffer))
	r.textures.retire(Handle(fb.texture))
	r.purgeTextureWrites(fb.texture)
	fb.observers = nil
	r.logger.VPrintf("Framebuffer destroyed: %d texture: %d", framebuffer, fb.texture)
	r.deferAfterAllFrames(destroyFramebuffer{handle: framebuffer})
}

// FramebufferTexture returns the texture the framebuffer renders into.
func (r *Renderer) FramebufferTexture(framebuffer Framebuffer) Texture {
	r.noCopy.Check()
	return r.framebuffers.get(Handle(framebuffer)).texture
}

func (r *Renderer) FramebufferSize(framebuffer Framebuffer) gmath.Extent3i32 {
	r.noCopy.Check()
	return r.framebuffers.get(Handle(framebuffer)).size
}

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

// TextureFormat is the channel layout of 8 bit unorm pixel data.
type TextureFormat uint32

const (
	TextureFormatR TextureFormat = iota + 1
	TextureFormatRG
	TextureFormatRGB
	TextureFormatRGBA
)

func (f TextureFormat) String() string {
	switch f {
	case TextureFormatR:
		return "R"
	case TextureFormatRG:
		return "RG"
	case TextureFormatRGB:
		return "RGB"
	case TextureFormatRGBA:
		return "RGBA"
	default:
		abort("Unknown TextureFormat: %d", f)
	}
	return ""
}

// BytesPerPixel returns the size of one pixel.
func (f TextureFormat) BytesPerPixel() int {
	if f < TextureFormatR || f > TextureFormatRGBA {
		abort("Unknown TextureFormat: %d", f)
	}
	return int(f)
}

type textureRecord struct {
	native NativeTexture
	format TextureFormat
	size   gmath.Extent3i32
	// framebuffer textures are owned and released by their framebuffer.
	framebuffer bool
}

func (r *Renderer) CreateTexture(format TextureFormat, width, height int32, data []byte) Texture {
	r.noCopy.Check()
	if width <= 0 || height <= 0 {
		r.abort("Cannot create texture of size %dx%d", width, height)
	}
	if want := int(width) * int(height) * format.BytesPerPixel(); len(data) != want {
		r.abort("Texture data size mismatch: format %s size %dx%d needs %d bytes, got %d",
			format, width, height, want, len(data))
	}

	size := gmath.Extent3i32{X: width, Y: height, Z: 1}
	staging, err := r.driver.CreateStagingBuffer(data)
	r.check(err, "create staging buffer of size %d", len(data))
	native, err := r.driver.CreateTexture(format, size)
	r.check(err, "create %s texture of size %dx%d", format, width, height)
	r.recordUpload(uploadTexture{staging: staging, dst: native})

	h := r.textures.insert(textureRecord{native: native, format: format, size: size})
	r.logger.VPrintf("Texture created: %d format: %s size: %dx%d", h, format, width, height)
	return Texture(h)
}

// DestroyTexture aborts on textures owned by a framebuffer, destroy the
// framebuffer instead.
func (r *Renderer) DestroyTexture(texture Texture) {
	r.noCopy.Check()
	if r.textures.get(Handle(texture)).framebuffer {
		r.abort("Texture %d is owned by a framebuffer", texture)
	}
	t := r.textures.retire(Handle(texture))
	r.cancelUpload(t.native)
	r.purgeTextureWrites(texture)
	r.logger.VPrintf("Texture destroyed: %d", texture)
	r.deferAfterAllFrames(destroyTexture{handle: texture})
}

func (r *Renderer) TextureSize(texture Texture) gmath.Extent3i32 {
	r.noCopy.Check()
	return r.textures.get(Handle(texture)).size
}

func (r *Renderer) TextureFormat(texture Texture) TextureFormat {
	r.noCopy.Check()
	return r.textures.get(Handle(texture)).format
}

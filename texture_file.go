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
	"image"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"goarrg.com/debug"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TextureData is decoded pixel data ready for CreateTexture.
type TextureData struct {
	Format TextureFormat
	Width  int32
	Height int32
	Pixels []byte
}

// DecodeTexture decodes any registered image format into RGBA pixels.
func DecodeTexture(r io.Reader) (TextureData, error) {
	img, name, err := image.Decode(r)
	if err != nil {
		return TextureData{}, debug.ErrorWrapf(err, "Failed to decode image")
	}

	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	}
	fallback.logger.VPrintf("Decoded %s image: %dx%d", name, b.Dx(), b.Dy())

	return TextureData{
		Format: TextureFormatRGBA,
		Width:  int32(b.Dx()),
		Height: int32(b.Dy()),
		Pixels: rgba.Pix,
	}, nil
}

func (r *Renderer) CreateTextureFromData(data TextureData) Texture {
	return r.CreateTexture(data.Format, data.Width, data.Height, data.Pixels)
}

func (r *Renderer) CreateTextureFromFile(path string) (Texture, error) {
	r.noCopy.Check()
	f, err := os.Open(path)
	if err != nil {
		return 0, debug.ErrorWrapf(err, "Failed to open texture")
	}
	defer f.Close()

	data, err := DecodeTexture(f)
	if err != nil {
		return 0, debug.ErrorWrapf(err, "Failed to load texture %q", path)
	}
	return r.CreateTextureFromData(data), nil
}

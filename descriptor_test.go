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
)

func TestWriteDescriptorBinding(t *testing.T) {
	r, d, _ := newTestRenderer(2)
	vs, fs := testShaders()
	set := r.CreateDescriptorSet(r.CreateGraphicsPipeline(vs, fs, testLayout, true), 0)
	u := r.CreateUniformBuffer(vs.Binding(0, 0))
	tex := r.CreateTexture(TextureFormatRGBA, 1, 1, []byte{255, 255, 255, 255})

	r.WriteDescriptorBinding(set, 0, UniformWrite{Buffer: u})
	r.WriteDescriptorBinding(set, 1, TextureWrite{Texture: tex})

	copies := r.descriptorSets.get(Handle(set)).perFrame
	buffers := r.uniformBuffers.get(Handle(u)).perFrame
	texture := r.textures.get(Handle(tex)).native

	runFrame(t, r, nil)
	assert.Equal(t, map[uint32]any{0: buffers[0], 1: texture}, copies[0].(*fakeObject).bindings)
	assert.Empty(t, copies[1].(*fakeObject).bindings)

	runFrame(t, r, nil)
	assert.Equal(t, map[uint32]any{0: buffers[1], 1: texture}, copies[1].(*fakeObject).bindings)
	assert.Empty(t, r.descriptorWrites)

	// applied K times in total, never again
	mark := len(d.calls)
	runFrame(t, r, nil)
	for _, c := range d.since(mark) {
		assert.NotContains(t, c, "Descriptor")
	}
}

func TestWriteDescriptorBindingValidation(t *testing.T) {
	r, _, _ := newTestRenderer(2)
	vs, fs := testShaders()
	set := r.CreateDescriptorSet(r.CreateGraphicsPipeline(vs, fs, testLayout, true), 0)
	u := r.CreateUniformBuffer(vs.Binding(0, 0))
	tex := r.CreateTexture(TextureFormatR, 2, 2, make([]byte, 4))

	assert.Panics(t, func() { r.WriteDescriptorBinding(set, 0, TextureWrite{Texture: tex}) })
	assert.Panics(t, func() { r.WriteDescriptorBinding(set, 1, UniformWrite{Buffer: u}) })
	assert.Panics(t, func() { r.WriteDescriptorBinding(set, 5, UniformWrite{Buffer: u}) })
	assert.Panics(t, func() { r.WriteDescriptorBinding(set, 0, UniformWrite{Buffer: u + 1}) })
	assert.Empty(t, r.descriptorWrites)
}

func TestDestroyDescriptorSetDropsWrites(t *testing.T) {
	r, d, _ := newTestRenderer(2)
	vs, fs := testShaders()
	set := r.CreateDescriptorSet(r.CreateGraphicsPipeline(vs, fs, testLayout, true), 0)
	tex := r.CreateTexture(TextureFormatRGB, 1, 1, make([]byte, 3))
	r.WriteDescriptorBinding(set, 1, TextureWrite{Texture: tex})

	r.DestroyDescriptorSet(set)
	assert.Empty(t, r.descriptorWrites)
	assert.Panics(t, func() { r.DestroyDescriptorSet(set) })

	runFrame(t, r, nil)
	assert.Equal(t, 1, d.liveCount("set"))
	runFrame(t, r, nil)
	assert.Equal(t, 0, d.liveCount("set"))
}

func TestDestroyTextureDropsWrites(t *testing.T) {
	r, _, _ := newTestRenderer(2)
	vs, fs := testShaders()
	set := r.CreateDescriptorSet(r.CreateGraphicsPipeline(vs, fs, testLayout, true), 0)
	u := r.CreateUniformBuffer(vs.Binding(0, 0))
	tex := r.CreateTexture(TextureFormatRGB, 1, 1, make([]byte, 3))
	r.WriteDescriptorBinding(set, 0, UniformWrite{Buffer: u})
	r.WriteDescriptorBinding(set, 1, TextureWrite{Texture: tex})

	r.DestroyTexture(tex)
	require.Len(t, r.descriptorWrites, 1)
	assert.Equal(t, UniformWrite{Buffer: u}, r.descriptorWrites[0].write)
}

func TestCreateDescriptorSetInvalid(t *testing.T) {
	r, _, _ := newTestRenderer(2)
	vs, fs := testShaders()
	vs.Sets = append(vs.Sets, ShaderSet{Set: 2, Bindings: []ShaderBinding{{Binding: 0, Type: ShaderDescriptorCombinedImageSampler}}})
	pipeline := r.CreateGraphicsPipeline(vs, fs, testLayout, true)

	assert.Panics(t, func() { r.CreateDescriptorSet(pipeline, 1) }, "set 1 has no bindings")
	assert.Panics(t, func() { r.CreateDescriptorSet(pipeline, 3) })
	assert.NotPanics(t, func() { r.CreateDescriptorSet(pipeline, 2) })
}

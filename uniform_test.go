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

	"goarrg.com/rhi/mve/internal/util"
)

func uniformCopy(r *Renderer, u UniformBuffer, slot int, location UniformLocation, size int) []byte {
	o := r.uniformBuffers.get(Handle(u)).perFrame[slot].(*fakeObject)
	return o.data[location : int(location)+size]
}

func TestUpdateUniformPersist(t *testing.T) {
	for _, k := range []int32{1, 2, 3} {
		r, _, _ := newTestRenderer(k)
		vs, _ := testShaders()
		binding := vs.Binding(0, 0)
		u := r.CreateUniformBuffer(binding)
		proj := binding.Block.Location("proj")
		value := [16]float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
		want := util.Bytes(value)

		runFrame(t, r, func() {
			UpdateUniform(r, u, proj, value, true)
			assert.Equal(t, want, uniformCopy(r, u, r.FrameIndex(), proj, len(want)))
		})
		// every following frame sees the value without another update
		for i := int32(0); i < k+1; i++ {
			runFrame(t, r, func() {
				assert.Equal(t, want, uniformCopy(r, u, r.FrameIndex(), proj, len(want)), "K=%d frame %d", k, i)
			})
		}
		for slot := 0; slot < int(k); slot++ {
			assert.Equal(t, want, uniformCopy(r, u, slot, proj, len(want)))
		}
		assert.Empty(t, r.uniformUpdates)
	}
}

func TestUpdateUniformCurrentFrameOnly(t *testing.T) {
	r, _, _ := newTestRenderer(2)
	vs, _ := testShaders()
	binding := vs.Binding(0, 0)
	u := r.CreateUniformBuffer(binding)
	model := binding.Block.Location("model")
	zero := make([]byte, 4)

	runFrame(t, r, func() {
		UpdateUniform(r, u, model, float32(3), false)
	})
	assert.Equal(t, util.Bytes(float32(3)), uniformCopy(r, u, 0, model, 4))
	runFrame(t, r, nil)
	assert.Equal(t, zero, uniformCopy(r, u, 1, model, 4))
	assert.Empty(t, r.uniformUpdates)

	// outside of a frame the write lands on the next frame to begin
	UpdateUniform(r, u, model, float32(7), false)
	assert.Equal(t, util.Bytes(float32(3)), uniformCopy(r, u, 0, model, 4))
	runFrame(t, r, nil)
	assert.Equal(t, util.Bytes(float32(7)), uniformCopy(r, u, 0, model, 4))
	assert.Equal(t, zero, uniformCopy(r, u, 1, model, 4))
}

func TestUpdateUniformSupersedesPending(t *testing.T) {
	r, _, _ := newTestRenderer(2)
	vs, _ := testShaders()
	u := r.CreateUniformBuffer(vs.Binding(0, 0))

	UpdateUniform(r, u, 0, float32(1), true)
	UpdateUniform(r, u, 0, float32(2), true)
	require.Len(t, r.uniformUpdates, 1)
	runFrame(t, r, nil)
	runFrame(t, r, nil)
	assert.Equal(t, util.Bytes(float32(2)), uniformCopy(r, u, 0, 0, 4))
	assert.Equal(t, util.Bytes(float32(2)), uniformCopy(r, u, 1, 0, 4))
}

func TestUpdateUniformOverflow(t *testing.T) {
	r, _, _ := newTestRenderer(2)
	vs, _ := testShaders()
	u := r.CreateUniformBuffer(vs.Binding(0, 0))
	assert.Equal(t, uint64(128), r.UniformBufferSize(u))
	assert.Panics(t, func() { UpdateUniform(r, u, 120, [4]float32{}, false) })
	assert.NotPanics(t, func() { UpdateUniform(r, u, 112, [4]float32{}, false) })
}

func TestCreateUniformBufferFromSampler(t *testing.T) {
	r, _, _ := newTestRenderer(2)
	_, fs := testShaders()
	assert.Panics(t, func() { r.CreateUniformBuffer(fs.Binding(0, 1)) })
}

func TestDestroyUniformBufferDropsPending(t *testing.T) {
	r, _, _ := newTestRenderer(2)
	vs, fs := testShaders()
	u := r.CreateUniformBuffer(vs.Binding(0, 0))
	set := r.CreateDescriptorSet(r.CreateGraphicsPipeline(vs, fs, testLayout, true), 0)

	UpdateUniform(r, u, 0, float32(1), true)
	r.WriteDescriptorBinding(set, 0, UniformWrite{Buffer: u})
	r.DestroyUniformBuffer(u)
	assert.Empty(t, r.uniformUpdates)
	assert.Empty(t, r.descriptorWrites)
	assert.Panics(t, func() { UpdateUniform(r, u, 0, float32(1), false) })

	runFrame(t, r, nil)
	runFrame(t, r, nil)
}

func TestUpdateUniformTransientKeepsPersisted(t *testing.T) {
	r, _, _ := newTestRenderer(2)
	vs, _ := testShaders()
	binding := vs.Binding(0, 0)
	u := r.CreateUniformBuffer(binding)
	proj := binding.Block.Location("proj")

	UpdateUniform(r, u, proj, float32(1), true)
	UpdateUniform(r, u, proj, float32(2), false)
	require.Len(t, r.uniformUpdates, 2)
	runFrame(t, r, nil)
	runFrame(t, r, nil)
	assert.Equal(t, util.Bytes(float32(2)), uniformCopy(r, u, 0, proj, 4))
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, uniformCopy(r, u, 1, proj, 4))
	assert.Empty(t, r.uniformUpdates)

	// a later persisted write replaces both
	UpdateUniform(r, u, proj, float32(2), false)
	UpdateUniform(r, u, proj, float32(3), true)
	require.Len(t, r.uniformUpdates, 1)
}

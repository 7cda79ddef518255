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
	"slices"

	"goarrg.com/rhi/mve/internal/util"
)

type uniformBufferRecord struct {
	perFrame []NativeBuffer
	size     uint64
}

type pendingUniformUpdate struct {
	buffer    UniformBuffer
	location  UniformLocation
	data      []byte
	remaining int
	persist   bool
}

// CreateUniformBuffer creates one host visible buffer per frame in flight,
// sized to the binding's uniform block.
func (r *Renderer) CreateUniformBuffer(binding ShaderBinding) UniformBuffer {
	r.noCopy.Check()
	if binding.Type != ShaderDescriptorUniformBuffer {
		r.abort("Cannot create uniform buffer for binding %d of type %s", binding.Binding, binding.Type)
	}
	if binding.Block == nil || binding.Block.Size == 0 {
		r.abort("Cannot create uniform buffer of size 0 for binding %d", binding.Binding)
	}

	size := uint64(binding.Block.Size)
	perFrame := make([]NativeBuffer, len(r.frames))
	for i := range perFrame {
		native, err := r.driver.CreateUniformBuffer(size)
		r.check(err, "create uniform buffer of size %d for frame %d", size, i)
		perFrame[i] = native
	}
	h := r.uniformBuffers.insert(uniformBufferRecord{perFrame: perFrame, size: size})
	r.logger.VPrintf("Uniform buffer created: %d size: %d", h, size)
	return UniformBuffer(h)
}

func (r *Renderer) DestroyUniformBuffer(buffer UniformBuffer) {
	r.noCopy.Check()
	r.uniformBuffers.retire(Handle(buffer))
	r.purgeUniformWrites(buffer)
	r.uniformUpdates = slices.DeleteFunc(r.uniformUpdates, func(u pendingUniformUpdate) bool {
		return u.buffer == buffer
	})
	r.logger.VPrintf("Uniform buffer destroyed: %d", buffer)
	r.deferToAllFrames(destroyUniformCopy{handle: buffer})
}

func (r *Renderer) UniformBufferSize(buffer UniformBuffer) uint64 {
	r.noCopy.Check()
	return r.uniformBuffers.get(Handle(buffer)).size
}

/*
UpdateUniformBytes writes data at location. While drawing the current frame's
copy is written immediately, otherwise the write lands on the next frame to
begin. With persist the data is also written to each of the next
FramesInFlight frames so every copy ends up holding it.
*/
func (r *Renderer) UpdateUniformBytes(buffer UniformBuffer, location UniformLocation, data []byte, persist bool) {
	r.noCopy.Check()
	u := r.uniformBuffers.get(Handle(buffer))
	if uint64(location)+uint64(len(data)) > u.size {
		r.abort("UpdateUniform(%d, len(data): %d) will overflow uniform buffer %d of size %d",
			location, len(data), buffer, u.size)
	}

	remaining := 0
	if r.draw.drawing {
		r.driver.WriteBuffer(u.perFrame[r.draw.slot], uint64(location), data)
	} else {
		remaining = 1
	}
	if persist {
		remaining = len(r.frames)
	}
	if remaining == 0 {
		return
	}

	// a one frame write must not cancel the persisted value for later frames
	r.uniformUpdates = slices.DeleteFunc(r.uniformUpdates, func(p pendingUniformUpdate) bool {
		return p.buffer == buffer && p.location == location && len(p.data) == len(data) &&
			(persist || !p.persist)
	})
	r.uniformUpdates = append(r.uniformUpdates, pendingUniformUpdate{
		buffer:    buffer,
		location:  location,
		data:      slices.Clone(data),
		remaining: remaining,
		persist:   persist,
	})
}

// UpdateUniform writes the in-memory representation of value at location,
// see UpdateUniformBytes.
func UpdateUniform[T comparable](r *Renderer, buffer UniformBuffer, location UniformLocation, value T, persist bool) {
	r.UpdateUniformBytes(buffer, location, util.Bytes(value), persist)
}

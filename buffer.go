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
	"goarrg.com/rhi/mve/internal/util"
)

type vertexBufferRecord struct {
	native      NativeBuffer
	size        uint64
	vertexCount uint32
}

type indexBufferRecord struct {
	native     NativeBuffer
	indexCount uint32
}

// uploadDeviceBuffer creates a device local buffer and schedules the copy of
// data into it through a staging buffer.
func (r *Renderer) uploadDeviceBuffer(usage BufferUsage, data []byte) NativeBuffer {
	size := uint64(len(data))
	staging, err := r.driver.CreateStagingBuffer(data)
	r.check(err, "create staging buffer of size %d", size)
	dst, err := r.driver.CreateDeviceBuffer(usage, size)
	r.check(err, "create %s buffer of size %d", usage, size)
	r.recordUpload(uploadBuffer{staging: staging, dst: dst, size: size, usage: usage})
	return dst
}

func (r *Renderer) CreateVertexBuffer(data *VertexData) VertexBuffer {
	r.noCopy.Check()
	bytes := data.Bytes()
	if len(bytes) == 0 {
		r.abort("Cannot create vertex buffer of size 0")
	}
	if !data.IsComplete() {
		r.logger.WPrintf("Creating vertex buffer from incomplete vertex data, %d trailing attributes ignored",
			data.DataCount()%len(data.layout))
	}
	native := r.uploadDeviceBuffer(BufferUsageVertex, bytes)
	h := r.vertexBuffers.insert(vertexBufferRecord{
		native:      native,
		size:        uint64(len(bytes)),
		vertexCount: uint32(data.VertexCount()),
	})
	r.logger.VPrintf("Vertex buffer created: %d", h)
	return VertexBuffer(h)
}

func (r *Renderer) DestroyVertexBuffer(buffer VertexBuffer) {
	r.noCopy.Check()
	vb := r.vertexBuffers.retire(Handle(buffer))
	r.cancelUpload(vb.native)
	r.logger.VPrintf("Vertex buffer destroyed: %d", buffer)
	r.deferAfterAllFrames(destroyVertexBuffer{handle: buffer})
}

// VertexCount returns the number of vertices a draw of buffer submits.
func (r *Renderer) VertexCount(buffer VertexBuffer) uint32 {
	r.noCopy.Check()
	return r.vertexBuffers.get(Handle(buffer)).vertexCount
}

func (r *Renderer) CreateIndexBuffer(indices []uint32) IndexBuffer {
	r.noCopy.Check()
	if len(indices) == 0 {
		r.abort("Cannot create index buffer of size 0")
	}
	native := r.uploadDeviceBuffer(BufferUsageIndex, util.SliceBytes(indices))
	h := r.indexBuffers.insert(indexBufferRecord{native: native, indexCount: uint32(len(indices))})
	r.logger.VPrintf("Index buffer created: %d", h)
	return IndexBuffer(h)
}

func (r *Renderer) DestroyIndexBuffer(buffer IndexBuffer) {
	r.noCopy.Check()
	ib := r.indexBuffers.retire(Handle(buffer))
	r.cancelUpload(ib.native)
	r.logger.VPrintf("Index buffer destroyed: %d", buffer)
	r.deferAfterAllFrames(destroyIndexBuffer{handle: buffer})
}

func (r *Renderer) IndexCount(buffer IndexBuffer) uint32 {
	r.noCopy.Check()
	return r.indexBuffers.get(Handle(buffer)).indexCount
}

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
package vkdriver

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/debug"
	"goarrg.com/rhi/mve"
)

type deviceBuffer struct {
	buffer vk.Buffer
	memory vk.DeviceMemory
	size   uint64
	// mapped is set for host visible buffers that stay mapped for life.
	mapped unsafe.Pointer
}

func (d *Driver) allocateMemory(requirements vk.MemoryRequirements, properties vk.MemoryPropertyFlagBits) (vk.DeviceMemory, error) {
	index, err := d.findMemoryType(requirements.MemoryTypeBits, properties)
	if err != nil {
		return vk.DeviceMemory(vk.NullHandle), err
	}
	var memory vk.DeviceMemory
	err = check(vk.AllocateMemory(d.device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: index,
	}, nil, &memory), "Failed to allocate %d bytes", requirements.Size)
	return memory, err
}

func (d *Driver) createBuffer(size uint64, usage vk.BufferUsageFlagBits, properties vk.MemoryPropertyFlagBits) (*deviceBuffer, error) {
	b := &deviceBuffer{size: size}

	if err := check(vk.CreateBuffer(d.device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &b.buffer), "Failed to create buffer of size %d", size); err != nil {
		return nil, err
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.device, b.buffer, &requirements)
	requirements.Deref()

	memory, err := d.allocateMemory(requirements, properties)
	if err != nil {
		vk.DestroyBuffer(d.device, b.buffer, nil)
		return nil, err
	}
	b.memory = memory

	if err := check(vk.BindBufferMemory(d.device, b.buffer, b.memory, 0), "Failed to bind buffer memory"); err != nil {
		d.destroyBuffer(b)
		return nil, err
	}

	if properties&vk.MemoryPropertyHostVisibleBit != 0 {
		if err := check(vk.MapMemory(d.device, b.memory, 0, vk.DeviceSize(size), 0, &b.mapped),
			"Failed to map buffer of size %d", size); err != nil {
			d.destroyBuffer(b)
			return nil, err
		}
	}
	return b, nil
}

func (d *Driver) destroyBuffer(b *deviceBuffer) {
	if b.mapped != nil {
		vk.UnmapMemory(d.device, b.memory)
		b.mapped = nil
	}
	vk.DestroyBuffer(d.device, b.buffer, nil)
	vk.FreeMemory(d.device, b.memory, nil)
}

const hostMemory = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit

func (d *Driver) CreateStagingBuffer(data []byte) (mve.NativeBuffer, error) {
	b, err := d.createBuffer(uint64(len(data)), vk.BufferUsageTransferSrcBit, hostMemory)
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create staging buffer")
	}
	vk.Memcopy(b.mapped, data)
	d.logger.VPrintf("Created staging buffer %v size: %d", b.buffer, b.size)
	return b, nil
}

func bufferUsage(usage mve.BufferUsage) vk.BufferUsageFlagBits {
	switch usage {
	case mve.BufferUsageVertex:
		return vk.BufferUsageVertexBufferBit
	case mve.BufferUsageIndex:
		return vk.BufferUsageIndexBufferBit
	default:
		return 0
	}
}

func (d *Driver) CreateDeviceBuffer(usage mve.BufferUsage, size uint64) (mve.NativeBuffer, error) {
	b, err := d.createBuffer(size, bufferUsage(usage)|vk.BufferUsageTransferDstBit, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create %s buffer", usage)
	}
	d.logger.VPrintf("Created %s buffer %v size: %d", usage, b.buffer, b.size)
	return b, nil
}

func (d *Driver) CreateUniformBuffer(size uint64) (mve.NativeBuffer, error) {
	b, err := d.createBuffer(size, vk.BufferUsageUniformBufferBit, hostMemory)
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create uniform buffer")
	}
	d.logger.VPrintf("Created uniform buffer %v size: %d", b.buffer, b.size)
	return b, nil
}

// WriteBuffer copies data into a host visible buffer at offset, the caller
// guarantees the range is in bounds and not in use by the GPU.
func (d *Driver) WriteBuffer(buffer mve.NativeBuffer, offset uint64, data []byte) {
	b := buffer.(*deviceBuffer)
	if b.mapped == nil {
		d.logger.EPrintf("Write to unmapped buffer %v", b.buffer)
		return
	}
	vk.Memcopy(unsafe.Add(b.mapped, offset), data)
}

func (d *Driver) DestroyBuffer(buffer mve.NativeBuffer) {
	b := buffer.(*deviceBuffer)
	d.logger.VPrintf("Destroyed buffer %v", b.buffer)
	d.destroyBuffer(b)
}

func (d *Driver) CmdCopyBuffer(slot int, src, dst mve.NativeBuffer, size uint64, usage mve.BufferUsage) {
	cb := d.frames[slot].commandBuffer
	dstBuffer := dst.(*deviceBuffer)
	vk.CmdCopyBuffer(cb, src.(*deviceBuffer).buffer, dstBuffer.buffer, 1, []vk.BufferCopy{{Size: vk.DeviceSize(size)}})

	access := vk.AccessVertexAttributeReadBit
	if usage == mve.BufferUsageIndex {
		access = vk.AccessIndexReadBit
	}
	vk.CmdPipelineBarrier(cb,
		vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.PipelineStageFlags(vk.PipelineStageVertexInputBit),
		0, 0, nil, 1, []vk.BufferMemoryBarrier{{
			SType:               vk.StructureTypeBufferMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(vk.AccessTransferWriteBit),
			DstAccessMask:       vk.AccessFlags(access),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Buffer:              dstBuffer.buffer,
			Size:                vk.DeviceSize(size),
		}}, 0, nil)
}

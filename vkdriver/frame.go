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
	"math"

	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/debug"
	"goarrg.com/rhi/mve"
)

type frame struct {
	commandBuffer  vk.CommandBuffer
	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
	inFlight       vk.Fence
}

func (d *Driver) createSemaphore() (vk.Semaphore, error) {
	var s vk.Semaphore
	err := check(vk.CreateSemaphore(d.device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &s), "Failed to create semaphore")
	return s, err
}

func (d *Driver) CreateFrames(count int) error {
	buffers := make([]vk.CommandBuffer, count)
	if err := check(vk.AllocateCommandBuffers(d.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}, buffers), "Failed to allocate %d command buffers", count); err != nil {
		return err
	}

	d.frames = make([]frame, count)
	for i := range d.frames {
		f := &d.frames[i]
		f.commandBuffer = buffers[i]

		var err error
		if f.imageAvailable, err = d.createSemaphore(); err != nil {
			return err
		}
		if f.renderFinished, err = d.createSemaphore(); err != nil {
			return err
		}
		if err := check(vk.CreateFence(d.device, &vk.FenceCreateInfo{
			SType: vk.StructureTypeFenceCreateInfo,
			Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
		}, nil, &f.inFlight), "Failed to create fence"); err != nil {
			return err
		}
	}

	d.logger.VPrintf("Created %d frames", count)
	return nil
}

func (d *Driver) DestroyFrames() {
	for _, f := range d.frames {
		vk.DestroySemaphore(d.device, f.imageAvailable, nil)
		vk.DestroySemaphore(d.device, f.renderFinished, nil)
		vk.DestroyFence(d.device, f.inFlight, nil)
		vk.FreeCommandBuffers(d.device, d.commandPool, 1, []vk.CommandBuffer{f.commandBuffer})
	}
	d.logger.VPrintf("Destroyed %d frames", len(d.frames))
	d.frames = nil
}

// recreateImageSemaphores replaces the acquire semaphores, a frame abandoned
// after a suboptimal acquire leaves its semaphore signaled with no waiter.
func (d *Driver) recreateImageSemaphores() {
	for i := range d.frames {
		s, err := d.createSemaphore()
		if err != nil {
			d.logger.EPrintf("%v", err)
			continue
		}
		vk.DestroySemaphore(d.device, d.frames[i].imageAvailable, nil)
		d.frames[i].imageAvailable = s
	}
}

func (d *Driver) WaitFrame(slot int) error {
	return check(vk.WaitForFences(d.device, 1, []vk.Fence{d.frames[slot].inFlight}, vk.True, math.MaxUint64),
		"Failed to wait for frame %d", slot)
}

func (d *Driver) AcquireImage(slot int) (uint32, mve.PresentStatus, error) {
	var image uint32
	res := vk.AcquireNextImage(d.device, d.swapchain.swapchain, math.MaxUint64,
		d.frames[slot].imageAvailable, vk.Fence(vk.NullHandle), &image)
	status, err := presentStatus(res)
	if err != nil {
		return 0, status, debug.ErrorWrapf(err, "Failed to acquire image for frame %d", slot)
	}
	return image, status, nil
}

func (d *Driver) ResetFrame(slot int) error {
	f := d.frames[slot]
	if err := check(vk.ResetFences(d.device, 1, []vk.Fence{f.inFlight}), "Failed to reset fence of frame %d", slot); err != nil {
		return err
	}
	return check(vk.ResetCommandBuffer(f.commandBuffer, 0), "Failed to reset command buffer of frame %d", slot)
}

func (d *Driver) BeginCommands(slot int) error {
	return check(vk.BeginCommandBuffer(d.frames[slot].commandBuffer, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}), "Failed to begin command buffer of frame %d", slot)
}

func (d *Driver) EndCommands(slot int) error {
	return check(vk.EndCommandBuffer(d.frames[slot].commandBuffer), "Failed to end command buffer of frame %d", slot)
}

func (d *Driver) Submit(slot int) error {
	f := d.frames[slot]
	info := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{f.imageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{f.commandBuffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{f.renderFinished},
	}
	return check(vk.QueueSubmit(d.graphicsQueue, 1, []vk.SubmitInfo{info}, f.inFlight), "Failed to submit frame %d", slot)
}

func (d *Driver) Present(slot int, image uint32) (mve.PresentStatus, error) {
	info := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{d.frames[slot].renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{d.swapchain.swapchain},
		PImageIndices:      []uint32{image},
	}
	status, err := presentStatus(vk.QueuePresent(d.presentQueue, &info))
	if err != nil {
		return status, debug.ErrorWrapf(err, "Failed to present image %d of frame %d", image, slot)
	}
	return status, nil
}

func presentStatus(res vk.Result) (mve.PresentStatus, error) {
	switch res {
	case vk.Success:
		return mve.PresentOK, nil
	case vk.Suboptimal:
		return mve.PresentSuboptimal, nil
	case vk.ErrorOutOfDate:
		return mve.PresentOutOfDate, nil
	default:
		return mve.PresentOK, vk.Error(res)
	}
}

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
	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/rhi/mve"
)

// clearValues matches the attachment order of createRenderPass, the resolve
// target is never cleared but still takes a slot.
func (d *Driver) clearValues(clear mve.ClearColor) []vk.ClearValue {
	values := []vk.ClearValue{
		vk.NewClearValue(clear[:]),
		vk.NewClearDepthStencil(1, 0),
	}
	if d.samples != vk.SampleCount1Bit {
		values = append(values, vk.NewClearValue(clear[:]))
	}
	return values
}

func (d *Driver) CmdBeginRenderPass(slot int, framebuffer mve.NativeFramebuffer, image uint32, clear mve.ClearColor) {
	cb := d.frames[slot].commandBuffer

	pass := d.presentPass
	target := d.swapchain.framebuffers[image]
	extent := d.swapchain.extent
	if framebuffer != nil {
		fb := framebuffer.(*offscreenFramebuffer)
		pass = d.framebufferPass
		target = fb.framebuffer
		extent = fb.extent
	}

	values := d.clearValues(clear)
	vk.CmdBeginRenderPass(cb, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  pass,
		Framebuffer: target,
		RenderArea: vk.Rect2D{
			Extent: extent,
		},
		ClearValueCount: uint32(len(values)),
		PClearValues:    values,
	}, vk.SubpassContentsInline)

	// the swapchain extent applies to both targets, framebuffers are sized
	// to it
	vk.CmdSetViewport(cb, 0, 1, []vk.Viewport{{
		Width:    float32(d.swapchain.extent.Width),
		Height:   float32(d.swapchain.extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}})
	vk.CmdSetScissor(cb, 0, 1, []vk.Rect2D{{Extent: d.swapchain.extent}})
}

func (d *Driver) CmdEndRenderPass(slot int) {
	vk.CmdEndRenderPass(d.frames[slot].commandBuffer)
}

func (d *Driver) CmdBindPipeline(slot int, p mve.NativePipeline) {
	vk.CmdBindPipeline(d.frames[slot].commandBuffer, vk.PipelineBindPointGraphics, p.(*pipeline).pipeline)
}

func (d *Driver) CmdBindDescriptorSets(slot int, layout mve.NativePipelineLayout, sets []mve.NativeDescriptorSet) {
	vkSets := make([]vk.DescriptorSet, len(sets))
	for i, s := range sets {
		vkSets[i] = s.(*descriptorSet).set
	}
	vk.CmdBindDescriptorSets(d.frames[slot].commandBuffer, vk.PipelineBindPointGraphics,
		layout.(*pipelineLayout).layout, 0, uint32(len(vkSets)), vkSets, 0, nil)
}

func (d *Driver) CmdBindVertexBuffer(slot int, buffer mve.NativeBuffer) {
	vk.CmdBindVertexBuffers(d.frames[slot].commandBuffer, 0, 1,
		[]vk.Buffer{buffer.(*deviceBuffer).buffer}, []vk.DeviceSize{0})
}

func (d *Driver) CmdDraw(slot int, vertexCount uint32) {
	vk.CmdDraw(d.frames[slot].commandBuffer, vertexCount, 1, 0, 0)
}

func (d *Driver) CmdDrawIndexed(slot int, buffer mve.NativeBuffer, indexCount uint32) {
	cb := d.frames[slot].commandBuffer
	vk.CmdBindIndexBuffer(cb, buffer.(*deviceBuffer).buffer, 0, vk.IndexTypeUint32)
	vk.CmdDrawIndexed(cb, indexCount, 1, 0, 0, 0)
}

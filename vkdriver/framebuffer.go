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
	"goarrg.com/debug"
	"goarrg.com/gmath"
	"goarrg.com/rhi/mve"
)

// offscreenFramebuffer renders into a sampled texture it does not own, the
// renderer releases the texture on its own.
type offscreenFramebuffer struct {
	framebuffer vk.Framebuffer
	color       *deviceImage
	depth       *deviceImage
	extent      vk.Extent2D
}

func (d *Driver) CreateFramebuffer() (mve.NativeFramebuffer, mve.NativeTexture, gmath.Extent3i32, error) {
	if d.swapchain == nil {
		return nil, nil, gmath.Extent3i32{}, debug.Errorf("Framebuffer requires a swapchain")
	}
	extent := d.swapchain.extent

	texture, err := d.createImage(imageInfo{
		format:  d.surfaceFormat.Format,
		extent:  extent,
		samples: vk.SampleCount1Bit,
		usage:   vk.ImageUsageColorAttachmentBit | vk.ImageUsageSampledBit,
		aspect:  vk.ImageAspectColorBit,
	})
	if err != nil {
		return nil, nil, gmath.Extent3i32{}, debug.ErrorWrapf(err, "Failed to create framebuffer texture")
	}

	// sampling before the first pass must see a valid layout
	if err := d.submitImmediate(func(cb vk.CommandBuffer) {
		vk.CmdPipelineBarrier(cb,
			vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{
				imageBarrier(texture.image, vk.ImageLayoutUndefined, vk.ImageLayoutShaderReadOnlyOptimal, 0, vk.AccessShaderReadBit),
			})
	}); err != nil {
		d.destroyImage(texture)
		return nil, nil, gmath.Extent3i32{}, err
	}

	fb := &offscreenFramebuffer{extent: extent}
	if fb.color, fb.depth, err = d.createTargets(extent); err != nil {
		d.destroyImage(texture)
		return nil, nil, gmath.Extent3i32{}, err
	}
	if fb.framebuffer, err = d.createFramebuffer(d.framebufferPass, attachmentViews(fb.color, fb.depth, texture.view), extent); err != nil {
		d.destroyImage(fb.color)
		d.destroyImage(fb.depth)
		d.destroyImage(texture)
		return nil, nil, gmath.Extent3i32{}, err
	}

	d.logger.VPrintf("Created framebuffer %v texture %v: %dx%d", fb.framebuffer, texture.image, extent.Width, extent.Height)
	return fb, texture, fromExtent(extent), nil
}

func (d *Driver) DestroyFramebuffer(framebuffer mve.NativeFramebuffer) {
	fb := framebuffer.(*offscreenFramebuffer)
	vk.DestroyFramebuffer(d.device, fb.framebuffer, nil)
	d.destroyImage(fb.color)
	d.destroyImage(fb.depth)
	d.logger.VPrintf("Destroyed framebuffer %v", fb.framebuffer)
}

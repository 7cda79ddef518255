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

// deviceImage is a 2D image with its own memory and a view over all of it.
type deviceImage struct {
	image  vk.Image
	memory vk.DeviceMemory
	view   vk.ImageView
	format vk.Format
	extent vk.Extent2D
}

type imageInfo struct {
	format  vk.Format
	extent  vk.Extent2D
	samples vk.SampleCountFlagBits
	usage   vk.ImageUsageFlagBits
	aspect  vk.ImageAspectFlagBits
}

func (d *Driver) createImage(info imageInfo) (*deviceImage, error) {
	img := &deviceImage{format: info.format, extent: info.extent}

	if err := check(vk.CreateImage(d.device, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    info.format,
		Extent: vk.Extent3D{
			Width:  info.extent.Width,
			Height: info.extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       info.samples,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(info.usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &img.image), "Failed to create image %dx%d", info.extent.Width, info.extent.Height); err != nil {
		return nil, err
	}

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, img.image, &requirements)
	requirements.Deref()

	memory, err := d.allocateMemory(requirements, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		vk.DestroyImage(d.device, img.image, nil)
		return nil, err
	}
	img.memory = memory

	if err := check(vk.BindImageMemory(d.device, img.image, img.memory, 0), "Failed to bind image memory"); err != nil {
		d.destroyImage(img)
		return nil, err
	}

	view, err := d.createImageView(img.image, info.format, info.aspect)
	if err != nil {
		d.destroyImage(img)
		return nil, err
	}
	img.view = view
	return img, nil
}

func (d *Driver) createImageView(image vk.Image, format vk.Format, aspect vk.ImageAspectFlagBits) (vk.ImageView, error) {
	var view vk.ImageView
	err := check(vk.CreateImageView(d.device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view), "Failed to create image view")
	return view, err
}

func (d *Driver) destroyImage(img *deviceImage) {
	if img == nil {
		return
	}
	if img.view != vk.ImageView(vk.NullHandle) {
		vk.DestroyImageView(d.device, img.view, nil)
	}
	vk.DestroyImage(d.device, img.image, nil)
	vk.FreeMemory(d.device, img.memory, nil)
}

func textureFormat(f mve.TextureFormat) vk.Format {
	switch f {
	case mve.TextureFormatR:
		return vk.FormatR8Unorm
	case mve.TextureFormatRG:
		return vk.FormatR8g8Unorm
	case mve.TextureFormatRGB:
		return vk.FormatR8g8b8Unorm
	case mve.TextureFormatRGBA:
		return vk.FormatR8g8b8a8Unorm
	default:
		return vk.FormatUndefined
	}
}

func toExtent(size gmath.Extent3i32) vk.Extent2D {
	return vk.Extent2D{Width: uint32(size.X), Height: uint32(size.Y)}
}

func fromExtent(extent vk.Extent2D) gmath.Extent3i32 {
	return gmath.Extent3i32{X: int32(extent.Width), Y: int32(extent.Height), Z: 1}
}

func (d *Driver) CreateTexture(format mve.TextureFormat, size gmath.Extent3i32) (mve.NativeTexture, error) {
	vkFormat := textureFormat(format)
	if vkFormat == vk.FormatUndefined {
		return nil, debug.Errorf("Unknown texture format: %d", format)
	}
	if !d.formatSupports(vkFormat, vk.FormatFeatureSampledImageBit) {
		return nil, debug.Errorf("Texture format %s is not sampleable on: %s", format, d.gpuName)
	}

	img, err := d.createImage(imageInfo{
		format:  vkFormat,
		extent:  toExtent(size),
		samples: vk.SampleCount1Bit,
		usage:   vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit,
		aspect:  vk.ImageAspectColorBit,
	})
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create %s texture", format)
	}
	d.logger.VPrintf("Created texture %v %s %dx%d", img.image, format, size.X, size.Y)
	return img, nil
}

func (d *Driver) DestroyTexture(texture mve.NativeTexture) {
	img := texture.(*deviceImage)
	d.logger.VPrintf("Destroyed texture %v", img.image)
	d.destroyImage(img)
}

func imageBarrier(image vk.Image, from, to vk.ImageLayout, srcAccess, dstAccess vk.AccessFlagBits) vk.ImageMemoryBarrier {
	return vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(srcAccess),
		DstAccessMask:       vk.AccessFlags(dstAccess),
		OldLayout:           from,
		NewLayout:           to,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
}

func (d *Driver) CmdUploadTexture(slot int, src mve.NativeBuffer, dst mve.NativeTexture) {
	cb := d.frames[slot].commandBuffer
	buffer := src.(*deviceBuffer)
	img := dst.(*deviceImage)

	vk.CmdPipelineBarrier(cb,
		vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{
			imageBarrier(img.image, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal, 0, vk.AccessTransferWriteBit),
		})

	vk.CmdCopyBufferToImage(cb, buffer.buffer, img.image, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{Width: img.extent.Width, Height: img.extent.Height, Depth: 1},
	}})

	vk.CmdPipelineBarrier(cb,
		vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{
			imageBarrier(img.image, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal,
				vk.AccessTransferWriteBit, vk.AccessShaderReadBit),
		})
}

// submitImmediate records f into a throwaway command buffer and waits for it,
// only used outside of frame recording.
func (d *Driver) submitImmediate(f func(cb vk.CommandBuffer)) error {
	buffers := make([]vk.CommandBuffer, 1)
	if err := check(vk.AllocateCommandBuffers(d.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, buffers), "Failed to allocate command buffer"); err != nil {
		return err
	}
	defer vk.FreeCommandBuffers(d.device, d.commandPool, 1, buffers)

	if err := check(vk.BeginCommandBuffer(buffers[0], &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}), "Failed to begin command buffer"); err != nil {
		return err
	}
	f(buffers[0])
	if err := check(vk.EndCommandBuffer(buffers[0]), "Failed to end command buffer"); err != nil {
		return err
	}

	if err := check(vk.QueueSubmit(d.graphicsQueue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    buffers,
	}}, vk.Fence(vk.NullHandle)), "Failed to submit"); err != nil {
		return err
	}
	return check(vk.QueueWaitIdle(d.graphicsQueue), "Failed to wait for queue idle")
}

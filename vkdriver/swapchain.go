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
	"goarrg.com/gmath"
)

type swapchain struct {
	swapchain    vk.Swapchain
	extent       vk.Extent2D
	images       []vk.Image
	views        []vk.ImageView
	color        *deviceImage
	depth        *deviceImage
	framebuffers []vk.Framebuffer
}

// createRenderPass builds a pass whose final color lands in an image left in
// finalLayout. With multisampling the color and depth attachments are
// transient and resolved into that image, both passes built here only differ
// in layouts so pipelines are compatible with either.
func (d *Driver) createRenderPass(finalLayout vk.ImageLayout) (vk.RenderPass, error) {
	multisampled := d.samples != vk.SampleCount1Bit

	color := vk.AttachmentDescription{
		Format:         d.surfaceFormat.Format,
		Samples:        d.samples,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    finalLayout,
	}
	if multisampled {
		color.StoreOp = vk.AttachmentStoreOpDontCare
		color.FinalLayout = vk.ImageLayoutColorAttachmentOptimal
	}
	depth := vk.AttachmentDescription{
		Format:         d.depthFormat,
		Samples:        d.samples,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	attachments := []vk.AttachmentDescription{color, depth}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
		PDepthStencilAttachment: &vk.AttachmentReference{
			Attachment: 1,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}
	if multisampled {
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         d.surfaceFormat.Format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpDontCare,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    finalLayout,
		})
		subpass.PResolveAttachments = []vk.AttachmentReference{{
			Attachment: 2,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}}
	}

	dependencies := []vk.SubpassDependency{
		{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
		},
		{
			SrcSubpass:    0,
			DstSubpass:    vk.SubpassExternal,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			SrcAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
			DstAccessMask: vk.AccessFlags(vk.AccessShaderReadBit),
		},
	}

	var pass vk.RenderPass
	err := check(vk.CreateRenderPass(d.device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}, nil, &pass), "Failed to create render pass")
	return pass, err
}

func (d *Driver) createRenderPasses() error {
	var err error
	if d.presentPass, err = d.createRenderPass(vk.ImageLayoutPresentSrc); err != nil {
		return err
	}
	if d.framebufferPass, err = d.createRenderPass(vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
		return err
	}
	return nil
}

// createTargets creates the multisampled color and depth images a pass
// renders into before resolving. Color is nil without multisampling.
func (d *Driver) createTargets(extent vk.Extent2D) (color, depth *deviceImage, err error) {
	if d.samples != vk.SampleCount1Bit {
		color, err = d.createImage(imageInfo{
			format:  d.surfaceFormat.Format,
			extent:  extent,
			samples: d.samples,
			usage:   vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransientAttachmentBit,
			aspect:  vk.ImageAspectColorBit,
		})
		if err != nil {
			return nil, nil, debug.ErrorWrapf(err, "Failed to create color target")
		}
	}
	depth, err = d.createImage(imageInfo{
		format:  d.depthFormat,
		extent:  extent,
		samples: d.samples,
		usage:   vk.ImageUsageDepthStencilAttachmentBit,
		aspect:  vk.ImageAspectDepthBit,
	})
	if err != nil {
		d.destroyImage(color)
		return nil, nil, debug.ErrorWrapf(err, "Failed to create depth target")
	}
	return color, depth, nil
}

// attachmentViews orders views the way createRenderPass declares them.
func attachmentViews(color, depth *deviceImage, target vk.ImageView) []vk.ImageView {
	if color == nil {
		return []vk.ImageView{target, depth.view}
	}
	return []vk.ImageView{color.view, depth.view, target}
}

func (d *Driver) createFramebuffer(pass vk.RenderPass, views []vk.ImageView, extent vk.Extent2D) (vk.Framebuffer, error) {
	var fb vk.Framebuffer
	err := check(vk.CreateFramebuffer(d.device, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}, nil, &fb), "Failed to create framebuffer %dx%d", extent.Width, extent.Height)
	return fb, err
}

// chooseExtent follows the surface when it dictates the size, otherwise the
// requested size is clamped into the allowed range.
func chooseExtent(capabilities vk.SurfaceCapabilities, size gmath.Extent3i32) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(uint32(size.X), capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(uint32(size.Y), capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// imageCount asks for one more than the minimum, a max of 0 means unbounded.
func imageCount(capabilities vk.SurfaceCapabilities) uint32 {
	count := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

func (d *Driver) CreateSwapchain(size gmath.Extent3i32) (gmath.Extent3i32, error) {
	if d.swapchain != nil {
		return gmath.Extent3i32{}, debug.Errorf("Swapchain already exists")
	}

	var capabilities vk.SurfaceCapabilities
	if err := check(vk.GetPhysicalDeviceSurfaceCapabilities(d.physicalDevice, d.vkSurface, &capabilities),
		"Failed to query surface capabilities"); err != nil {
		return gmath.Extent3i32{}, err
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()

	sc := &swapchain{extent: chooseExtent(capabilities, size)}
	info := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.vkSurface,
		MinImageCount:    imageCount(capabilities),
		ImageFormat:      d.surfaceFormat.Format,
		ImageColorSpace:  d.surfaceFormat.ColorSpace,
		ImageExtent:      sc.extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentModeFifo,
		Clipped:          vk.True,
	}
	if families := d.queues.unique(); len(families) > 1 {
		info.ImageSharingMode = vk.SharingModeConcurrent
		info.QueueFamilyIndexCount = uint32(len(families))
		info.PQueueFamilyIndices = families
	}

	if err := check(vk.CreateSwapchain(d.device, &info, nil, &sc.swapchain), "Failed to create swapchain"); err != nil {
		return gmath.Extent3i32{}, err
	}
	d.swapchain = sc

	var count uint32
	if err := check(vk.GetSwapchainImages(d.device, sc.swapchain, &count, nil), "Failed to count swapchain images"); err != nil {
		d.DestroySwapchain()
		return gmath.Extent3i32{}, err
	}
	sc.images = make([]vk.Image, count)
	if err := check(vk.GetSwapchainImages(d.device, sc.swapchain, &count, sc.images), "Failed to get swapchain images"); err != nil {
		d.DestroySwapchain()
		return gmath.Extent3i32{}, err
	}

	var err error
	if sc.color, sc.depth, err = d.createTargets(sc.extent); err != nil {
		d.DestroySwapchain()
		return gmath.Extent3i32{}, err
	}

	for i, image := range sc.images {
		view, err := d.createImageView(image, d.surfaceFormat.Format, vk.ImageAspectColorBit)
		if err != nil {
			d.DestroySwapchain()
			return gmath.Extent3i32{}, debug.ErrorWrapf(err, "Failed to create view of swapchain image %d", i)
		}
		sc.views = append(sc.views, view)

		fb, err := d.createFramebuffer(d.presentPass, attachmentViews(sc.color, sc.depth, view), sc.extent)
		if err != nil {
			d.DestroySwapchain()
			return gmath.Extent3i32{}, err
		}
		sc.framebuffers = append(sc.framebuffers, fb)
	}

	d.logger.VPrintf("Created swapchain %v with %d images: %dx%d", sc.swapchain, count, sc.extent.Width, sc.extent.Height)
	return fromExtent(sc.extent), nil
}

// DestroySwapchain releases the framebuffers, then the views of the swapchain
// images, then the swapchain and finally its attachments. The device must be
// idle.
func (d *Driver) DestroySwapchain() {
	sc := d.swapchain
	if sc == nil {
		return
	}
	for _, fb := range sc.framebuffers {
		vk.DestroyFramebuffer(d.device, fb, nil)
	}
	for _, view := range sc.views {
		vk.DestroyImageView(d.device, view, nil)
	}
	vk.DestroySwapchain(d.device, sc.swapchain, nil)
	d.destroyImage(sc.depth)
	d.destroyImage(sc.color)

	d.swapchain = nil
	d.recreateImageSemaphores()
	d.logger.VPrintf("Destroyed swapchain %v", sc.swapchain)
}

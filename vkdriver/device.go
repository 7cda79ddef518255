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
	"slices"
	"strings"

	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/debug"
)

var deviceExtensions = []string{vk.KhrSwapchainExtensionName}

type queueFamilies struct {
	graphics, present       uint32
	hasGraphics, hasPresent bool
}

func (q queueFamilies) complete() bool {
	return q.hasGraphics && q.hasPresent
}

func (q queueFamilies) unique() []uint32 {
	if q.graphics == q.present {
		return []uint32{q.graphics}
	}
	return []uint32{q.graphics, q.present}
}

func (d *Driver) createInstance() error {
	extensions := safeStrings(d.surface.RequiredInstanceExtensions())
	info := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			PApplicationName:   safeString(d.config.AppName),
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PEngineName:        safeString("mve"),
			EngineVersion:      vk.MakeVersion(1, 0, 0),
			ApiVersion:         vk.MakeVersion(1, 1, 0),
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	if d.config.Validation {
		if layers := availableLayers(); slices.Contains(layers, validationLayer) {
			info.EnabledLayerCount = 1
			info.PpEnabledLayerNames = []string{safeString(validationLayer)}
		} else {
			d.logger.WPrintf("Validation requested but %s is not available, layers: %v", validationLayer, layers)
			d.config.Validation = false
		}
	}

	var instance vk.Instance
	if err := check(vk.CreateInstance(&info, nil, &instance), "Failed to create instance"); err != nil {
		return err
	}
	d.instance = instance

	if err := vk.InitInstance(instance); err != nil {
		return debug.ErrorWrapf(err, "Failed to load instance functions")
	}

	d.logger.VPrintf("Created instance with extensions: %v", d.surface.RequiredInstanceExtensions())
	return nil
}

func availableLayers() []string {
	var count uint32
	if vk.EnumerateInstanceLayerProperties(&count, nil) != vk.Success {
		return nil
	}
	properties := make([]vk.LayerProperties, count)
	if vk.EnumerateInstanceLayerProperties(&count, properties) != vk.Success {
		return nil
	}
	layers := make([]string, 0, count)
	for _, p := range properties {
		p.Deref()
		layers = append(layers, vk.ToString(p.LayerName[:]))
	}
	return layers
}

func (d *Driver) pickPhysicalDevice() error {
	var count uint32
	if err := check(vk.EnumeratePhysicalDevices(d.instance, &count, nil), "Failed to count physical devices"); err != nil {
		return err
	}
	if count == 0 {
		return debug.Errorf("No GPU with vulkan support found")
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := check(vk.EnumeratePhysicalDevices(d.instance, &count, devices), "Failed to enumerate physical devices"); err != nil {
		return err
	}

	bestScore := uint32(0)
	for _, device := range devices {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(device, &properties)
		properties.Deref()
		name := vk.ToString(properties.DeviceName[:])

		if !d.deviceSuitable(device) {
			d.logger.VPrintf("Skipping unsuitable device: %s", name)
			continue
		}

		score := deviceScore(properties.DeviceType)
		if d.config.PreferredGPU != "" && strings.Contains(name, d.config.PreferredGPU) {
			score = ^uint32(0)
		}
		d.logger.VPrintf("Found device: %s score: %d", name, score)

		if score > bestScore {
			bestScore = score
			d.physicalDevice = device
			d.gpuName = name
		}
	}

	if bestScore == 0 {
		return debug.Errorf("No suitable GPU found")
	}
	if d.config.PreferredGPU != "" && !strings.Contains(d.gpuName, d.config.PreferredGPU) {
		d.logger.WPrintf("Preferred GPU %q not found, using: %s", d.config.PreferredGPU, d.gpuName)
	}

	d.queues = d.findQueueFamilies(d.physicalDevice)
	vk.GetPhysicalDeviceMemoryProperties(d.physicalDevice, &d.memory)
	d.memory.Deref()

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(d.physicalDevice, &properties)
	properties.Deref()
	properties.Limits.Deref()
	d.samples = pickSampleCount(d.config.MSAASamples,
		properties.Limits.FramebufferColorSampleCounts&properties.Limits.FramebufferDepthSampleCounts)
	if int32(d.samples) != d.config.MSAASamples {
		d.logger.WPrintf("MSAA %dx not supported, using: %dx", d.config.MSAASamples, d.samples)
		d.config.MSAASamples = int32(d.samples)
	}

	formats, err := d.surfaceFormats(d.physicalDevice)
	if err != nil {
		return err
	}
	d.surfaceFormat = chooseSurfaceFormat(formats)

	depth, ok := d.pickDepthFormat()
	if !ok {
		return debug.Errorf("No supported depth format on: %s", d.gpuName)
	}
	d.depthFormat = depth

	d.logger.IPrintf("Using device: %s msaa: %dx color format: %d depth format: %d",
		d.gpuName, d.samples, d.surfaceFormat.Format, d.depthFormat)
	return nil
}

func deviceScore(t vk.PhysicalDeviceType) uint32 {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return 1000
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return 100
	case vk.PhysicalDeviceTypeVirtualGpu:
		return 10
	default:
		return 1
	}
}

func (d *Driver) deviceSuitable(device vk.PhysicalDevice) bool {
	if !d.findQueueFamilies(device).complete() || !hasDeviceExtensions(device) {
		return false
	}
	formats, err := d.surfaceFormats(device)
	if err != nil || len(formats) == 0 {
		return false
	}
	modes, err := d.presentModes(device)
	return err == nil && len(modes) > 0
}

func hasDeviceExtensions(device vk.PhysicalDevice) bool {
	var count uint32
	if vk.EnumerateDeviceExtensionProperties(device, "", &count, nil) != vk.Success {
		return false
	}
	properties := make([]vk.ExtensionProperties, count)
	if vk.EnumerateDeviceExtensionProperties(device, "", &count, properties) != vk.Success {
		return false
	}
	available := make([]string, 0, count)
	for _, p := range properties {
		p.Deref()
		available = append(available, vk.ToString(p.ExtensionName[:]))
	}
	for _, want := range deviceExtensions {
		if !slices.Contains(available, want) {
			return false
		}
	}
	return true
}

func (d *Driver) findQueueFamilies(device vk.PhysicalDevice) queueFamilies {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, families)

	q := queueFamilies{}
	for i, family := range families {
		family.Deref()
		if !q.hasGraphics && family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			q.graphics, q.hasGraphics = uint32(i), true
		}

		var supported vk.Bool32
		if err := check(vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), d.vkSurface, &supported),
			"Failed to query present support of queue family %d", i); err != nil {
			d.logger.WPrintf("%v", err)
		} else if supported.B() && (!q.hasPresent || q.present != q.graphics) {
			// a family doing both is preferred
			q.present, q.hasPresent = uint32(i), true
		}
	}
	return q
}

func (d *Driver) createDevice() error {
	priorities := []float32{1}
	queueInfos := []vk.DeviceQueueCreateInfo{}
	for _, family := range d.queues.unique() {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: priorities,
		})
	}

	extensions := safeStrings(deviceExtensions)
	info := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
	}
	if d.config.Validation {
		info.EnabledLayerCount = 1
		info.PpEnabledLayerNames = []string{safeString(validationLayer)}
	}

	var device vk.Device
	if err := check(vk.CreateDevice(d.physicalDevice, &info, nil, &device), "Failed to create device"); err != nil {
		return err
	}
	d.device = device

	vk.GetDeviceQueue(d.device, d.queues.graphics, 0, &d.graphicsQueue)
	vk.GetDeviceQueue(d.device, d.queues.present, 0, &d.presentQueue)
	d.logger.VPrintf("Created device, graphics family: %d present family: %d", d.queues.graphics, d.queues.present)
	return nil
}

func (d *Driver) createCommandPool() error {
	info := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: d.queues.graphics,
	}
	var pool vk.CommandPool
	if err := check(vk.CreateCommandPool(d.device, &info, nil, &pool), "Failed to create command pool"); err != nil {
		return err
	}
	d.commandPool = pool
	return nil
}

func (d *Driver) createSampler() error {
	info := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterNearest,
		MinFilter:               vk.FilterLinear,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}
	var sampler vk.Sampler
	if err := check(vk.CreateSampler(d.device, &info, nil, &sampler), "Failed to create sampler"); err != nil {
		return err
	}
	d.sampler = sampler
	return nil
}

func (d *Driver) surfaceFormats(device vk.PhysicalDevice) ([]vk.SurfaceFormat, error) {
	var count uint32
	if err := check(vk.GetPhysicalDeviceSurfaceFormats(device, d.vkSurface, &count, nil),
		"Failed to count surface formats"); err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := check(vk.GetPhysicalDeviceSurfaceFormats(device, d.vkSurface, &count, formats),
		"Failed to query surface formats"); err != nil {
		return nil, err
	}
	for i := range formats {
		formats[i].Deref()
	}
	return formats, nil
}

func (d *Driver) presentModes(device vk.PhysicalDevice) ([]vk.PresentMode, error) {
	var count uint32
	if err := check(vk.GetPhysicalDeviceSurfacePresentModes(device, d.vkSurface, &count, nil),
		"Failed to count present modes"); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if err := check(vk.GetPhysicalDeviceSurfacePresentModes(device, d.vkSurface, &count, modes),
		"Failed to query present modes"); err != nil {
		return nil, err
	}
	return modes, nil
}

func (d *Driver) pickDepthFormat() (vk.Format, bool) {
	for _, format := range []vk.Format{vk.FormatD32Sfloat, vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint} {
		if d.formatSupports(format, vk.FormatFeatureDepthStencilAttachmentBit) {
			return format, true
		}
	}
	return vk.FormatUndefined, false
}

func (d *Driver) formatSupports(format vk.Format, feature vk.FormatFeatureFlagBits) bool {
	var properties vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.physicalDevice, format, &properties)
	properties.Deref()
	return properties.OptimalTilingFeatures&vk.FormatFeatureFlags(feature) != 0
}

// chooseSurfaceFormat prefers 8 bit BGRA/RGBA unorm so offscreen targets and
// the swapchain share one format.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	}
	for _, want := range []vk.Format{vk.FormatB8g8r8a8Unorm, vk.FormatR8g8b8a8Unorm} {
		for _, f := range formats {
			if f.Format == want && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
				return f
			}
		}
	}
	return formats[0]
}

// pickSampleCount returns the highest supported power of two not above
// requested.
func pickSampleCount(requested int32, supported vk.SampleCountFlags) vk.SampleCountFlagBits {
	for _, c := range []vk.SampleCountFlagBits{
		vk.SampleCount64Bit, vk.SampleCount32Bit, vk.SampleCount16Bit,
		vk.SampleCount8Bit, vk.SampleCount4Bit, vk.SampleCount2Bit,
	} {
		if int32(c) <= requested && supported&vk.SampleCountFlags(c) != 0 {
			return c
		}
	}
	return vk.SampleCount1Bit
}

func (d *Driver) findMemoryType(filter uint32, properties vk.MemoryPropertyFlagBits) (uint32, error) {
	want := vk.MemoryPropertyFlags(properties)
	for i := uint32(0); i < d.memory.MemoryTypeCount; i++ {
		d.memory.MemoryTypes[i].Deref()
		if filter&(1<<i) != 0 && d.memory.MemoryTypes[i].PropertyFlags&want == want {
			return i, nil
		}
	}
	return 0, debug.Errorf("No memory type for filter: 0x%x properties: 0x%x", filter, properties)
}

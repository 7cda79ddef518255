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
/*
Package vkdriver implements mve.Driver on top of Vulkan. It owns the instance,
the device and every native object the renderer asks for, and is only ever
called from the goroutine driving the renderer.
*/
package vkdriver

import (
	"encoding/json"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/debug"
	"goarrg.com/rhi/mve"
)

const (
	DefaultMSAASamples int32 = 4
	validationLayer          = "VK_LAYER_KHRONOS_validation"
)

type Config struct {
	AppName string
	// Validation enables the Khronos validation layer when it is installed.
	Validation bool
	// PreferredGPU selects the first device whose name contains it, the
	// highest scoring device is used otherwise.
	PreferredGPU string
	// MSAASamples is clamped to what the device supports for both color and
	// depth attachments, 0 means DefaultMSAASamples.
	MSAASamples int32
}

func (c *Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		AppName      string
		Validation   bool
		PreferredGPU string
		MSAASamples  int32
	}{c.AppName, c.Validation, c.PreferredGPU, c.MSAASamples})
}

// Surface is what the window system provides to present into.
type Surface interface {
	// InstanceProcAddr returns vkGetInstanceProcAddr as resolved by the
	// window system.
	InstanceProcAddr() unsafe.Pointer
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

type Driver struct {
	logger  *debug.Logger
	config  Config
	surface Surface

	instance       vk.Instance
	vkSurface      vk.Surface
	physicalDevice vk.PhysicalDevice
	device         vk.Device
	gpuName        string
	queues         queueFamilies
	graphicsQueue  vk.Queue
	presentQueue   vk.Queue
	memory         vk.PhysicalDeviceMemoryProperties

	samples       vk.SampleCountFlagBits
	surfaceFormat vk.SurfaceFormat
	depthFormat   vk.Format

	commandPool     vk.CommandPool
	presentPass     vk.RenderPass
	framebufferPass vk.RenderPass
	sampler         vk.Sampler

	frames      []frame
	swapchain   *swapchain
	descriptors descriptorPools
}

var _ mve.Driver = (*Driver)(nil)

// New loads Vulkan through the surface's loader and creates a device able to
// render to and present on it.
func New(surface Surface, cfg Config) (*Driver, error) {
	if cfg.MSAASamples == 0 {
		cfg.MSAASamples = DefaultMSAASamples
	}
	if cfg.AppName == "" {
		cfg.AppName = "mve"
	}

	d := &Driver{
		logger:  debug.NewLogger("mve", "vk"),
		config:  cfg,
		surface: surface,
	}

	vk.SetGetInstanceProcAddr(surface.InstanceProcAddr())
	if err := vk.Init(); err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to load vulkan")
	}

	if err := d.createInstance(); err != nil {
		return nil, err
	}

	vkSurface, err := surface.CreateSurface(d.instance)
	if err != nil {
		d.Destroy()
		return nil, debug.ErrorWrapf(err, "Failed to create surface")
	}
	d.vkSurface = vkSurface

	for _, step := range []func() error{
		d.pickPhysicalDevice,
		d.createDevice,
		d.createCommandPool,
		d.createRenderPasses,
		d.createSampler,
	} {
		if err := step(); err != nil {
			d.Destroy()
			return nil, err
		}
	}

	d.logger.IPrintf("Created driver: %s", prettyString(&d.config))
	return d, nil
}

func (d *Driver) SetLogLevel(level uint32) {
	d.logger.SetLevel(level)
}

func (d *Driver) GPUName() string {
	return d.gpuName
}

func (d *Driver) WaitIdle() error {
	return check(vk.DeviceWaitIdle(d.device), "Failed to wait for device idle")
}

// Destroy releases everything the driver still owns. Swapchain and frames are
// expected to have been destroyed by the renderer already.
func (d *Driver) Destroy() {
	if d.device != vk.Device(vk.NullHandle) {
		vk.DeviceWaitIdle(d.device)
		d.descriptors.destroy(d.device)
		if d.sampler != vk.Sampler(vk.NullHandle) {
			vk.DestroySampler(d.device, d.sampler, nil)
		}
		if d.framebufferPass != vk.RenderPass(vk.NullHandle) {
			vk.DestroyRenderPass(d.device, d.framebufferPass, nil)
		}
		if d.presentPass != vk.RenderPass(vk.NullHandle) {
			vk.DestroyRenderPass(d.device, d.presentPass, nil)
		}
		if d.commandPool != vk.CommandPool(vk.NullHandle) {
			vk.DestroyCommandPool(d.device, d.commandPool, nil)
		}
		vk.DestroyDevice(d.device, nil)
		d.device = vk.Device(vk.NullHandle)
	}
	if d.vkSurface != vk.NullSurface {
		vk.DestroySurface(d.instance, d.vkSurface, nil)
		d.vkSurface = vk.NullSurface
	}
	if d.instance != vk.Instance(vk.NullHandle) {
		vk.DestroyInstance(d.instance, nil)
		d.instance = vk.Instance(vk.NullHandle)
	}
	d.logger.IPrintf("Destroyed driver")
}

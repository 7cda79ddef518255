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
Package window provides a GLFW window that the renderer can size its
swapchain against and the Vulkan driver can present to. GLFW requires every
call to happen on the main thread.
*/
package window

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/debug"
	"goarrg.com/gmath"
)

type Config struct {
	Title     string
	Size      gmath.Extent3i32
	Resizable bool
}

func (c Config) withDefaults() Config {
	if c.Title == "" {
		c.Title = "mve"
	}
	if c.Size.X <= 0 || c.Size.Y <= 0 {
		c.Size = gmath.Extent3i32{X: 1280, Y: 720, Z: 1}
	}
	return c
}

type Window struct {
	logger   *debug.Logger
	window   *glfw.Window
	onResize func(gmath.Extent3i32)
}

func New(cfg Config) (*Window, error) {
	cfg = cfg.withDefaults()
	if err := glfw.Init(); err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to init glfw")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, debug.Errorf("Vulkan loader not found")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	resizable := glfw.False
	if cfg.Resizable {
		resizable = glfw.True
	}
	glfw.WindowHint(glfw.Resizable, resizable)

	window, err := glfw.CreateWindow(int(cfg.Size.X), int(cfg.Size.Y), cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, debug.ErrorWrapf(err, "Failed to create window")
	}

	w := &Window{
		logger: debug.NewLogger("mve", "window"),
		window: window,
	}
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if w.onResize != nil {
			w.onResize(gmath.Extent3i32{X: int32(width), Y: int32(height), Z: 1})
		}
	})

	w.logger.IPrintf("Created window %q: %dx%d", cfg.Title, cfg.Size.X, cfg.Size.Y)
	return w, nil
}

func (w *Window) Destroy() {
	w.window.Destroy()
	glfw.Terminate()
	w.logger.IPrintf("Destroyed window")
}

func (w *Window) FramebufferSize() gmath.Extent3i32 {
	width, height := w.window.GetFramebufferSize()
	return gmath.Extent3i32{X: int32(width), Y: int32(height), Z: 1}
}

func (w *Window) WaitEvents() {
	glfw.WaitEvents()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

func (w *Window) SetResizeCallback(f func(gmath.Extent3i32)) {
	w.onResize = f
}

func (w *Window) ShouldClose() bool {
	return w.window.ShouldClose()
}

func (w *Window) Close() {
	w.window.SetShouldClose(true)
}

func (w *Window) SetTitle(title string) {
	w.window.SetTitle(title)
}

func (w *Window) KeyPressed(key glfw.Key) bool {
	return w.window.GetKey(key) == glfw.Press
}

func (w *Window) InstanceProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.window.GetRequiredInstanceExtensions()
}

func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := w.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, debug.ErrorWrapf(err, "Failed to create window surface")
	}
	return vk.SurfaceFromPointer(surface), nil
}

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

import "goarrg.com/gmath"

// Opaque native objects owned by a Driver. The renderer stores them in its
// tables and hands them back to the same Driver, it never inspects them.
type (
	NativeBuffer              any
	NativeTexture             any
	NativeDescriptorSetLayout any
	NativePipelineLayout      any
	NativePipeline            any
	NativeDescriptorSet       any
	NativeFramebuffer         any
)

type PresentStatus uint32

const (
	PresentOK PresentStatus = iota
	PresentSuboptimal
	PresentOutOfDate
)

func (s PresentStatus) String() string {
	switch s {
	case PresentOK:
		return "OK"
	case PresentSuboptimal:
		return "Suboptimal"
	case PresentOutOfDate:
		return "OutOfDate"
	default:
		abort("Unknown PresentStatus: %d", s)
	}
	return ""
}

type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = iota
	BufferUsageIndex
)

func (u BufferUsage) String() string {
	switch u {
	case BufferUsageVertex:
		return "Vertex"
	case BufferUsageIndex:
		return "Index"
	default:
		abort("Unknown BufferUsage: %d", u)
	}
	return ""
}

// DescriptorBinding is one entry of a descriptor set layout.
type DescriptorBinding struct {
	Binding uint32
	Type    ShaderDescriptorType
	Stages  ShaderStageFlags
}

type GraphicsPipelineInfo struct {
	VertexShader   Shader
	FragmentShader Shader
	Layout         NativePipelineLayout
	VertexLayout   VertexLayout
	DepthTest      bool
}

// ClearColor is the color a render pass clears its color attachment to.
type ClearColor [4]float32

var (
	ClearColorPresent     = ClearColor{0, 0, 0, 1}
	ClearColorFramebuffer = ClearColor{142.0 / 255.0, 186.0 / 255.0, 1, 1}
)

/*
Driver is the native graphics API seen by the renderer. Slot arguments index
the frame ring: each slot owns one command buffer, an image-available and a
render-finished semaphore and an in-flight fence. All Cmd* calls record into
the slot's command buffer between BeginCommands and EndCommands.

A Driver is only ever called from the thread driving the Renderer.
*/
type Driver interface {
	GPUName() string
	Destroy()
	WaitIdle() error

	CreateFrames(count int) error
	DestroyFrames()
	WaitFrame(slot int) error
	AcquireImage(slot int) (uint32, PresentStatus, error)
	// ResetFrame resets the slot's fence and command buffer.
	ResetFrame(slot int) error
	BeginCommands(slot int) error
	EndCommands(slot int) error
	Submit(slot int) error
	Present(slot int, image uint32) (PresentStatus, error)

	// CreateSwapchain builds the swapchain and everything sized by it, the
	// returned extent is the one the surface actually accepted.
	CreateSwapchain(size gmath.Extent3i32) (gmath.Extent3i32, error)
	DestroySwapchain()

	CreateStagingBuffer(data []byte) (NativeBuffer, error)
	CreateDeviceBuffer(usage BufferUsage, size uint64) (NativeBuffer, error)
	CreateUniformBuffer(size uint64) (NativeBuffer, error)
	WriteBuffer(buffer NativeBuffer, offset uint64, data []byte)
	DestroyBuffer(buffer NativeBuffer)

	CreateTexture(format TextureFormat, size gmath.Extent3i32) (NativeTexture, error)
	DestroyTexture(texture NativeTexture)

	CreateDescriptorSetLayout(bindings []DescriptorBinding) (NativeDescriptorSetLayout, error)
	DestroyDescriptorSetLayout(layout NativeDescriptorSetLayout)
	CreatePipelineLayout(sets []NativeDescriptorSetLayout) (NativePipelineLayout, error)
	DestroyPipelineLayout(layout NativePipelineLayout)
	CreateGraphicsPipeline(info GraphicsPipelineInfo) (NativePipeline, error)
	DestroyPipeline(pipeline NativePipeline)

	AllocateDescriptorSet(layout NativeDescriptorSetLayout) (NativeDescriptorSet, error)
	FreeDescriptorSet(set NativeDescriptorSet)
	WriteUniformDescriptor(set NativeDescriptorSet, binding uint32, buffer NativeBuffer, size uint64)
	WriteTextureDescriptor(set NativeDescriptorSet, binding uint32, texture NativeTexture)

	// CreateFramebuffer builds an offscreen target sized to the current
	// swapchain and the sampled texture it renders into.
	CreateFramebuffer() (NativeFramebuffer, NativeTexture, gmath.Extent3i32, error)
	DestroyFramebuffer(framebuffer NativeFramebuffer)

	CmdCopyBuffer(slot int, src, dst NativeBuffer, size uint64, usage BufferUsage)
	CmdUploadTexture(slot int, src NativeBuffer, dst NativeTexture)
	// CmdBeginRenderPass targets the swapchain image when framebuffer is nil.
	CmdBeginRenderPass(slot int, framebuffer NativeFramebuffer, image uint32, clear ClearColor)
	CmdEndRenderPass(slot int)
	CmdBindPipeline(slot int, pipeline NativePipeline)
	CmdBindDescriptorSets(slot int, layout NativePipelineLayout, sets []NativeDescriptorSet)
	CmdBindVertexBuffer(slot int, buffer NativeBuffer)
	CmdDraw(slot int, vertexCount uint32)
	CmdDrawIndexed(slot int, buffer NativeBuffer, indexCount uint32)
}

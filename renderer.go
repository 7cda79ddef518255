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

import (
	"goarrg.com"
	"goarrg.com/debug"
	"goarrg.com/gmath"

	"goarrg.com/rhi/mve/internal/util"
	"goarrg.com/rhi/mve/profiler"
)

/*
Renderer owns every GPU resource created through it and the frame ring they
are used from. It is not safe for concurrent use, all methods must be called
from the thread driving the frame loop.
*/
type Renderer struct {
	noCopy   util.NoCopy
	logger   *debug.Logger
	platform goarrg.PlatformInterface
	profiler *profiler.Profiler
	driver   Driver
	window   Window
	config   config

	vertexBuffers        table[vertexBufferRecord]
	indexBuffers         table[indexBufferRecord]
	textures             table[textureRecord]
	uniformBuffers       table[uniformBufferRecord]
	descriptorSets       table[descriptorSetRecord]
	descriptorSetLayouts table[descriptorSetLayoutRecord]
	pipelineLayouts      table[pipelineLayoutRecord]
	pipelines            table[pipelineRecord]
	framebuffers         table[framebufferRecord]

	frames           []frameInFlight
	frameIndex       int
	deferred         deferredQueue
	descriptorWrites []pendingDescriptorWrite
	uniformUpdates   []pendingUniformUpdate

	draw          drawState
	extent        gmath.Extent3i32
	resizePending bool
}

// New takes ownership of driver, which is destroyed with the Renderer.
func New(driver Driver, window Window, cfg Config) *Renderer {
	cfg.validate()
	util.Init(cfg.Platform)

	r := &Renderer{
		logger:   cfg.Logger,
		platform: cfg.Platform,
		profiler: cfg.Profiler,
		driver:   driver,
		window:   window,
		deferred: deferredQueue{entries: map[uint64]*deferredEntry{}},
	}
	r.noCopy.Init()
	r.logger.IPrintf("User requested config: %s", prettyString(&cfg))
	r.config.use(cfg)

	r.vertexBuffers = newTable[vertexBufferRecord]("VertexBuffer", r.abort)
	r.indexBuffers = newTable[indexBufferRecord]("IndexBuffer", r.abort)
	r.textures = newTable[textureRecord]("Texture", r.abort)
	r.uniformBuffers = newTable[uniformBufferRecord]("UniformBuffer", r.abort)
	r.descriptorSets = newTable[descriptorSetRecord]("DescriptorSet", r.abort)
	r.descriptorSetLayouts = newTable[descriptorSetLayoutRecord]("DescriptorSetLayout", r.abort)
	r.pipelineLayouts = newTable[pipelineLayoutRecord]("PipelineLayout", r.abort)
	r.pipelines = newTable[pipelineRecord]("GraphicsPipeline", r.abort)
	r.framebuffers = newTable[framebufferRecord]("Framebuffer", r.abort)

	r.initFrames()
	r.initSwapchain()
	r.logger.IPrintf("Renderer initialized on %q, extent: %dx%d", driver.GPUName(), r.extent.X, r.extent.Y)
	return r
}

func (r *Renderer) SetLogLevel(l uint32) {
	r.logger.SetLevel(l)
}

func (r *Renderer) GPUName() string {
	r.noCopy.Check()
	return r.driver.GPUName()
}

type leakedTable struct {
	handles []Handle
	destroy func(Handle)
}

// Destroy waits for the device, runs every queued action and releases any
// resources the client leaked before tearing down the driver.
func (r *Renderer) Destroy() {
	r.noCopy.Check()
	r.assertNotDrawing("Destroy")

	r.check(r.driver.WaitIdle(), "wait for device idle")
	r.flushDeferred()

	// Keys sort in release order, owners before what they own.
	leaks := map[string]leakedTable{
		"0_DescriptorSet":       {r.descriptorSets.handles(), func(h Handle) { r.DestroyDescriptorSet(DescriptorSet(h)) }},
		"1_UniformBuffer":       {r.uniformBuffers.handles(), func(h Handle) { r.DestroyUniformBuffer(UniformBuffer(h)) }},
		"2_Framebuffer":         {r.framebuffers.handles(), func(h Handle) { r.DestroyFramebuffer(Framebuffer(h)) }},
		"3_GraphicsPipeline":    {r.pipelines.handles(), func(h Handle) { r.DestroyGraphicsPipeline(GraphicsPipeline(h)) }},
		"4_PipelineLayout":      {nil, func(h Handle) { r.DestroyPipelineLayout(PipelineLayout(h)) }},
		"5_DescriptorSetLayout": {nil, func(h Handle) { r.DestroyDescriptorSetLayout(DescriptorSetLayout(h)) }},
		"6_Texture":             {nil, func(h Handle) { r.DestroyTexture(Texture(h)) }},
		"7_VertexBuffer":        {r.vertexBuffers.handles(), func(h Handle) { r.DestroyVertexBuffer(VertexBuffer(h)) }},
		"8_IndexBuffer":         {r.indexBuffers.handles(), func(h Handle) { r.DestroyIndexBuffer(IndexBuffer(h)) }},
	}
	_ = mapRunFuncSorted(leaks, func(name string, l leakedTable) error {
		// Owned layouts and textures retire with their owners, list what is left.
		switch name {
		case "4_PipelineLayout":
			l.handles = r.pipelineLayouts.handles()
		case "5_DescriptorSetLayout":
			l.handles = r.descriptorSetLayouts.handles()
		case "6_Texture":
			l.handles = r.textures.handles()
		}
		if len(l.handles) == 0 {
			return nil
		}
		r.logger.WPrintf("Leaked %s: %s", name[2:], handleList(l.handles))
		for _, h := range l.handles {
			l.destroy(h)
		}
		return nil
	})
	r.flushDeferred()

	r.driver.DestroySwapchain()
	r.driver.DestroyFrames()
	r.driver.Destroy()
	r.frames = nil
	r.noCopy.Close()
	r.logger.IPrintf("Renderer destroyed")
}

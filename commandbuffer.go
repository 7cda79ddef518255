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

// MaxDescriptorSets is the number of descriptor sets a pipeline layout spans.
const MaxDescriptorSets = 4

// BeginRenderPassPresent starts the pass that renders into the acquired
// swapchain image.
func (r *Renderer) BeginRenderPassPresent() {
	r.noCopy.Check()
	r.beginRenderPass("BeginRenderPassPresent", nil, ClearColorPresent)
}

// BeginRenderPassFramebuffer starts a pass rendering into an offscreen framebuffer.
func (r *Renderer) BeginRenderPassFramebuffer(framebuffer Framebuffer) {
	r.noCopy.Check()
	fb := r.framebuffers.get(Handle(framebuffer))
	r.beginRenderPass("BeginRenderPassFramebuffer", fb.native, ClearColorFramebuffer)
}

func (r *Renderer) beginRenderPass(what string, framebuffer NativeFramebuffer, clear ClearColor) {
	r.assertDrawing(what)
	if r.draw.renderPass {
		r.abort("%s called with an active render pass", what)
	}
	r.driver.CmdBeginRenderPass(r.draw.slot, framebuffer, r.draw.image, clear)
	r.draw.renderPass = true
}

func (r *Renderer) EndRenderPass() {
	r.noCopy.Check()
	r.assertRenderPass("EndRenderPass")
	r.driver.CmdEndRenderPass(r.draw.slot)
	r.draw.renderPass = false
}

// BindGraphicsPipeline is a no-op when the pipeline is already bound in the
// current frame.
func (r *Renderer) BindGraphicsPipeline(pipeline GraphicsPipeline) {
	r.noCopy.Check()
	r.assertRenderPass("BindGraphicsPipeline")
	p := r.pipelines.get(Handle(pipeline))
	if r.draw.bound && r.draw.pipeline == pipeline {
		return
	}
	r.driver.CmdBindPipeline(r.draw.slot, p.native)
	r.draw.bound = true
	r.draw.pipeline = pipeline
}

// BindDescriptorSets binds sets to consecutive set numbers starting at 0 using
// the layout of the bound pipeline.
func (r *Renderer) BindDescriptorSets(sets ...DescriptorSet) {
	r.noCopy.Check()
	r.assertRenderPass("BindDescriptorSets")
	if len(sets) == 0 || len(sets) > MaxDescriptorSets {
		r.abort("BindDescriptorSets requires 1 to %d sets, got %d", MaxDescriptorSets, len(sets))
	}
	if !r.draw.bound {
		r.abort("BindDescriptorSets called without a bound pipeline")
	}
	pipeline := r.pipelines.get(Handle(r.draw.pipeline))
	layout := r.pipelineLayouts.get(Handle(pipeline.layout))

	natives := make([]NativeDescriptorSet, len(sets))
	for i, s := range sets {
		set := r.descriptorSets.get(Handle(s))
		natives[i] = set.perFrame[r.draw.slot]
	}
	r.driver.CmdBindDescriptorSets(r.draw.slot, layout.native, natives)
}

func (r *Renderer) BindVertexBuffer(buffer VertexBuffer) {
	r.noCopy.Check()
	r.assertRenderPass("BindVertexBuffer")
	vb := r.vertexBuffers.get(Handle(buffer))
	r.driver.CmdBindVertexBuffer(r.draw.slot, vb.native)
}

// DrawVertexBuffer binds buffer and draws all of its vertices.
func (r *Renderer) DrawVertexBuffer(buffer VertexBuffer) {
	r.noCopy.Check()
	r.assertRenderPass("DrawVertexBuffer")
	vb := r.vertexBuffers.get(Handle(buffer))
	r.driver.CmdBindVertexBuffer(r.draw.slot, vb.native)
	r.driver.CmdDraw(r.draw.slot, vb.vertexCount)
}

// DrawIndexBuffer draws every index of buffer against the bound vertex buffer.
func (r *Renderer) DrawIndexBuffer(buffer IndexBuffer) {
	r.noCopy.Check()
	r.assertRenderPass("DrawIndexBuffer")
	ib := r.indexBuffers.get(Handle(buffer))
	r.driver.CmdDrawIndexed(r.draw.slot, ib.native, ib.indexCount)
}

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
	"goarrg.com/rhi/mve/internal/container"
)

// deferredAction is a teardown or update scheduled against the frame ring.
// Each variant carries only what is needed to perform it.
type deferredAction interface {
	isDeferredAction()
}

type (
	destroyVertexBuffer        struct{ handle VertexBuffer }
	destroyIndexBuffer         struct{ handle IndexBuffer }
	destroyTexture             struct{ handle Texture }
	destroyUniformCopy         struct{ handle UniformBuffer }
	destroyDescriptorSetCopy   struct{ handle DescriptorSet }
	destroyGraphicsPipeline    struct{ handle GraphicsPipeline }
	destroyPipelineLayout      struct{ handle PipelineLayout }
	destroyDescriptorSetLayout struct{ handle DescriptorSetLayout }
	destroyFramebuffer         struct{ handle Framebuffer }
	destroyStagingBuffer       struct{ buffer NativeBuffer }
	funcAction                 struct{ f func(frameIndex int) }
)

func (destroyVertexBuffer) isDeferredAction()        {}
func (destroyIndexBuffer) isDeferredAction()         {}
func (destroyTexture) isDeferredAction()             {}
func (destroyUniformCopy) isDeferredAction()         {}
func (destroyDescriptorSetCopy) isDeferredAction()   {}
func (destroyGraphicsPipeline) isDeferredAction()    {}
func (destroyPipelineLayout) isDeferredAction()      {}
func (destroyDescriptorSetLayout) isDeferredAction() {}
func (destroyFramebuffer) isDeferredAction()         {}
func (destroyStagingBuffer) isDeferredAction()       {}
func (funcAction) isDeferredAction()                 {}

// commandAction is recorded at the front of the next command buffer, ahead of
// any client command.
type commandAction interface {
	isCommandAction()
}

type (
	uploadBuffer struct {
		staging NativeBuffer
		dst     NativeBuffer
		size    uint64
		usage   BufferUsage
	}
	uploadTexture struct {
		staging NativeBuffer
		dst     NativeTexture
	}
)

func (uploadBuffer) isCommandAction()  {}
func (uploadTexture) isCommandAction() {}

type deferredEntry struct {
	action    deferredAction
	remaining int
}

type deferredQueue struct {
	nextID  uint64
	entries map[uint64]*deferredEntry
	// afterAll holds actions counted down once per BeginFrame regardless of slot.
	afterAll container.Queue[uint64]
	front    container.Queue[commandAction]
}

func (q *deferredQueue) add(action deferredAction, remaining int) uint64 {
	id := q.nextID
	q.nextID++
	q.entries[id] = &deferredEntry{action: action, remaining: remaining}
	return id
}

// deferToAllFrames runs action once on every slot as each comes up for reuse.
func (r *Renderer) deferToAllFrames(action deferredAction) {
	id := r.deferred.add(action, len(r.frames))
	for i := range r.frames {
		r.frames[i].pending.Push(id)
	}
}

// deferAfterAllFrames runs action exactly once, after FramesInFlight BeginFrame calls.
func (r *Renderer) deferAfterAllFrames(action deferredAction) {
	id := r.deferred.add(action, len(r.frames))
	r.deferred.afterAll.Push(id)
}

// deferToNextFrame runs action once, the next time the current slot begins.
func (r *Renderer) deferToNextFrame(action deferredAction) {
	id := r.deferred.add(action, 1)
	r.frames[r.frameIndex].pending.Push(id)
}

func (r *Renderer) deferToCommandBufferFront(action commandAction) {
	r.deferred.front.Push(action)
}

// DeferToAllFrames calls f once for every frame slot, each time right after
// that slot's previous GPU work is known to have completed.
func (r *Renderer) DeferToAllFrames(f func(frameIndex int)) {
	r.deferToAllFrames(funcAction{f: f})
}

// DeferAfterAllFrames calls f once no frame in flight can still reference
// anything used before the call.
func (r *Renderer) DeferAfterAllFrames(f func(frameIndex int)) {
	r.deferAfterAllFrames(funcAction{f: f})
}

// DeferToNextFrame calls f once, the next time the current frame slot begins.
func (r *Renderer) DeferToNextFrame(f func(frameIndex int)) {
	r.deferToNextFrame(funcAction{f: f})
}

// drainSlot runs the actions queued on slot. Actions queued while draining
// wait for the slot's next turn.
func (r *Renderer) drainSlot(slot int) {
	f := &r.frames[slot]
	for n := f.pending.Len(); n > 0; n-- {
		id := f.pending.Pop()
		e := r.deferred.entries[id]
		r.execute(e.action, slot)
		e.remaining--
		if e.remaining <= 0 {
			delete(r.deferred.entries, id)
		}
	}
}

func (r *Renderer) drainAfterAll(slot int) {
	for n := r.deferred.afterAll.Len(); n > 0; n-- {
		id := r.deferred.afterAll.Pop()
		e := r.deferred.entries[id]
		e.remaining--
		if e.remaining <= 0 {
			r.execute(e.action, slot)
			delete(r.deferred.entries, id)
		} else {
			r.deferred.afterAll.Push(id)
		}
	}
}

func (r *Renderer) drainFront(slot int) {
	for n := r.deferred.front.Len(); n > 0; n-- {
		r.runCommandAction(slot, r.deferred.front.Pop())
	}
}

// recordUpload records action right away when a command buffer is open
// outside of a render pass, otherwise it waits for the next frame's front.
func (r *Renderer) recordUpload(action commandAction) {
	if r.draw.drawing && !r.draw.renderPass {
		r.runCommandAction(r.draw.slot, action)
		return
	}
	r.deferToCommandBufferFront(action)
}

// cancelUpload drops queued uploads into dst, their staging buffers were
// never submitted and are released right away.
func (r *Renderer) cancelUpload(dst any) {
	r.deferred.front.Filter(func(action commandAction) bool {
		switch a := action.(type) {
		case uploadBuffer:
			if a.dst == dst {
				r.driver.DestroyBuffer(a.staging)
				return false
			}
		case uploadTexture:
			if a.dst == dst {
				r.driver.DestroyBuffer(a.staging)
				return false
			}
		}
		return true
	})
}

func (r *Renderer) runCommandAction(slot int, action commandAction) {
	switch a := action.(type) {
	case uploadBuffer:
		r.driver.CmdCopyBuffer(slot, a.staging, a.dst, a.size, a.usage)
		r.deferToNextFrame(destroyStagingBuffer{buffer: a.staging})
	case uploadTexture:
		r.driver.CmdUploadTexture(slot, a.staging, a.dst)
		r.deferToNextFrame(destroyStagingBuffer{buffer: a.staging})
	default:
		r.abort("Unknown command action: %T", action)
	}
}

// flushDeferred runs everything still queued, the device must be idle.
func (r *Renderer) flushDeferred() {
	for !r.deferred.front.Empty() {
		switch a := r.deferred.front.Pop().(type) {
		case uploadBuffer:
			r.driver.DestroyBuffer(a.staging)
		case uploadTexture:
			r.driver.DestroyBuffer(a.staging)
		}
	}
	for i := range r.frames {
		for !r.frames[i].pending.Empty() {
			id := r.frames[i].pending.Pop()
			if e, ok := r.deferred.entries[id]; ok {
				r.execute(e.action, i)
				if e.remaining--; e.remaining <= 0 {
					delete(r.deferred.entries, id)
				}
			}
		}
	}
	for !r.deferred.afterAll.Empty() {
		id := r.deferred.afterAll.Pop()
		r.execute(r.deferred.entries[id].action, r.frameIndex)
		delete(r.deferred.entries, id)
	}
}

func (r *Renderer) execute(action deferredAction, slot int) {
	switch a := action.(type) {
	case destroyVertexBuffer:
		record := r.vertexBuffers.release(Handle(a.handle))
		r.driver.DestroyBuffer(record.native)

	case destroyIndexBuffer:
		record := r.indexBuffers.release(Handle(a.handle))
		r.driver.DestroyBuffer(record.native)

	case destroyTexture:
		record := r.textures.release(Handle(a.handle))
		r.driver.DestroyTexture(record.native)

	case destroyUniformCopy:
		record := r.uniformBuffers.pending(Handle(a.handle))
		r.driver.DestroyBuffer(record.perFrame[slot])
		record.perFrame[slot] = nil
		if allNil(record.perFrame) {
			r.uniformBuffers.release(Handle(a.handle))
		}

	case destroyDescriptorSetCopy:
		record := r.descriptorSets.pending(Handle(a.handle))
		r.driver.FreeDescriptorSet(record.perFrame[slot])
		record.perFrame[slot] = nil
		if allNil(record.perFrame) {
			r.descriptorSets.release(Handle(a.handle))
		}

	case destroyGraphicsPipeline:
		record := r.pipelines.release(Handle(a.handle))
		r.driver.DestroyPipeline(record.native)
		if record.ownsLayout {
			r.execute(destroyPipelineLayout{handle: record.layout}, slot)
		}

	case destroyPipelineLayout:
		record := r.pipelineLayouts.release(Handle(a.handle))
		r.driver.DestroyPipelineLayout(record.native)
		if record.ownsSetLayouts {
			for _, l := range record.setLayouts {
				r.execute(destroyDescriptorSetLayout{handle: l}, slot)
			}
		}

	case destroyDescriptorSetLayout:
		record := r.descriptorSetLayouts.release(Handle(a.handle))
		r.driver.DestroyDescriptorSetLayout(record.native)

	case destroyFramebuffer:
		record := r.framebuffers.release(Handle(a.handle))
		r.driver.DestroyFramebuffer(record.native)
		texture := r.textures.release(Handle(record.texture))
		r.driver.DestroyTexture(texture.native)

	case destroyStagingBuffer:
		r.driver.DestroyBuffer(a.buffer)

	case funcAction:
		a.f(slot)

	default:
		r.abort("Unknown deferred action: %T", action)
	}
}

func allNil[T any](s []T) bool {
	for _, v := range s {
		if any(v) != nil {
			return false
		}
	}
	return true
}

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

/*
BeginFrame waits for the current ring slot to retire, acquires the next
swapchain image and starts recording. It returns false if the swapchain had
to be rebuilt instead, the caller should skip drawing and try again on its
next iteration.
*/
func (r *Renderer) BeginFrame() bool {
	r.noCopy.Check()
	r.assertNotDrawing("BeginFrame")

	r.profiler.Start("BeginFrame")
	defer r.profiler.Stop("BeginFrame")

	if r.resizePending {
		r.recreateSwapchain()
	}

	slot := r.frameIndex
	r.check(r.driver.WaitFrame(slot), "wait for frame %d", slot)

	image, status, err := r.driver.AcquireImage(slot)
	r.check(err, "acquire swapchain image for frame %d", slot)
	if status != PresentOK {
		r.logger.VPrintf("AcquireImage: %s, abandoning frame", status)
		r.recreateSwapchain()
		return false
	}

	r.check(r.driver.ResetFrame(slot), "reset frame %d", slot)

	r.drainSlot(slot)
	r.drainAfterAll(slot)
	r.applyDescriptorWrites(slot)
	r.applyUniformUpdates(slot)

	r.check(r.driver.BeginCommands(slot), "begin command buffer for frame %d", slot)
	r.draw = drawState{drawing: true, slot: slot, image: image}
	r.drainFront(slot)
	return true
}

// EndFrame submits the recorded commands and presents the acquired image.
func (r *Renderer) EndFrame() {
	r.noCopy.Check()
	r.assertDrawing("EndFrame")
	if r.draw.renderPass {
		r.abort("EndFrame called with an active render pass")
	}

	r.profiler.Start("EndFrame")
	defer r.profiler.Stop("EndFrame")

	slot := r.draw.slot
	r.check(r.driver.EndCommands(slot), "end command buffer for frame %d", slot)
	r.check(r.driver.Submit(slot), "submit frame %d", slot)

	status, err := r.driver.Present(slot, r.draw.image)
	r.check(err, "present frame %d", slot)

	r.frameIndex = (r.frameIndex + 1) % len(r.frames)
	r.draw = drawState{}

	if status != PresentOK || r.resizePending {
		if status != PresentOK {
			r.logger.VPrintf("Present: %s", status)
		}
		r.recreateSwapchain()
	}
}

func (r *Renderer) applyDescriptorWrites(slot int) {
	kept := r.descriptorWrites[:0]
	for _, w := range r.descriptorWrites {
		set := r.descriptorSets.get(Handle(w.set))
		switch write := w.write.(type) {
		case UniformWrite:
			buffer := r.uniformBuffers.get(Handle(write.Buffer))
			r.driver.WriteUniformDescriptor(set.perFrame[slot], w.binding, buffer.perFrame[slot], buffer.size)
		case TextureWrite:
			texture := r.textures.get(Handle(write.Texture))
			r.driver.WriteTextureDescriptor(set.perFrame[slot], w.binding, texture.native)
		default:
			r.abort("Unknown DescriptorWrite: %T", w.write)
		}
		if w.remaining--; w.remaining > 0 {
			kept = append(kept, w)
		}
	}
	clear(r.descriptorWrites[len(kept):])
	r.descriptorWrites = kept
}

func (r *Renderer) applyUniformUpdates(slot int) {
	kept := r.uniformUpdates[:0]
	for _, u := range r.uniformUpdates {
		buffer := r.uniformBuffers.get(Handle(u.buffer))
		r.driver.WriteBuffer(buffer.perFrame[slot], uint64(u.location), u.data)
		if u.remaining--; u.remaining > 0 {
			kept = append(kept, u)
		}
	}
	clear(r.uniformUpdates[len(kept):])
	r.uniformUpdates = kept
}

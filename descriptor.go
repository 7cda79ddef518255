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
	"slices"
)

// DescriptorWrite is the resource a descriptor binding is pointed at.
type DescriptorWrite interface {
	isDescriptorWrite()
}

type UniformWrite struct{ Buffer UniformBuffer }
type TextureWrite struct{ Texture Texture }

func (UniformWrite) isDescriptorWrite() {}
func (TextureWrite) isDescriptorWrite() {}

type descriptorSetRecord struct {
	perFrame []NativeDescriptorSet
	set      uint32
	bindings []DescriptorBinding
}

type pendingDescriptorWrite struct {
	set       DescriptorSet
	binding   uint32
	write     DescriptorWrite
	remaining int
}

// CreateDescriptorSet allocates one copy of the pipeline's set per frame in flight.
func (r *Renderer) CreateDescriptorSet(pipeline GraphicsPipeline, set uint32) DescriptorSet {
	r.noCopy.Check()
	p := r.pipelines.get(Handle(pipeline))
	l := r.pipelineLayouts.get(Handle(p.layout))
	if int(set) >= len(l.setLayouts) {
		r.abort("Graphics pipeline %d has no descriptor set %d", pipeline, set)
	}
	layout := r.descriptorSetLayouts.get(Handle(l.setLayouts[set]))
	if len(layout.bindings) == 0 {
		r.abort("Graphics pipeline %d has no bindings in descriptor set %d", pipeline, set)
	}

	perFrame := make([]NativeDescriptorSet, len(r.frames))
	for i := range perFrame {
		native, err := r.driver.AllocateDescriptorSet(layout.native)
		r.check(err, "allocate descriptor set %d for frame %d", set, i)
		perFrame[i] = native
	}
	h := r.descriptorSets.insert(descriptorSetRecord{
		perFrame: perFrame,
		set:      set,
		bindings: slices.Clone(layout.bindings),
	})
	r.logger.VPrintf("Descriptor set created: %d pipeline: %d set: %d", h, pipeline, set)
	return DescriptorSet(h)
}

func (r *Renderer) DestroyDescriptorSet(set DescriptorSet) {
	r.noCopy.Check()
	r.descriptorSets.retire(Handle(set))
	r.descriptorWrites = slices.DeleteFunc(r.descriptorWrites, func(w pendingDescriptorWrite) bool {
		return w.set == set
	})
	r.logger.VPrintf("Descriptor set destroyed: %d", set)
	r.deferToAllFrames(destroyDescriptorSetCopy{handle: set})
}

/*
WriteDescriptorBinding points binding of every copy of set at the resource in
write. Copies are updated as their frames come up, a set must not be drawn
with before the frame after the call.
*/
func (r *Renderer) WriteDescriptorBinding(set DescriptorSet, binding uint32, write DescriptorWrite) {
	r.noCopy.Check()
	s := r.descriptorSets.get(Handle(set))
	i := slices.IndexFunc(s.bindings, func(b DescriptorBinding) bool { return b.Binding == binding })
	if i < 0 {
		r.abort("Descriptor set %d has no binding %d", set, binding)
	}

	switch w := write.(type) {
	case UniformWrite:
		if s.bindings[i].Type != ShaderDescriptorUniformBuffer {
			r.abort("Descriptor set %d binding %d is %s, got uniform buffer %d", set, binding, s.bindings[i].Type, w.Buffer)
		}
		r.uniformBuffers.get(Handle(w.Buffer))
	case TextureWrite:
		if s.bindings[i].Type != ShaderDescriptorCombinedImageSampler {
			r.abort("Descriptor set %d binding %d is %s, got texture %d", set, binding, s.bindings[i].Type, w.Texture)
		}
		r.textures.get(Handle(w.Texture))
	default:
		r.abort("Unknown DescriptorWrite: %T", write)
	}

	// A newer write to the same binding supersedes any still pending.
	r.descriptorWrites = slices.DeleteFunc(r.descriptorWrites, func(w pendingDescriptorWrite) bool {
		return w.set == set && w.binding == binding
	})
	r.descriptorWrites = append(r.descriptorWrites, pendingDescriptorWrite{
		set:       set,
		binding:   binding,
		write:     write,
		remaining: len(r.frames),
	})
	r.logger.VPrintf("Descriptor set %d binding %d write queued: %T", set, binding, write)
}

func (r *Renderer) purgeUniformWrites(buffer UniformBuffer) {
	r.descriptorWrites = slices.DeleteFunc(r.descriptorWrites, func(w pendingDescriptorWrite) bool {
		u, ok := w.write.(UniformWrite)
		return ok && u.Buffer == buffer
	})
}

func (r *Renderer) purgeTextureWrites(texture Texture) {
	r.descriptorWrites = slices.DeleteFunc(r.descriptorWrites, func(w pendingDescriptorWrite) bool {
		t, ok := w.write.(TextureWrite)
		return ok && t.Texture == texture
	})
}

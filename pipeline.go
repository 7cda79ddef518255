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

type descriptorSetLayoutRecord struct {
	native   NativeDescriptorSetLayout
	set      uint32
	bindings []DescriptorBinding
	// owned layouts are released with the pipeline layout that created them.
	owned bool
}

type pipelineLayoutRecord struct {
	native NativePipelineLayout
	// setLayouts is indexed by set number.
	setLayouts     []DescriptorSetLayout
	ownsSetLayouts bool
	owned          bool
}

type pipelineRecord struct {
	native       NativePipeline
	layout       PipelineLayout
	ownsLayout   bool
	vertexLayout VertexLayout
	depthTest    bool
}

// mergeBindings collects the bindings of set across shaders, or-ing the
// stages of bindings shared between them.
func (r *Renderer) mergeBindings(set uint32, shaders []Shader) []DescriptorBinding {
	var merged []DescriptorBinding
	for _, s := range shaders {
		ss := s.findSet(set)
		if ss == nil {
			continue
		}
		for _, b := range ss.Bindings {
			i := slices.IndexFunc(merged, func(d DescriptorBinding) bool { return d.Binding == b.Binding })
			if i < 0 {
				merged = append(merged, DescriptorBinding{Binding: b.Binding, Type: b.Type, Stages: s.Stage.Flags()})
				continue
			}
			if merged[i].Type != b.Type {
				r.abort("Set %d binding %d declared as both %s and %s", set, b.Binding, merged[i].Type, b.Type)
			}
			merged[i].Stages |= s.Stage.Flags()
		}
	}
	slices.SortFunc(merged, func(a, b DescriptorBinding) int { return int(a.Binding) - int(b.Binding) })
	return merged
}

func (r *Renderer) createDescriptorSetLayout(set uint32, owned bool, shaders []Shader) DescriptorSetLayout {
	if set >= MaxDescriptorSets {
		r.abort("Descriptor set %d out of range [0, %d)", set, MaxDescriptorSets)
	}
	bindings := r.mergeBindings(set, shaders)
	native, err := r.driver.CreateDescriptorSetLayout(bindings)
	r.check(err, "create descriptor set layout for set %d", set)
	h := r.descriptorSetLayouts.insert(descriptorSetLayoutRecord{native: native, set: set, bindings: bindings, owned: owned})
	r.logger.VPrintf("Descriptor set layout created: %d set: %d bindings: %s", h, set, jsonString(bindings))
	return DescriptorSetLayout(h)
}

// CreateDescriptorSetLayout creates the layout of set as used by shaders.
func (r *Renderer) CreateDescriptorSetLayout(set uint32, shaders ...Shader) DescriptorSetLayout {
	r.noCopy.Check()
	return r.createDescriptorSetLayout(set, false, shaders)
}

func (r *Renderer) DestroyDescriptorSetLayout(layout DescriptorSetLayout) {
	r.noCopy.Check()
	if l := r.descriptorSetLayouts.get(Handle(layout)); l.owned {
		r.abort("Descriptor set layout %d is owned by a pipeline layout", layout)
	}
	r.descriptorSetLayouts.retire(Handle(layout))
	r.logger.VPrintf("Descriptor set layout destroyed: %d", layout)
	r.deferAfterAllFrames(destroyDescriptorSetLayout{handle: layout})
}

func (r *Renderer) createPipelineLayout(owned bool, shaders []Shader) PipelineLayout {
	numSets := 0
	for _, s := range shaders {
		for _, ss := range s.Sets {
			numSets = max(numSets, int(ss.Set)+1)
		}
	}

	setLayouts := make([]DescriptorSetLayout, numSets)
	natives := make([]NativeDescriptorSetLayout, numSets)
	for i := range numSets {
		setLayouts[i] = r.createDescriptorSetLayout(uint32(i), true, shaders)
		natives[i] = r.descriptorSetLayouts.get(Handle(setLayouts[i])).native
	}

	native, err := r.driver.CreatePipelineLayout(natives)
	r.check(err, "create pipeline layout with %d sets", numSets)
	h := r.pipelineLayouts.insert(pipelineLayoutRecord{
		native:         native,
		setLayouts:     setLayouts,
		ownsSetLayouts: true,
		owned:          owned,
	})
	r.logger.VPrintf("Pipeline layout created: %d set layouts: %s", h, handleList(setLayouts))
	return PipelineLayout(h)
}

// CreatePipelineLayout creates a layout covering every set the shaders use,
// sets skipped in between get empty layouts.
func (r *Renderer) CreatePipelineLayout(shaders ...Shader) PipelineLayout {
	r.noCopy.Check()
	return r.createPipelineLayout(false, shaders)
}

func (r *Renderer) retirePipelineLayout(layout PipelineLayout) {
	l := r.pipelineLayouts.retire(Handle(layout))
	if l.ownsSetLayouts {
		for _, s := range l.setLayouts {
			r.descriptorSetLayouts.retire(Handle(s))
		}
	}
}

func (r *Renderer) DestroyPipelineLayout(layout PipelineLayout) {
	r.noCopy.Check()
	if l := r.pipelineLayouts.get(Handle(layout)); l.owned {
		r.abort("Pipeline layout %d is owned by a graphics pipeline", layout)
	}
	for _, h := range r.pipelines.handles() {
		if r.pipelines.get(h).layout == layout {
			r.abort("Pipeline layout %d is still used by graphics pipeline %d", layout, h)
		}
	}
	r.retirePipelineLayout(layout)
	r.logger.VPrintf("Pipeline layout destroyed: %d", layout)
	r.deferAfterAllFrames(destroyPipelineLayout{handle: layout})
}

func (r *Renderer) createGraphicsPipeline(layout PipelineLayout, ownsLayout bool, vertexShader, fragmentShader Shader,
	vertexLayout VertexLayout, depthTest bool,
) GraphicsPipeline {
	l := r.pipelineLayouts.get(Handle(layout))
	native, err := r.driver.CreateGraphicsPipeline(GraphicsPipelineInfo{
		VertexShader:   vertexShader,
		FragmentShader: fragmentShader,
		Layout:         l.native,
		VertexLayout:   vertexLayout,
		DepthTest:      depthTest,
	})
	r.check(err, "create graphics pipeline")
	h := r.pipelines.insert(pipelineRecord{
		native:       native,
		layout:       layout,
		ownsLayout:   ownsLayout,
		vertexLayout: append(VertexLayout(nil), vertexLayout...),
		depthTest:    depthTest,
	})
	r.logger.VPrintf("Graphics pipeline created: %d layout: %d depth test: %t", h, layout, depthTest)
	return GraphicsPipeline(h)
}

func (r *Renderer) validatePipelineShaders(vertexShader, fragmentShader Shader, vertexLayout VertexLayout) {
	if vertexShader.Stage != ShaderStageVertex {
		r.abort("Expected a vertex shader, got: %s", vertexShader.Stage)
	}
	if fragmentShader.Stage != ShaderStageFragment {
		r.abort("Expected a fragment shader, got: %s", fragmentShader.Stage)
	}
	if len(vertexShader.Code) == 0 || len(fragmentShader.Code) == 0 {
		r.abort("Cannot create graphics pipeline from empty shader code")
	}
	if len(vertexLayout) == 0 {
		r.abort("Cannot create graphics pipeline with an empty vertex layout")
	}
}

// CreateGraphicsPipeline creates a pipeline rendering into the present and
// framebuffer passes, along with a pipeline layout it owns.
func (r *Renderer) CreateGraphicsPipeline(vertexShader, fragmentShader Shader, vertexLayout VertexLayout, depthTest bool) GraphicsPipeline {
	r.noCopy.Check()
	r.validatePipelineShaders(vertexShader, fragmentShader, vertexLayout)
	layout := r.createPipelineLayout(true, []Shader{vertexShader, fragmentShader})
	return r.createGraphicsPipeline(layout, true, vertexShader, fragmentShader, vertexLayout, depthTest)
}

// CreateGraphicsPipelineWithLayout shares an existing pipeline layout, which
// must outlive the pipeline.
func (r *Renderer) CreateGraphicsPipelineWithLayout(layout PipelineLayout, vertexShader, fragmentShader Shader,
	vertexLayout VertexLayout, depthTest bool,
) GraphicsPipeline {
	r.noCopy.Check()
	r.validatePipelineShaders(vertexShader, fragmentShader, vertexLayout)
	l := r.pipelineLayouts.get(Handle(layout))
	for _, s := range []Shader{vertexShader, fragmentShader} {
		for _, ss := range s.Sets {
			if int(ss.Set) >= len(l.setLayouts) {
				r.abort("Pipeline layout %d has no set %d used by %s", layout, ss.Set, s)
			}
		}
	}
	return r.createGraphicsPipeline(layout, false, vertexShader, fragmentShader, vertexLayout, depthTest)
}

func (r *Renderer) DestroyGraphicsPipeline(pipeline GraphicsPipeline) {
	r.noCopy.Check()
	p := r.pipelines.retire(Handle(pipeline))
	if p.ownsLayout {
		r.retirePipelineLayout(p.layout)
	}
	if r.draw.bound && r.draw.pipeline == pipeline {
		r.draw.bound = false
	}
	r.logger.VPrintf("Graphics pipeline destroyed: %d", pipeline)
	r.deferAfterAllFrames(destroyGraphicsPipeline{handle: pipeline})
}

// PipelineLayout returns the layout the pipeline was created with.
func (r *Renderer) PipelineLayout(pipeline GraphicsPipeline) PipelineLayout {
	r.noCopy.Check()
	return r.pipelines.get(Handle(pipeline)).layout
}

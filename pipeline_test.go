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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeBindings(t *testing.T) {
	r, _, _ := newTestRenderer(2)
	vs, fs := testShaders()
	fs.Sets[0].Bindings = append(fs.Sets[0].Bindings, vs.Sets[0].Bindings[0])

	layout := r.CreateDescriptorSetLayout(0, vs, fs)
	assert.Equal(t, []DescriptorBinding{
		{Binding: 0, Type: ShaderDescriptorUniformBuffer, Stages: ShaderStageVertexBit | ShaderStageFragmentBit},
		{Binding: 1, Type: ShaderDescriptorCombinedImageSampler, Stages: ShaderStageFragmentBit},
	}, r.descriptorSetLayouts.get(Handle(layout)).bindings)

	conflict := vs
	conflict.Sets = []ShaderSet{{Set: 0, Bindings: []ShaderBinding{{Binding: 1, Type: ShaderDescriptorUniformBuffer, Block: &ShaderBlock{Size: 4}}}}}
	assert.Panics(t, func() { r.CreateDescriptorSetLayout(0, fs, conflict) })
	assert.Panics(t, func() { r.CreateDescriptorSetLayout(MaxDescriptorSets, vs) })
}

func TestCreateGraphicsPipelineValidation(t *testing.T) {
	r, _, _ := newTestRenderer(2)
	vs, fs := testShaders()
	assert.Panics(t, func() { r.CreateGraphicsPipeline(fs, vs, testLayout, true) })
	assert.Panics(t, func() { r.CreateGraphicsPipeline(vs, fs, nil, true) })
	empty := vs
	empty.Code = nil
	assert.Panics(t, func() { r.CreateGraphicsPipeline(empty, fs, testLayout, true) })
}

func TestDestroyGraphicsPipelineReleasesLayouts(t *testing.T) {
	r, d, _ := newTestRenderer(2)
	vs, fs := testShaders()
	pipeline := r.CreateGraphicsPipeline(vs, fs, testLayout, true)
	layout := r.PipelineLayout(pipeline)
	assert.Equal(t, 1, r.pipelineLayouts.len())
	assert.Equal(t, 1, r.descriptorSetLayouts.len())
	assert.Panics(t, func() { r.DestroyPipelineLayout(layout) }, "owned by the pipeline")

	r.DestroyGraphicsPipeline(pipeline)
	assert.Equal(t, 0, r.pipelines.len())
	assert.Equal(t, 0, r.pipelineLayouts.len())
	assert.Equal(t, 0, r.descriptorSetLayouts.len())
	assert.Equal(t, 1, d.liveCount("pipeline"))

	runFrame(t, r, nil)
	runFrame(t, r, nil)
	assert.Equal(t, 0, d.liveCount("pipeline"))
	assert.Equal(t, 0, d.liveCount("pipelineLayout"))
	assert.Equal(t, 0, d.liveCount("setLayout"))
}

func TestSharedPipelineLayout(t *testing.T) {
	r, d, _ := newTestRenderer(2)
	vs, fs := testShaders()
	vs.Sets = append(vs.Sets, ShaderSet{Set: 2, Bindings: []ShaderBinding{{Binding: 0, Type: ShaderDescriptorCombinedImageSampler}}})

	layout := r.CreatePipelineLayout(vs, fs)
	require.Len(t, r.pipelineLayouts.get(Handle(layout)).setLayouts, 3)
	assert.Equal(t, 3, d.liveCount("setLayout"))

	a := r.CreateGraphicsPipelineWithLayout(layout, vs, fs, testLayout, true)
	b := r.CreateGraphicsPipelineWithLayout(layout, vs, fs, testLayout, false)
	assert.Equal(t, layout, r.PipelineLayout(a))
	assert.Panics(t, func() { r.DestroyPipelineLayout(layout) }, "in use")

	r.DestroyGraphicsPipeline(a)
	r.DestroyGraphicsPipeline(b)
	runFrame(t, r, nil)
	runFrame(t, r, nil)
	assert.Equal(t, 1, d.liveCount("pipelineLayout"))

	r.DestroyPipelineLayout(layout)
	runFrame(t, r, nil)
	runFrame(t, r, nil)
	assert.Equal(t, 0, d.liveCount("pipelineLayout"))
	assert.Equal(t, 0, d.liveCount("setLayout"))

	small := r.CreatePipelineLayout(fs)
	assert.Panics(t, func() { r.CreateGraphicsPipelineWithLayout(small, vs, fs, testLayout, true) })
}

func TestDestroyBoundPipeline(t *testing.T) {
	r, d, _ := newTestRenderer(2)
	vs, fs := testShaders()
	pipeline := r.CreateGraphicsPipeline(vs, fs, testLayout, true)

	runFrame(t, r, func() {
		r.BeginRenderPassPresent()
		r.BindGraphicsPipeline(pipeline)
		r.DestroyGraphicsPipeline(pipeline)
		assert.Panics(t, func() { r.BindGraphicsPipeline(pipeline) })
		r.EndRenderPass()
	})
	assert.Equal(t, 1, d.liveCount("pipeline"))
}

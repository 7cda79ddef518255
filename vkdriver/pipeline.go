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
package vkdriver

import (
	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/debug"
	"goarrg.com/rhi/mve"
	"goarrg.com/rhi/mve/internal/util"
)

type pipelineLayout struct {
	layout vk.PipelineLayout
}

type pipeline struct {
	pipeline vk.Pipeline
}

func (d *Driver) CreatePipelineLayout(sets []mve.NativeDescriptorSetLayout) (mve.NativePipelineLayout, error) {
	setLayouts := make([]vk.DescriptorSetLayout, len(sets))
	for i, s := range sets {
		setLayouts[i] = s.(*descriptorSetLayout).layout
	}

	layout := &pipelineLayout{}
	if err := check(vk.CreatePipelineLayout(d.device, &vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(setLayouts)),
		PSetLayouts:    setLayouts,
	}, nil, &layout.layout), "Failed to create pipeline layout with %d sets", len(sets)); err != nil {
		return nil, err
	}
	d.logger.VPrintf("Created pipeline layout %v with %d sets", layout.layout, len(sets))
	return layout, nil
}

func (d *Driver) DestroyPipelineLayout(layout mve.NativePipelineLayout) {
	l := layout.(*pipelineLayout)
	vk.DestroyPipelineLayout(d.device, l.layout, nil)
	d.logger.VPrintf("Destroyed pipeline layout %v", l.layout)
}

func vertexFormat(t mve.VertexAttributeType) vk.Format {
	switch t {
	case mve.VertexAttributeScalar:
		return vk.FormatR32Sfloat
	case mve.VertexAttributeVec2:
		return vk.FormatR32g32Sfloat
	case mve.VertexAttributeVec3:
		return vk.FormatR32g32b32Sfloat
	case mve.VertexAttributeVec4:
		return vk.FormatR32g32b32a32Sfloat
	default:
		return vk.FormatUndefined
	}
}

// vertexInput describes one interleaved binding with an attribute per layout
// entry at consecutive locations.
func vertexInput(layout mve.VertexLayout) (vk.VertexInputBindingDescription, []vk.VertexInputAttributeDescription, error) {
	attributes := make([]vk.VertexInputAttributeDescription, 0, len(layout))
	offset := uint32(0)
	for i, t := range layout {
		format := vertexFormat(t)
		if format == vk.FormatUndefined {
			return vk.VertexInputBindingDescription{}, nil, debug.Errorf("Unknown vertex attribute type %d at location %d", t, i)
		}
		attributes = append(attributes, vk.VertexInputAttributeDescription{
			Location: uint32(i),
			Binding:  0,
			Format:   format,
			Offset:   offset,
		})
		offset += t.Size()
	}
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    offset,
		InputRate: vk.VertexInputRateVertex,
	}, attributes, nil
}

func (d *Driver) createShaderModule(code []byte) (vk.ShaderModule, error) {
	var module vk.ShaderModule
	err := check(vk.CreateShaderModule(d.device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    util.Uint32s(code),
	}, nil, &module), "Failed to create shader module")
	return module, err
}

func (d *Driver) CreateGraphicsPipeline(info mve.GraphicsPipelineInfo) (mve.NativePipeline, error) {
	vs, err := d.createShaderModule(info.VertexShader.Code)
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create vertex shader")
	}
	defer vk.DestroyShaderModule(d.device, vs, nil)

	fs, err := d.createShaderModule(info.FragmentShader.Code)
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create fragment shader")
	}
	defer vk.DestroyShaderModule(d.device, fs, nil)

	binding, attributes, err := vertexInput(info.VertexLayout)
	if err != nil {
		return nil, err
	}
	vertexInputState := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{binding},
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	var depthTest vk.Bool32 = vk.False
	if info.DepthTest {
		depthTest = vk.True
	}

	dynamicStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	pipelineInfo := vk.GraphicsPipelineCreateInfo{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: 2,
		PStages: []vk.PipelineShaderStageCreateInfo{
			{
				SType:  vk.StructureTypePipelineShaderStageCreateInfo,
				Stage:  vk.ShaderStageVertexBit,
				Module: vs,
				PName:  safeString("main"),
			},
			{
				SType:  vk.StructureTypePipelineShaderStageCreateInfo,
				Stage:  vk.ShaderStageFragmentBit,
				Module: fs,
				PName:  safeString("main"),
			},
		},
		PVertexInputState: &vertexInputState,
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(vk.CullModeNone),
			FrontFace:   vk.FrontFaceCounterClockwise,
			LineWidth:   1,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: d.samples,
			MinSampleShading:     1,
		},
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:  depthTest,
			DepthWriteEnable: depthTest,
			DepthCompareOp:   vk.CompareOpLess,
			MaxDepthBounds:   1,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOp:         vk.LogicOpCopy,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				BlendEnable:         vk.True,
				SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
				DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
				ColorBlendOp:        vk.BlendOpAdd,
				SrcAlphaBlendFactor: vk.BlendFactorOne,
				DstAlphaBlendFactor: vk.BlendFactorZero,
				AlphaBlendOp:        vk.BlendOpAdd,
				ColorWriteMask: vk.ColorComponentFlags(
					vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit,
				),
			}},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(dynamicStates)),
			PDynamicStates:    dynamicStates,
		},
		Layout:            info.Layout.(*pipelineLayout).layout,
		RenderPass:        d.presentPass,
		BasePipelineIndex: -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if err := check(vk.CreateGraphicsPipelines(d.device, vk.PipelineCache(vk.NullHandle), 1,
		[]vk.GraphicsPipelineCreateInfo{pipelineInfo}, nil, pipelines), "Failed to create graphics pipeline"); err != nil {
		return nil, err
	}
	d.logger.VPrintf("Created graphics pipeline %v vertex layout: %v depth test: %t", pipelines[0], info.VertexLayout, info.DepthTest)
	return &pipeline{pipeline: pipelines[0]}, nil
}

func (d *Driver) DestroyPipeline(p mve.NativePipeline) {
	native := p.(*pipeline)
	vk.DestroyPipeline(d.device, native.pipeline, nil)
	d.logger.VPrintf("Destroyed pipeline %v", native.pipeline)
}

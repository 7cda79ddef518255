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
)

const (
	poolMaxSets        = 64
	poolMaxDescriptors = 4 * poolMaxSets
)

var poolTypes = []vk.DescriptorType{vk.DescriptorTypeUniformBuffer, vk.DescriptorTypeCombinedImageSampler}

type descriptorSetLayout struct {
	layout vk.DescriptorSetLayout
	counts map[vk.DescriptorType]uint32
}

type descriptorSet struct {
	set    vk.DescriptorSet
	pool   *descriptorPool
	counts map[vk.DescriptorType]uint32
}

// descriptorPool is one native pool plus a running count of what was
// allocated from it, so allocation picks a pool that cannot run out.
type descriptorPool struct {
	pool   vk.DescriptorPool
	sets   uint32
	counts map[vk.DescriptorType]uint32
}

func (p *descriptorPool) canAllocate(counts map[vk.DescriptorType]uint32) bool {
	if p.sets >= poolMaxSets {
		return false
	}
	for t, n := range counts {
		if p.counts[t]+n > poolMaxDescriptors {
			return false
		}
	}
	return true
}

type descriptorPools struct {
	pools []*descriptorPool
}

func (ps *descriptorPools) get(device vk.Device, counts map[vk.DescriptorType]uint32) (*descriptorPool, error) {
	for _, p := range ps.pools {
		if p.canAllocate(counts) {
			return p, nil
		}
	}

	sizes := make([]vk.DescriptorPoolSize, 0, len(poolTypes))
	for _, t := range poolTypes {
		sizes = append(sizes, vk.DescriptorPoolSize{Type: t, DescriptorCount: poolMaxDescriptors})
	}
	p := &descriptorPool{counts: map[vk.DescriptorType]uint32{}}
	if err := check(vk.CreateDescriptorPool(device, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       poolMaxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}, nil, &p.pool), "Failed to create descriptor pool %d", len(ps.pools)); err != nil {
		return nil, err
	}
	ps.pools = append(ps.pools, p)
	return p, nil
}

func (ps *descriptorPools) destroy(device vk.Device) {
	for _, p := range ps.pools {
		vk.DestroyDescriptorPool(device, p.pool, nil)
	}
	ps.pools = nil
}

func descriptorType(t mve.ShaderDescriptorType) (vk.DescriptorType, bool) {
	switch t {
	case mve.ShaderDescriptorUniformBuffer:
		return vk.DescriptorTypeUniformBuffer, true
	case mve.ShaderDescriptorCombinedImageSampler:
		return vk.DescriptorTypeCombinedImageSampler, true
	default:
		return 0, false
	}
}

func stageFlags(stages mve.ShaderStageFlags) vk.ShaderStageFlags {
	flags := vk.ShaderStageFlags(0)
	if stages&mve.ShaderStageVertexBit != 0 {
		flags |= vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	}
	if stages&mve.ShaderStageFragmentBit != 0 {
		flags |= vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	}
	return flags
}

func descriptorCounts(bindings []mve.DescriptorBinding) map[vk.DescriptorType]uint32 {
	counts := map[vk.DescriptorType]uint32{}
	for _, b := range bindings {
		if t, ok := descriptorType(b.Type); ok {
			counts[t]++
		}
	}
	return counts
}

func (d *Driver) CreateDescriptorSetLayout(bindings []mve.DescriptorBinding) (mve.NativeDescriptorSetLayout, error) {
	vkBindings := make([]vk.DescriptorSetLayoutBinding, 0, len(bindings))
	for _, b := range bindings {
		t, ok := descriptorType(b.Type)
		if !ok {
			return nil, debug.Errorf("Unknown descriptor type %d at binding %d", b.Type, b.Binding)
		}
		vkBindings = append(vkBindings, vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  t,
			DescriptorCount: 1,
			StageFlags:      stageFlags(b.Stages),
		})
	}

	layout := &descriptorSetLayout{counts: descriptorCounts(bindings)}
	if err := check(vk.CreateDescriptorSetLayout(d.device, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkBindings)),
		PBindings:    vkBindings,
	}, nil, &layout.layout), "Failed to create descriptor set layout"); err != nil {
		return nil, err
	}
	d.logger.VPrintf("Created descriptor set layout %v with %d bindings", layout.layout, len(bindings))
	return layout, nil
}

func (d *Driver) DestroyDescriptorSetLayout(layout mve.NativeDescriptorSetLayout) {
	l := layout.(*descriptorSetLayout)
	vk.DestroyDescriptorSetLayout(d.device, l.layout, nil)
	d.logger.VPrintf("Destroyed descriptor set layout %v", l.layout)
}

func (d *Driver) AllocateDescriptorSet(layout mve.NativeDescriptorSetLayout) (mve.NativeDescriptorSet, error) {
	l := layout.(*descriptorSetLayout)
	pool, err := d.descriptors.get(d.device, l.counts)
	if err != nil {
		return nil, err
	}

	set := &descriptorSet{pool: pool, counts: l.counts}
	if err := check(vk.AllocateDescriptorSets(d.device, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool.pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{l.layout},
	}, &set.set), "Failed to allocate descriptor set"); err != nil {
		return nil, err
	}

	pool.sets++
	for t, n := range l.counts {
		pool.counts[t] += n
	}
	return set, nil
}

func (d *Driver) FreeDescriptorSet(set mve.NativeDescriptorSet) {
	s := set.(*descriptorSet)
	if err := check(vk.FreeDescriptorSets(d.device, s.pool.pool, 1, &s.set),
		"Failed to free descriptor set"); err != nil {
		d.logger.EPrintf("%v", err)
		return
	}
	s.pool.sets--
	for t, n := range s.counts {
		s.pool.counts[t] -= n
	}
}

func (d *Driver) WriteUniformDescriptor(set mve.NativeDescriptorSet, binding uint32, buffer mve.NativeBuffer, size uint64) {
	vk.UpdateDescriptorSets(d.device, 1, []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set.(*descriptorSet).set,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buffer.(*deviceBuffer).buffer,
			Range:  vk.DeviceSize(size),
		}},
	}}, 0, nil)
}

func (d *Driver) WriteTextureDescriptor(set mve.NativeDescriptorSet, binding uint32, texture mve.NativeTexture) {
	vk.UpdateDescriptorSets(d.device, 1, []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set.(*descriptorSet).set,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			Sampler:     d.sampler,
			ImageView:   texture.(*deviceImage).view,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}},
	}}, 0, nil)
}

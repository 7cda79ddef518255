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
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"goarrg.com/debug"
)

type ShaderStage uint32

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "Vertex"
	case ShaderStageFragment:
		return "Fragment"
	default:
		abort("Unknown ShaderStage: %d", s)
	}
	return ""
}

func (s ShaderStage) Flags() ShaderStageFlags {
	return 1 << s
}

type ShaderStageFlags uint32

const (
	ShaderStageVertexBit   = ShaderStageFlags(1 << ShaderStageVertex)
	ShaderStageFragmentBit = ShaderStageFlags(1 << ShaderStageFragment)
)

func (f ShaderStageFlags) String() string {
	str := ""

	if hasBits(f, ShaderStageVertexBit) {
		str += "Vertex|"
	}
	if hasBits(f, ShaderStageFragmentBit) {
		str += "Fragment|"
	}

	return strings.TrimSuffix(str, "|")
}

type ShaderDescriptorType uint32

const (
	ShaderDescriptorUniformBuffer ShaderDescriptorType = iota
	ShaderDescriptorCombinedImageSampler
)

func (t ShaderDescriptorType) String() string {
	switch t {
	case ShaderDescriptorUniformBuffer:
		return "uniform_buffer"
	case ShaderDescriptorCombinedImageSampler:
		return "combined_image_sampler"
	default:
		abort("Unknown ShaderDescriptorType: %d", t)
	}
	return ""
}

func (t ShaderDescriptorType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ShaderDescriptorType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "uniform_buffer":
		*t = ShaderDescriptorUniformBuffer
	case "combined_image_sampler":
		*t = ShaderDescriptorCombinedImageSampler
	default:
		return debug.Errorf("Unknown descriptor type: %q", text)
	}
	return nil
}

// UniformLocation is the byte offset of a member inside a uniform block.
type UniformLocation uint32

// ShaderBlock is the reflected layout of a uniform block.
type ShaderBlock struct {
	Size    uint32            `toml:"size"`
	Members map[string]uint32 `toml:"members"`
}

// Location returns the offset of member, aborting if the block has no such member.
func (b *ShaderBlock) Location(member string) UniformLocation {
	offset, ok := b.Members[member]
	if !ok {
		abort("Uniform block has no member %q", member)
	}
	return UniformLocation(offset)
}

type ShaderBinding struct {
	Binding uint32               `toml:"binding"`
	Type    ShaderDescriptorType `toml:"type"`
	// Block is set for uniform buffers only.
	Block *ShaderBlock `toml:"block"`
}

type ShaderSet struct {
	Set      uint32          `toml:"set"`
	Bindings []ShaderBinding `toml:"binding"`
}

// Shader is SPIR-V bytecode together with the descriptor sets it reads.
type Shader struct {
	Stage ShaderStage
	Code  []byte
	Sets  []ShaderSet
}

func (s Shader) findSet(set uint32) *ShaderSet {
	for i := range s.Sets {
		if s.Sets[i].Set == set {
			return &s.Sets[i]
		}
	}
	return nil
}

func (s Shader) HasSet(set uint32) bool {
	return s.findSet(set) != nil
}

// Binding returns the reflected binding, aborting if the shader does not use it.
func (s Shader) Binding(set, binding uint32) ShaderBinding {
	if ss := s.findSet(set); ss != nil {
		for _, b := range ss.Bindings {
			if b.Binding == binding {
				return b
			}
		}
	}
	abort("%s shader has no binding %d in set %d", s.Stage, binding, set)
	return ShaderBinding{}
}

type shaderReflection struct {
	Set []ShaderSet `toml:"set"`
}

/*
ParseShaderReflection reads the descriptor sets of a shader from TOML:

	[[set]]
	set = 0
	[[set.binding]]
	binding = 0
	type = "uniform_buffer"
	block = { size = 128, members = { model = 0, view = 64 } }
*/
func ParseShaderReflection(r io.Reader) ([]ShaderSet, error) {
	var reflection shaderReflection
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&reflection); err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to decode shader reflection")
	}

	seenSets := map[uint32]bool{}
	for _, s := range reflection.Set {
		if s.Set >= MaxDescriptorSets {
			return nil, debug.Errorf("Set %d out of range [0, %d)", s.Set, MaxDescriptorSets)
		}
		if seenSets[s.Set] {
			return nil, debug.Errorf("Duplicate set %d", s.Set)
		}
		seenSets[s.Set] = true

		seenBindings := map[uint32]bool{}
		for _, b := range s.Bindings {
			if seenBindings[b.Binding] {
				return nil, debug.Errorf("Duplicate binding %d in set %d", b.Binding, s.Set)
			}
			seenBindings[b.Binding] = true
			if err := validateBinding(b); err != nil {
				return nil, debug.ErrorWrapf(err, "Invalid binding %d in set %d", b.Binding, s.Set)
			}
		}
	}

	slices.SortFunc(reflection.Set, func(a, b ShaderSet) int { return int(a.Set) - int(b.Set) })
	return reflection.Set, nil
}

func validateBinding(b ShaderBinding) error {
	switch b.Type {
	case ShaderDescriptorUniformBuffer:
		if b.Block == nil || b.Block.Size == 0 {
			return debug.Errorf("Uniform buffer without a block size")
		}
		for name, offset := range b.Block.Members {
			if offset >= b.Block.Size {
				return debug.Errorf("Member %q offset %d outside block of size %d", name, offset, b.Block.Size)
			}
		}
	case ShaderDescriptorCombinedImageSampler:
		if b.Block != nil {
			return debug.Errorf("Combined image sampler with a block")
		}
	default:
		return debug.Errorf("Unknown descriptor type: %d", b.Type)
	}
	return nil
}

// LoadShader reads SPIR-V bytecode and its TOML reflection sidecar.
func LoadShader(stage ShaderStage, spirvPath, reflectionPath string) (Shader, error) {
	code, err := os.ReadFile(spirvPath)
	if err != nil {
		return Shader{}, debug.ErrorWrapf(err, "Failed to read shader")
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return Shader{}, debug.Errorf("Invalid SPIR-V size %d in %q", len(code), spirvPath)
	}

	f, err := os.Open(reflectionPath)
	if err != nil {
		return Shader{}, debug.ErrorWrapf(err, "Failed to open shader reflection")
	}
	defer f.Close()

	sets, err := ParseShaderReflection(f)
	if err != nil {
		return Shader{}, debug.ErrorWrapf(err, "Failed to load %q", reflectionPath)
	}
	return Shader{Stage: stage, Code: code, Sets: sets}, nil
}

func (s Shader) String() string {
	return fmt.Sprintf("%s shader (%d bytes, %d sets)", s.Stage, len(s.Code), len(s.Sets))
}

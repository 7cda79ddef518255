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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReflection = `
[[set]]
set = 1
[[set.binding]]
binding = 0
type = "combined_image_sampler"

[[set]]
set = 0
[[set.binding]]
binding = 0
type = "uniform_buffer"
block = { size = 128, members = { model = 0, proj = 64 } }
[[set.binding]]
binding = 2
type = "uniform_buffer"
block = { size = 16 }
`

func TestParseShaderReflection(t *testing.T) {
	sets, err := ParseShaderReflection(strings.NewReader(testReflection))
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, uint32(0), sets[0].Set)
	assert.Equal(t, uint32(1), sets[1].Set)

	s := Shader{Stage: ShaderStageVertex, Sets: sets}
	b := s.Binding(0, 0)
	assert.Equal(t, ShaderDescriptorUniformBuffer, b.Type)
	assert.Equal(t, uint32(128), b.Block.Size)
	assert.Equal(t, UniformLocation(64), b.Block.Location("proj"))
	assert.Panics(t, func() { b.Block.Location("view") })

	assert.Equal(t, ShaderDescriptorCombinedImageSampler, s.Binding(1, 0).Type)
	assert.Nil(t, s.Binding(1, 0).Block)
	assert.True(t, s.HasSet(1))
	assert.False(t, s.HasSet(2))
	assert.Panics(t, func() { s.Binding(0, 1) })
}

func TestParseShaderReflectionErrors(t *testing.T) {
	for name, src := range map[string]string{
		"unknown field": "[[set]]\nset = 0\nstage = \"vertex\"\n",
		"unknown type":  "[[set]]\nset = 0\n[[set.binding]]\nbinding = 0\ntype = \"storage_buffer\"\n",
		"set range":     "[[set]]\nset = 4\n",
		"duplicate set": "[[set]]\nset = 0\n[[set]]\nset = 0\n",
		"duplicate binding": "[[set]]\nset = 0\n[[set.binding]]\nbinding = 0\ntype = \"combined_image_sampler\"\n" +
			"[[set.binding]]\nbinding = 0\ntype = \"combined_image_sampler\"\n",
		"missing block":   "[[set]]\nset = 0\n[[set.binding]]\nbinding = 0\ntype = \"uniform_buffer\"\n",
		"member offset":   "[[set]]\nset = 0\n[[set.binding]]\nbinding = 0\ntype = \"uniform_buffer\"\nblock = { size = 4, members = { a = 4 } }\n",
		"sampler block":   "[[set]]\nset = 0\n[[set.binding]]\nbinding = 0\ntype = \"combined_image_sampler\"\nblock = { size = 4 }\n",
		"malformed input": "[[set]\n",
	} {
		_, err := ParseShaderReflection(strings.NewReader(src))
		assert.Error(t, err, name)
	}
}

func TestLoadShader(t *testing.T) {
	dir := t.TempDir()
	spirv := filepath.Join(dir, "test.vert.spv")
	reflection := filepath.Join(dir, "test.vert.toml")
	require.NoError(t, os.WriteFile(spirv, make([]byte, 12), 0o644))
	require.NoError(t, os.WriteFile(reflection, []byte(testReflection), 0o644))

	s, err := LoadShader(ShaderStageVertex, spirv, reflection)
	require.NoError(t, err)
	assert.Equal(t, ShaderStageVertex, s.Stage)
	assert.Len(t, s.Code, 12)
	assert.Len(t, s.Sets, 2)

	require.NoError(t, os.WriteFile(spirv, make([]byte, 10), 0o644))
	_, err = LoadShader(ShaderStageVertex, spirv, reflection)
	assert.Error(t, err)

	_, err = LoadShader(ShaderStageVertex, filepath.Join(dir, "missing.spv"), reflection)
	assert.Error(t, err)
}

func TestShaderStageFlags(t *testing.T) {
	assert.Equal(t, ShaderStageVertexBit, ShaderStageVertex.Flags())
	assert.Equal(t, ShaderStageFragmentBit, ShaderStageFragment.Flags())
	assert.Equal(t, "Vertex|Fragment", (ShaderStageVertexBit | ShaderStageFragmentBit).String())
	assert.Equal(t, "Fragment", ShaderStageFragmentBit.String())
}

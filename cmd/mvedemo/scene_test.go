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
package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goarrg.com/rhi/mve"
)

func TestSceneGeometry(t *testing.T) {
	quad := quadVertices()
	assert.True(t, quad.IsComplete())
	assert.Equal(t, 4, quad.VertexCount())
	assert.Equal(t, sceneVertexLayout, quad.Layout())

	tri := fullscreenVertices()
	assert.True(t, tri.IsComplete())
	assert.Equal(t, 3, tri.VertexCount())
}

func TestCheckerboard(t *testing.T) {
	pixels := checkerboard(16, 4)
	require.Len(t, pixels, 16*16*4)

	pixel := func(x, y int) []byte {
		i := (y*16 + x) * 4
		return pixels[i : i+4]
	}
	assert.Equal(t, []byte{0xE0, 0xE0, 0xE0, 0xFF}, pixel(0, 0))
	assert.Equal(t, []byte{0xE0, 0xE0, 0xE0, 0xFF}, pixel(3, 3))
	assert.Equal(t, []byte{0x30, 0x30, 0x30, 0xFF}, pixel(4, 0))
	assert.Equal(t, []byte{0xE0, 0xE0, 0xE0, 0xFF}, pixel(4, 4))
}

func TestSceneStepWraps(t *testing.T) {
	s := &scene{angle: 2*3.14159265 - spinRate/2}
	s.step()
	assert.Less(t, s.angle, s.prevAngle+spinRate+1e-5)
	assert.Greater(t, s.angle, s.prevAngle)
}

func parseSets(t *testing.T, reflection string) mve.Shader {
	t.Helper()
	sets, err := mve.ParseShaderReflection(strings.NewReader(reflection))
	require.NoError(t, err)
	return mve.Shader{Sets: sets}
}

func TestSameSets(t *testing.T) {
	uniform := `
[[set]]
set = 0
[[set.binding]]
binding = 0
type = "uniform_buffer"
block = { size = 128, members = { model = 0, proj = 64 } }
`
	a := parseSets(t, uniform)
	assert.True(t, sameSets(a, parseSets(t, uniform)))
	assert.True(t, sameSets(a, parseSets(t, strings.ReplaceAll(uniform, "proj = 64", "proj = 64, tint = 0"))))
	assert.False(t, sameSets(a, parseSets(t, strings.ReplaceAll(uniform, "size = 128", "size = 144"))))
	assert.False(t, sameSets(a, parseSets(t, strings.ReplaceAll(uniform, "binding = 0", "binding = 1"))))
	assert.False(t, sameSets(a, parseSets(t, "")))
}

func TestShaderReflectionAssets(t *testing.T) {
	dir := filepath.Join("assets", "shaders")
	for name, expected := range map[string]int{
		"scene.vert":   1,
		"scene.frag":   1,
		"present.vert": 0,
		"present.frag": 1,
	} {
		f, err := os.Open(filepath.Join(dir, name+".toml"))
		require.NoError(t, err, name)
		sets, err := mve.ParseShaderReflection(f)
		f.Close()
		require.NoError(t, err, name)
		assert.Len(t, sets, expected, name)
	}
}

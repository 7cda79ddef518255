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
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"goarrg.com/gmath"
)

func apply(m gmath.Matrix4x4f32, v [4]float32) [4]float32 {
	var out [4]float32
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r] += m[r][c] * v[c]
		}
	}
	return out
}

func assertVec(t *testing.T, expected, actual [4]float32) {
	t.Helper()
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], 1e-5, "component %d of %v", i, actual)
	}
}

func TestViewProjectionDepthRange(t *testing.T) {
	c := newCamera(gmath.Extent3i32{X: 800, Y: 800, Z: 1})
	m := viewProjection(&c)

	near := apply(m, [4]float32{0, 0, zNear, 1})
	assert.InDelta(t, 0, near[2]/near[3], 1e-5)

	mid := apply(m, [4]float32{0, 0, 10, 1})
	assert.InDelta(t, 1-zNear/10, mid[2]/mid[3], 1e-5)

	far := apply(m, [4]float32{0, 0, 1e6, 1})
	assert.InDelta(t, 1, far[2]/far[3], 1e-5)

	// y up in the scene is y down in vulkan clip space
	up := apply(m, [4]float32{0, 1, 1, 1})
	assert.Less(t, up[1]/up[3], float32(0))
}

func TestViewProjectionAspect(t *testing.T) {
	c := newCamera(gmath.Extent3i32{X: 1600, Y: 800, Z: 1})
	m := viewProjection(&c)

	// the top edge of the field of view lands on the top of clip space and the
	// x axis is squeezed by the aspect ratio
	h := math32.Tan(fieldOfView / 2)
	v := apply(m, [4]float32{h, h, 1, 1})
	assert.InDelta(t, 0.5, v[0]/v[3], 1e-5)
	assert.InDelta(t, -1, v[1]/v[3], 1e-5)
}

func TestQuadModel(t *testing.T) {
	assertVec(t, [4]float32{0, 0, 2.5, 1}, apply(quadModel(0), [4]float32{0, 0, 0, 1}))
	assertVec(t, [4]float32{1, 0, 2.5, 1}, apply(quadModel(0), [4]float32{1, 0, 0, 1}))

	// rotation never moves the centre and keeps lengths
	m := quadModel(1.3)
	assertVec(t, [4]float32{0, 0, 2.5, 1}, apply(m, [4]float32{0, 0, 0, 1}))
	v := apply(m, [4]float32{1, 0, 0, 0})
	assert.InDelta(t, 1, v[0]*v[0]+v[1]*v[1]+v[2]*v[2], 1e-5)
}

func TestStd140ColumnMajor(t *testing.T) {
	m := gmath.Matrix4x4f32{
		{1, 0, 0, 4},
		{0, 1, 0, 5},
		{0, 0, 1, 6},
		{0, 0, 0, 1},
	}
	// the translation is the last column, which glsl reads as the last four
	// floats
	assert.Equal(t, [4]float32{4, 5, 6, 1}, std140(m)[3])
}

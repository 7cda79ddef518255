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
	"github.com/chewxy/math32"

	"goarrg.com/gmath"
)

// vulkanClip maps the output of gmath.PerspectiveCamera, y up with depth
// falling from 1 at the near plane towards 0 at infinity, into vulkan clip
// space with y pointing down and depth rising from 0 at the near plane so the
// pipeline can keep a less than depth test against a depth cleared to 1.
var vulkanClip = gmath.Matrix4x4f32{
	{1, 0, 0, 0},
	{0, -1, 0, 0},
	{0, 0, -1, 1},
	{0, 0, 0, 1},
}

const (
	fieldOfView = math32.Pi / 3
	zNear       = 0.1
)

func newCamera(extent gmath.Extent3i32) gmath.PerspectiveCameraf32 {
	return gmath.PerspectiveCameraf32{
		Transform: gmath.Transformf32{
			Rot:   gmath.Quaternionf32{W: 1},
			Scale: gmath.Vector3f32{X: 1, Y: 1, Z: 1},
		},
		SizeX: float32(extent.X),
		SizeY: float32(extent.Y),
		FOV:   fieldOfView,
		ZNear: zNear,
	}
}

// viewProjection is the camera's view followed by its projection, fixed up for
// vulkan.
func viewProjection(c *gmath.PerspectiveCameraf32) gmath.Matrix4x4f32 {
	return vulkanClip.Multiply(c.ProjectionMatrix()).Multiply(c.ViewMatrix())
}

// quadModel places the quad in front of the camera, spun around y and half as
// fast around z.
func quadModel(angle float32) gmath.Matrix4x4f32 {
	t := gmath.Transformf32{
		Pos:   gmath.Point3f32{Z: 2.5},
		Rot:   gmath.QuaternionFromEuler(0, angle, angle/2),
		Scale: gmath.Vector3f32{X: 1, Y: 1, Z: 1},
	}
	return t.ModelMatrix()
}

// std140 lays m out column by column as glsl expects a mat4.
func std140(m gmath.Matrix4x4f32) [4][4]float32 {
	return m.TransposedToArrayf32()
}

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
	"goarrg.com/rhi/mve/internal/util"
)

type VertexAttributeType uint32

const (
	VertexAttributeScalar VertexAttributeType = iota
	VertexAttributeVec2
	VertexAttributeVec3
	VertexAttributeVec4
)

func (t VertexAttributeType) String() string {
	switch t {
	case VertexAttributeScalar:
		return "scalar"
	case VertexAttributeVec2:
		return "vec2"
	case VertexAttributeVec3:
		return "vec3"
	case VertexAttributeVec4:
		return "vec4"
	default:
		abort("Unknown VertexAttributeType: %d", t)
	}
	return ""
}

// Size returns the attribute's size in bytes.
func (t VertexAttributeType) Size() uint32 {
	switch t {
	case VertexAttributeScalar:
		return 4
	case VertexAttributeVec2:
		return 8
	case VertexAttributeVec3:
		return 12
	case VertexAttributeVec4:
		return 16
	default:
		abort("Unknown VertexAttributeType: %d", t)
	}
	return 0
}

// VertexLayout lists the attributes of one vertex, tightly packed in order.
type VertexLayout []VertexAttributeType

// Stride returns the size in bytes of one vertex.
func (l VertexLayout) Stride() uint32 {
	stride := uint32(0)
	for _, t := range l {
		stride += t.Size()
	}
	return stride
}

// VertexData accumulates attributes in layout order. Each Push* call appends
// one attribute and must match NextType.
type VertexData struct {
	layout    VertexLayout
	data      []float32
	dataCount int
}

func NewVertexData(layout VertexLayout) *VertexData {
	if len(layout) == 0 {
		abort("Empty vertex layout")
	}
	return &VertexData{layout: append(VertexLayout(nil), layout...)}
}

func (d *VertexData) push(t VertexAttributeType, values ...float32) {
	if next := d.NextType(); next != t {
		abort("Invalid vertex attribute type: %s, expected: %s", t, next)
	}
	d.data = append(d.data, values...)
	d.dataCount++
}

func (d *VertexData) PushScalar(v float32) {
	d.push(VertexAttributeScalar, v)
}

func (d *VertexData) PushVec2(v [2]float32) {
	d.push(VertexAttributeVec2, v[:]...)
}

func (d *VertexData) PushVec3(v [3]float32) {
	d.push(VertexAttributeVec3, v[:]...)
}

func (d *VertexData) PushVec4(v [4]float32) {
	d.push(VertexAttributeVec4, v[:]...)
}

// NextType returns the attribute type the next Push* call must supply.
func (d *VertexData) NextType() VertexAttributeType {
	return d.layout[d.dataCount%len(d.layout)]
}

// DataCount returns the number of attributes pushed.
func (d *VertexData) DataCount() int {
	return d.dataCount
}

// VertexCount returns the number of whole vertices pushed.
func (d *VertexData) VertexCount() int {
	return d.dataCount / len(d.layout)
}

// IsComplete reports whether the last vertex has all of its attributes.
func (d *VertexData) IsComplete() bool {
	return d.dataCount%len(d.layout) == 0
}

func (d *VertexData) Layout() VertexLayout {
	return append(VertexLayout(nil), d.layout...)
}

func (d *VertexData) Floats() []float32 {
	return d.data
}

// Bytes returns a copy of the pushed attributes in native byte order.
func (d *VertexData) Bytes() []byte {
	return util.SliceBytes(d.data)
}

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
	"goarrg.com/rhi/mve/internal/container"
)

// Handle identifies a slot in one of the renderer's resource tables. It stays
// valid from creation until destroy, and is not handed out again until the
// deferred action releasing it has run.
type Handle uint32

type (
	VertexBuffer        Handle
	IndexBuffer         Handle
	Texture             Handle
	UniformBuffer       Handle
	DescriptorSet       Handle
	DescriptorSetLayout Handle
	PipelineLayout      Handle
	GraphicsPipeline    Handle
	Framebuffer         Handle
)

type slotState uint8

const (
	slotFree slotState = iota
	slotLive
	slotRetiring
)

type tableSlot[T any] struct {
	state  slotState
	record T
}

// table is an arena of records addressed by Handle. Freed indices are reused
// from a stack before the arena grows.
type table[T any] struct {
	name  string
	slots []tableSlot[T]
	free  container.Stack[Handle]
	live  int
	abort func(string, ...any)
}

func newTable[T any](name string, abort func(string, ...any)) table[T] {
	return table[T]{name: name, abort: abort}
}

func (t *table[T]) insert(record T) Handle {
	h, ok := t.free.Pop()
	if !ok {
		h = Handle(len(t.slots))
		t.slots = append(t.slots, tableSlot[T]{})
	}
	t.slots[h] = tableSlot[T]{state: slotLive, record: record}
	t.live++
	return h
}

func (t *table[T]) slot(h Handle) *tableSlot[T] {
	if int(h) >= len(t.slots) {
		t.abort("[%s] Handle %d out of bounds [0, %d)", t.name, h, len(t.slots))
	}
	return &t.slots[h]
}

func (t *table[T]) valid(h Handle) bool {
	return int(h) < len(t.slots) && t.slots[h].state == slotLive
}

// get returns the record of a live handle.
func (t *table[T]) get(h Handle) *T {
	s := t.slot(h)
	if s.state != slotLive {
		t.abort("[%s] Use of invalid handle %d", t.name, h)
	}
	return &s.record
}

// retire invalidates a live handle while keeping its record reachable
// through pending for the deferred action that releases it.
func (t *table[T]) retire(h Handle) *T {
	s := t.slot(h)
	if s.state != slotLive {
		t.abort("[%s] Attempted to destroy invalid handle %d", t.name, h)
	}
	s.state = slotRetiring
	t.live--
	return &s.record
}

func (t *table[T]) pending(h Handle) *T {
	s := t.slot(h)
	if s.state != slotRetiring {
		t.abort("[%s] Handle %d is not retiring", t.name, h)
	}
	return &s.record
}

// release frees a retiring handle, making it available to insert.
func (t *table[T]) release(h Handle) T {
	s := t.slot(h)
	if s.state != slotRetiring {
		t.abort("[%s] Attempted to release handle %d that was not destroyed", t.name, h)
	}
	record := s.record
	*s = tableSlot[T]{}
	t.free.Push(h)
	return record
}

func (t *table[T]) len() int {
	return t.live
}

// handles lists live handles in index order.
func (t *table[T]) handles() []Handle {
	ret := make([]Handle, 0, t.live)
	for i := range t.slots {
		if t.slots[i].state == slotLive {
			ret = append(ret, Handle(i))
		}
	}
	return ret
}

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

package container

// Queue is a FIFO backed by a ring buffer that grows on demand.
type Queue[E any] struct {
	data []E
	head int
	size int
}

func (q *Queue[E]) Len() int {
	return q.size
}

func (q *Queue[E]) Empty() bool {
	return q.size == 0
}

func (q *Queue[E]) Push(e E) {
	if q.size == len(q.data) {
		q.grow()
	}
	q.data[(q.head+q.size)%len(q.data)] = e
	q.size++
}

// Pop panics on an empty queue, callers must check Empty first.
func (q *Queue[E]) Pop() E {
	if q.size == 0 {
		panic("Pop called on empty queue")
	}
	var zero E
	e := q.data[q.head]
	q.data[q.head] = zero
	q.head = (q.head + 1) % len(q.data)
	q.size--
	return e
}

// Data returns the queued elements front to back.
func (q *Queue[E]) Data() []E {
	ret := make([]E, 0, q.size)
	for i := 0; i < q.size; i++ {
		ret = append(ret, q.data[(q.head+i)%len(q.data)])
	}
	return ret
}

// Filter keeps only the elements for which keep returns true, preserving order.
func (q *Queue[E]) Filter(keep func(E) bool) {
	n := q.size
	for i := 0; i < n; i++ {
		e := q.Pop()
		if keep(e) {
			q.Push(e)
		}
	}
}

func (q *Queue[E]) grow() {
	data := make([]E, max(8, len(q.data)*2))
	copy(data, q.Data())
	q.data = data
	q.head = 0
}

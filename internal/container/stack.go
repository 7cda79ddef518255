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

// Stack is a LIFO, the zero value is empty and ready to use.
type Stack[E any] struct {
	items []E
}

func (s *Stack[E]) Len() int {
	return len(s.items)
}

func (s *Stack[E]) Push(e E) {
	s.items = append(s.items, e)
}

// Pop returns false on an empty stack.
func (s *Stack[E]) Pop() (E, bool) {
	var zero E
	n := len(s.items)
	if n == 0 {
		return zero, false
	}
	e := s.items[n-1]
	s.items[n-1] = zero
	s.items = s.items[:n-1]
	return e, true
}

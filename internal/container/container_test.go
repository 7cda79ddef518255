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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack(t *testing.T) {
	var s Stack[int]
	_, ok := s.Pop()
	require.False(t, ok)

	for i := 0; i < 4; i++ {
		s.Push(i)
	}
	assert.Equal(t, 4, s.Len())
	for want := 3; want >= 0; want-- {
		got, ok := s.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.Zero(t, s.Len())
}

func TestQueueOrder(t *testing.T) {
	var q Queue[int]
	require.True(t, q.Empty())

	// push enough to wrap and grow several times
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	assert.Equal(t, 0, q.Pop())
	assert.Equal(t, 1, q.Pop())
	for i := 5; i < 30; i++ {
		q.Push(i)
	}
	assert.Equal(t, 28, q.Len())
	assert.Equal(t, 2, q.Data()[0])

	for i := 2; i < 30; i++ {
		require.Equal(t, i, q.Pop())
	}
	assert.True(t, q.Empty())
	assert.Panics(t, func() { q.Pop() })
}

func TestQueueFilter(t *testing.T) {
	var q Queue[string]
	for _, s := range []string{"a", "b", "c", "d"} {
		q.Push(s)
	}
	q.Filter(func(s string) bool { return s != "b" && s != "d" })
	assert.Equal(t, []string{"a", "c"}, q.Data())
}

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() table[string] {
	return newTable[string]("test", func(f string, args ...any) { panic(fmt.Sprintf(f, args...)) })
}

func TestTableLifecycle(t *testing.T) {
	tb := testTable()
	a := tb.insert("a")
	b := tb.insert("b")
	require.Equal(t, Handle(0), a)
	require.Equal(t, Handle(1), b)
	assert.Equal(t, 2, tb.len())
	assert.Equal(t, "b", *tb.get(b))

	tb.retire(a)
	assert.False(t, tb.valid(a))
	assert.Equal(t, 1, tb.len())
	assert.Equal(t, []Handle{b}, tb.handles())
	assert.Panics(t, func() { tb.get(a) })
	assert.Panics(t, func() { tb.retire(a) })
	assert.Equal(t, "a", *tb.pending(a))

	// retired but unreleased handles are never handed out again
	c := tb.insert("c")
	assert.Equal(t, Handle(2), c)

	assert.Equal(t, "a", tb.release(a))
	assert.Equal(t, a, tb.insert("d"))
	assert.Equal(t, "d", *tb.get(a))
}

func TestTableInvalidHandles(t *testing.T) {
	tb := testTable()
	assert.Panics(t, func() { tb.get(0) })
	assert.False(t, tb.valid(7))

	h := tb.insert("x")
	assert.Panics(t, func() { tb.release(h) }, "release requires retire first")
	assert.Panics(t, func() { tb.pending(h) })
}

func TestTableNoReuseBeforeRelease(t *testing.T) {
	tb := testTable()
	retiring := map[Handle]bool{}
	live := map[Handle]bool{}

	// mixed churn: every handle returned by insert must be neither live nor
	// waiting on release
	for i := 0; i < 200; i++ {
		h := tb.insert("v")
		require.False(t, live[h], "handle %d reused while live", h)
		require.False(t, retiring[h], "handle %d reused while retiring", h)
		live[h] = true

		if i%3 == 0 {
			for l := range live {
				tb.retire(l)
				delete(live, l)
				retiring[l] = true
				break
			}
		}
		if i%5 == 0 {
			for l := range retiring {
				tb.release(l)
				delete(retiring, l)
				break
			}
		}
	}
	assert.Equal(t, len(live), tb.len())
}

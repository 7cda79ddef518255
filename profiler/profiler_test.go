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

package profiler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestStartStop(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	p := NewWithClock(nil, clock.Now)

	p.Start("frame")
	clock.advance(10 * time.Millisecond)
	p.Stop("frame")

	p.Start("frame")
	clock.advance(30 * time.Millisecond)
	p.Stop("frame")

	p.Start("upload")
	clock.advance(5 * time.Millisecond)
	p.Stop("upload")

	stats := p.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "frame", stats[0].Name)
	assert.Equal(t, 40*time.Millisecond, stats[0].Total)
	assert.Equal(t, 30*time.Millisecond, stats[0].Max)
	assert.Equal(t, 2, stats[0].Calls)
	assert.Equal(t, 20*time.Millisecond, stats[0].Average())
	assert.Equal(t, "upload", stats[1].Name)
}

func TestStopWithoutStart(t *testing.T) {
	p := New(nil)
	p.Stop("missing")
	p.Stop("missing")
	assert.Len(t, p.Warnings(), 1)

	p.Print()
	assert.Empty(t, p.Warnings())
}

func TestAdd(t *testing.T) {
	p := New(nil)
	p.Add("gpu", 3*time.Millisecond)
	p.Add("gpu", 4*time.Millisecond)

	stats := p.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, 7*time.Millisecond, stats[0].Total)
	assert.Equal(t, 0, stats[0].Calls)
	assert.Equal(t, 7*time.Millisecond, stats[0].Average())
}

func TestNil(t *testing.T) {
	var p *Profiler
	assert.NotPanics(t, func() {
		p.Start("a")
		p.Stop("a")
		p.Add("a", time.Second)
		p.Print()
	})
	assert.Nil(t, p.Stats())
}

func TestConcurrent(t *testing.T) {
	p := New(nil)
	wg := sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.Add("shared", time.Microsecond)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800*time.Microsecond, p.Stats()[0].Total)
}

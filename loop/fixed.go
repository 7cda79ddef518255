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

// Package loop paces fixed rate updates against a variable rate frame loop.
package loop

import (
	"time"

	"goarrg.com/debug"
)

/*
FixedLoop runs a step function at a fixed rate. Each Update call runs as many
steps as the time elapsed since the previous call covers, the remainder is
exposed through Blend for interpolating between the last two steps.
*/
type FixedLoop struct {
	now   func() time.Time
	rate  time.Duration
	end   time.Time
	delta time.Duration
	ready bool
	blend float64
}

func NewFixed(hz float64) *FixedLoop {
	return NewFixedWithClock(hz, time.Now)
}

// NewFixedWithClock is NewFixed with a custom time source.
func NewFixedWithClock(hz float64, now func() time.Time) *FixedLoop {
	l := &FixedLoop{now: now}
	l.SetRate(hz)
	l.Reset()
	return l
}

// SetRate changes the number of steps per second, hz must be positive.
func (l *FixedLoop) SetRate(hz float64) {
	if hz <= 0 {
		panic(debug.Errorf("Invalid fixed loop rate: %v", hz))
	}
	l.rate = time.Duration(float64(time.Second) / hz)
}

func (l *FixedLoop) Rate() time.Duration {
	return l.rate
}

// Reset drops any accumulated time, the next step is due one period from now.
func (l *FixedLoop) Reset() {
	l.end = l.now()
	l.delta = 0
	l.ready = false
	l.blend = 0
}

func (l *FixedLoop) updateState() {
	start := l.now()
	l.delta += start.Sub(l.end)
	l.end = start
	if l.delta >= l.rate {
		l.ready = true
		l.delta -= l.rate
	} else {
		l.ready = false
	}
	l.blend = float64(l.delta) / float64(l.rate)
}

/*
Update runs step once for every period elapsed, at most maxLoops times. When
the cap is hit the remaining backlog is dropped so a stall is not followed by
a burst of catch up steps. step may be nil to only advance time.
*/
func (l *FixedLoop) Update(maxLoops int, step func()) int {
	l.updateState()
	loops := 0
	for l.ready {
		if step != nil {
			step()
		}
		l.updateState()
		if loops++; loops >= maxLoops {
			l.delta = 0
			break
		}
	}
	return loops
}

// Blend returns the fraction of the next period already elapsed, in [0, 1)
// unless the backlog was capped.
func (l *FixedLoop) Blend() float32 {
	return float32(l.blend)
}

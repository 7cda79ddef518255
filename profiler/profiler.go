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

/*
Package profiler accumulates wall clock time spent in named sections. A nil
*Profiler is valid and records nothing, so callers never need to check
whether profiling is enabled.
*/
package profiler

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"goarrg.com/debug"
)

// Stat is the accumulated timing of one section.
type Stat struct {
	Name  string
	Total time.Duration
	Max   time.Duration
	Calls int
}

// Average returns the mean duration of one call.
func (s Stat) Average() time.Duration {
	if s.Calls == 0 {
		return s.Total
	}
	return s.Total / time.Duration(s.Calls)
}

type section struct {
	started bool
	start   time.Time
	total   time.Duration
	max     time.Duration
	calls   int
}

type Profiler struct {
	mtx      sync.Mutex
	logger   *debug.Logger
	now      func() time.Time
	created  time.Time
	sections map[string]*section
	warnings []string
}

func New(logger *debug.Logger) *Profiler {
	return NewWithClock(logger, time.Now)
}

// NewWithClock is New with a custom time source.
func NewWithClock(logger *debug.Logger, now func() time.Time) *Profiler {
	if logger == nil {
		logger = debug.NewLogger("mve", "profiler")
	}
	return &Profiler{
		logger:   logger,
		now:      now,
		created:  now(),
		sections: map[string]*section{},
	}
}

func (p *Profiler) get(name string) *section {
	s, ok := p.sections[name]
	if !ok {
		s = &section{}
		p.sections[name] = s
	}
	return s
}

// Start begins timing name, restarting it if already started.
func (p *Profiler) Start(name string) {
	if p == nil {
		return
	}
	now := p.now()
	p.mtx.Lock()
	defer p.mtx.Unlock()
	s := p.get(name)
	s.started = true
	s.start = now
	s.calls++
}

// Stop ends timing name. Stopping a section that was not started records a
// warning, reported once by Print.
func (p *Profiler) Stop(name string) {
	if p == nil {
		return
	}
	now := p.now()
	p.mtx.Lock()
	defer p.mtx.Unlock()
	s, ok := p.sections[name]
	if !ok || !s.started {
		w := "Profiling stopped for a section that was not started: " + name
		if !slices.Contains(p.warnings, w) {
			p.warnings = append(p.warnings, w)
		}
		return
	}
	d := now.Sub(s.start)
	s.started = false
	s.total += d
	s.max = max(s.max, d)
}

// Add accounts d to name without counting a call.
func (p *Profiler) Add(name string, d time.Duration) {
	if p == nil {
		return
	}
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.get(name).total += d
}

// Stats returns every section sorted by total time, longest first.
func (p *Profiler) Stats() []Stat {
	if p == nil {
		return nil
	}
	p.mtx.Lock()
	defer p.mtx.Unlock()
	stats := make([]Stat, 0, len(p.sections))
	for name, s := range p.sections {
		stats = append(stats, Stat{Name: name, Total: s.total, Max: s.max, Calls: s.calls})
	}
	slices.SortFunc(stats, func(a, b Stat) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return stats
}

// Warnings returns the warnings recorded since the last Print.
func (p *Profiler) Warnings() []string {
	if p == nil {
		return nil
	}
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return slices.Clone(p.warnings)
}

// Print logs every section and the recorded warnings, then clears the warnings.
func (p *Profiler) Print() {
	if p == nil {
		return
	}
	stats := p.Stats()
	p.mtx.Lock()
	warnings := p.warnings
	p.warnings = nil
	p.mtx.Unlock()
	defer func() {
		for _, w := range warnings {
			p.logger.WPrintf("%s", w)
		}
	}()

	if len(stats) == 0 {
		p.logger.WPrintf("No profiling data")
		return
	}

	total := time.Duration(0)
	for _, s := range stats {
		total += s.Total
	}
	p.logger.IPrintf("Total profiled time: %v, real time elapsed: %v", total, p.now().Sub(p.created))
	for _, s := range stats {
		p.logger.IPrintf("%s: %v total, %v average, %v max, %d calls", s.Name, s.Total, s.Average(), s.Max, s.Calls)
	}
}

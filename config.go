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
	"bytes"
	"fmt"

	"goarrg.com"
	"goarrg.com/debug"
	"goarrg.com/gmath"

	"goarrg.com/rhi/mve/profiler"
)

const (
	DefaultFramesInFlight int32 = 2
	MaxFramesInFlight     int32 = 8
)

type Config struct {
	// FramesInFlight is the number of frames the CPU may record ahead of the
	// GPU, 0 selects DefaultFramesInFlight.
	FramesInFlight int32

	Logger   *debug.Logger
	Platform goarrg.PlatformInterface
	Profiler *profiler.Profiler
}

func (c *Config) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")
	buff.WriteString(fmt.Sprintf("\"FramesInFlight\": %d,", c.FramesInFlight))
	buff.WriteString(fmt.Sprintf("\"Logger\": %t,", c.Logger != nil))
	buff.WriteString(fmt.Sprintf("\"Platform\": %q,", fmt.Sprintf("%T", c.Platform)))
	buff.WriteString(fmt.Sprintf("\"Profiler\": %t", c.Profiler != nil))
	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (c *Config) validate() {
	if c.Logger == nil {
		c.Logger = debug.NewLogger("mve")
	}
	if c.Platform == nil {
		c.Platform = platform{}
	}
	if c.FramesInFlight == 0 {
		c.FramesInFlight = DefaultFramesInFlight
	} else if !gmath.InRange(c.FramesInFlight, 1, MaxFramesInFlight) {
		c.Logger.EPrintf("Config.FramesInFlight must be in range [1, %d], got %d", MaxFramesInFlight, c.FramesInFlight)
		c.Platform.Abort()
	}
}

type config struct {
	framesInFlight int
}

func (c *config) use(user Config) {
	c.framesInFlight = int(user.FramesInFlight)
}

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
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"goarrg.com/debug"
	"gopkg.in/yaml.v3"
)

type windowConfig struct {
	Title     string `toml:"title" yaml:"title"`
	Width     int32  `toml:"width" yaml:"width"`
	Height    int32  `toml:"height" yaml:"height"`
	Resizable bool   `toml:"resizable" yaml:"resizable"`
}

type vulkanConfig struct {
	Validation   bool   `toml:"validation" yaml:"validation"`
	PreferredGPU string `toml:"preferred_gpu" yaml:"preferred_gpu"`
	MSAASamples  int32  `toml:"msaa_samples" yaml:"msaa_samples"`
}

type demoConfig struct {
	Window         windowConfig `toml:"window" yaml:"window"`
	Vulkan         vulkanConfig `toml:"vulkan" yaml:"vulkan"`
	FramesInFlight int32        `toml:"frames_in_flight" yaml:"frames_in_flight"`
	// UpdateRate is the number of fixed updates per second.
	UpdateRate float64 `toml:"update_rate" yaml:"update_rate"`
	MaxUpdates int     `toml:"max_updates" yaml:"max_updates"`
	Shaders    string  `toml:"shaders" yaml:"shaders"`
	// Texture is optional, a generated checkerboard is used without it.
	Texture   string `toml:"texture" yaml:"texture"`
	HotReload bool   `toml:"hot_reload" yaml:"hot_reload"`
	// ProfileEvery prints the profiler every N frames, 0 disables it.
	ProfileEvery int `toml:"profile_every" yaml:"profile_every"`
}

func defaultConfig() demoConfig {
	return demoConfig{
		Window: windowConfig{
			Title:     "mve demo",
			Width:     1280,
			Height:    720,
			Resizable: true,
		},
		Vulkan: vulkanConfig{
			MSAASamples: 4,
		},
		FramesInFlight: 2,
		UpdateRate:     60,
		MaxUpdates:     5,
		Shaders:        filepath.Join("assets", "shaders"),
		ProfileEvery:   600,
	}
}

// loadConfig overlays the file at path onto the defaults, the format is
// picked by extension. An empty path yields the defaults.
func loadConfig(path string) (demoConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, debug.ErrorWrapf(err, "Failed to read config")
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
	default:
		return cfg, debug.Errorf("Unknown config format %q", ext)
	}
	if err != nil {
		return cfg, debug.ErrorWrapf(err, "Failed to decode %q", path)
	}

	if cfg.UpdateRate <= 0 {
		return cfg, debug.Errorf("Invalid update rate: %v", cfg.UpdateRate)
	}
	if cfg.MaxUpdates <= 0 {
		return cfg, debug.Errorf("Invalid max updates: %d", cfg.MaxUpdates)
	}
	return cfg, nil
}

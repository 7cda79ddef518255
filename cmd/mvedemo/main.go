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
mvedemo renders a spinning textured quad into an offscreen framebuffer and
presents it, exercising the renderer end to end. Shaders are reloaded while
running when hot_reload is enabled in the config.
*/
package main

//go:generate glslc -O -o assets/shaders/scene.vert.spv assets/shaders/scene.vert
//go:generate glslc -O -o assets/shaders/scene.frag.spv assets/shaders/scene.frag
//go:generate glslc -O -o assets/shaders/present.vert.spv assets/shaders/present.vert
//go:generate glslc -O -o assets/shaders/present.frag.spv assets/shaders/present.frag

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-gl/glfw/v3.3/glfw"
	"goarrg.com/debug"
	"goarrg.com/gmath"

	"goarrg.com/rhi/mve"
	"goarrg.com/rhi/mve/loop"
	"goarrg.com/rhi/mve/profiler"
	"goarrg.com/rhi/mve/vkdriver"
	"goarrg.com/rhi/mve/window"
)

var flags flag.FlagSet

func init() {
	// glfw and the vulkan surface must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	debug.SetLevel(debug.LogLevelWarn)

	flags.Usage = help
	flags.Init("", flag.ExitOnError)

	v := flags.Bool("v", false, "Verbose - Print high level tasks")
	vv := flags.Bool("vv", false, "Very Verbose - Print everything")

	configPath := flags.String("config", "", "Loads settings from a .toml or .yaml file.")
	frames := flags.Int("frames", 0, "Overrides frames_in_flight from the config.")
	validation := flags.Bool("validation", false, "Overrides vulkan.validation from the config.")
	shaders := flags.String("shaders", "", "Overrides the shader directory from the config.")

	err := flags.Parse(os.Args[1:])
	if err != nil {
		panic(err)
	}

	if *v {
		debug.SetLevel(debug.LogLevelInfo)
	} else if *vv {
		debug.SetLevel(debug.LogLevelVerbose)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		debug.EPrintf("%v", err)
		os.Exit(2)
	}
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "frames":
			cfg.FramesInFlight = int32(*frames)
		case "validation":
			cfg.Vulkan.Validation = *validation
		case "shaders":
			cfg.Shaders = *shaders
		}
	})

	if err := run(cfg); err != nil {
		debug.EPrintf("%v", err)
		os.Exit(1)
	}
}

func run(cfg demoConfig) error {
	logger := debug.NewLogger("mve", "demo")

	win, err := window.New(window.Config{
		Title:     cfg.Window.Title,
		Size:      gmath.Extent3i32{X: cfg.Window.Width, Y: cfg.Window.Height, Z: 1},
		Resizable: cfg.Window.Resizable,
	})
	if err != nil {
		return err
	}
	defer win.Destroy()

	driver, err := vkdriver.New(win, vkdriver.Config{
		AppName:      cfg.Window.Title,
		Validation:   cfg.Vulkan.Validation,
		PreferredGPU: cfg.Vulkan.PreferredGPU,
		MSAASamples:  cfg.Vulkan.MSAASamples,
	})
	if err != nil {
		return err
	}

	prof := profiler.New(nil)
	r := mve.New(driver, win, mve.Config{
		FramesInFlight: cfg.FramesInFlight,
		Profiler:       prof,
	})
	defer r.Destroy()
	logger.IPrintf("Rendering on %q", r.GPUName())

	s, err := newScene(r, logger, cfg)
	if err != nil {
		return err
	}
	defer s.destroy()

	var watcher *shaderWatcher
	if cfg.HotReload {
		watcher, err = newShaderWatcher(logger, cfg.Shaders)
		if err != nil {
			logger.WPrintf("Hot reload disabled: %v", err)
		} else {
			defer watcher.close()
		}
	}

	fixed := loop.NewFixed(cfg.UpdateRate)
	frameCount := 0
	for !win.ShouldClose() {
		win.PollEvents()
		if win.KeyPressed(glfw.KeyEscape) {
			win.Close()
		}
		if watcher != nil && watcher.changed() {
			s.reload()
		}

		prof.Start("Update")
		if n := fixed.Update(cfg.MaxUpdates, s.step); n == cfg.MaxUpdates {
			logger.VPrintf("Update fell behind, ran %d steps", n)
		}
		prof.Stop("Update")

		if !r.BeginFrame() {
			continue
		}
		prof.Start("Draw")
		s.draw(fixed.Blend())
		prof.Stop("Draw")
		r.EndFrame()

		frameCount++
		if cfg.ProfileEvery > 0 && frameCount%cfg.ProfileEvery == 0 {
			prof.Print()
		}
	}
	return nil
}

func help() {
	fmt.Fprintf(os.Stderr, "mvedemo draws a textured quad through an offscreen framebuffer.\n"+
		"\nSettings come from -config, flags given on the command line override them.\n"+
		"Press escape or close the window to exit.\n"+
		"\n")
	args := ""
	flags.VisitAll(func(f *flag.Flag) {
		n, u := flag.UnquoteUsage(f)
		if f.DefValue != "" {
			u += "\n\nDefaults to \"" + f.DefValue + "\"."
		}
		args += "\t-" + f.Name + " " + n + "\n\t\t" + strings.ReplaceAll(strings.TrimSpace(u), "\n", "\n\t\t") + "\n"
	})
	fmt.Fprintf(os.Stderr, "Usage:\n\t%s [arguments]\n\nArguments:\n%s", filepath.Base(os.Args[0]), args)
}

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
	"path/filepath"

	"github.com/chewxy/math32"
	"goarrg.com/debug"
	"goarrg.com/gmath"

	"goarrg.com/rhi/mve"
)

const (
	checkerSize  = 256
	checkerTiles = 8
	// spinRate is in radians per fixed update.
	spinRate = math32.Pi / 180
)

var (
	sceneVertexLayout   = mve.VertexLayout{mve.VertexAttributeVec3, mve.VertexAttributeVec3, mve.VertexAttributeVec2}
	presentVertexLayout = mve.VertexLayout{mve.VertexAttributeVec2}
)

// program is a pipeline whose shaders can be swapped without invalidating
// the descriptor sets allocated against its layout.
type program struct {
	name      string
	depthTest bool
	layout    mve.PipelineLayout
	pipeline  mve.GraphicsPipeline
	vertex    mve.Shader
	fragment  mve.Shader
}

func loadProgram(dir, name string) (mve.Shader, mve.Shader, error) {
	path := filepath.Join(dir, name)
	vs, err := mve.LoadShader(mve.ShaderStageVertex, path+".vert.spv", path+".vert.toml")
	if err != nil {
		return mve.Shader{}, mve.Shader{}, err
	}
	fs, err := mve.LoadShader(mve.ShaderStageFragment, path+".frag.spv", path+".frag.toml")
	if err != nil {
		return mve.Shader{}, mve.Shader{}, err
	}
	return vs, fs, nil
}

func newProgram(r *mve.Renderer, dir, name string, vertexLayout mve.VertexLayout, depthTest bool) (*program, error) {
	vs, fs, err := loadProgram(dir, name)
	if err != nil {
		return nil, err
	}
	p := &program{
		name:      name,
		depthTest: depthTest,
		layout:    r.CreatePipelineLayout(vs, fs),
		vertex:    vs,
		fragment:  fs,
	}
	p.pipeline = r.CreateGraphicsPipelineWithLayout(p.layout, vs, fs, vertexLayout, depthTest)
	return p, nil
}

// reload keeps the old pipeline when the new shaders fail to load or do not
// match the existing layout.
func (p *program) reload(r *mve.Renderer, logger *debug.Logger, dir string, vertexLayout mve.VertexLayout) {
	vs, fs, err := loadProgram(dir, p.name)
	if err != nil {
		logger.WPrintf("Keeping %q shaders: %v", p.name, err)
		return
	}
	if !sameSets(p.vertex, vs) || !sameSets(p.fragment, fs) {
		logger.WPrintf("Keeping %q shaders: descriptor layout changed", p.name)
		return
	}
	r.DestroyGraphicsPipeline(p.pipeline)
	p.pipeline = r.CreateGraphicsPipelineWithLayout(p.layout, vs, fs, vertexLayout, p.depthTest)
	p.vertex, p.fragment = vs, fs
	logger.IPrintf("Reloaded %q shaders", p.name)
}

func (p *program) destroy(r *mve.Renderer) {
	r.DestroyGraphicsPipeline(p.pipeline)
	r.DestroyPipelineLayout(p.layout)
}

func sameSets(a, b mve.Shader) bool {
	if len(a.Sets) != len(b.Sets) {
		return false
	}
	for i := range a.Sets {
		if a.Sets[i].Set != b.Sets[i].Set || len(a.Sets[i].Bindings) != len(b.Sets[i].Bindings) {
			return false
		}
		for j, x := range a.Sets[i].Bindings {
			y := b.Sets[i].Bindings[j]
			if x.Binding != y.Binding || x.Type != y.Type {
				return false
			}
			if (x.Block == nil) != (y.Block == nil) || (x.Block != nil && x.Block.Size != y.Block.Size) {
				return false
			}
		}
	}
	return true
}

/*
scene renders a spinning textured quad into an offscreen framebuffer, then
samples that framebuffer onto the swapchain with a fullscreen triangle.
*/
type scene struct {
	r      *mve.Renderer
	logger *debug.Logger
	dir    string

	quadProgram    *program
	presentProgram *program

	texture     mve.Texture
	uniform     mve.UniformBuffer
	model       mve.UniformLocation
	proj        mve.UniformLocation
	quad        mve.VertexBuffer
	quadIndices mve.IndexBuffer
	fullscreen  mve.VertexBuffer
	framebuffer mve.Framebuffer
	quadSet     mve.DescriptorSet
	presentSet  mve.DescriptorSet

	extent    gmath.Extent3i32
	angle     float32
	prevAngle float32
}

func newScene(r *mve.Renderer, logger *debug.Logger, cfg demoConfig) (*scene, error) {
	s := &scene{r: r, logger: logger, dir: cfg.Shaders}

	var err error
	if s.quadProgram, err = newProgram(r, cfg.Shaders, "scene", sceneVertexLayout, true); err != nil {
		return nil, err
	}
	if s.presentProgram, err = newProgram(r, cfg.Shaders, "present", presentVertexLayout, false); err != nil {
		s.quadProgram.destroy(r)
		return nil, err
	}

	if cfg.Texture != "" {
		if s.texture, err = r.CreateTextureFromFile(cfg.Texture); err != nil {
			s.presentProgram.destroy(r)
			s.quadProgram.destroy(r)
			return nil, err
		}
	} else {
		s.texture = r.CreateTexture(mve.TextureFormatRGBA, checkerSize, checkerSize, checkerboard(checkerSize, checkerTiles))
	}

	binding := s.quadProgram.vertex.Binding(0, 0)
	s.uniform = r.CreateUniformBuffer(binding)
	s.model = binding.Block.Location("model")
	s.proj = binding.Block.Location("proj")

	s.quad = r.CreateVertexBuffer(quadVertices())
	s.quadIndices = r.CreateIndexBuffer([]uint32{0, 1, 2, 2, 3, 0})
	s.fullscreen = r.CreateVertexBuffer(fullscreenVertices())

	s.framebuffer = r.CreateFramebuffer(mve.FramebufferObserverFunc(func(_ mve.Framebuffer, texture mve.Texture) {
		r.WriteDescriptorBinding(s.presentSet, 0, mve.TextureWrite{Texture: texture})
	}))

	s.quadSet = r.CreateDescriptorSet(s.quadProgram.pipeline, 0)
	r.WriteDescriptorBinding(s.quadSet, 0, mve.UniformWrite{Buffer: s.uniform})
	r.WriteDescriptorBinding(s.quadSet, 1, mve.TextureWrite{Texture: s.texture})

	s.presentSet = r.CreateDescriptorSet(s.presentProgram.pipeline, 0)
	r.WriteDescriptorBinding(s.presentSet, 0, mve.TextureWrite{Texture: r.FramebufferTexture(s.framebuffer)})

	s.updateProjection()
	return s, nil
}

// updateProjection only touches the uniform when the swapchain changed size,
// the persisted write carries it to every frame in flight.
func (s *scene) updateProjection() {
	extent := s.r.Extent()
	if extent == s.extent {
		return
	}
	s.extent = extent
	c := newCamera(extent)
	mve.UpdateUniform(s.r, s.uniform, s.proj, std140(viewProjection(&c)), true)
}

func (s *scene) step() {
	s.prevAngle = s.angle
	s.angle = math32.Mod(s.angle+spinRate, 2*math32.Pi)
	if s.angle < s.prevAngle {
		s.prevAngle -= 2 * math32.Pi
	}
}

func (s *scene) reload() {
	s.quadProgram.reload(s.r, s.logger, s.dir, sceneVertexLayout)
	s.presentProgram.reload(s.r, s.logger, s.dir, presentVertexLayout)
}

// draw records both passes, it must be called between BeginFrame and EndFrame.
func (s *scene) draw(blend float32) {
	s.updateProjection()

	angle := s.prevAngle + (s.angle-s.prevAngle)*blend
	mve.UpdateUniform(s.r, s.uniform, s.model, std140(quadModel(angle)), false)

	s.r.BeginRenderPassFramebuffer(s.framebuffer)
	s.r.BindGraphicsPipeline(s.quadProgram.pipeline)
	s.r.BindDescriptorSets(s.quadSet)
	s.r.BindVertexBuffer(s.quad)
	s.r.DrawIndexBuffer(s.quadIndices)
	s.r.EndRenderPass()

	s.r.BeginRenderPassPresent()
	s.r.BindGraphicsPipeline(s.presentProgram.pipeline)
	s.r.BindDescriptorSets(s.presentSet)
	s.r.DrawVertexBuffer(s.fullscreen)
	s.r.EndRenderPass()
}

func (s *scene) destroy() {
	s.r.DestroyDescriptorSet(s.presentSet)
	s.r.DestroyDescriptorSet(s.quadSet)
	s.r.DestroyFramebuffer(s.framebuffer)
	s.r.DestroyVertexBuffer(s.fullscreen)
	s.r.DestroyIndexBuffer(s.quadIndices)
	s.r.DestroyVertexBuffer(s.quad)
	s.r.DestroyUniformBuffer(s.uniform)
	s.r.DestroyTexture(s.texture)
	s.presentProgram.destroy(s.r)
	s.quadProgram.destroy(s.r)
}

func quadVertices() *mve.VertexData {
	v := mve.NewVertexData(sceneVertexLayout)
	for _, c := range []struct {
		pos   [3]float32
		color [3]float32
		uv    [2]float32
	}{
		{[3]float32{-1, -1, 0}, [3]float32{1, 0.6, 0.6}, [2]float32{0, 0}},
		{[3]float32{1, -1, 0}, [3]float32{0.6, 1, 0.6}, [2]float32{1, 0}},
		{[3]float32{1, 1, 0}, [3]float32{0.6, 0.6, 1}, [2]float32{1, 1}},
		{[3]float32{-1, 1, 0}, [3]float32{1, 1, 1}, [2]float32{0, 1}},
	} {
		v.PushVec3(c.pos)
		v.PushVec3(c.color)
		v.PushVec2(c.uv)
	}
	return v
}

// fullscreenVertices is a single triangle covering clip space, the shader
// derives uvs from the positions.
func fullscreenVertices() *mve.VertexData {
	v := mve.NewVertexData(presentVertexLayout)
	v.PushVec2([2]float32{-1, -1})
	v.PushVec2([2]float32{3, -1})
	v.PushVec2([2]float32{-1, 3})
	return v
}

func checkerboard(size, tiles int) []byte {
	pixels := make([]byte, size*size*4)
	tile := size / tiles
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := (y*size + x) * 4
			var c byte = 0x30
			if (x/tile+y/tile)%2 == 0 {
				c = 0xE0
			}
			pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = c, c, c, 0xFF
		}
	}
	return pixels
}

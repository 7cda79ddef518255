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

	"goarrg.com/gmath"
)

type fakeObject struct {
	kind     string
	id       int
	data     []byte
	bindings map[uint32]any
	size     gmath.Extent3i32
}

func (o *fakeObject) String() string {
	return fmt.Sprintf("%s:%d", o.kind, o.id)
}

// fakeDriver records every call and tracks native object lifetimes so tests
// can assert when, and how often, the renderer releases them.
type fakeDriver struct {
	nextID    int
	live      map[*fakeObject]bool
	destroyed []*fakeObject
	calls     []string

	frames        int
	swapchainLive bool
	swapchains    int
	extent        gmath.Extent3i32
	image         uint32

	acquireStatus []PresentStatus
	presentStatus []PresentStatus
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{live: map[*fakeObject]bool{}}
}

func (d *fakeDriver) call(f string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(f, args...))
}

func (d *fakeDriver) create(kind string) *fakeObject {
	o := &fakeObject{kind: kind, id: d.nextID}
	d.nextID++
	d.live[o] = true
	return o
}

func (d *fakeDriver) destroy(native any) {
	o := native.(*fakeObject)
	if !d.live[o] {
		panic(fmt.Sprintf("destroy of dead object %s", o))
	}
	delete(d.live, o)
	d.destroyed = append(d.destroyed, o)
	d.call("Destroy(%s)", o)
}

func (d *fakeDriver) isLive(native any) bool {
	return d.live[native.(*fakeObject)]
}

func (d *fakeDriver) liveCount(kind string) int {
	n := 0
	for o := range d.live {
		if o.kind == kind {
			n++
		}
	}
	return n
}

// since returns the calls made after mark, a previous len(d.calls).
func (d *fakeDriver) since(mark int) []string {
	return append([]string(nil), d.calls[mark:]...)
}

func popStatus(s *[]PresentStatus) PresentStatus {
	if len(*s) == 0 {
		return PresentOK
	}
	ret := (*s)[0]
	*s = (*s)[1:]
	return ret
}

func (d *fakeDriver) GPUName() string { return "fake" }
func (d *fakeDriver) Destroy()        { d.call("DriverDestroy") }
func (d *fakeDriver) WaitIdle() error { d.call("WaitIdle"); return nil }

func (d *fakeDriver) CreateFrames(count int) error {
	d.frames = count
	d.call("CreateFrames(%d)", count)
	return nil
}

func (d *fakeDriver) DestroyFrames() {
	d.frames = 0
	d.call("DestroyFrames")
}

func (d *fakeDriver) WaitFrame(slot int) error {
	d.call("WaitFrame(%d)", slot)
	return nil
}

func (d *fakeDriver) AcquireImage(slot int) (uint32, PresentStatus, error) {
	d.call("AcquireImage(%d)", slot)
	d.image = (d.image + 1) % 3
	return d.image, popStatus(&d.acquireStatus), nil
}

func (d *fakeDriver) ResetFrame(slot int) error {
	d.call("ResetFrame(%d)", slot)
	return nil
}

func (d *fakeDriver) BeginCommands(slot int) error {
	d.call("BeginCommands(%d)", slot)
	return nil
}

func (d *fakeDriver) EndCommands(slot int) error {
	d.call("EndCommands(%d)", slot)
	return nil
}

func (d *fakeDriver) Submit(slot int) error {
	d.call("Submit(%d)", slot)
	return nil
}

func (d *fakeDriver) Present(slot int, image uint32) (PresentStatus, error) {
	d.call("Present(%d)", slot)
	return popStatus(&d.presentStatus), nil
}

func (d *fakeDriver) CreateSwapchain(size gmath.Extent3i32) (gmath.Extent3i32, error) {
	if d.swapchainLive {
		panic("swapchain created twice")
	}
	d.swapchainLive = true
	d.swapchains++
	d.extent = size
	d.call("CreateSwapchain(%dx%d)", size.X, size.Y)
	return size, nil
}

func (d *fakeDriver) DestroySwapchain() {
	if !d.swapchainLive {
		panic("swapchain destroyed twice")
	}
	d.swapchainLive = false
	d.call("DestroySwapchain")
}

func (d *fakeDriver) CreateStagingBuffer(data []byte) (NativeBuffer, error) {
	o := d.create("staging")
	o.data = append([]byte(nil), data...)
	return o, nil
}

func (d *fakeDriver) CreateDeviceBuffer(usage BufferUsage, size uint64) (NativeBuffer, error) {
	o := d.create(usage.String())
	o.data = make([]byte, size)
	return o, nil
}

func (d *fakeDriver) CreateUniformBuffer(size uint64) (NativeBuffer, error) {
	o := d.create("uniform")
	o.data = make([]byte, size)
	return o, nil
}

func (d *fakeDriver) WriteBuffer(buffer NativeBuffer, offset uint64, data []byte) {
	o := buffer.(*fakeObject)
	copy(o.data[offset:], data)
	d.call("WriteBuffer(%s, %d)", o, offset)
}

func (d *fakeDriver) DestroyBuffer(buffer NativeBuffer) { d.destroy(buffer) }

func (d *fakeDriver) CreateTexture(format TextureFormat, size gmath.Extent3i32) (NativeTexture, error) {
	o := d.create("texture")
	o.size = size
	return o, nil
}

func (d *fakeDriver) DestroyTexture(texture NativeTexture) { d.destroy(texture) }

func (d *fakeDriver) CreateDescriptorSetLayout(bindings []DescriptorBinding) (NativeDescriptorSetLayout, error) {
	return d.create("setLayout"), nil
}

func (d *fakeDriver) DestroyDescriptorSetLayout(layout NativeDescriptorSetLayout) { d.destroy(layout) }

func (d *fakeDriver) CreatePipelineLayout(sets []NativeDescriptorSetLayout) (NativePipelineLayout, error) {
	return d.create("pipelineLayout"), nil
}

func (d *fakeDriver) DestroyPipelineLayout(layout NativePipelineLayout) { d.destroy(layout) }

func (d *fakeDriver) CreateGraphicsPipeline(info GraphicsPipelineInfo) (NativePipeline, error) {
	return d.create("pipeline"), nil
}

func (d *fakeDriver) DestroyPipeline(pipeline NativePipeline) { d.destroy(pipeline) }

func (d *fakeDriver) AllocateDescriptorSet(layout NativeDescriptorSetLayout) (NativeDescriptorSet, error) {
	o := d.create("set")
	o.bindings = map[uint32]any{}
	return o, nil
}

func (d *fakeDriver) FreeDescriptorSet(set NativeDescriptorSet) { d.destroy(set) }

func (d *fakeDriver) WriteUniformDescriptor(set NativeDescriptorSet, binding uint32, buffer NativeBuffer, size uint64) {
	set.(*fakeObject).bindings[binding] = buffer
	d.call("WriteUniformDescriptor(%s, %d, %s)", set, binding, buffer)
}

func (d *fakeDriver) WriteTextureDescriptor(set NativeDescriptorSet, binding uint32, texture NativeTexture) {
	set.(*fakeObject).bindings[binding] = texture
	d.call("WriteTextureDescriptor(%s, %d, %s)", set, binding, texture)
}

func (d *fakeDriver) CreateFramebuffer() (NativeFramebuffer, NativeTexture, gmath.Extent3i32, error) {
	fb := d.create("framebuffer")
	texture := d.create("texture")
	fb.size = d.extent
	texture.size = d.extent
	return fb, texture, d.extent, nil
}

func (d *fakeDriver) DestroyFramebuffer(framebuffer NativeFramebuffer) { d.destroy(framebuffer) }

func (d *fakeDriver) CmdCopyBuffer(slot int, src, dst NativeBuffer, size uint64, usage BufferUsage) {
	copy(dst.(*fakeObject).data, src.(*fakeObject).data)
	d.call("CmdCopyBuffer(%d, %s, %s)", slot, src, dst)
}

func (d *fakeDriver) CmdUploadTexture(slot int, src NativeBuffer, dst NativeTexture) {
	d.call("CmdUploadTexture(%d, %s, %s)", slot, src, dst)
}

func (d *fakeDriver) CmdBeginRenderPass(slot int, framebuffer NativeFramebuffer, image uint32, clear ClearColor) {
	if framebuffer == nil {
		d.call("CmdBeginRenderPass(%d, present)", slot)
	} else {
		d.call("CmdBeginRenderPass(%d, %s)", slot, framebuffer)
	}
}

func (d *fakeDriver) CmdEndRenderPass(slot int) { d.call("CmdEndRenderPass(%d)", slot) }

func (d *fakeDriver) CmdBindPipeline(slot int, pipeline NativePipeline) {
	d.call("CmdBindPipeline(%d, %s)", slot, pipeline)
}

func (d *fakeDriver) CmdBindDescriptorSets(slot int, layout NativePipelineLayout, sets []NativeDescriptorSet) {
	d.call("CmdBindDescriptorSets(%d, %v)", slot, sets)
}

func (d *fakeDriver) CmdBindVertexBuffer(slot int, buffer NativeBuffer) {
	d.call("CmdBindVertexBuffer(%d, %s)", slot, buffer)
}

func (d *fakeDriver) CmdDraw(slot int, vertexCount uint32) {
	d.call("CmdDraw(%d, %d)", slot, vertexCount)
}

func (d *fakeDriver) CmdDrawIndexed(slot int, buffer NativeBuffer, indexCount uint32) {
	d.call("CmdDrawIndexed(%d, %s, %d)", slot, buffer, indexCount)
}

// fakeWindow reports size, each WaitEvents call moves to the next entry of
// sizes once it has any.
type fakeWindow struct {
	size     gmath.Extent3i32
	sizes    []gmath.Extent3i32
	waits    int
	onResize func(gmath.Extent3i32)
}

func (w *fakeWindow) FramebufferSize() gmath.Extent3i32 { return w.size }

func (w *fakeWindow) WaitEvents() {
	w.waits++
	if len(w.sizes) > 0 {
		w.size = w.sizes[0]
		w.sizes = w.sizes[1:]
	}
}

func (w *fakeWindow) SetResizeCallback(f func(gmath.Extent3i32)) { w.onResize = f }

func (w *fakeWindow) resize(size gmath.Extent3i32) {
	w.size = size
	w.onResize(size)
}

func newTestRenderer(framesInFlight int32) (*Renderer, *fakeDriver, *fakeWindow) {
	d := newFakeDriver()
	w := &fakeWindow{size: gmath.Extent3i32{X: 640, Y: 480, Z: 1}}
	r := New(d, w, Config{FramesInFlight: framesInFlight})
	return r, d, w
}

package swdevice

import (
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer is an in-memory hal.Buffer.
type Buffer struct {
	label string
	usage gputypes.BufferUsage
	data  []byte
}

func (b *Buffer) Destroy()                { b.data = nil }
func (b *Buffer) NativeHandle() uintptr    { return 0 }
func (b *Buffer) Bytes() []byte            { return b.data }
func (b *Buffer) SetBytes(off int, p []byte) { copy(b.data[off:], p) }

// Texture is an in-memory hal.Texture storing RGBA32F pixels row-major,
// no padding — the same logical layout the engine assumes everywhere
// except inside a readback's staging buffer.
type Texture struct {
	label         string
	width, height uint32
	format        gputypes.TextureFormat
	usage         gputypes.TextureUsage
	data          []byte // width*height*16 bytes, RGBA f32
}

func (t *Texture) Destroy()             {}
func (t *Texture) NativeHandle() uintptr { return 0 }
func (t *Texture) Width() uint32         { return t.width }
func (t *Texture) Height() uint32        { return t.height }
func (t *Texture) Bytes() []byte         { return t.data }

// TextureView is an in-memory hal.TextureView.
type TextureView struct {
	texture *Texture
	label   string
}

func (v *TextureView) Destroy()             {}
func (v *TextureView) NativeHandle() uintptr { return 0 }

// Sampler, BindGroupLayout, BindGroup, PipelineLayout, ShaderModule,
// ComputePipeline, Fence are identity-only resources: the software device
// does not interpret shader bytecode, so these carry just enough state
// for DispatchFunc hooks (installed by tests) to recognize which pipeline
// and bind group a compute pass used.
type Sampler struct{ label string }

func (s *Sampler) Destroy()             {}
func (s *Sampler) NativeHandle() uintptr { return 0 }

type BindGroupLayout struct {
	label   string
	entries []gputypes.BindGroupLayoutEntry
}

func (l *BindGroupLayout) Destroy()             {}
func (l *BindGroupLayout) NativeHandle() uintptr { return 0 }

type BindGroup struct {
	label   string
	Entries []gputypes.BindGroupEntry
}

func (g *BindGroup) Destroy()             {}
func (g *BindGroup) NativeHandle() uintptr { return 0 }

type PipelineLayout struct{ label string }

func (l *PipelineLayout) Destroy()             {}
func (l *PipelineLayout) NativeHandle() uintptr { return 0 }

type ShaderModule struct{ label string }

func (m *ShaderModule) Destroy()             {}
func (m *ShaderModule) NativeHandle() uintptr { return 0 }

type ComputePipeline struct {
	label  string
	layout hal.PipelineLayout
}

func (p *ComputePipeline) Destroy()             {}
func (p *ComputePipeline) NativeHandle() uintptr { return 0 }

// Fence tracks the highest submitted value it has been signaled to.
type Fence struct {
	value atomic.Uint64
}

func (f *Fence) Destroy()             {}
func (f *Fence) NativeHandle() uintptr { return 0 }

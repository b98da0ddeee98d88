// Package swdevice implements an in-memory hal.Device/hal.Queue pair for
// tests that exercise the pipeline engine without a real GPU. It follows
// the test-double shape used for the native backend's texture tests: a
// struct per resource kind plus a device that creates/destroys them and
// records call counts, with injectable function fields for behavior
// tests need to control.
package swdevice

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Device is a software hal.Device: every resource is a plain Go struct
// backed by a byte slice, no compute dispatch runs a shader (a submitted
// dispatch only reaches the optional DispatchFunc hook; tests that need
// actual pixel results run the CPU-only path instead), and every
// submit/wait pair succeeds immediately.
type Device struct {
	mu sync.Mutex

	TexturesCreated  atomic.Int32
	BuffersCreated   atomic.Int32
	PipelinesCreated atomic.Int32

	// DispatchFunc, if set, is invoked by Queue.Submit for every compute
	// pass recorded in the submitted command buffers, letting a test
	// simulate a shader's effect on its bound resources.
	DispatchFunc func(*CommandBuffer)
}

// New returns a ready-to-use software device and its queue.
func New() (*Device, *Queue) {
	d := &Device{}
	return d, &Queue{device: d}
}

func (d *Device) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.BuffersCreated.Add(1)
	return &Buffer{label: desc.Label, data: make([]byte, desc.Size), usage: desc.Usage}, nil
}
func (d *Device) DestroyBuffer(hal.Buffer) {}

func (d *Device) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	d.TexturesCreated.Add(1)
	size := uint64(desc.Size.Width) * uint64(desc.Size.Height) * 16 // RGBA32F
	return &Texture{
		label:  desc.Label,
		width:  desc.Size.Width,
		height: desc.Size.Height,
		format: desc.Format,
		usage:  desc.Usage,
		data:   make([]byte, size),
	}, nil
}
func (d *Device) DestroyTexture(hal.Texture) {}

func (d *Device) CreateTextureView(tex hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	t, ok := tex.(*Texture)
	if !ok {
		return nil, fmt.Errorf("swdevice: not a *Texture")
	}
	return &TextureView{texture: t, label: desc.Label}, nil
}
func (d *Device) DestroyTextureView(hal.TextureView) {}

func (d *Device) CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	return &Sampler{label: desc.Label}, nil
}
func (d *Device) DestroySampler(hal.Sampler) {}

func (d *Device) CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	return &BindGroupLayout{label: desc.Label, entries: desc.Entries}, nil
}
func (d *Device) DestroyBindGroupLayout(hal.BindGroupLayout) {}

func (d *Device) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	return &BindGroup{label: desc.Label}, nil
}
func (d *Device) DestroyBindGroup(hal.BindGroup) {}

func (d *Device) CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	return &PipelineLayout{label: desc.Label}, nil
}
func (d *Device) DestroyPipelineLayout(hal.PipelineLayout) {}

func (d *Device) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	return &ShaderModule{label: desc.Label}, nil
}
func (d *Device) DestroyShaderModule(hal.ShaderModule) {}

func (d *Device) CreateRenderPipeline(*hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	return nil, fmt.Errorf("swdevice: render pipelines not supported")
}
func (d *Device) DestroyRenderPipeline(hal.RenderPipeline) {}

func (d *Device) CreateComputePipeline(desc *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	d.PipelinesCreated.Add(1)
	return &ComputePipeline{label: desc.Label, layout: desc.Layout}, nil
}
func (d *Device) DestroyComputePipeline(hal.ComputePipeline) {}

func (d *Device) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	return &CommandEncoder{label: desc.Label}, nil
}

func (d *Device) CreateFence() (hal.Fence, error) { return &Fence{}, nil }
func (d *Device) DestroyFence(hal.Fence)          {}

func (d *Device) Wait(f hal.Fence, value uint64, _ time.Duration) (bool, error) {
	fence, ok := f.(*Fence)
	if !ok {
		return false, fmt.Errorf("swdevice: not a *Fence")
	}
	return fence.value.Load() >= value, nil
}

func (d *Device) Destroy() {}

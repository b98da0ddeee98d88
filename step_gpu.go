package pixelpipe

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const wgslWorkgroupSize = 16

func ceilDiv(n, d uint32) uint32 { return (n + d - 1) / d }

// handleWgslStep runs one GPU compute step: it materializes texture views
// for every input (uploading Cpu-resident ones first), allocates the
// output texture, fetches or compiles the compute pipeline for this
// shader/arity/params/sampler combination, and records one compute pass.
func (e *Engine) handleWgslStep(state ProcessingState, step PlanStep, stepIndex uint32, parallelPath string) (ProcessingState, hal.CommandBuffer, error) {
	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "pixelpipe_wgsl_step"})
	if err != nil {
		return nil, nil, fmt.Errorf("pixelpipe: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("pixelpipe_wgsl_step"); err != nil {
		return nil, nil, fmt.Errorf("pixelpipe: begin encoding: %w", err)
	}

	inputViews := make([]hal.TextureView, 0, len(state))
	for i, in := range state {
		view, err := e.inputTextureView(encoder, in, stepIndex, parallelPath, i)
		if err != nil {
			encoder.DiscardEncoding()
			return nil, nil, err
		}
		inputViews = append(inputViews, view)
	}

	outKey := TextureCacheKey{
		StepIndex: stepIndex, Width: step.OutWidth, Height: step.OutHeight,
		Format: gputypes.TextureFormatRGBA32Float,
		Usage:  gputypes.TextureUsageTextureBinding | gputypes.TextureUsageStorageBinding | gputypes.TextureUsageCopySrc,
		ParallelPath: parallelPath,
	}
	outTex, err := e.getOrCreateTexture(outKey)
	if err != nil {
		encoder.DiscardEncoding()
		return nil, nil, err
	}
	outView, err := e.device.CreateTextureView(outTex, &hal.TextureViewDescriptor{Label: "pixelpipe_wgsl_out_view"})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, nil, fmt.Errorf("pixelpipe: create output texture view: %w", err)
	}

	cp, err := e.getOrCreateComputePipeline(step.Shader, len(state), step.Params != nil)
	if err != nil {
		encoder.DiscardEncoding()
		return nil, nil, err
	}

	bg0, err := e.buildInputBindGroup(cp, inputViews, outView, step.Shader)
	if err != nil {
		encoder.DiscardEncoding()
		return nil, nil, err
	}

	var bg1 hal.BindGroup
	if step.Params != nil {
		paramsBuf, err := e.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "pixelpipe_wgsl_params", Size: uint64(len(step.Params)),
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			encoder.DiscardEncoding()
			return nil, nil, fmt.Errorf("pixelpipe: create params buffer: %w", err)
		}
		if err := e.queue.WriteBuffer(paramsBuf, 0, step.Params); err != nil {
			encoder.DiscardEncoding()
			return nil, nil, fmt.Errorf("pixelpipe: write params buffer: %w", err)
		}
		bg1, err = e.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label: "pixelpipe_wgsl_params_bind", Layout: cp.bindGroupLayout1,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramsBuf.NativeHandle(), Offset: 0, Size: uint64(len(step.Params))}},
			},
		})
		if err != nil {
			encoder.DiscardEncoding()
			return nil, nil, fmt.Errorf("pixelpipe: create params bind group: %w", err)
		}
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "pixelpipe_wgsl_pass"})
	pass.SetPipeline(cp.pipeline)
	pass.SetBindGroup(0, bg0, nil)
	if bg1 != nil {
		pass.SetBindGroup(1, bg1, nil)
	}
	wgX, wgY := ceilDiv(step.OutWidth, wgslWorkgroupSize), ceilDiv(step.OutHeight, wgslWorkgroupSize)
	pass.Dispatch(wgX, wgY, 1)
	pass.End()

	Logger().Debug("pixelpipe: wgsl step dispatched", "shader", step.Shader.Id, "wg_x", wgX, "wg_y", wgY)

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, nil, fmt.Errorf("pixelpipe: end encoding: %w", err)
	}

	return ProcessingState{GpuOutput(outTex, step.OutWidth, step.OutHeight)}, cmdBuf, nil
}

// inputTextureView returns a view over in's texture, uploading a fresh
// cached texture first if in is Cpu-resident.
func (e *Engine) inputTextureView(encoder hal.CommandEncoder, in StepOutput, stepIndex uint32, parallelPath string, slot int) (hal.TextureView, error) {
	if in.Kind == OutputGpu {
		return e.device.CreateTextureView(in.Texture, &hal.TextureViewDescriptor{Label: "pixelpipe_wgsl_in_view"})
	}

	key := TextureCacheKey{
		StepIndex: stepIndex, Width: in.Width, Height: in.Height,
		Format: gputypes.TextureFormatRGBA32Float,
		Usage:  gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		ParallelPath: fmt.Sprintf("%s#in%d", parallelPath, slot),
	}
	tex, err := e.getOrCreateTexture(key)
	if err != nil {
		return nil, err
	}

	bytesPerRow := 16 * in.Width
	data := float32SliceToBytes(in.Data)
	if err := e.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		data,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: bytesPerRow, RowsPerImage: in.Height},
		&hal.Extent3D{Width: in.Width, Height: in.Height, DepthOrArrayLayers: 1},
	); err != nil {
		return nil, fmt.Errorf("pixelpipe: upload cpu input texture: %w", err)
	}

	return e.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "pixelpipe_wgsl_uploaded_in_view"})
}

func (e *Engine) getOrCreateTexture(key TextureCacheKey) (hal.Texture, error) {
	return e.textureCache.GetOrCreate(key, func() (hal.Texture, error) {
		return e.device.CreateTexture(&hal.TextureDescriptor{
			Label:         "pixelpipe_texture",
			Size:          gputypes.Extent3D{Width: key.Width, Height: key.Height, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        key.Format,
			Usage:         key.Usage,
		})
	})
}

// getOrCreateComputePipeline derives the PipelineCacheKey from the
// shader's identity and this step's input/params/sampler shape, and
// builds (or reuses) the compute pipeline and its bind-group layouts.
func (e *Engine) getOrCreateComputePipeline(shader *ShaderModule, inputCount int, hasParams bool) (*compiledPipeline, error) {
	key := PipelineCacheKey{
		ShaderId: shader.Id, InputTextureCount: uint32(inputCount),
		HasParams: hasParams, HasSampler: shader.HasSampler(),
	}
	return e.pipelineCache.GetOrCreate(key, func() (*compiledPipeline, error) {
		return e.buildComputePipeline(shader, inputCount, hasParams)
	})
}

func (e *Engine) buildComputePipeline(shader *ShaderModule, inputCount int, hasParams bool) (*compiledPipeline, error) {
	var entries []gputypes.BindGroupLayoutEntry
	nextBinding := uint32(0)

	if inputCount > 0 {
		count := uint32(inputCount)
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding: nextBinding, Visibility: gputypes.ShaderStageCompute,
			Texture: &gputypes.TextureBindingLayout{
				SampleType: gputypes.TextureSampleTypeUnfilterableFloat, ViewDimension: gputypes.TextureViewDimension2D,
			},
			Count: &count,
		})
		nextBinding++
	}

	entries = append(entries, gputypes.BindGroupLayoutEntry{
		Binding: nextBinding, Visibility: gputypes.ShaderStageCompute,
		StorageTexture: &gputypes.StorageTextureBindingLayout{
			Access: gputypes.StorageTextureAccessReadWrite, Format: gputypes.TextureFormatRGBA32Float,
			ViewDimension: gputypes.TextureViewDimension2D,
		},
	})
	nextBinding++

	if shader.HasSampler() {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding: nextBinding, Visibility: gputypes.ShaderStageCompute,
			Sampler: &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		})
	}

	layout0, err := e.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{Label: "pixelpipe_wgsl_group0", Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("pixelpipe: create group0 layout: %w", err)
	}

	layouts := []hal.BindGroupLayout{layout0}
	var layout1 hal.BindGroupLayout
	if hasParams {
		layout1, err = e.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label: "pixelpipe_wgsl_group1",
			Entries: []gputypes.BindGroupLayoutEntry{
				{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("pixelpipe: create group1 layout: %w", err)
		}
		layouts = append(layouts, layout1)
	}

	pipelineLayout, err := e.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{Label: "pixelpipe_wgsl_pipeline_layout", BindGroupLayouts: layouts})
	if err != nil {
		return nil, fmt.Errorf("pixelpipe: create pipeline layout: %w", err)
	}

	pipeline, err := e.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "pixelpipe_wgsl_pipeline_" + shader.Id, Layout: pipelineLayout,
		Compute: hal.ProgrammableStage{Module: shader.shaderHandle(), EntryPoint: "main"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPipelineLayoutMismatch, err)
	}

	return &compiledPipeline{pipeline: pipeline, bindGroupLayout0: layout0, bindGroupLayout1: layout1, pipelineLayout: pipelineLayout}, nil
}

func (e *Engine) buildInputBindGroup(cp *compiledPipeline, inputViews []hal.TextureView, outView hal.TextureView, shader *ShaderModule) (hal.BindGroup, error) {
	var entries []gputypes.BindGroupEntry
	nextBinding := uint32(0)

	if len(inputViews) > 0 {
		handles := make([]uintptr, len(inputViews))
		for i, v := range inputViews {
			handles[i] = v.NativeHandle()
		}
		entries = append(entries, gputypes.BindGroupEntry{Binding: nextBinding, Resource: gputypes.TextureViewArrayBinding{Views: handles}})
		nextBinding++
	}

	entries = append(entries, gputypes.BindGroupEntry{Binding: nextBinding, Resource: gputypes.TextureViewBinding{View: outView.NativeHandle()}})
	nextBinding++

	if shader.HasSampler() {
		entries = append(entries, gputypes.BindGroupEntry{Binding: nextBinding, Resource: gputypes.SamplerBinding{Sampler: shader.Sampler.NativeHandle()}})
	}

	return e.device.CreateBindGroup(&hal.BindGroupDescriptor{Label: "pixelpipe_wgsl_group0_bind", Layout: cp.bindGroupLayout0, Entries: entries})
}

// float32SliceToBytes reinterprets a float32 slice as its little-endian
// byte representation, matching the wire layout queue.WriteTexture expects.
func float32SliceToBytes(floats []float32) []byte {
	out := make([]byte, len(floats)*4)
	for i, f := range floats {
		bits := math.Float32bits(f)
		o := i * 4
		out[o] = byte(bits)
		out[o+1] = byte(bits >> 8)
		out[o+2] = byte(bits >> 16)
		out[o+3] = byte(bits >> 24)
	}
	return out
}

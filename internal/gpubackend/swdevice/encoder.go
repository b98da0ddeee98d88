package swdevice

import "github.com/gogpu/wgpu/hal"

// op is one recorded command. Exactly one of the *Op fields is set.
type op struct {
	dispatch *dispatchOp
	copyBB   *copyBufferToBufferOp
	copyTB   *copyTextureToBufferOp
}

// dispatchOp is a recorded compute-pass dispatch: the pipeline, bind
// groups and workgroup counts the pass was recorded with. Queue.Submit
// hands each one to Device.DispatchFunc inside a one-op CommandBuffer;
// CommandBuffer's ops are unexported, so a hook outside this package
// learns only that a dispatch was submitted.
type dispatchOp struct {
	Pipeline     *ComputePipeline
	BindGroup0   *BindGroup
	BindGroup1   *BindGroup
	WorkgroupsX  uint32
	WorkgroupsY  uint32
	WorkgroupsZ  uint32
}

type copyBufferToBufferOp struct {
	src, dst       *Buffer
	srcOff, dstOff uint64
	size           uint64
}

type copyTextureToBufferOp struct {
	src    *Texture
	dst    *Buffer
	layout hal.ImageDataLayout
	extent hal.Extent3D
}

// CommandBuffer holds the ops recorded by one CommandEncoder between
// BeginEncoding and EndEncoding.
type CommandBuffer struct {
	ops []op
}

func (c *CommandBuffer) Destroy()             {}
func (c *CommandBuffer) NativeHandle() uintptr { return 0 }

// CommandEncoder records ops into a pending CommandBuffer. Matches the
// BeginEncoding/record/EndEncoding lifecycle used throughout the GPU
// compute dispatcher.
type CommandEncoder struct {
	label   string
	pending *CommandBuffer
}

func (e *CommandEncoder) BeginEncoding(label string) error {
	e.pending = &CommandBuffer{}
	return nil
}

func (e *CommandEncoder) DiscardEncoding() { e.pending = nil }

func (e *CommandEncoder) EndEncoding() (hal.CommandBuffer, error) {
	cb := e.pending
	e.pending = nil
	return cb, nil
}

func (e *CommandEncoder) BeginComputePass(desc *hal.ComputePassDescriptor) hal.ComputePassEncoder {
	return &ComputePassEncoder{encoder: e}
}

func (e *CommandEncoder) CopyBufferToBuffer(src, dst hal.Buffer, copies []hal.BufferCopy) {
	sb, db := src.(*Buffer), dst.(*Buffer)
	for _, c := range copies {
		e.pending.ops = append(e.pending.ops, op{copyBB: &copyBufferToBufferOp{
			src: sb, dst: db, srcOff: c.SrcOffset, dstOff: c.DstOffset, size: c.Size,
		}})
	}
}

func (e *CommandEncoder) CopyTextureToBuffer(src hal.Texture, dst hal.Buffer, copies []hal.BufferTextureCopy) {
	st, db := src.(*Texture), dst.(*Buffer)
	for _, c := range copies {
		e.pending.ops = append(e.pending.ops, op{copyTB: &copyTextureToBufferOp{
			src: st, dst: db, layout: c.BufferLayout, extent: c.Size,
		}})
	}
}

// ComputePassEncoder accumulates SetPipeline/SetBindGroup state and
// records a dispatchOp on Dispatch.
type ComputePassEncoder struct {
	encoder    *CommandEncoder
	pipeline   *ComputePipeline
	bindGroup0 *BindGroup
	bindGroup1 *BindGroup
}

func (p *ComputePassEncoder) SetPipeline(pipeline hal.ComputePipeline) {
	p.pipeline, _ = pipeline.(*ComputePipeline)
}

func (p *ComputePassEncoder) SetBindGroup(index uint32, bg hal.BindGroup, _ []uint32) {
	group, _ := bg.(*BindGroup)
	if index == 0 {
		p.bindGroup0 = group
	} else {
		p.bindGroup1 = group
	}
}

func (p *ComputePassEncoder) Dispatch(x, y, z uint32) {
	p.encoder.pending.ops = append(p.encoder.pending.ops, op{dispatch: &dispatchOp{
		Pipeline: p.pipeline, BindGroup0: p.bindGroup0, BindGroup1: p.bindGroup1,
		WorkgroupsX: x, WorkgroupsY: y, WorkgroupsZ: z,
	}})
}

func (p *ComputePassEncoder) End() {}

package pixelpipe

import "github.com/gogpu/wgpu/hal"

// OutputKind tags whether a StepOutput lives on the GPU or the CPU.
type OutputKind int

const (
	OutputGpu OutputKind = iota
	OutputCpu
)

// StepOutput is a single image living either in GPU memory (a texture)
// or CPU memory (a float32 buffer). Values are cheap to copy: the
// underlying hal.Texture or float slice is reference/shared-backing, not
// deep-copied, so the same StepOutput can flow into multiple Parallel
// siblings without cloning pixel data.
type StepOutput struct {
	Kind OutputKind

	// OutputGpu fields.
	Texture hal.Texture

	// OutputCpu fields.
	Data []float32

	Width, Height uint32
}

// GpuOutput constructs a GPU-resident StepOutput.
func GpuOutput(tex hal.Texture, w, h uint32) StepOutput {
	return StepOutput{Kind: OutputGpu, Texture: tex, Width: w, Height: h}
}

// CpuOutputStep constructs a CPU-resident StepOutput.
func CpuOutputStep(data []float32, w, h uint32) StepOutput {
	return StepOutput{Kind: OutputCpu, Data: data, Width: w, Height: h}
}

// ProcessingState is the ordered set of outputs flowing between steps:
// scalar in serial flow, multi-element only immediately after a
// StepParallel step (one entry per sub-plan, in declaration order).
type ProcessingState []StepOutput

package pixelpipe

import (
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pixelpipe/internal/pipelinefmt"
)

// handleCpuStep downloads any Gpu-resident inputs concurrently, passes
// Cpu-resident ones through unchanged, and invokes the user function once
// every input is assembled in original order. Callers are responsible for
// flushing accumulated encoders before calling this: a download's texture
// copy must see completed prior work.
func (e *Engine) handleCpuStep(state ProcessingState, step PlanStep, stepIndex uint32, parallelPath string) (ProcessingState, error) {
	inputs := make([]CpuInputImage, len(state))
	errs := make([]error, len(state))

	var wg sync.WaitGroup
	for i, in := range state {
		if in.Kind == OutputCpu {
			inputs[i] = CpuInputImage{Data: in.Data, Width: in.Width, Height: in.Height}
			continue
		}
		wg.Add(1)
		go func(i int, in StepOutput) {
			defer wg.Done()
			data, err := e.downloadGpuTexture(in.Texture, in.Width, in.Height)
			if err != nil {
				errs[i] = err
				return
			}
			inputs[i] = CpuInputImage{Data: data, Width: in.Width, Height: in.Height}
		}(i, in)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	out, err := step.Func.Invoke(inputs, step.Params, step.OutWidth, step.OutHeight)
	if err != nil {
		return nil, err
	}

	Logger().Debug("pixelpipe: cpu step complete", "function", step.Func.Id, "width", out.Width, "height", out.Height)
	return ProcessingState{CpuOutputStep(out.Data, out.Width, out.Height)}, nil
}

// downloadGpuTexture copies tex into a row-pitch-aligned staging buffer,
// submits and waits for that copy alone, reads the buffer back, and
// strips the per-row padding GPU readback requires.
//
// handleCpuStep launches one of these per Gpu input concurrently, so the
// staging buffer is allocated fresh every call rather than routed through
// e.bufferCache: two same-sized inputs downloading at once would otherwise
// resolve to the same cached buffer and race each other's copy-in/read-out,
// silently handing the CPU function two copies of whichever download wrote
// last instead of the two distinct images it declared.
func (e *Engine) downloadGpuTexture(tex hal.Texture, w, h uint32) ([]float32, error) {
	tightRowBytes := 16 * w
	paddedRowBytes := pipelinefmt.AlignRowPitch(tightRowBytes)
	size := uint64(paddedRowBytes) * uint64(h)

	usage := gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst
	stagingBuf, err := e.device.CreateBuffer(&hal.BufferDescriptor{Label: "pixelpipe_readback", Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("pixelpipe: create readback buffer: %w", err)
	}
	defer e.device.DestroyBuffer(stagingBuf)

	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "pixelpipe_download"})
	if err != nil {
		return nil, fmt.Errorf("pixelpipe: create download encoder: %w", err)
	}
	if err := encoder.BeginEncoding("pixelpipe_download"); err != nil {
		return nil, fmt.Errorf("pixelpipe: begin download encoding: %w", err)
	}

	encoder.CopyTextureToBuffer(tex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: paddedRowBytes, RowsPerImage: h},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("pixelpipe: end download encoding: %w", err)
	}

	pending := []hal.CommandBuffer{cmdBuf}
	if err := e.flush(&pending); err != nil {
		return nil, err
	}

	padded := make([]byte, size)
	if err := e.queue.ReadBuffer(stagingBuf, 0, padded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDevicePoll, err)
	}

	tight := pipelinefmt.StripRowPadding(padded, w, h, tightRowBytes, paddedRowBytes)
	return bytesToFloat32Slice(tight), nil
}

func bytesToFloat32Slice(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		o := i * 4
		bits := uint32(b[o]) | uint32(b[o+1])<<8 | uint32(b[o+2])<<16 | uint32(b[o+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}

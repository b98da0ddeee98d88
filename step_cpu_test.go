package pixelpipe

import (
	"context"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pixelpipe/internal/gpubackend/swdevice"
)

// makeGpuInput creates a w×h RGBA32F texture on device/queue and fills
// every pixel with the given value, returning a Gpu-resident StepOutput
// over it.
func makeGpuInput(t *testing.T, device *swdevice.Device, queue *swdevice.Queue, w, h uint32, value float32) StepOutput {
	t.Helper()

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: "test_input", Size: gputypes.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1, SampleCount: 1, Dimension: gputypes.TextureDimension2D,
		Format: gputypes.TextureFormatRGBA32Float,
		Usage:  gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}

	floats := make([]float32, 4*w*h)
	for i := range floats {
		floats[i] = value
	}

	if err := queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		float32SliceToBytes(floats),
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: 16 * w, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	); err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}

	return GpuOutput(tex, w, h)
}

// TestHandleCpuStepConcurrentDownloadsDontAlias reproduces the S3/S6
// shape: two Gpu inputs of identical (w, h) feeding the same CPU step.
// handleCpuStep downloads both concurrently; each download must land in
// its own staging buffer rather than colliding on a cache key keyed only
// by (size, usage), or one branch's pixel data would silently overwrite
// the other's before either is read back.
func TestHandleCpuStepConcurrentDownloadsDontAlias(t *testing.T) {
	device, queue := swdevice.New()
	engine, err := NewEngine(context.Background(), WithDevice(device, queue, nil))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer engine.Close()

	const w, h = 4, 4
	const valueA, valueB float32 = 0.25, 0.75

	state := ProcessingState{
		makeGpuInput(t, device, queue, w, h, valueA),
		makeGpuInput(t, device, queue, w, h, valueB),
	}

	var sawA, sawB []float32
	fn := NewCpuFunction("capture", func(inputs []CpuInputImage, params []byte) (CpuOutput, error) {
		if len(inputs) != 2 {
			t.Fatalf("expected 2 inputs, got %d", len(inputs))
		}
		sawA = append([]float32(nil), inputs[0].Data...)
		sawB = append([]float32(nil), inputs[1].Data...)
		return CpuOutput{Data: make([]float32, 4*w*h)}, nil
	})

	step := PlanStep{Kind: StepCpu, Func: fn, OutWidth: w, OutHeight: h}
	if _, err := engine.handleCpuStep(state, step, 0, ""); err != nil {
		t.Fatalf("handleCpuStep: %v", err)
	}

	for i, v := range sawA {
		if v != valueA {
			t.Fatalf("input 0 (A) float %d = %v, want %v (first input was corrupted by the second's concurrent download)", i, v, valueA)
		}
	}
	for i, v := range sawB {
		if v != valueB {
			t.Fatalf("input 1 (B) float %d = %v, want %v (second input was corrupted by the first's concurrent download)", i, v, valueB)
		}
	}
}

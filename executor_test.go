package pixelpipe

import (
	"context"
	"testing"

	"github.com/gogpu/pixelpipe/internal/gpubackend/swdevice"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	device, queue := swdevice.New()
	engine, err := NewEngine(context.Background(), WithDevice(device, queue, nil))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func TestGenerateAllCpuPlanProducesPackedRGBA(t *testing.T) {
	engine := newTestEngine(t)

	const w, h = 4, 3
	fill := NewCpuFunction("solid_red", func(inputs []CpuInputImage, params []byte) (CpuOutput, error) {
		data := make([]float32, 4*w*h)
		for p := 0; p < w*h; p++ {
			data[4*p+0] = 1 // R
			data[4*p+1] = 0 // G
			data[4*p+2] = 0 // B
			data[4*p+3] = 1 // A
		}
		return CpuOutput{Data: data}, nil
	})

	plan := NewPlan().AddCpu(fill, nil, w, h)

	packed, err := engine.Generate(context.Background(), plan)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(packed) != 4*w*h {
		t.Fatalf("len(packed) = %d, want %d", len(packed), 4*w*h)
	}
	for p := 0; p < w*h; p++ {
		got := packed[4*p : 4*p+4]
		want := [4]byte{255, 0, 0, 255}
		if got[0] != want[0] || got[1] != want[1] || got[2] != want[2] || got[3] != want[3] {
			t.Fatalf("pixel %d = %v, want %v", p, got, want)
		}
	}

	stats := engine.Stats()
	if stats.Submits != 0 {
		t.Errorf("an all-CPU plan with no texture readback should never submit a command batch, got %d", stats.Submits)
	}
}

func TestGenerateTwoCpuStepsChainsOutputs(t *testing.T) {
	engine := newTestEngine(t)

	const w, h = 2, 2
	gen := NewCpuFunction("gen", func(inputs []CpuInputImage, params []byte) (CpuOutput, error) {
		data := make([]float32, 4*w*h)
		for i := range data {
			data[i] = 0.2
		}
		return CpuOutput{Data: data}, nil
	})
	brighten := NewCpuFunction("brighten", func(inputs []CpuInputImage, params []byte) (CpuOutput, error) {
		in := inputs[0]
		out := make([]float32, len(in.Data))
		for i, v := range in.Data {
			out[i] = v + 0.3
		}
		return CpuOutput{Data: out}, nil
	})

	plan := NewPlan().AddCpu(gen, nil, w, h).AddCpu(brighten, nil, w, h)

	packed, err := engine.Generate(context.Background(), plan)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := quantizeChannel(0.5)
	for i, b := range packed {
		if b != want {
			t.Fatalf("packed[%d] = %d, want %d", i, b, want)
		}
	}
}

func TestGenerateRejectsMultiOutputFinalState(t *testing.T) {
	engine := newTestEngine(t)

	const w, h = 2, 2
	echo := NewCpuFunction("echo", func(inputs []CpuInputImage, params []byte) (CpuOutput, error) {
		return CpuOutput{Data: make([]float32, 4*w*h)}, nil
	})

	plan := NewPlan().AddParallel([]Plan{
		NewPlan().AddCpu(echo, nil, w, h),
		NewPlan().AddCpu(echo, nil, w, h),
	})

	if _, err := engine.Generate(context.Background(), plan); err == nil {
		t.Fatal("expected Generate to reject a plan whose final state has more than one output")
	}
}

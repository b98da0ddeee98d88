package pixelpipe

import (
	"errors"
	"testing"
)

func TestCpuFunctionInvokeSuccess(t *testing.T) {
	fn := NewCpuFunction("passthrough", func(inputs []CpuInputImage, params []byte) (CpuOutput, error) {
		return CpuOutput{Data: make([]float32, 4*2*2)}, nil
	})

	out, err := fn.Invoke(nil, nil, 2, 2)
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if out.Width != 2 || out.Height != 2 {
		t.Fatalf("Invoke did not stamp declared dimensions: got %dx%d", out.Width, out.Height)
	}
}

func TestCpuFunctionInvokeContractViolationWrongLength(t *testing.T) {
	fn := NewCpuFunction("short", func(inputs []CpuInputImage, params []byte) (CpuOutput, error) {
		return CpuOutput{Data: make([]float32, 4)}, nil
	})

	_, err := fn.Invoke(nil, nil, 4, 4)
	if !errors.Is(err, ErrCpuFunctionContract) {
		t.Fatalf("Invoke error = %v, want ErrCpuFunctionContract", err)
	}
}

func TestCpuFunctionInvokePropagatesUnderlyingError(t *testing.T) {
	boom := errors.New("boom")
	fn := NewCpuFunction("failing", func(inputs []CpuInputImage, params []byte) (CpuOutput, error) {
		return CpuOutput{}, boom
	})

	_, err := fn.Invoke(nil, nil, 1, 1)
	if !errors.Is(err, ErrCpuFunctionContract) {
		t.Fatalf("Invoke error = %v, want wrapped ErrCpuFunctionContract", err)
	}
}

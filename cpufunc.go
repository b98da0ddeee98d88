package pixelpipe

import "fmt"

// CpuInputImage is a read-only view of one image handed to a CpuFunction
// for the duration of a single call. Data is row-major RGBA float32,
// len(Data) == 4*Width*Height.
type CpuInputImage struct {
	Data   []float32
	Width  uint32
	Height uint32
}

// CpuOutput is the float buffer a CpuFunction returns, along with the
// dimensions the caller must have produced it at.
type CpuOutput struct {
	Data   []float32
	Width  uint32
	Height uint32
}

// CpuFunc is a pure-in-contract transform: given the ordered inputs
// (reference-shared with the caller, must not be retained beyond the
// call) and optional opaque params, it returns a newly owned output
// buffer. It must not mutate any CpuInputImage.Data.
type CpuFunc func(inputs []CpuInputImage, params []byte) (CpuOutput, error)

// CpuFunction wraps a CpuFunc with a stable Id for logging/diagnostics.
// It carries no cache key of its own: CPU steps are never cached, only
// their declared output dimensions feed the executor.
type CpuFunction struct {
	Id string
	fn CpuFunc
}

// NewCpuFunction wraps fn under the given id.
func NewCpuFunction(id string, fn CpuFunc) *CpuFunction {
	return &CpuFunction{Id: id, fn: fn}
}

// Invoke calls the wrapped function and enforces the data-length contract
// against the step's declared (outW, outH): violations are reported as
// ErrCpuFunctionContract, not left to the caller to discover downstream.
func (c *CpuFunction) Invoke(inputs []CpuInputImage, params []byte, outW, outH uint32) (CpuOutput, error) {
	out, err := c.fn(inputs, params)
	if err != nil {
		return CpuOutput{}, fmt.Errorf("%w: function %q: %v", ErrCpuFunctionContract, c.Id, err)
	}

	want := int(4 * outW * outH)
	if len(out.Data) != want {
		return CpuOutput{}, fmt.Errorf("%w: function %q declared output %dx%d (%d floats) but returned %d",
			ErrCpuFunctionContract, c.Id, outW, outH, want, len(out.Data))
	}

	out.Width, out.Height = outW, outH
	return out, nil
}

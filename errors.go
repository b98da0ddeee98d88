package pixelpipe

import "errors"

// Sentinel errors for the pipeline engine's error taxonomy. Callers use
// errors.Is against these; call sites wrap them with fmt.Errorf("...: %w", ...)
// for context, matching the wrapping style used throughout the GPU backend.
var (
	// ErrDeviceUnavailable is returned when no compute-capable adapter/device
	// could be acquired during engine construction.
	ErrDeviceUnavailable = errors.New("pixelpipe: no compute-capable device available")

	// ErrMissingFeature names the case of a device lacking a feature or
	// limit the engine requires (texture binding arrays, non-uniform
	// indexing, storage buffer size). NewEngine does not return it: a
	// device that cannot be opened with the required features and limits
	// is reported as ErrDeviceUnavailable.
	ErrMissingFeature = errors.New("pixelpipe: device missing required feature or limit")

	// ErrShaderCompilation is returned by NewShaderModule when the WGSL
	// source fails to compile.
	ErrShaderCompilation = errors.New("pixelpipe: shader compilation failed")

	// ErrPipelineLayoutMismatch is returned when a shader's bind-group
	// layout does not match what its step derives from the plan.
	ErrPipelineLayoutMismatch = errors.New("pixelpipe: shader does not match derived bind-group layout")

	// ErrCpuFunctionContract is returned when a CpuFunction's result
	// violates its declared contract (data length != 4*width*height) or
	// the function itself returns an error.
	ErrCpuFunctionContract = errors.New("pixelpipe: CPU function contract violation")

	// ErrFinalStateArity is returned by Generate when the plan's final
	// processing state does not contain exactly one StepOutput.
	ErrFinalStateArity = errors.New("pixelpipe: final processing state must contain exactly one output")

	// ErrDevicePoll is returned when waiting on a device fence for a
	// submitted batch of commands fails or times out.
	ErrDevicePoll = errors.New("pixelpipe: device poll/mapping failed")
)

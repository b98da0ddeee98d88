package pixelpipe

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pixelpipe/internal/shaderc"
)

// AddressMode mirrors gputypes.AddressMode for the three sampler axes.
type AddressMode = gputypes.AddressMode

// FilterMode mirrors gputypes.FilterMode for sampler filtering.
type FilterMode = gputypes.FilterMode

// SamplerOptions describes a sampler to attach to a ShaderModule. AddressMode
// applies uniformly to all three axes (U/V/W) and Filter applies uniformly
// to mag, min, and mipmap filtering, per the module's invariant that a
// module's sampler (if any) is singular and uniform across axes — there is
// no way to construct a SamplerOptions that violates it.
type SamplerOptions struct {
	AddressMode AddressMode
	Filter      FilterMode
}

// ShaderModule holds a compiled compute shader and an optional sampler,
// keyed by a stable Id used throughout the pipeline-cache machinery.
// Two modules sharing an Id are assumed semantically equivalent by every
// cache that keys on it; ShaderModule itself does not enforce that.
type ShaderModule struct {
	Id      string
	module  hal.ShaderModule
	Sampler hal.Sampler // nil if no sampler was requested
}

// NewShaderModule compiles source for device and, if samplerOpts is
// non-nil, creates a matching sampler. The source is handed to the device
// as WGSL directly when the backend accepts it; otherwise it is translated
// to SPIR-V first via naga, mirroring the two shader-module construction
// paths seen across the backend package.
func NewShaderModule(id string, source string, device hal.Device, samplerOpts *SamplerOptions) (*ShaderModule, error) {
	mod, err := compileShaderModule(device, id, source)
	if err != nil {
		return nil, fmt.Errorf("%w: shader %q: %v", ErrShaderCompilation, id, err)
	}

	sm := &ShaderModule{Id: id, module: mod}

	if samplerOpts != nil {
		sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
			Label:        "pixelpipe_shader_" + id + "_sampler",
			AddressModeU: samplerOpts.AddressMode,
			AddressModeV: samplerOpts.AddressMode,
			AddressModeW: samplerOpts.AddressMode,
			MagFilter:    samplerOpts.Filter,
			MinFilter:    samplerOpts.Filter,
			MipmapFilter: samplerOpts.Filter,
		})
		if err != nil {
			return nil, fmt.Errorf("pixelpipe: create sampler for shader %q: %w", id, err)
		}
		sm.Sampler = sampler
	}

	return sm, nil
}

// HasSampler reports whether the module carries a sampler, which feeds
// directly into the derived PipelineCacheKey.
func (s *ShaderModule) HasSampler() bool { return s.Sampler != nil }

// shaderHandle returns the compiled hal.ShaderModule backing this module,
// for use by the pipeline builder.
func (s *ShaderModule) shaderHandle() hal.ShaderModule { return s.module }

// compileShaderModule delegates to internal/shaderc, which tries the
// WGSL-passthrough path first and falls back to SPIR-V via naga.
func compileShaderModule(device hal.Device, id, source string) (hal.ShaderModule, error) {
	return shaderc.Compile(device, id, source)
}

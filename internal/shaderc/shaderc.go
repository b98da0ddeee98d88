// Package shaderc compiles WGSL compute-shader sources for a hal.Device,
// preferring direct WGSL submission and falling back to SPIR-V via naga
// when the device rejects raw WGSL, mirroring backend/wgpu's gpu_fine.go
// shader-module construction. Which path a given device needs is probed
// once, on that device's first Compile call, and remembered for every
// later call rather than re-attempted each time.
package shaderc

import (
	"fmt"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// resolvedPaths remembers, per device, whether WGSL was rejected and the
// SPIR-V fallback is required. Devices are few and long-lived (one per
// Engine), so a process-wide map keyed by device identity is sufficient.
var resolvedPaths sync.Map // hal.Device -> bool (true = needs SPIR-V)

// Compile builds a hal.ShaderModule labeled id from source.
func Compile(device hal.Device, id, source string) (hal.ShaderModule, error) {
	if needsSPIRV, ok := resolvedPaths.Load(device); ok && needsSPIRV.(bool) {
		return compileSPIRV(device, id, source)
	}

	mod, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "pixelpipe_shader_" + id,
		Source: hal.ShaderSource{WGSL: source},
	})
	if err == nil {
		resolvedPaths.LoadOrStore(device, false)
		return mod, nil
	}

	resolvedPaths.Store(device, true)
	mod, compileErr := compileSPIRV(device, id, source)
	if compileErr != nil {
		return nil, fmt.Errorf("wgsl rejected (%v), naga compile also failed: %w", err, compileErr)
	}
	return mod, nil
}

func compileSPIRV(device hal.Device, id, source string) (hal.ShaderModule, error) {
	spirv, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("naga compile failed: %w", err)
	}
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "pixelpipe_shader_" + id,
		Source: hal.ShaderSource{SPIRV: bytesToSPIRVWords(spirv)},
	})
}

// bytesToSPIRVWords packs naga's little-endian byte stream into the
// uint32 words hal.ShaderSource's SPIR-V path expects.
func bytesToSPIRVWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		o := i * 4
		words[i] = uint32(b[o]) | uint32(b[o+1])<<8 | uint32(b[o+2])<<16 | uint32(b[o+3])<<24
	}
	return words
}

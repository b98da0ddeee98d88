// Package gpubackend bootstraps a compute-capable hal.Device/hal.Queue
// pair, grounded in the standalone Vulkan initialization path used by the
// GPU compute dispatcher: enumerate adapters, prefer a discrete or
// integrated GPU, open it with the feature/limit set the pipeline engine
// needs.
package gpubackend

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	_ "github.com/gogpu/wgpu/hal/vulkan" // registers the Vulkan backend via init()
)

// RequiredFeatures are the device features the pipeline engine depends
// on: texture binding arrays for multi-input GPU steps, and non-uniform
// indexing so a shader can select among them by runtime index.
const RequiredFeatures = gputypes.FeatureTextureBindingArray |
	gputypes.FeatureSampledTextureAndStorageBufferArrayNonUniformIndexing

// RequiredBindingArrayElements and RequiredStorageBufferBindingSize bound
// the device limits requested at Open, matching the engine's documented
// bootstrap requirements (>=1000 binding-array elements per stage, a
// storage buffer binding of at least 2 GiB).
const (
	RequiredBindingArrayElements     = 1000
	RequiredStorageBufferBindingSize = 2147483647
)

// Acquire enumerates Vulkan adapters, selects a discrete or integrated GPU
// (falling back to whatever is first), and opens it with the feature and
// limit set the engine requires.
func Acquire(ctx context.Context) (hal.Device, hal.Queue, hal.Instance, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, nil, nil, fmt.Errorf("vulkan backend not available")
	}

	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("no GPU adapters found")
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
			selected = &adapters[i]
			break
		}
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
		}
	}

	limits := gputypes.DefaultLimits()
	limits.MaxBindingArrayElementsPerShaderStage = RequiredBindingArrayElements
	limits.MaxStorageBufferBindingSize = RequiredStorageBufferBindingSize

	opened, err := selected.Adapter.Open(RequiredFeatures, limits)
	if err != nil {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("open device %q: %w", selected.Info.Name, err)
	}

	return opened.Device, opened.Queue, instance, nil
}

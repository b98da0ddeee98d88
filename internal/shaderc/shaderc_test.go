package shaderc

import (
	"fmt"
	"testing"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pixelpipe/internal/gpubackend/swdevice"
)

func TestCompileAcceptsWGSLDirectly(t *testing.T) {
	device, _ := swdevice.New()

	mod, err := Compile(device, "test_shader", "@compute @workgroup_size(1,1,1) fn main() {}")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if mod == nil {
		t.Fatal("Compile returned a nil shader module with no error")
	}
}

// wgslRejectingDevice rejects every WGSL CreateShaderModule call (as a
// backend requiring SPIR-V would) but otherwise behaves like the software
// device, so Compile's naga fallback path actually runs.
type wgslRejectingDevice struct {
	*swdevice.Device
	wgslAttempts int
}

func (d *wgslRejectingDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	if desc.Source.WGSL != "" {
		d.wgslAttempts++
		return nil, fmt.Errorf("wgslRejectingDevice: WGSL not supported")
	}
	return d.Device.CreateShaderModule(desc)
}

func TestCompileProbesOnceAndRemembersSPIRVPath(t *testing.T) {
	sw, _ := swdevice.New()
	device := &wgslRejectingDevice{Device: sw}

	const source = "@compute @workgroup_size(1,1,1) fn main() {}"

	if _, err := Compile(device, "shader_a", source); err != nil {
		t.Fatalf("first Compile: %v", err)
	}
	if device.wgslAttempts != 1 {
		t.Fatalf("expected exactly one WGSL probe attempt, got %d", device.wgslAttempts)
	}

	if _, err := Compile(device, "shader_b", source); err != nil {
		t.Fatalf("second Compile: %v", err)
	}
	if device.wgslAttempts != 1 {
		t.Fatalf("expected the second Compile call to skip the WGSL probe and go straight to SPIR-V, but WGSL was attempted again (total attempts=%d)", device.wgslAttempts)
	}
}

func TestBytesToSPIRVWordsLittleEndian(t *testing.T) {
	b := []byte{0x01, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff}
	words := bytesToSPIRVWords(b)
	if len(words) != 2 {
		t.Fatalf("len(words) = %d, want 2", len(words))
	}
	if words[0] != 1 {
		t.Errorf("words[0] = %#x, want 0x1", words[0])
	}
	if words[1] != 0xffffffff {
		t.Errorf("words[1] = %#x, want 0xffffffff", words[1])
	}
}

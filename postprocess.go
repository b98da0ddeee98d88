package pixelpipe

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// postProcess turns the single final StepOutput into packed RGBA8 bytes,
// taking the GPU or CPU path depending on where the data currently lives.
func (e *Engine) postProcess(final StepOutput) ([]byte, error) {
	if final.Kind == OutputGpu {
		return e.postProcessGpu(final.Texture, final.Width, final.Height)
	}
	return postProcessCpu(final.Data, final.Width, final.Height), nil
}

// postProcessGpu dispatches the bundled post-process shader against the
// final texture, copies its packed-u32 storage buffer into a mapped
// readback buffer, and returns the raw bytes.
func (e *Engine) postProcessGpu(tex hal.Texture, w, h uint32) ([]byte, error) {
	outSize := uint64(4) * uint64(w) * uint64(h)

	storageKey := BufferCacheKey{Size: outSize, Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc}
	storageBuf, err := e.bufferCache.GetOrCreate(storageKey, func() (hal.Buffer, error) {
		return e.device.CreateBuffer(&hal.BufferDescriptor{Label: "pixelpipe_post_process_storage", Size: outSize, Usage: storageKey.Usage})
	})
	if err != nil {
		return nil, fmt.Errorf("pixelpipe: create post-process storage buffer: %w", err)
	}

	view, err := e.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "pixelpipe_post_process_in_view"})
	if err != nil {
		return nil, fmt.Errorf("pixelpipe: create post-process input view: %w", err)
	}

	bindGroup, err := e.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "pixelpipe_post_process_bind",
		Layout: e.postProcessBindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{View: view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: storageBuf.NativeHandle(), Offset: 0, Size: outSize}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pixelpipe: create post-process bind group: %w", err)
	}

	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "pixelpipe_post_process"})
	if err != nil {
		return nil, fmt.Errorf("pixelpipe: create post-process encoder: %w", err)
	}
	if err := encoder.BeginEncoding("pixelpipe_post_process"); err != nil {
		return nil, fmt.Errorf("pixelpipe: begin post-process encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "pixelpipe_post_process_pass"})
	pass.SetPipeline(e.postProcessPipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch(ceilDiv(w, wgslWorkgroupSize), ceilDiv(h, wgslWorkgroupSize), 1)
	pass.End()

	readbackKey := BufferCacheKey{Size: outSize, Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst}
	readbackBuf, err := e.bufferCache.GetOrCreate(readbackKey, func() (hal.Buffer, error) {
		return e.device.CreateBuffer(&hal.BufferDescriptor{Label: "pixelpipe_post_process_readback", Size: outSize, Usage: readbackKey.Usage})
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("pixelpipe: create post-process readback buffer: %w", err)
	}

	encoder.CopyBufferToBuffer(storageBuf, readbackBuf, []hal.BufferCopy{{SrcOffset: 0, DstOffset: 0, Size: outSize}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("pixelpipe: end post-process encoding: %w", err)
	}

	pending := []hal.CommandBuffer{cmdBuf}
	if err := e.flush(&pending); err != nil {
		return nil, err
	}

	out := make([]byte, outSize)
	if err := e.queue.ReadBuffer(readbackBuf, 0, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDevicePoll, err)
	}

	return out, nil
}

// postProcessCpu quantizes an RGBA float32 buffer to packed RGBA8 bytes,
// splitting the pixel range into at most runtime.GOMAXPROCS(0) contiguous
// chunks and quantizing each chunk on its own goroutine.
func postProcessCpu(data []float32, w, h uint32) []byte {
	pixelCount := int(w) * int(h)
	out := make([]byte, 4*pixelCount)

	workers := runtime.GOMAXPROCS(0)
	if workers > pixelCount {
		workers = pixelCount
	}
	if workers < 1 {
		workers = 1
	}

	chunk := (pixelCount + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < pixelCount; start += chunk {
		end := start + chunk
		if end > pixelCount {
			end = pixelCount
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for p := start; p < end; p++ {
				for c := 0; c < 4; c++ {
					out[4*p+c] = quantizeChannel(data[4*p+c])
				}
			}
		}(start, end)
	}
	wg.Wait()

	return out
}

// quantizeChannel applies the saturating, truncating u8 quantization rule
// shared with the GPU post-process shader: clamp to [0,255] then truncate
// toward zero, not round.
func quantizeChannel(x float32) byte {
	v := x * 255.0
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return byte(v)
}

package swdevice

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// Queue is the software hal.Queue paired with Device. Submit replays each
// command buffer's recorded ops against the in-memory resources, so a
// buffer-to-buffer or texture-to-buffer copy actually moves bytes and a
// compute dispatch reaches Device.DispatchFunc if one is installed.
type Queue struct {
	device *Device
}

func (q *Queue) Submit(buffers []hal.CommandBuffer, fence hal.Fence, value uint64) error {
	for _, b := range buffers {
		cb, ok := b.(*CommandBuffer)
		if !ok {
			return fmt.Errorf("swdevice: not a *CommandBuffer")
		}
		for _, o := range cb.ops {
			switch {
			case o.dispatch != nil:
				if q.device.DispatchFunc != nil {
					q.device.DispatchFunc(&CommandBuffer{ops: []op{o}})
				}
			case o.copyBB != nil:
				c := o.copyBB
				copy(c.dst.data[c.dstOff:c.dstOff+c.size], c.src.data[c.srcOff:c.srcOff+c.size])
			case o.copyTB != nil:
				copyTextureToBuffer(o.copyTB)
			}
		}
	}
	if fence != nil {
		if f, ok := fence.(*Fence); ok {
			if value > f.value.Load() {
				f.value.Store(value)
			}
		}
	}
	return nil
}

// copyTextureToBuffer lays rows out with the destination's row pitch
// exactly like a real 256-byte row-pitch-aligned readback would: the
// texture is stored tightly (width*16 bytes per row of RGBA32F), and each
// row is written at the destination layout's padded bytes-per-row stride,
// leaving the padding bytes untouched.
func copyTextureToBuffer(c *copyTextureToBufferOp) {
	rowBytes := c.extent.Width * 16
	destRowPitch := c.layout.BytesPerRow
	if destRowPitch == 0 {
		destRowPitch = rowBytes
	}
	for row := uint32(0); row < c.extent.Height; row++ {
		srcOff := row * rowBytes
		dstOff := uint64(c.layout.Offset) + uint64(row)*uint64(destRowPitch)
		copy(c.dst.data[dstOff:dstOff+uint64(rowBytes)], c.src.data[srcOff:srcOff+rowBytes])
	}
}

func (q *Queue) ReadBuffer(buf hal.Buffer, offset uint64, dst []byte) error {
	b, ok := buf.(*Buffer)
	if !ok {
		return fmt.Errorf("swdevice: not a *Buffer")
	}
	copy(dst, b.data[offset:offset+uint64(len(dst))])
	return nil
}

func (q *Queue) WriteBuffer(buf hal.Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*Buffer)
	if !ok {
		return fmt.Errorf("swdevice: not a *Buffer")
	}
	copy(b.data[offset:], data)
	return nil
}

func (q *Queue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, extent *hal.Extent3D) error {
	t, ok := dst.Texture.(*Texture)
	if !ok {
		return fmt.Errorf("swdevice: not a *Texture")
	}
	rowBytes := extent.Width * 16
	srcRowPitch := layout.BytesPerRow
	if srcRowPitch == 0 {
		srcRowPitch = rowBytes
	}
	for row := uint32(0); row < extent.Height; row++ {
		srcOff := uint64(layout.Offset) + uint64(row)*uint64(srcRowPitch)
		dstOff := row * rowBytes
		copy(t.data[dstOff:dstOff+rowBytes], data[srcOff:srcOff+uint64(rowBytes)])
	}
	return nil
}

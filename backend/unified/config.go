package unified

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Config is the native handle passed to gfx.Open for the unified backend.
// Device and Queue come from an opened HAL adapter; the back buffer is the
// view the windowing layer renders into.
type Config struct {
	Device hal.Device
	Queue  hal.Queue

	// BackBuffer is the color view bound when a context selects the back
	// buffer. It may be replaced every frame with Adapter.SetBackBuffer.
	BackBuffer       hal.TextureView
	BackBufferFormat gputypes.TextureFormat
	Width, Height    uint32

	// DepthBuffer is the optional default depth-stencil view paired with
	// the back buffer.
	DepthBuffer hal.TextureView
	DepthFormat gputypes.TextureFormat

	// SampleCount is the sample count of every attachment. Zero means 1.
	SampleCount uint32

	// Limits are the limits the device was opened with. The zero value
	// selects gputypes.DefaultLimits.
	Limits gputypes.Limits
}

func (c *Config) limits() gputypes.Limits {
	if c.Limits == (gputypes.Limits{}) {
		return gputypes.DefaultLimits()
	}
	return c.Limits
}

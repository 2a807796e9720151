// Package unified implements the gfx backend for WebGPU-style devices
// driven through the github.com/gogpu/wgpu HAL.
//
// Importing the package registers the backend under gfx.BackendUnified.
// The native handle passed to gfx.Open is a *Config holding an opened HAL
// device and queue:
//
//	open, _ := adapter.Open(0, gputypes.DefaultLimits())
//	dev, err := gfx.Open(gfx.BackendUnified, &unified.Config{
//		Device:           open.Device,
//		Queue:            open.Queue,
//		BackBuffer:       view,
//		BackBufferFormat: gputypes.TextureFormatBGRA8Unorm,
//		Width:            800,
//		Height:           600,
//	})
//
// Render states are compiled into render pipelines, built on first use and
// kept in a bounded cache. Programs are WGSL compiled to SPIR-V; texture
// stage combiners have no equivalent and fall back to the program with a
// warning logged once.
package unified

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfx"
)

func init() {
	gfx.RegisterBackend(gfx.BackendUnified, func() gfx.Backend { return backend{} })
}

type backend struct{}

func (backend) Name() string { return gfx.BackendUnified }

func (backend) Open(native any, o gfx.OpenOptions) (gfx.Adapter, error) {
	cfg, ok := native.(*Config)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotConfig, native)
	}
	return New(cfg, o)
}

// SetLogger routes HAL logging through the gfx logger.
func (backend) SetLogger(l *slog.Logger) {
	hal.SetLogger(l)
}

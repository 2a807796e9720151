package unified

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfx"
)

var (
	// ErrNilDevice is returned by New when the config lacks a device or
	// queue.
	ErrNilDevice = errors.New("unified: nil device or queue")

	// ErrNotConfig is returned by the registered backend when the native
	// handle passed to gfx.Open is not a *Config.
	ErrNotConfig = errors.New("unified: native handle is not a *unified.Config")

	// ErrNoBackBuffer is wrapped when a pass targets the back buffer but no
	// back buffer view is set.
	ErrNoBackBuffer = errors.New("unified: no back buffer")
)

// halErr classifies a failed HAL call. Device loss is reported as
// gfx.ErrDeviceLost so the gfx.Device can enter recovery.
func halErr(call string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, hal.ErrDeviceLost) {
		return fmt.Errorf("unified: %s: %w: %w", call, gfx.ErrDeviceLost, err)
	}
	return fmt.Errorf("unified: %s: %w: %w", call, gfx.ErrNativeCall, err)
}

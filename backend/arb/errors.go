package arb

import (
	"errors"
	"fmt"

	"github.com/gogpu/gfx"
)

var (
	// ErrNilDevice is returned by New when no GL device is given.
	ErrNilDevice = errors.New("arb: nil device")

	// ErrNotDevice is returned by the registered backend when the native
	// handle passed to gfx.Open does not implement Device.
	ErrNotDevice = errors.New("arb: native handle is not an arb.Device")

	// ErrIncompleteFramebuffer is wrapped when a render target combination
	// is rejected by the driver.
	ErrIncompleteFramebuffer = errors.New("arb: incomplete framebuffer")
)

// glError converts a GL error code into an error.
func glError(call string, code uint32) error {
	switch code {
	case glNoError:
		return nil
	case glContextLost:
		return fmt.Errorf("arb: %s: %w", call, gfx.ErrDeviceLost)
	default:
		return fmt.Errorf("arb: %s: %w: GL error %#04x", call, gfx.ErrNativeCall, code)
	}
}

// check polls the GL error flag after a group of calls.
func (a *Adapter) check(call string) error {
	return glError(call, a.dev.GetError())
}

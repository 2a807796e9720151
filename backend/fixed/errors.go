package fixed

import (
	"errors"
	"fmt"

	"github.com/gogpu/gfx"
)

var (
	// ErrNilDevice is returned by New when no native device is given.
	ErrNilDevice = errors.New("fixed: nil device")

	// ErrNotDevice is returned by the registered backend when the native
	// handle passed to gfx.Open does not implement Device.
	ErrNotDevice = errors.New("fixed: native handle is not a fixed.Device")
)

// nativeErr classifies a failed native call. Device loss is passed through
// so the gfx.Device can enter recovery.
func nativeErr(call string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gfx.ErrDeviceLost) {
		return fmt.Errorf("fixed: %s: %w", call, err)
	}
	return fmt.Errorf("fixed: %s: %w: %w", call, gfx.ErrNativeCall, err)
}

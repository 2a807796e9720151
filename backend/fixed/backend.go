// Package fixed implements the gfx backend for fixed-function devices with
// optional programmable stages.
//
// Importing the package registers the backend under gfx.BackendFixed. The
// native handle passed to gfx.Open must implement Device:
//
//	import _ "github.com/gogpu/gfx/backend/fixed"
//
//	dev, err := gfx.Open(gfx.BackendFixed, nativeDevice)
//
// Render and texture stage deltas are recorded into native state blocks
// and cached, so a recurring state change costs a single call. Values the
// device cannot express fall back to the closest supported behavior with a
// warning logged once per cause.
package fixed

import (
	"fmt"

	"github.com/gogpu/gfx"
)

func init() {
	gfx.RegisterBackend(gfx.BackendFixed, func() gfx.Backend { return backend{} })
}

type backend struct{}

func (backend) Name() string { return gfx.BackendFixed }

func (backend) Open(native any, o gfx.OpenOptions) (gfx.Adapter, error) {
	dev, ok := native.(Device)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotDevice, native)
	}
	return New(dev, o)
}

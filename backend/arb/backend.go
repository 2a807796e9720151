// Package arb implements the gfx backend for GL contexts whose optional
// features come from ARB and EXT extensions.
//
// Importing the package registers the backend under gfx.BackendARB. The
// native handle passed to gfx.Open must implement Device; package glcall
// provides one over go-gl:
//
//	import (
//		_ "github.com/gogpu/gfx/backend/arb"
//		"github.com/gogpu/gfx/backend/arb/glcall"
//	)
//
//	gl, err := glcall.New(window.GetFramebufferSize)
//	dev, err := gfx.Open(gfx.BackendARB, gl)
//
// Texture stages map onto the combine environment of
// GL_ARB_texture_env_combine. Without it, stages fall back to the classic
// environment modes; features missing from the extension list fall back to
// the closest supported behavior with a warning logged once per cause.
package arb

import (
	"fmt"

	"github.com/gogpu/gfx"
)

func init() {
	gfx.RegisterBackend(gfx.BackendARB, func() gfx.Backend { return backend{} })
}

type backend struct{}

func (backend) Name() string { return gfx.BackendARB }

func (backend) Open(native any, o gfx.OpenOptions) (gfx.Adapter, error) {
	dev, ok := native.(Device)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotDevice, native)
	}
	return New(dev, o)
}

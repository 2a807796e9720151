package gfx

import (
	"fmt"
	"slices"
)

// MaxColorTargets is the largest number of simultaneous color targets.
const MaxColorTargets = 4

// Rect is a pixel rectangle. The zero Rect means "the whole target".
type Rect struct {
	X, Y, W, H uint32
}

// IsZero reports whether every field is zero.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Size is a width and height in pixels.
type Size struct {
	W, H uint32
}

// RenderTarget selects one image of a texture.
type RenderTarget struct {
	Texture TextureID
	Face    uint32
	Level   uint32
	Slice   uint32
}

// IsZero reports whether the target references no texture.
func (t RenderTarget) IsZero() bool {
	return t == RenderTarget{}
}

// RenderTargetSet is the color targets plus an optional depth-stencil
// target. An empty color list with a zero depth target selects the back
// buffer and its default depth buffer.
type RenderTargetSet struct {
	Colors []RenderTarget
	Depth  RenderTarget
}

// IsBackBuffer reports whether the set selects the back buffer.
func (s *RenderTargetSet) IsBackBuffer() bool {
	return len(s.Colors) == 0 && s.Depth.IsZero()
}

// Validate checks the set's structure. Color entries must reference a
// texture and there may be at most MaxColorTargets of them.
func (s *RenderTargetSet) Validate() error {
	if len(s.Colors) > MaxColorTargets {
		return fmt.Errorf("%w: %d color targets, max %d", ErrInvalidContext, len(s.Colors), MaxColorTargets)
	}
	for i, c := range s.Colors {
		if c.Texture == 0 {
			return fmt.Errorf("%w: color target %d is empty", ErrInvalidContext, i)
		}
	}
	return nil
}

// Equal reports whether both sets select the same images.
func (s *RenderTargetSet) Equal(o *RenderTargetSet) bool {
	return s.Depth == o.Depth && slices.Equal(s.Colors, o.Colors)
}

// Clone returns a copy that shares no memory with s.
func (s RenderTargetSet) Clone() RenderTargetSet {
	s.Colors = slices.Clone(s.Colors)
	return s
}

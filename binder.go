package gfx

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gfx/handle"
)

// Binder resolves render-target sets for an Adapter and reconciles the
// viewport and scissor against the bound target's dimensions.
type Binder struct {
	adapter  Adapter
	textures *handle.Table[*Texture]

	backBuffer bool
	size       Size
}

func newBinder(a Adapter, textures *handle.Table[*Texture]) Binder {
	return Binder{adapter: a, textures: textures, backBuffer: true}
}

// Bind binds next if it differs from prev or force is set. It reports
// whether the viewport must be re-applied because the targets changed.
func (b *Binder) Bind(prev, next *RenderTargetSet, force bool) (viewportMustRebind bool, err error) {
	if !force && prev.Equal(next) {
		return false, nil
	}

	colors := make([]BoundTarget, 0, len(next.Colors))
	for i, c := range next.Colors {
		tex, ok := b.textures.Lookup(handle.Handle(c.Texture))
		if !ok {
			return false, fmt.Errorf("%w: color target %d", ErrInvalidHandle, i)
		}
		colors = append(colors, BoundTarget{Texture: tex, Face: c.Face, Level: c.Level, Slice: c.Slice})
	}
	var depth *BoundTarget
	if !next.Depth.IsZero() {
		tex, ok := b.textures.Lookup(handle.Handle(next.Depth.Texture))
		if !ok {
			return false, fmt.Errorf("%w: depth target", ErrInvalidHandle)
		}
		depth = &BoundTarget{Texture: tex, Face: next.Depth.Face, Level: next.Depth.Level, Slice: next.Depth.Slice}
	}

	if err := b.adapter.BindTargets(colors, depth); err != nil {
		return false, err
	}

	switch {
	case len(colors) > 0:
		b.backBuffer, b.size = false, levelSize(colors[0])
	case depth != nil:
		b.backBuffer, b.size = false, levelSize(*depth)
	default:
		b.backBuffer = true
	}
	return true, nil
}

func levelSize(t BoundTarget) Size {
	return Size{
		W: max(t.Texture.Desc.Width>>t.Level, 1),
		H: max(t.Texture.Desc.Height>>t.Level, 1),
	}
}

// Size returns the pixel dimensions of the bound targets.
func (b *Binder) Size() Size {
	if b.backBuffer {
		return b.adapter.BackBufferSize()
	}
	return b.size
}

// ResolveViewport expands a zero viewport to the full target and clamps any
// other into the target. Clamping logs a warning.
func (b *Binder) ResolveViewport(vp Rect) Rect {
	return clampRect("viewport", vp, b.Size())
}

// ResolveScissor returns the viewport when scissor is zero and the clamped
// scissor otherwise.
func (b *Binder) ResolveScissor(scissor, viewport Rect) Rect {
	if scissor.IsZero() {
		return viewport
	}
	return clampRect("scissor", scissor, b.Size())
}

func clampRect(what string, r Rect, s Size) Rect {
	if r.IsZero() {
		return Rect{W: s.W, H: s.H}
	}
	c := Rect{X: min(r.X, s.W), Y: min(r.Y, s.H)}
	c.W = min(r.W, s.W-c.X)
	c.H = min(r.H, s.H-c.Y)
	if c != r {
		Logger().Warn("gfx: "+what+" clamped to target",
			slog.Any("requested", r),
			slog.Any("clamped", c),
			slog.Any("target", s))
	}
	return c
}

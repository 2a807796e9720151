package fixed

import (
	"encoding/binary"
	"log/slog"

	"github.com/gogpu/gfx"
)

type renderOp struct {
	state RenderStateType
	value uint32
}

type stageOp struct {
	stage uint32
	state TextureStageStateType
	value uint32
}

func nativeBool(v gfx.RenderStateValue) uint32 {
	if v == gfx.True {
		return 1
	}
	return 0
}

func fillMode(v gfx.RenderStateValue) uint32 {
	switch v {
	case gfx.FillPoint:
		return FillPoint
	case gfx.FillWireframe:
		return FillWireframe
	default:
		return FillSolid
	}
}

// cullMode folds the cull mode and the front face winding into the single
// native state, which names the culled winding.
func cullMode(cull, front gfx.RenderStateValue) uint32 {
	ccwFront := front != gfx.FrontCW
	switch cull {
	case gfx.CullBack:
		if ccwFront {
			return CullCW
		}
		return CullCCW
	case gfx.CullFront:
		if ccwFront {
			return CullCCW
		}
		return CullCW
	default:
		return CullNone
	}
}

// current returns the value d sets for s, or the effective device value
// when d leaves s alone.
func (a *Adapter) current(d *gfx.RenderStateDelta, s gfx.RenderState) (gfx.RenderStateValue, bool) {
	if v, ok := d.Get(s); ok {
		return v, true
	}
	return a.render.Get(s)
}

func (a *Adapter) stencilOp(v gfx.RenderStateValue) uint32 {
	if !a.caps.Has(gfx.CapStencilWrap) {
		switch v {
		case gfx.StencilIncrWrap:
			a.fallback.Warn("stencil-wrap", "fixed: wrapping stencil ops unsupported, using saturating ops")
			v = gfx.StencilIncrSat
		case gfx.StencilDecrWrap:
			a.fallback.Warn("stencil-wrap", "fixed: wrapping stencil ops unsupported, using saturating ops")
			v = gfx.StencilDecrSat
		}
	}
	return stencilOps[v]
}

func (a *Adapter) blendOp(v gfx.RenderStateValue) uint32 {
	switch v {
	case gfx.BlendOpMin, gfx.BlendOpMax:
		if !a.caps.Has(gfx.CapBlendMinMax) {
			a.fallback.Warn("blend-minmax", "fixed: min/max blending unsupported, using add", slog.String("op", v.String()))
			v = gfx.BlendOpAdd
		}
	case gfx.BlendOpSubtract, gfx.BlendOpRevSubtract:
		if !a.caps.Has(gfx.CapBlendSubtract) {
			a.fallback.Warn("blend-subtract", "fixed: subtractive blending unsupported, using add", slog.String("op", v.String()))
			v = gfx.BlendOpAdd
		}
	}
	return blendOps[v]
}

// translateRender lists the native calls for the specified changes in d.
func (a *Adapter) translateRender(d *gfx.RenderStateDelta) []renderOp {
	var ops []renderOp
	cullDone := false
	separate := false
	for s := range d.States() {
		v, ok := d.Get(s)
		if !ok {
			continue
		}
		switch s {
		case gfx.RSFillMode:
			ops = append(ops, renderOp{RSFillMode, fillMode(v)})
		case gfx.RSCullMode, gfx.RSFrontFace:
			if cullDone {
				continue
			}
			cullDone = true
			// The native cull mode folds in the winding. Until the cull slot
			// is known the winding is only tracked.
			cull, ok := a.current(d, gfx.RSCullMode)
			if !ok {
				continue
			}
			front, _ := a.current(d, gfx.RSFrontFace)
			ops = append(ops, renderOp{RSCullMode, cullMode(cull, front)})
		case gfx.RSScissorTest:
			ops = append(ops, renderOp{RSScissorTestEnable, nativeBool(v)})
		case gfx.RSMultisample:
			ops = append(ops, renderOp{RSMultisampleAntialias, nativeBool(v)})
		case gfx.RSDepthTest:
			ops = append(ops, renderOp{RSZEnable, nativeBool(v)})
		case gfx.RSDepthWrite:
			ops = append(ops, renderOp{RSZWriteEnable, nativeBool(v)})
		case gfx.RSDepthFunc:
			ops = append(ops, renderOp{RSZFunc, cmpFuncs[v]})
		case gfx.RSStencilTest:
			ops = append(ops, renderOp{RSStencilEnable, nativeBool(v)})
		case gfx.RSStencilFunc:
			ops = append(ops, renderOp{RSStencilFunc, cmpFuncs[v]})
		case gfx.RSStencilFail:
			ops = append(ops, renderOp{RSStencilFail, a.stencilOp(v)})
		case gfx.RSStencilDepthFail:
			ops = append(ops, renderOp{RSStencilZFail, a.stencilOp(v)})
		case gfx.RSStencilPass:
			ops = append(ops, renderOp{RSStencilPass, a.stencilOp(v)})
		case gfx.RSStencilRef:
			ops = append(ops, renderOp{RSStencilRef, uint32(v)})
		case gfx.RSBlend:
			ops = append(ops, renderOp{RSAlphaBlendEnable, nativeBool(v)})
		case gfx.RSBlendSrc:
			ops = append(ops, renderOp{RSSrcBlend, blendFactors[v]})
		case gfx.RSBlendDst:
			ops = append(ops, renderOp{RSDestBlend, blendFactors[v]})
		case gfx.RSBlendOp:
			ops = append(ops, renderOp{RSBlendOp, a.blendOp(v)})
		case gfx.RSBlendSrcAlpha, gfx.RSBlendDstAlpha, gfx.RSBlendOpAlpha:
			if !a.caps.Has(gfx.CapSeparateBlend) {
				a.fallback.Warn("separate-blend", "fixed: separate alpha blending unsupported, alpha follows color")
				continue
			}
			separate = true
			switch s {
			case gfx.RSBlendSrcAlpha:
				ops = append(ops, renderOp{RSSrcBlendAlpha, blendFactors[v]})
			case gfx.RSBlendDstAlpha:
				ops = append(ops, renderOp{RSDestBlendAlpha, blendFactors[v]})
			default:
				ops = append(ops, renderOp{RSBlendOpAlpha, a.blendOp(v)})
			}
		}
	}
	if separate {
		ops = append(ops, renderOp{RSSeparateAlphaBlendEnable, 1})
	}
	return ops
}

func (a *Adapter) textureOp(v gfx.TextureStateValue) uint32 {
	switch v {
	case gfx.TexOpDot3:
		if !a.caps.Has(gfx.CapDot3) {
			a.fallback.Warn("dot3", "fixed: dot3 combiner unsupported, selecting first operand")
			v = gfx.TexOpSelectArg0
		}
	case gfx.TexOpLerp:
		if !a.caps.Has(gfx.CapThreeOperandCombiner) {
			a.fallback.Warn("three-operand", "fixed: three-operand combiner unsupported, using modulate")
			v = gfx.TexOpModulate
		}
	}
	return textureOps[v]
}

func (a *Adapter) textureArg(v gfx.TextureStateValue) uint32 {
	if (v == gfx.TexArgConstant || v == gfx.TexArgConstantAlpha) && !a.caps.Has(gfx.CapPerStageConstant) {
		a.fallback.Warn("per-stage-constant", "fixed: per-stage constants unsupported, using texture factor")
		return TATFactor
	}
	return textureArgs[v]
}

// translateStages lists the native calls for the specified changes in the
// first n stages of d.
func (a *Adapter) translateStages(d *gfx.TextureStateDelta, n int) []stageOp {
	var ops []stageOp
	for stage, s := range d.States() {
		if stage >= n {
			continue
		}
		v, ok := d.Get(stage, s)
		if !ok {
			continue
		}
		var value uint32
		switch {
		case s.IsOp():
			value = a.textureOp(v)
		case (s == gfx.TSColorArg2 || s == gfx.TSAlphaArg2) && !a.caps.Has(gfx.CapThreeOperandCombiner):
			// No native slot for a third operand.
			continue
		default:
			value = a.textureArg(v)
		}
		ops = append(ops, stageOp{uint32(stage), textureStageStates[s], value})
	}
	return ops
}

func renderKey(ops []renderOp) string {
	buf := make([]byte, 0, 1+len(ops)*4)
	buf = append(buf, 'r')
	for _, op := range ops {
		buf = binary.AppendUvarint(buf, uint64(op.state))
		buf = binary.AppendUvarint(buf, uint64(op.value))
	}
	return string(buf)
}

func stageKey(ops []stageOp) string {
	buf := make([]byte, 0, 1+len(ops)*5)
	buf = append(buf, 't')
	for _, op := range ops {
		buf = binary.AppendUvarint(buf, uint64(op.stage))
		buf = binary.AppendUvarint(buf, uint64(op.state))
		buf = binary.AppendUvarint(buf, uint64(op.value))
	}
	return string(buf)
}

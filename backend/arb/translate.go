package arb

import (
	"log/slog"

	"github.com/gogpu/gfx"
)

var defaults = gfx.DefaultRenderStates()

// current returns the value d sets for s, else the effective device value,
// else the pipeline default. GL packs several slots into one call and
// needs a value for each.
func (a *Adapter) current(d *gfx.RenderStateDelta, s gfx.RenderState) gfx.RenderStateValue {
	if v, ok := d.Get(s); ok {
		return v
	}
	if v, ok := a.render.Get(s); ok {
		return v
	}
	v, _ := defaults.Get(s)
	return v
}

// anySet reports whether d sets a value for any of states.
func anySet(d *gfx.RenderStateDelta, states ...gfx.RenderState) bool {
	for _, s := range states {
		if _, ok := d.Get(s); ok {
			return true
		}
	}
	return false
}

func (a *Adapter) toggle(capability uint32, v gfx.RenderStateValue) {
	if v == gfx.True {
		a.dev.Enable(capability)
	} else {
		a.dev.Disable(capability)
	}
}

func (a *Adapter) stencilOp(v gfx.RenderStateValue) uint32 {
	if !a.caps.Has(gfx.CapStencilWrap) {
		switch v {
		case gfx.StencilIncrWrap:
			a.fallback.Warn("stencil-wrap", "arb: "+extStencilWrap+" missing, using saturating ops")
			v = gfx.StencilIncrSat
		case gfx.StencilDecrWrap:
			a.fallback.Warn("stencil-wrap", "arb: "+extStencilWrap+" missing, using saturating ops")
			v = gfx.StencilDecrSat
		}
	}
	return stencilOps[v]
}

func (a *Adapter) blendEquation(v gfx.RenderStateValue) uint32 {
	switch v {
	case gfx.BlendOpMin, gfx.BlendOpMax:
		if !a.caps.Has(gfx.CapBlendMinMax) {
			a.fallback.Warn("blend-minmax", "arb: "+extBlendMinMax+" missing, using add", slog.String("op", v.String()))
			v = gfx.BlendOpAdd
		}
	case gfx.BlendOpSubtract, gfx.BlendOpRevSubtract:
		if !a.caps.Has(gfx.CapBlendSubtract) {
			a.fallback.Warn("blend-subtract", "arb: "+extBlendSubtract+" missing, using add", slog.String("op", v.String()))
			v = gfx.BlendOpAdd
		}
	}
	return blendEquations[v]
}

// applyRender issues the GL calls for the specified changes in d. Slots
// sharing one GL call are issued together using the current values of the
// others.
func (a *Adapter) applyRender(d *gfx.RenderStateDelta) {
	if v, ok := d.Get(gfx.RSFillMode); ok {
		mode := glFill
		switch v {
		case gfx.FillPoint:
			mode = glPoint
		case gfx.FillWireframe:
			mode = glLine
		}
		a.dev.PolygonMode(glFrontAndBack, mode)
	}
	if v, ok := d.Get(gfx.RSCullMode); ok {
		switch v {
		case gfx.CullNone:
			a.dev.Disable(glCullFace)
		case gfx.CullFront:
			a.dev.Enable(glCullFace)
			a.dev.CullFace(glFront)
		default:
			a.dev.Enable(glCullFace)
			a.dev.CullFace(glBack)
		}
	}
	if v, ok := d.Get(gfx.RSFrontFace); ok {
		if v == gfx.FrontCW {
			a.dev.FrontFace(glCW)
		} else {
			a.dev.FrontFace(glCCW)
		}
	}
	if v, ok := d.Get(gfx.RSScissorTest); ok {
		a.toggle(glScissorTest, v)
	}
	if v, ok := d.Get(gfx.RSMultisample); ok {
		a.toggle(glMultisample, v)
	}

	if v, ok := d.Get(gfx.RSDepthTest); ok {
		a.toggle(glDepthTest, v)
	}
	if v, ok := d.Get(gfx.RSDepthWrite); ok {
		a.dev.DepthMask(v == gfx.True)
	}
	if v, ok := d.Get(gfx.RSDepthFunc); ok {
		a.dev.DepthFunc(cmpFuncs[v])
	}

	if v, ok := d.Get(gfx.RSStencilTest); ok {
		a.toggle(glStencilTest, v)
	}
	if anySet(d, gfx.RSStencilFunc, gfx.RSStencilRef) {
		a.dev.StencilFunc(cmpFuncs[a.current(d, gfx.RSStencilFunc)], int32(a.current(d, gfx.RSStencilRef)), 0xFF)
	}
	if anySet(d, gfx.RSStencilFail, gfx.RSStencilDepthFail, gfx.RSStencilPass) {
		a.dev.StencilOp(
			a.stencilOp(a.current(d, gfx.RSStencilFail)),
			a.stencilOp(a.current(d, gfx.RSStencilDepthFail)),
			a.stencilOp(a.current(d, gfx.RSStencilPass)),
		)
	}

	if v, ok := d.Get(gfx.RSBlend); ok {
		a.toggle(glBlend, v)
	}
	a.applyBlend(d)
}

func (a *Adapter) applyBlend(d *gfx.RenderStateDelta) {
	separate := a.caps.Has(gfx.CapSeparateBlend)
	if !separate && anySet(d, gfx.RSBlendSrcAlpha, gfx.RSBlendDstAlpha, gfx.RSBlendOpAlpha) {
		a.fallback.Warn("separate-blend", "arb: "+extBlendFuncSeparate+" missing, alpha follows color")
	}

	if separate && anySet(d, gfx.RSBlendSrc, gfx.RSBlendDst, gfx.RSBlendSrcAlpha, gfx.RSBlendDstAlpha) {
		a.dev.BlendFuncSeparate(
			blendFactors[a.current(d, gfx.RSBlendSrc)],
			blendFactors[a.current(d, gfx.RSBlendDst)],
			blendFactors[a.current(d, gfx.RSBlendSrcAlpha)],
			blendFactors[a.current(d, gfx.RSBlendDstAlpha)],
		)
	} else if !separate && anySet(d, gfx.RSBlendSrc, gfx.RSBlendDst) {
		a.dev.BlendFunc(blendFactors[a.current(d, gfx.RSBlendSrc)], blendFactors[a.current(d, gfx.RSBlendDst)])
	}

	if separate && anySet(d, gfx.RSBlendOp, gfx.RSBlendOpAlpha) {
		a.dev.BlendEquationSeparate(
			a.blendEquation(a.current(d, gfx.RSBlendOp)),
			a.blendEquation(a.current(d, gfx.RSBlendOpAlpha)),
		)
	} else if !separate && anySet(d, gfx.RSBlendOp) {
		a.dev.BlendEquation(a.blendEquation(a.current(d, gfx.RSBlendOp)))
	}
}

// combiner names the GL environment parameters of one channel.
type combiner struct {
	op         gfx.TextureState
	args       [3]gfx.TextureState
	combine    uint32
	scale      uint32
	source0    uint32
	operand0   uint32
	srcOperand uint32 // GL_SRC_COLOR or GL_SRC_ALPHA
}

var (
	colorCombiner = combiner{
		op:         gfx.TSColorOp,
		args:       [3]gfx.TextureState{gfx.TSColorArg0, gfx.TSColorArg1, gfx.TSColorArg2},
		combine:    glCombineRGB,
		scale:      glRGBScale,
		source0:    glSource0RGB,
		operand0:   glOperand0RGB,
		srcOperand: glSrcColor,
	}
	alphaCombiner = combiner{
		op:         gfx.TSAlphaOp,
		args:       [3]gfx.TextureState{gfx.TSAlphaArg0, gfx.TSAlphaArg1, gfx.TSAlphaArg2},
		combine:    glCombineAlpha,
		scale:      glAlphaScale,
		source0:    glSource0Alpha,
		operand0:   glOperand0Alpha,
		srcOperand: glSrcAlpha,
	}
)

// combineMode maps a combiner operation to the GL combine function and
// scale.
func (a *Adapter) combineMode(v gfx.TextureStateValue, alpha bool) (mode uint32, scale int32) {
	switch v {
	case gfx.TexOpSelectArg0, gfx.TexOpSelectArg1:
		return glReplace, 1
	case gfx.TexOpModulate:
		return glModulate, 1
	case gfx.TexOpModulate2X:
		return glModulate, 2
	case gfx.TexOpModulate4X:
		return glModulate, 4
	case gfx.TexOpAdd:
		return glAdd, 1
	case gfx.TexOpAddSigned:
		return glAddSigned, 1
	case gfx.TexOpSubtract:
		return glSubtract, 1
	case gfx.TexOpLerp:
		return glInterpolate, 1
	case gfx.TexOpDot3:
		if alpha {
			// The alpha channel receives the dot product only through the
			// RGBA variant on the color channel.
			return glReplace, 1
		}
		if !a.caps.Has(gfx.CapDot3) {
			a.fallback.Warn("dot3", "arb: "+extTextureEnvDot3+" missing, selecting first operand")
			return glReplace, 1
		}
		return glDot3RGB, 1
	default:
		return glModulate, 1
	}
}

// argSlot returns the GL source index that operand i feeds for op. GL
// replace reads only source 0, so selecting the second operand swaps the
// first two.
func argSlot(op gfx.TextureStateValue, i int) uint32 {
	if op == gfx.TexOpSelectArg1 && i < 2 {
		return uint32(1 - i)
	}
	return uint32(i)
}

func (a *Adapter) envArg(c combiner, op gfx.TextureStateValue, i int, v gfx.TextureStateValue) {
	slot := argSlot(op, i)
	a.dev.TexEnvi(glTextureEnv, c.source0+slot, int32(envSources[v]))
	a.dev.TexEnvi(glTextureEnv, c.operand0+slot, int32(c.srcOperand))
}

// applyCombiner issues the changes of one channel of stage. The merged
// effective block already holds d.
func (a *Adapter) applyCombiner(d *gfx.TextureStateDelta, stage int, c combiner) {
	if v, ok := d.Get(stage, c.op); ok {
		if c.op == gfx.TSColorOp {
			a.setStageEnabled(stage, v != gfx.TexOpDisable)
		}
		if v == gfx.TexOpDisable {
			return
		}
		mode, scale := a.combineMode(v, c.op == gfx.TSAlphaOp)
		a.dev.TexEnvi(glTextureEnv, c.combine, int32(mode))
		a.dev.TexEnvi(glTextureEnv, c.scale, scale)
		// The operand order depends on the operation.
		for i, s := range c.args {
			if av, ok := a.stages.Get(stage, s); ok {
				a.envArg(c, v, i, av)
			}
		}
		return
	}
	op, _ := a.stages.Get(stage, c.op)
	for i, s := range c.args {
		if av, ok := d.Get(stage, s); ok {
			a.envArg(c, op, i, av)
		}
	}
}

// legacyMode maps a color operation to a classic environment mode for
// contexts without the combine extension.
func (a *Adapter) legacyMode(v gfx.TextureStateValue) uint32 {
	switch v {
	case gfx.TexOpModulate:
		return glModulate
	case gfx.TexOpSelectArg0:
		return glReplace
	case gfx.TexOpAdd:
		return glAdd
	case gfx.TexOpLerp:
		a.fallback.Warn("three-operand", "arb: "+extTextureEnvCombine+" missing, three-operand combiner replaced by modulate")
		return glModulate
	default:
		a.fallback.Warn("texture-combine", "arb: "+extTextureEnvCombine+" missing, combiner replaced by modulate",
			slog.String("op", v.String()))
		return glModulate
	}
}

// stageHasWork reports whether d sets any value in stage.
func stageHasWork(d *gfx.TextureStateDelta, stage int) bool {
	if !d.StageChanged(stage) {
		return false
	}
	for s := range gfx.NumTextureStates {
		if _, ok := d.Get(stage, s); ok {
			return true
		}
	}
	return false
}

// applyStages issues the texture environment calls for the first n stages.
func (a *Adapter) applyStages(d *gfx.TextureStateDelta, n int) {
	a.stages.Merge(*d)
	combine := a.caps.Has(gfx.CapTextureCombine)
	for stage := range n {
		if !stageHasWork(d, stage) {
			continue
		}
		a.dev.ActiveTexture(glTexture0 + uint32(stage))
		if !combine {
			if v, ok := d.Get(stage, gfx.TSColorOp); ok {
				a.setStageEnabled(stage, v != gfx.TexOpDisable)
				if v != gfx.TexOpDisable {
					a.dev.TexEnvi(glTextureEnv, glTextureEnvMode, int32(a.legacyMode(v)))
				}
			}
			continue
		}
		if !a.envCombine[stage] {
			a.dev.TexEnvi(glTextureEnv, glTextureEnvMode, int32(glCombine))
			a.envCombine[stage] = true
		}
		a.applyCombiner(d, stage, colorCombiner)
		a.applyCombiner(d, stage, alphaCombiner)
	}
}

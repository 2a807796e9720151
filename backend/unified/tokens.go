package unified

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfx"
)

var compareFuncs = [...]gputypes.CompareFunction{
	gfx.CmpNever:        gputypes.CompareFunctionNever,
	gfx.CmpLess:         gputypes.CompareFunctionLess,
	gfx.CmpEqual:        gputypes.CompareFunctionEqual,
	gfx.CmpLessEqual:    gputypes.CompareFunctionLessEqual,
	gfx.CmpGreater:      gputypes.CompareFunctionGreater,
	gfx.CmpNotEqual:     gputypes.CompareFunctionNotEqual,
	gfx.CmpGreaterEqual: gputypes.CompareFunctionGreaterEqual,
	gfx.CmpAlways:       gputypes.CompareFunctionAlways,
}

var stencilOps = [...]hal.StencilOperation{
	gfx.StencilKeep:     hal.StencilOperationKeep,
	gfx.StencilZero:     hal.StencilOperationZero,
	gfx.StencilReplace:  hal.StencilOperationReplace,
	gfx.StencilIncrSat:  hal.StencilOperationIncrementClamp,
	gfx.StencilDecrSat:  hal.StencilOperationDecrementClamp,
	gfx.StencilInvert:   hal.StencilOperationInvert,
	gfx.StencilIncrWrap: hal.StencilOperationIncrementWrap,
	gfx.StencilDecrWrap: hal.StencilOperationDecrementWrap,
}

var blendFactors = [...]gputypes.BlendFactor{
	gfx.BlendZero:        gputypes.BlendFactorZero,
	gfx.BlendOne:         gputypes.BlendFactorOne,
	gfx.BlendSrcColor:    gputypes.BlendFactorSrc,
	gfx.BlendInvSrcColor: gputypes.BlendFactorOneMinusSrc,
	gfx.BlendSrcAlpha:    gputypes.BlendFactorSrcAlpha,
	gfx.BlendInvSrcAlpha: gputypes.BlendFactorOneMinusSrcAlpha,
	gfx.BlendDstColor:    gputypes.BlendFactorDst,
	gfx.BlendInvDstColor: gputypes.BlendFactorOneMinusDst,
	gfx.BlendDstAlpha:    gputypes.BlendFactorDstAlpha,
	gfx.BlendInvDstAlpha: gputypes.BlendFactorOneMinusDstAlpha,
	gfx.BlendSrcAlphaSat: gputypes.BlendFactorSrcAlphaSaturated,
	gfx.BlendFactor:      gputypes.BlendFactorConstant,
	gfx.BlendInvFactor:   gputypes.BlendFactorOneMinusConstant,
}

var blendOps = [...]gputypes.BlendOperation{
	gfx.BlendOpAdd:         gputypes.BlendOperationAdd,
	gfx.BlendOpSubtract:    gputypes.BlendOperationSubtract,
	gfx.BlendOpRevSubtract: gputypes.BlendOperationReverseSubtract,
	gfx.BlendOpMin:         gputypes.BlendOperationMin,
	gfx.BlendOpMax:         gputypes.BlendOperationMax,
}

var cullModes = [...]gputypes.CullMode{
	gfx.CullNone:  gputypes.CullModeNone,
	gfx.CullFront: gputypes.CullModeFront,
	gfx.CullBack:  gputypes.CullModeBack,
}

var frontFaces = [...]gputypes.FrontFace{
	gfx.FrontCCW: gputypes.FrontFaceCCW,
	gfx.FrontCW:  gputypes.FrontFaceCW,
}

var topologies = [...]gputypes.PrimitiveTopology{
	gfx.PointList:     gputypes.PrimitiveTopologyPointList,
	gfx.LineList:      gputypes.PrimitiveTopologyLineList,
	gfx.LineStrip:     gputypes.PrimitiveTopologyLineStrip,
	gfx.TriangleList:  gputypes.PrimitiveTopologyTriangleList,
	gfx.TriangleStrip: gputypes.PrimitiveTopologyTriangleStrip,
}

// indexFormat returns the index format of a buffer descriptor. Anything
// other than 32-bit indices is read as 16-bit.
func indexFormat(f gputypes.IndexFormat) gputypes.IndexFormat {
	if f == gputypes.IndexFormatUint32 {
		return f
	}
	return gputypes.IndexFormatUint16
}

// textureUsage returns the usage a texture is created with.
func textureUsage(desc *gfx.TextureDesc) gputypes.TextureUsage {
	switch {
	case desc.Format.IsDepthStencil():
		return gputypes.TextureUsageRenderAttachment
	case desc.RenderTarget:
		return gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopyDst
	default:
		return gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst
	}
}

package fixed

import "github.com/gogpu/gfx"

// RenderStateType identifies a native render state.
type RenderStateType uint32

// Native render states.
const (
	RSZEnable                  RenderStateType = 7
	RSFillMode                 RenderStateType = 8
	RSZWriteEnable             RenderStateType = 14
	RSSrcBlend                 RenderStateType = 19
	RSDestBlend                RenderStateType = 20
	RSCullMode                 RenderStateType = 22
	RSZFunc                    RenderStateType = 23
	RSAlphaBlendEnable         RenderStateType = 27
	RSStencilEnable            RenderStateType = 52
	RSStencilFail              RenderStateType = 53
	RSStencilZFail             RenderStateType = 54
	RSStencilPass              RenderStateType = 55
	RSStencilFunc              RenderStateType = 56
	RSStencilRef               RenderStateType = 57
	RSTextureFactor            RenderStateType = 60
	RSMultisampleAntialias     RenderStateType = 161
	RSBlendOp                  RenderStateType = 171
	RSScissorTestEnable        RenderStateType = 174
	RSSeparateAlphaBlendEnable RenderStateType = 206
	RSSrcBlendAlpha            RenderStateType = 207
	RSDestBlendAlpha           RenderStateType = 208
	RSBlendOpAlpha             RenderStateType = 209
)

// TextureStageStateType identifies a native texture stage state.
type TextureStageStateType uint32

// Native texture stage states. Arg1 and Arg2 are the two classic operands;
// Arg0 is the third operand used by three-operand combiners.
const (
	TSSColorOp   TextureStageStateType = 1
	TSSColorArg1 TextureStageStateType = 2
	TSSColorArg2 TextureStageStateType = 3
	TSSAlphaOp   TextureStageStateType = 4
	TSSAlphaArg1 TextureStageStateType = 5
	TSSAlphaArg2 TextureStageStateType = 6
	TSSColorArg0 TextureStageStateType = 26
	TSSAlphaArg0 TextureStageStateType = 27
	TSSConstant  TextureStageStateType = 32
)

// Native fill modes.
const (
	FillPoint     uint32 = 1
	FillWireframe uint32 = 2
	FillSolid     uint32 = 3
)

// Native cull modes name the winding that is culled.
const (
	CullNone uint32 = 1
	CullCW   uint32 = 2
	CullCCW  uint32 = 3
)

// Native texture operations.
const (
	TopDisable     uint32 = 1
	TopSelectArg1  uint32 = 2
	TopSelectArg2  uint32 = 3
	TopModulate    uint32 = 4
	TopModulate2X  uint32 = 5
	TopModulate4X  uint32 = 6
	TopAdd         uint32 = 7
	TopAddSigned   uint32 = 8
	TopSubtract    uint32 = 10
	TopDotProduct3 uint32 = 24
	TopLerp        uint32 = 26
)

// Native texture operands.
const (
	TADiffuse  uint32 = 0
	TACurrent  uint32 = 1
	TATexture  uint32 = 2
	TATFactor  uint32 = 3
	TAConstant uint32 = 6
)

// PrimitiveType is a native primitive topology.
type PrimitiveType uint32

// Native primitive topologies.
const (
	PTPointList     PrimitiveType = 1
	PTLineList      PrimitiveType = 2
	PTLineStrip     PrimitiveType = 3
	PTTriangleList  PrimitiveType = 4
	PTTriangleStrip PrimitiveType = 5
)

// Format is a native surface format.
type Format uint32

// Native surface formats.
const (
	FmtUnknown  Format = 0
	FmtA8R8G8B8 Format = 21
	FmtA8B8G8R8 Format = 32
	FmtL8       Format = 50
	FmtD24S8    Format = 75
	FmtD32F     Format = 82
	FmtIndex16  Format = 101
	FmtIndex32  Format = 102
)

// Usage flags for created surfaces.
type Usage uint32

// Surface usages.
const (
	UsageRenderTarget Usage = 0x1
	UsageDepthStencil Usage = 0x2
)

// Capability bits reported by NativeCaps.
const (
	TexOpCapsDotProduct3 uint32 = 0x00800000
	TexOpCapsLerp        uint32 = 0x02000000

	StencilCapsIncr uint32 = 0x40
	StencilCapsDecr uint32 = 0x80

	MiscCapsBlendOp            uint32 = 0x00000800
	MiscCapsPerStageConstant   uint32 = 0x00008000
	MiscCapsSeparateAlphaBlend uint32 = 0x00020000
)

var cmpFuncs = [...]uint32{
	gfx.CmpNever:        1,
	gfx.CmpLess:         2,
	gfx.CmpEqual:        3,
	gfx.CmpLessEqual:    4,
	gfx.CmpGreater:      5,
	gfx.CmpNotEqual:     6,
	gfx.CmpGreaterEqual: 7,
	gfx.CmpAlways:       8,
}

var stencilOps = [...]uint32{
	gfx.StencilKeep:     1,
	gfx.StencilZero:     2,
	gfx.StencilReplace:  3,
	gfx.StencilIncrSat:  4,
	gfx.StencilDecrSat:  5,
	gfx.StencilInvert:   6,
	gfx.StencilIncrWrap: 7,
	gfx.StencilDecrWrap: 8,
}

var blendFactors = [...]uint32{
	gfx.BlendZero:        1,
	gfx.BlendOne:         2,
	gfx.BlendSrcColor:    3,
	gfx.BlendInvSrcColor: 4,
	gfx.BlendSrcAlpha:    5,
	gfx.BlendInvSrcAlpha: 6,
	gfx.BlendDstAlpha:    7,
	gfx.BlendInvDstAlpha: 8,
	gfx.BlendDstColor:    9,
	gfx.BlendInvDstColor: 10,
	gfx.BlendSrcAlphaSat: 11,
	gfx.BlendFactor:      14,
	gfx.BlendInvFactor:   15,
}

var blendOps = [...]uint32{
	gfx.BlendOpAdd:         1,
	gfx.BlendOpSubtract:    2,
	gfx.BlendOpRevSubtract: 3,
	gfx.BlendOpMin:         4,
	gfx.BlendOpMax:         5,
}

var textureOps = [...]uint32{
	gfx.TexOpDisable:    TopDisable,
	gfx.TexOpSelectArg0: TopSelectArg1,
	gfx.TexOpSelectArg1: TopSelectArg2,
	gfx.TexOpModulate:   TopModulate,
	gfx.TexOpModulate2X: TopModulate2X,
	gfx.TexOpModulate4X: TopModulate4X,
	gfx.TexOpAdd:        TopAdd,
	gfx.TexOpAddSigned:  TopAddSigned,
	gfx.TexOpSubtract:   TopSubtract,
	gfx.TexOpDot3:       TopDotProduct3,
	gfx.TexOpLerp:       TopLerp,
}

var textureArgs = [...]uint32{
	gfx.TexArgCurrent:       TACurrent,
	gfx.TexArgTexture:       TATexture,
	gfx.TexArgConstant:      TAConstant,
	gfx.TexArgDiffuse:       TADiffuse,
	gfx.TexArgFactor:        TATFactor,
	gfx.TexArgCurrentAlpha:  TACurrent,
	gfx.TexArgTextureAlpha:  TATexture,
	gfx.TexArgConstantAlpha: TAConstant,
	gfx.TexArgDiffuseAlpha:  TADiffuse,
	gfx.TexArgFactorAlpha:   TATFactor,
}

// Our operand order is arg0, arg1, arg2; natively the third operand lives
// in Arg0.
var textureStageStates = [gfx.NumTextureStates]TextureStageStateType{
	gfx.TSColorOp:   TSSColorOp,
	gfx.TSColorArg0: TSSColorArg1,
	gfx.TSColorArg1: TSSColorArg2,
	gfx.TSColorArg2: TSSColorArg0,
	gfx.TSAlphaOp:   TSSAlphaOp,
	gfx.TSAlphaArg0: TSSAlphaArg1,
	gfx.TSAlphaArg1: TSSAlphaArg2,
	gfx.TSAlphaArg2: TSSAlphaArg0,
}

var primitiveTypes = [...]PrimitiveType{
	gfx.PointList:     PTPointList,
	gfx.LineList:      PTLineList,
	gfx.LineStrip:     PTLineStrip,
	gfx.TriangleList:  PTTriangleList,
	gfx.TriangleStrip: PTTriangleStrip,
}

// primitiveCount converts a vertex count to the primitive count the native
// draw calls take.
func primitiveCount(p gfx.Primitive, vertices uint32) uint32 {
	switch p {
	case gfx.LineList:
		return vertices / 2
	case gfx.LineStrip:
		if vertices < 2 {
			return 0
		}
		return vertices - 1
	case gfx.TriangleList:
		return vertices / 3
	case gfx.TriangleStrip:
		if vertices < 3 {
			return 0
		}
		return vertices - 2
	default:
		return vertices
	}
}

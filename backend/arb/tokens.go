package arb

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gfx"
)

// GL enumerants used by the adapter. Values match the GL headers so a
// Device implementation can pass them through unchanged.
const (
	glNoError          uint32 = 0
	glInvalidOperation uint32 = 0x0502
	glOutOfMemory      uint32 = 0x0505
	glContextLost      uint32 = 0x0507

	glPoints        uint32 = 0x0000
	glLines         uint32 = 0x0001
	glLineStrip     uint32 = 0x0003
	glTriangles     uint32 = 0x0004
	glTriangleStrip uint32 = 0x0005

	glNever    uint32 = 0x0200
	glLess     uint32 = 0x0201
	glEqual    uint32 = 0x0202
	glLequal   uint32 = 0x0203
	glGreater  uint32 = 0x0204
	glNotequal uint32 = 0x0205
	glGequal   uint32 = 0x0206
	glAlways   uint32 = 0x0207

	glZero             uint32 = 0
	glOne              uint32 = 1
	glSrcColor         uint32 = 0x0300
	glOneMinusSrcColor uint32 = 0x0301
	glSrcAlpha         uint32 = 0x0302
	glOneMinusSrcAlpha uint32 = 0x0303
	glDstAlpha         uint32 = 0x0304
	glOneMinusDstAlpha uint32 = 0x0305
	glDstColor         uint32 = 0x0306
	glOneMinusDstColor uint32 = 0x0307
	glSrcAlphaSaturate uint32 = 0x0308
	glConstantColor    uint32 = 0x8001
	glOneMinusConstant uint32 = 0x8002

	glFuncAdd             uint32 = 0x8006
	glMin                 uint32 = 0x8007
	glMax                 uint32 = 0x8008
	glFuncSubtract        uint32 = 0x800A
	glFuncReverseSubtract uint32 = 0x800B

	glFront        uint32 = 0x0404
	glBack         uint32 = 0x0405
	glFrontAndBack uint32 = 0x0408
	glCW           uint32 = 0x0900
	glCCW          uint32 = 0x0901
	glPoint        uint32 = 0x1B00
	glLine         uint32 = 0x1B01
	glFill         uint32 = 0x1B02

	glCullFace    uint32 = 0x0B44
	glDepthTest   uint32 = 0x0B71
	glStencilTest uint32 = 0x0B90
	glBlend       uint32 = 0x0BE2
	glScissorTest uint32 = 0x0C11
	glTexture2D   uint32 = 0x0DE1
	glMultisample uint32 = 0x809D

	glKeep     uint32 = 0x1E00
	glReplace  uint32 = 0x1E01
	glIncr     uint32 = 0x1E02
	glDecr     uint32 = 0x1E03
	glInvert   uint32 = 0x150A
	glIncrWrap uint32 = 0x8507
	glDecrWrap uint32 = 0x8508

	glTextureEnv      uint32 = 0x2300
	glTextureEnvMode  uint32 = 0x2200
	glTextureEnvColor uint32 = 0x2201
	glModulate        uint32 = 0x2100
	glAdd             uint32 = 0x0104
	glTexture         uint32 = 0x1702
	glCombine         uint32 = 0x8570
	glCombineRGB      uint32 = 0x8571
	glCombineAlpha    uint32 = 0x8572
	glRGBScale        uint32 = 0x8573
	glAddSigned       uint32 = 0x8574
	glInterpolate     uint32 = 0x8575
	glConstant        uint32 = 0x8576
	glPrimaryColor    uint32 = 0x8577
	glPrevious        uint32 = 0x8578
	glSource0RGB      uint32 = 0x8580
	glSource0Alpha    uint32 = 0x8588
	glOperand0RGB     uint32 = 0x8590
	glOperand0Alpha   uint32 = 0x8598
	glAlphaScale      uint32 = 0x0D1C
	glSubtract        uint32 = 0x84E7
	glDot3RGB         uint32 = 0x86AE

	glTexture0 uint32 = 0x84C0

	glMaxTextureUnits  uint32 = 0x84E2
	glMaxDrawBuffers   uint32 = 0x8824
	glMaxVertexAttribs uint32 = 0x8869

	glArrayBuffer        uint32 = 0x8892
	glElementArrayBuffer uint32 = 0x8893

	glByte          uint32 = 0x1400
	glUnsignedByte  uint32 = 0x1401
	glShort         uint32 = 0x1402
	glUnsignedShort uint32 = 0x1403
	glInt           uint32 = 0x1404
	glUnsignedInt   uint32 = 0x1405
	glFloat         uint32 = 0x1406
	glHalfFloat     uint32 = 0x140B
	glUint24_8      uint32 = 0x84FA

	glRed              uint32 = 0x1903
	glRGBA             uint32 = 0x1908
	glBGRA             uint32 = 0x80E1
	glDepthComponent   uint32 = 0x1902
	glDepthStencil     uint32 = 0x84F9
	glR8               int32  = 0x8229
	glRGBA8            int32  = 0x8058
	glDepth24Stencil8  int32  = 0x88F0
	glDepthComponent32 int32  = 0x8CAC

	glNone                 uint32 = 0
	glColorAttachment0     uint32 = 0x8CE0
	glDepthAttachment      uint32 = 0x8D00
	glStencilAttachment    uint32 = 0x8D20
	glFramebufferComplete  uint32 = 0x8CD5
	glBackBufferDrawTarget uint32 = 0x0405
)

// Extensions the adapter looks for.
const (
	extTextureEnvCombine  = "GL_ARB_texture_env_combine"
	extTextureEnvDot3     = "GL_ARB_texture_env_dot3"
	extBlendFuncSeparate  = "GL_EXT_blend_func_separate"
	extBlendMinMax        = "GL_EXT_blend_minmax"
	extBlendSubtract      = "GL_EXT_blend_subtract"
	extStencilWrap        = "GL_EXT_stencil_wrap"
	extFramebufferObject  = "GL_EXT_framebuffer_object"
	extARBFramebuffer     = "GL_ARB_framebuffer_object"
	extDrawBuffers        = "GL_ARB_draw_buffers"
	extDrawElementsBaseVx = "GL_ARB_draw_elements_base_vertex"
)

var cmpFuncs = [...]uint32{
	gfx.CmpNever:        glNever,
	gfx.CmpLess:         glLess,
	gfx.CmpEqual:        glEqual,
	gfx.CmpLessEqual:    glLequal,
	gfx.CmpGreater:      glGreater,
	gfx.CmpNotEqual:     glNotequal,
	gfx.CmpGreaterEqual: glGequal,
	gfx.CmpAlways:       glAlways,
}

var stencilOps = [...]uint32{
	gfx.StencilKeep:     glKeep,
	gfx.StencilZero:     glZero,
	gfx.StencilReplace:  glReplace,
	gfx.StencilIncrSat:  glIncr,
	gfx.StencilDecrSat:  glDecr,
	gfx.StencilInvert:   glInvert,
	gfx.StencilIncrWrap: glIncrWrap,
	gfx.StencilDecrWrap: glDecrWrap,
}

var blendFactors = [...]uint32{
	gfx.BlendZero:        glZero,
	gfx.BlendOne:         glOne,
	gfx.BlendSrcColor:    glSrcColor,
	gfx.BlendInvSrcColor: glOneMinusSrcColor,
	gfx.BlendSrcAlpha:    glSrcAlpha,
	gfx.BlendInvSrcAlpha: glOneMinusSrcAlpha,
	gfx.BlendDstColor:    glDstColor,
	gfx.BlendInvDstColor: glOneMinusDstColor,
	gfx.BlendDstAlpha:    glDstAlpha,
	gfx.BlendInvDstAlpha: glOneMinusDstAlpha,
	gfx.BlendSrcAlphaSat: glSrcAlphaSaturate,
	gfx.BlendFactor:      glConstantColor,
	gfx.BlendInvFactor:   glOneMinusConstant,
}

var blendEquations = [...]uint32{
	gfx.BlendOpAdd:         glFuncAdd,
	gfx.BlendOpSubtract:    glFuncSubtract,
	gfx.BlendOpRevSubtract: glFuncReverseSubtract,
	gfx.BlendOpMin:         glMin,
	gfx.BlendOpMax:         glMax,
}

// Per-unit texture factor and constant share the environment color.
var envSources = [...]uint32{
	gfx.TexArgCurrent:       glPrevious,
	gfx.TexArgTexture:       glTexture,
	gfx.TexArgConstant:      glConstant,
	gfx.TexArgDiffuse:       glPrimaryColor,
	gfx.TexArgFactor:        glConstant,
	gfx.TexArgCurrentAlpha:  glPrevious,
	gfx.TexArgTextureAlpha:  glTexture,
	gfx.TexArgConstantAlpha: glConstant,
	gfx.TexArgDiffuseAlpha:  glPrimaryColor,
	gfx.TexArgFactorAlpha:   glConstant,
}

var primitiveModes = [...]uint32{
	gfx.PointList:     glPoints,
	gfx.LineList:      glLines,
	gfx.LineStrip:     glLineStrip,
	gfx.TriangleList:  glTriangles,
	gfx.TriangleStrip: glTriangleStrip,
}

type vertexFormat struct {
	size       int32
	xtype      uint32
	normalized bool
}

var vertexFormats = map[gputypes.VertexFormat]vertexFormat{
	gputypes.VertexFormatUint8x2:   {2, glUnsignedByte, false},
	gputypes.VertexFormatUint8x4:   {4, glUnsignedByte, false},
	gputypes.VertexFormatSint8x2:   {2, glByte, false},
	gputypes.VertexFormatSint8x4:   {4, glByte, false},
	gputypes.VertexFormatUnorm8x2:  {2, glUnsignedByte, true},
	gputypes.VertexFormatUnorm8x4:  {4, glUnsignedByte, true},
	gputypes.VertexFormatSnorm8x2:  {2, glByte, true},
	gputypes.VertexFormatSnorm8x4:  {4, glByte, true},
	gputypes.VertexFormatUint16x2:  {2, glUnsignedShort, false},
	gputypes.VertexFormatUint16x4:  {4, glUnsignedShort, false},
	gputypes.VertexFormatSint16x2:  {2, glShort, false},
	gputypes.VertexFormatSint16x4:  {4, glShort, false},
	gputypes.VertexFormatUnorm16x2: {2, glUnsignedShort, true},
	gputypes.VertexFormatUnorm16x4: {4, glUnsignedShort, true},
	gputypes.VertexFormatSnorm16x2: {2, glShort, true},
	gputypes.VertexFormatSnorm16x4: {4, glShort, true},
	gputypes.VertexFormatFloat16x2: {2, glHalfFloat, false},
	gputypes.VertexFormatFloat16x4: {4, glHalfFloat, false},
	gputypes.VertexFormatFloat32:   {1, glFloat, false},
	gputypes.VertexFormatFloat32x2: {2, glFloat, false},
	gputypes.VertexFormatFloat32x3: {3, glFloat, false},
	gputypes.VertexFormatFloat32x4: {4, glFloat, false},
	gputypes.VertexFormatUint32:    {1, glUnsignedInt, false},
	gputypes.VertexFormatUint32x2:  {2, glUnsignedInt, false},
	gputypes.VertexFormatUint32x3:  {3, glUnsignedInt, false},
	gputypes.VertexFormatUint32x4:  {4, glUnsignedInt, false},
	gputypes.VertexFormatSint32:    {1, glInt, false},
	gputypes.VertexFormatSint32x2:  {2, glInt, false},
	gputypes.VertexFormatSint32x3:  {3, glInt, false},
	gputypes.VertexFormatSint32x4:  {4, glInt, false},
}

type textureFormat struct {
	internal int32
	format   uint32
	xtype    uint32
	depth    bool
	stencil  bool
}

var textureFormats = map[gputypes.TextureFormat]textureFormat{
	gputypes.TextureFormatRGBA8Unorm:          {glRGBA8, glRGBA, glUnsignedByte, false, false},
	gputypes.TextureFormatBGRA8Unorm:          {glRGBA8, glBGRA, glUnsignedByte, false, false},
	gputypes.TextureFormatR8Unorm:             {glR8, glRed, glUnsignedByte, false, false},
	gputypes.TextureFormatDepth24PlusStencil8: {glDepth24Stencil8, glDepthStencil, glUint24_8, true, true},
	gputypes.TextureFormatDepth32Float:        {glDepthComponent32, glDepthComponent, glFloat, true, false},
}

package fixed

// NativeCaps is the subset of the native capability record the adapter
// consults.
type NativeCaps struct {
	MaxTextureBlendStages uint32
	MaxSimultaneousRTs    uint32
	MaxStreams            uint32
	TextureOpCaps         uint32
	StencilCaps           uint32
	PrimitiveMiscCaps     uint32
}

// Viewport is a native viewport with its depth range.
type Viewport struct {
	X, Y, Width, Height uint32
	MinZ, MaxZ          float32
}

// ScissorRect is a native scissor rectangle in edge coordinates.
type ScissorRect struct {
	Left, Top, Right, Bottom int32
}

// StateBlock is a recorded batch of state changes.
type StateBlock interface {
	Apply() error
	Release()
}

// Device is the native device interface the adapter drives. A platform
// binding implements it over the real API; tests use a recording fake.
//
// Methods return an error wrapping gfx.ErrDeviceLost when the device is
// lost.
type Device interface {
	Caps() NativeCaps

	SetRenderState(state RenderStateType, value uint32) error
	SetTextureStageState(stage uint32, state TextureStageStateType, value uint32) error

	// BeginStateBlock starts recording. State calls made until
	// EndStateBlock are captured instead of applied.
	BeginStateBlock() error
	EndStateBlock() (StateBlock, error)

	CreateVertexShader(source, entry string) (any, error)
	CreatePixelShader(source, entry string) (any, error)
	SetVertexShader(shader any) error
	SetPixelShader(shader any) error
	SetVertexShaderConstantF(register uint32, data []float32) error
	SetPixelShaderConstantF(register uint32, data []float32) error

	CreateTexture(width, height, levels uint32, usage Usage, format Format) (any, error)
	CreateVertexBuffer(length uint32) (any, error)
	CreateIndexBuffer(length uint32, format Format) (any, error)
	Release(obj any)

	SetTexture(sampler uint32, texture any) error
	SetStreamSource(stream uint32, buffer any, offset, stride uint32) error
	SetIndices(buffer any) error

	// Surface returns a render surface of texture. Face selects a cube
	// face and is 0 for 2D textures.
	Surface(texture any, face, level uint32) (any, error)
	SetRenderTarget(index uint32, surface any) error
	SetDepthStencilSurface(surface any) error

	// BackBuffer returns the implicit color and depth surfaces and the
	// current back buffer size.
	BackBuffer() (color, depth any, width, height uint32)

	SetViewport(vp Viewport) error
	SetScissorRect(r ScissorRect) error

	DrawPrimitive(pt PrimitiveType, startVertex, primitives uint32) error
	DrawIndexedPrimitive(pt PrimitiveType, baseVertex int32, startIndex, primitives uint32) error

	Present() error
}

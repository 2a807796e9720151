package gfx

// Primitive is the topology of a draw call.
type Primitive uint8

// Primitive topologies.
const (
	PointList Primitive = iota
	LineList
	LineStrip
	TriangleList
	TriangleStrip
)

var primitiveNames = [...]string{"PointList", "LineList", "LineStrip", "TriangleList", "TriangleStrip"}

// String returns the topology name.
func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "Primitive(?)"
}

// BoundTarget is a resolved render target handed to an Adapter.
type BoundTarget struct {
	Texture *Texture
	Face    uint32
	Level   uint32
	Slice   uint32
}

// Adapter translates state groups into native calls for one graphics API.
// Device calls it from a single goroutine and only with resolved,
// validated resources.
//
// Methods that receive deltas must issue calls only for changed slots with
// a specified target value. Errors from the native API should wrap
// ErrNativeCall, or ErrDeviceLost when the device is gone.
type Adapter interface {
	// Name returns the backend name.
	Name() string

	// Caps returns the capabilities of the active device.
	Caps() Caps

	CreateProgram(desc *ProgramDesc) (any, error)
	CreateTexture(desc *TextureDesc) (any, error)
	CreateBuffer(desc *BufferDesc) (any, error)
	CreateUniform(desc *UniformDesc) (any, error)

	// Release destroys a native object returned by one of the Create methods.
	Release(native any)

	// BindProgram disables prev (which may be nil) and enables next. A nil
	// next selects the fixed-function pipeline where the API has one.
	BindProgram(prev, next *Program) error

	// PushUniforms uploads the data of the given constant blocks for p.
	PushUniforms(p *Program, uniforms []*Uniform) error

	// BindTextures binds textures to units in order. Nil entries unbind.
	BindTextures(textures []*Texture) error

	ApplyRenderStates(d *RenderStateDelta) error

	// ApplyTextureStates applies the delta for the first stages stages.
	ApplyTextureStates(d *TextureStateDelta, stages int) error

	// BindTargets binds color and depth targets. No colors and a nil depth
	// select the back buffer.
	BindTargets(colors []BoundTarget, depth *BoundTarget) error

	// BackBufferSize returns the current back buffer dimensions.
	BackBufferSize() Size

	// SetViewport sets the resolved viewport and scissor for a target of
	// the given size.
	SetViewport(viewport, scissor Rect, target Size) error

	// BindVertexStream binds buf to stream slot. A nil buf unbinds it.
	BindVertexStream(slot int, buf *Buffer, stride uint32, offset uint64) error

	// BindIndexBuffer binds buf as the index buffer using its descriptor's
	// index format. A nil buf unbinds it.
	BindIndexBuffer(buf *Buffer) error

	Draw(prim Primitive, first, count uint32) error
	DrawIndexed(prim Primitive, first, count uint32, baseVertex int32) error

	// EndFrame submits or presents the work recorded since the last call.
	EndFrame() error

	// Reset discards every native object derived from bound state, such as
	// cached state blocks or pipelines, after the device was lost. The next
	// bind is forced.
	Reset() error
}

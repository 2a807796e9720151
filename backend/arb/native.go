package arb

// Device is the GL entry point set the adapter drives. Method names and
// enumerant values follow GL; package glcall implements it over go-gl, and
// tests use a recording fake.
//
// GL reports failures through GetError, so the adapter polls it once per
// state group. A lost context reports GL_CONTEXT_LOST.
type Device interface {
	// Extensions returns the extension strings of the current context.
	Extensions() []string
	GetInteger(pname uint32) int32
	GetError() uint32

	Enable(capability uint32)
	Disable(capability uint32)
	PolygonMode(face, mode uint32)
	CullFace(mode uint32)
	FrontFace(mode uint32)
	DepthMask(flag bool)
	DepthFunc(fn uint32)
	StencilFunc(fn uint32, ref int32, mask uint32)
	StencilOp(fail, zfail, zpass uint32)
	BlendFunc(src, dst uint32)
	BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha uint32)
	BlendEquation(mode uint32)
	BlendEquationSeparate(modeRGB, modeAlpha uint32)

	ActiveTexture(unit uint32)
	BindTexture(target, texture uint32)
	TexEnvi(target, pname uint32, param int32)
	TexEnvfv(target, pname uint32, params []float32)

	// CreateProgram compiles and links a program. An empty source leaves
	// that stage on the fixed-function path.
	CreateProgram(vertex, fragment string) (uint32, error)
	DeleteProgram(program uint32)
	UseProgram(program uint32)
	GetUniformLocation(program uint32, name string) int32
	Uniform4fv(location int32, data []float32)

	CreateTexture(width, height, levels, internalFormat int32, format, xtype uint32) uint32
	DeleteTexture(texture uint32)
	CreateBuffer(target uint32, size int) uint32
	DeleteBuffer(buffer uint32)
	BindBuffer(target, buffer uint32)
	EnableVertexAttribArray(index uint32)
	DisableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int)

	CreateFramebuffer() uint32
	DeleteFramebuffer(framebuffer uint32)
	BindFramebuffer(framebuffer uint32)
	FramebufferTexture2D(attachment, textarget, texture uint32, level int32)
	CheckFramebufferStatus() uint32
	DrawBuffers(buffers []uint32)

	// DrawableSize returns the size of the default framebuffer.
	DrawableSize() (width, height int32)

	Viewport(x, y, width, height int32)
	Scissor(x, y, width, height int32)
	DrawArrays(mode uint32, first, count int32)
	DrawElementsBaseVertex(mode uint32, count int32, xtype uint32, offset int, baseVertex int32)
	Flush()
}

package gfx

import "slices"

// VertexStream binds a vertex buffer to one stream index.
type VertexStream struct {
	Buffer BufferID
	Stride uint32
	Offset uint64
}

// Context is the complete desired GPU state for a draw. It holds handles
// only and owns none of the resources it references.
//
// The zero Context leaves every render and texture state unspecified; call
// Reset to start from the pipeline defaults.
type Context struct {
	Program  ProgramID
	Uniforms []UniformID
	Textures []TextureID

	RenderStates  RenderStateBlock
	TextureStates TextureStateBlock

	VertexStreams []VertexStream
	IndexBuffer   BufferID

	Targets  RenderTargetSet
	Viewport Rect
	Scissor  Rect // zero mirrors the viewport
}

// Reset clears c to an empty context holding the default states.
func (c *Context) Reset() {
	*c = Context{
		RenderStates:  DefaultRenderStates(),
		TextureStates: DefaultTextureStates(),
	}
}

// Clone returns a deep copy of c.
func (c *Context) Clone() *Context {
	n := *c
	n.Uniforms = slices.Clone(c.Uniforms)
	n.Textures = slices.Clone(c.Textures)
	n.VertexStreams = slices.Clone(c.VertexStreams)
	n.Targets = c.Targets.Clone()
	return &n
}

// Equal reports whether c and o describe the same state.
func (c *Context) Equal(o *Context) bool {
	return c.Program == o.Program &&
		slices.Equal(c.Uniforms, o.Uniforms) &&
		slices.Equal(c.Textures, o.Textures) &&
		c.RenderStates == o.RenderStates &&
		c.TextureStates == o.TextureStates &&
		slices.Equal(c.VertexStreams, o.VertexStreams) &&
		c.IndexBuffer == o.IndexBuffer &&
		c.Targets.Equal(&o.Targets) &&
		c.Viewport == o.Viewport &&
		c.Scissor == o.Scissor
}

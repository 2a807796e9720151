package gfx

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gfx/handle"
)

// Resource IDs
//
// These opaque IDs reference resources owned by a Device. The zero value is
// the empty handle. An ID is meaningless once its resource is destroyed.

// ProgramID references a shader program.
type ProgramID handle.Handle

// TextureID references a texture or render target.
type TextureID handle.Handle

// BufferID references a vertex or index buffer.
type BufferID handle.Handle

// UniformID references a block of shader constants.
type UniformID handle.Handle

// ShaderDesc is one shader stage in WGSL. Backends translate it to their
// native shading language through the shader package.
type ShaderDesc struct {
	Source string
	Entry  string
}

// VertexAttribute describes one shader input fetched from a vertex stream.
type VertexAttribute struct {
	Stream   int
	Location uint32
	Format   gputypes.VertexFormat
	Offset   uint64
}

// ProgramDesc describes a shader program. Name is optional; named programs
// can be looked up with Device.FindProgram.
//
// Textures is the number of bound textures the program samples. Backends
// with bind groups expose texture i and its sampler at group 1, bindings
// 2i and 2i+1; constants live in a uniform buffer at group 0, binding 0.
type ProgramDesc struct {
	Name       string
	Vertex     ShaderDesc
	Fragment   ShaderDesc
	Attributes []VertexAttribute
	Textures   int
}

// TextureDesc describes a texture.
type TextureDesc struct {
	Width        uint32
	Height       uint32
	MipLevels    uint32
	Format       gputypes.TextureFormat
	RenderTarget bool
}

// BufferDesc describes a buffer. IndexFormat is used when the buffer is
// bound as an index buffer.
type BufferDesc struct {
	Size        uint64
	Usage       gputypes.BufferUsage
	IndexFormat gputypes.IndexFormat
}

// UniformDesc describes a block of Vec4s four-component float constants
// starting at Register.
type UniformDesc struct {
	Name     string
	Register uint32
	Vec4s    int
}

// Program is a created program with its backend object.
type Program struct {
	Desc   ProgramDesc
	Native any
}

// Texture is a created texture with its backend object.
type Texture struct {
	Desc   TextureDesc
	Native any
}

// Buffer is a created buffer with its backend object.
type Buffer struct {
	Desc   BufferDesc
	Native any
}

// Uniform is a created constant block. Its data is re-pushed whenever it
// changes or the device recovers.
type Uniform struct {
	Desc   UniformDesc
	Native any

	data  []float32
	dirty bool
}

// Data returns the current constant values.
func (u *Uniform) Data() []float32 {
	return u.data
}

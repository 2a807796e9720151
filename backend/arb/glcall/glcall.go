package glcall

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-compatibility/gl"

	"github.com/gogpu/gfx/backend/arb"
)

// Context issues GL calls on the current context.
type Context struct {
	size func() (width, height int)
}

var _ arb.Device = (*Context)(nil)

// New loads the GL entry points of the current context. size reports the
// default framebuffer size, typically the window's framebuffer size.
func New(size func() (width, height int)) (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("glcall: init: %w", err)
	}
	return &Context{size: size}, nil
}

// Version returns the GL version string of the current context.
func (c *Context) Version() string { return gl.GoStr(gl.GetString(gl.VERSION)) }

func (c *Context) Extensions() []string {
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	exts := make([]string, 0, n)
	for i := range uint32(max(n, 0)) {
		exts = append(exts, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, i)))
	}
	return exts
}

func (c *Context) GetInteger(pname uint32) int32 {
	var v int32
	gl.GetIntegerv(pname, &v)
	return v
}

func (c *Context) GetError() uint32 { return gl.GetError() }

func (c *Context) Enable(capability uint32)      { gl.Enable(capability) }
func (c *Context) Disable(capability uint32)     { gl.Disable(capability) }
func (c *Context) PolygonMode(face, mode uint32) { gl.PolygonMode(face, mode) }
func (c *Context) CullFace(mode uint32)          { gl.CullFace(mode) }
func (c *Context) FrontFace(mode uint32)         { gl.FrontFace(mode) }
func (c *Context) DepthMask(flag bool)           { gl.DepthMask(flag) }
func (c *Context) DepthFunc(fn uint32)           { gl.DepthFunc(fn) }

func (c *Context) StencilFunc(fn uint32, ref int32, mask uint32) { gl.StencilFunc(fn, ref, mask) }
func (c *Context) StencilOp(fail, zfail, zpass uint32)           { gl.StencilOp(fail, zfail, zpass) }
func (c *Context) BlendFunc(src, dst uint32)                     { gl.BlendFunc(src, dst) }

func (c *Context) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha uint32) {
	gl.BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha)
}

func (c *Context) BlendEquation(mode uint32) { gl.BlendEquation(mode) }
func (c *Context) BlendEquationSeparate(modeRGB, modeAlpha uint32) {
	gl.BlendEquationSeparate(modeRGB, modeAlpha)
}

func (c *Context) ActiveTexture(unit uint32)                 { gl.ActiveTexture(unit) }
func (c *Context) BindTexture(target, texture uint32)        { gl.BindTexture(target, texture) }
func (c *Context) TexEnvi(target, pname uint32, param int32) { gl.TexEnvi(target, pname, param) }

func (c *Context) TexEnvfv(target, pname uint32, params []float32) {
	if len(params) == 0 {
		return
	}
	gl.TexEnvfv(target, pname, &params[0])
}

func (c *Context) DeleteProgram(program uint32) { gl.DeleteProgram(program) }
func (c *Context) UseProgram(program uint32)    { gl.UseProgram(program) }

func (c *Context) GetUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (c *Context) Uniform4fv(location int32, data []float32) {
	if len(data) < 4 {
		return
	}
	gl.Uniform4fv(location, int32(len(data)/4), &data[0])
}

// CreateTexture allocates storage for every mip level, halving the size
// down to 1x1.
func (c *Context) CreateTexture(width, height, levels, internalFormat int32, format, xtype uint32) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	for level := range levels {
		gl.TexImage2D(gl.TEXTURE_2D, level, internalFormat, max(width>>level, 1), max(height>>level, 1), 0, format, xtype, nil)
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, levels-1)
	if levels == 1 {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

func (c *Context) DeleteTexture(texture uint32) { gl.DeleteTextures(1, &texture) }

func (c *Context) CreateBuffer(target uint32, size int) uint32 {
	var buf uint32
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(target, buf)
	gl.BufferData(target, size, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(target, 0)
	return buf
}

func (c *Context) DeleteBuffer(buffer uint32)        { gl.DeleteBuffers(1, &buffer) }
func (c *Context) BindBuffer(target, buffer uint32)  { gl.BindBuffer(target, buffer) }
func (c *Context) EnableVertexAttribArray(i uint32)  { gl.EnableVertexAttribArray(i) }
func (c *Context) DisableVertexAttribArray(i uint32) { gl.DisableVertexAttribArray(i) }

func (c *Context) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int) {
	gl.VertexAttribPointerWithOffset(index, size, xtype, normalized, stride, uintptr(offset))
}

func (c *Context) CreateFramebuffer() uint32 {
	var fb uint32
	gl.GenFramebuffers(1, &fb)
	return fb
}

func (c *Context) DeleteFramebuffer(framebuffer uint32) { gl.DeleteFramebuffers(1, &framebuffer) }
func (c *Context) BindFramebuffer(framebuffer uint32)   { gl.BindFramebuffer(gl.FRAMEBUFFER, framebuffer) }

func (c *Context) FramebufferTexture2D(attachment, textarget, texture uint32, level int32) {
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachment, textarget, texture, level)
}

func (c *Context) CheckFramebufferStatus() uint32 { return gl.CheckFramebufferStatus(gl.FRAMEBUFFER) }

func (c *Context) DrawBuffers(buffers []uint32) {
	if len(buffers) == 0 {
		return
	}
	gl.DrawBuffers(int32(len(buffers)), &buffers[0])
}

func (c *Context) DrawableSize() (width, height int32) {
	if c.size == nil {
		var vp [4]int32
		gl.GetIntegerv(gl.VIEWPORT, &vp[0])
		return vp[2], vp[3]
	}
	w, h := c.size()
	return int32(w), int32(h)
}

func (c *Context) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }
func (c *Context) Scissor(x, y, width, height int32)  { gl.Scissor(x, y, width, height) }
func (c *Context) DrawArrays(mode uint32, first, count int32) {
	gl.DrawArrays(mode, first, count)
}

func (c *Context) DrawElementsBaseVertex(mode uint32, count int32, xtype uint32, offset int, baseVertex int32) {
	gl.DrawElementsBaseVertex(mode, count, xtype, gl.PtrOffset(offset), baseVertex)
}

func (c *Context) Flush() { gl.Flush() }

// CreateProgram compiles and links the given stages. An empty source skips
// that stage.
func (c *Context) CreateProgram(vertex, fragment string) (uint32, error) {
	var shaders []uint32
	defer func() {
		for _, s := range shaders {
			gl.DeleteShader(s)
		}
	}()
	for _, st := range []struct {
		kind   uint32
		name   string
		source string
	}{
		{gl.VERTEX_SHADER, "vertex", vertex},
		{gl.FRAGMENT_SHADER, "fragment", fragment},
	} {
		if st.source == "" {
			continue
		}
		s, err := compileShader(st.kind, st.source)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", st.name, err)
		}
		shaders = append(shaders, s)
	}

	program := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &n)
		log := strings.Repeat("\x00", int(n+1))
		gl.GetProgramInfoLog(program, n, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("%w: %s", ErrLink, trimLog(log))
	}
	return program, nil
}

func compileShader(kind uint32, source string) (uint32, error) {
	shader := gl.CreateShader(kind)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &n)
		log := strings.Repeat("\x00", int(n+1))
		gl.GetShaderInfoLog(shader, n, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%w: %s", ErrCompile, trimLog(log))
	}
	return shader, nil
}

// trimLog cuts an info log at its terminator and drops trailing blank
// lines.
func trimLog(log string) string {
	if i := strings.IndexByte(log, 0); i >= 0 {
		log = log[:i]
	}
	return strings.TrimRight(log, "\r\n\t ")
}

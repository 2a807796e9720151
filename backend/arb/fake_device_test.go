package arb

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// fakeGL records GL calls and tracks the state the tests inspect.
type fakeGL struct {
	exts  []string
	ints  map[uint32]int32
	calls []string

	errs []uint32 // returned by successive GetError calls

	unit    uint32
	env     map[[2]uint32]int32 // unit, pname
	enabled map[[2]uint32]bool  // unit (0 for global caps), capability

	stencilOps   [3]uint32
	blendFunc    []uint32
	blendEq      []uint32
	viewport     [4]int32
	scissor      [4]int32
	framebuffer  uint32
	attachments  map[uint32]uint32
	fbStatus     uint32
	framebuffers int
	deleted      []string
	attribs      map[uint32][2]int // location -> stride, offset
	draws        []string

	linkErr error
	next    uint32
	width   int32
	height  int32
}

func allExtensions() []string {
	return []string{
		extTextureEnvCombine, extTextureEnvDot3, extBlendFuncSeparate, extBlendMinMax,
		extBlendSubtract, extStencilWrap, extFramebufferObject, extDrawBuffers, extDrawElementsBaseVx,
	}
}

func newFakeGL(exts ...string) *fakeGL {
	return &fakeGL{
		exts: exts,
		ints: map[uint32]int32{
			glMaxTextureUnits:  4,
			glMaxVertexAttribs: 16,
			glMaxDrawBuffers:   4,
		},
		env:         make(map[[2]uint32]int32),
		enabled:     make(map[[2]uint32]bool),
		attachments: make(map[uint32]uint32),
		attribs:     make(map[uint32][2]int),
		fbStatus:    glFramebufferComplete,
		width:       800,
		height:      600,
	}
}

func (f *fakeGL) call(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeGL) reset() { f.calls = nil }

// count returns the number of calls whose name is prefix.
func (f *fakeGL) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if c == prefix || strings.HasPrefix(c, prefix+"(") {
			n++
		}
	}
	return n
}

func (f *fakeGL) called(prefix string) bool { return f.count(prefix) > 0 }

func (f *fakeGL) envValue(unit, pname uint32) (int32, bool) {
	v, ok := f.env[[2]uint32{unit, pname}]
	return v, ok
}

func (f *fakeGL) Extensions() []string          { return slices.Clone(f.exts) }
func (f *fakeGL) GetInteger(pname uint32) int32 { return f.ints[pname] }

func (f *fakeGL) GetError() uint32 {
	if len(f.errs) == 0 {
		return glNoError
	}
	code := f.errs[0]
	f.errs = f.errs[1:]
	return code
}

func (f *fakeGL) capKey(c uint32) [2]uint32 {
	if c == glTexture2D {
		return [2]uint32{f.unit, c}
	}
	return [2]uint32{0, c}
}

func (f *fakeGL) Enable(c uint32) {
	f.call("Enable(%#x)", c)
	f.enabled[f.capKey(c)] = true
}

func (f *fakeGL) Disable(c uint32) {
	f.call("Disable(%#x)", c)
	f.enabled[f.capKey(c)] = false
}

func (f *fakeGL) PolygonMode(face, mode uint32) { f.call("PolygonMode(%#x)", mode) }
func (f *fakeGL) CullFace(mode uint32)          { f.call("CullFace(%#x)", mode) }
func (f *fakeGL) FrontFace(mode uint32)         { f.call("FrontFace(%#x)", mode) }
func (f *fakeGL) DepthMask(flag bool)           { f.call("DepthMask(%v)", flag) }
func (f *fakeGL) DepthFunc(fn uint32)           { f.call("DepthFunc(%#x)", fn) }

func (f *fakeGL) StencilFunc(fn uint32, ref int32, mask uint32) {
	f.call("StencilFunc(%#x,%d)", fn, ref)
}

func (f *fakeGL) StencilOp(fail, zfail, zpass uint32) {
	f.call("StencilOp")
	f.stencilOps = [3]uint32{fail, zfail, zpass}
}

func (f *fakeGL) BlendFunc(src, dst uint32) {
	f.call("BlendFunc")
	f.blendFunc = []uint32{src, dst}
}

func (f *fakeGL) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha uint32) {
	f.call("BlendFuncSeparate")
	f.blendFunc = []uint32{srcRGB, dstRGB, srcAlpha, dstAlpha}
}

func (f *fakeGL) BlendEquation(mode uint32) {
	f.call("BlendEquation")
	f.blendEq = []uint32{mode}
}

func (f *fakeGL) BlendEquationSeparate(rgb, alpha uint32) {
	f.call("BlendEquationSeparate")
	f.blendEq = []uint32{rgb, alpha}
}

func (f *fakeGL) ActiveTexture(unit uint32) {
	f.call("ActiveTexture(%d)", unit-glTexture0)
	f.unit = unit - glTexture0
}

func (f *fakeGL) BindTexture(target, texture uint32) { f.call("BindTexture(%d)", texture) }

func (f *fakeGL) TexEnvi(target, pname uint32, param int32) {
	f.call("TexEnvi(%#x,%#x)", pname, param)
	f.env[[2]uint32{f.unit, pname}] = param
}

func (f *fakeGL) TexEnvfv(target, pname uint32, params []float32) { f.call("TexEnvfv") }

func (f *fakeGL) CreateProgram(vertex, fragment string) (uint32, error) {
	f.call("CreateProgram")
	if f.linkErr != nil {
		return 0, f.linkErr
	}
	f.next++
	return f.next, nil
}

func (f *fakeGL) DeleteProgram(p uint32) { f.deleted = append(f.deleted, fmt.Sprintf("program %d", p)) }
func (f *fakeGL) UseProgram(p uint32)    { f.call("UseProgram(%d)", p) }

func (f *fakeGL) GetUniformLocation(program uint32, name string) int32 {
	f.call("GetUniformLocation(%s)", name)
	if name == "unused" {
		return -1
	}
	return int32(len(name))
}

func (f *fakeGL) Uniform4fv(location int32, data []float32) { f.call("Uniform4fv(%d)", location) }

func (f *fakeGL) CreateTexture(width, height, levels, internal int32, format, xtype uint32) uint32 {
	f.call("CreateTexture")
	f.next++
	return f.next
}

func (f *fakeGL) DeleteTexture(t uint32) { f.deleted = append(f.deleted, fmt.Sprintf("texture %d", t)) }

func (f *fakeGL) CreateBuffer(target uint32, size int) uint32 {
	f.call("CreateBuffer")
	f.next++
	return f.next
}

func (f *fakeGL) DeleteBuffer(b uint32)             { f.deleted = append(f.deleted, fmt.Sprintf("buffer %d", b)) }
func (f *fakeGL) BindBuffer(target, buffer uint32)  { f.call("BindBuffer(%#x,%d)", target, buffer) }
func (f *fakeGL) EnableVertexAttribArray(i uint32)  { f.call("EnableVertexAttribArray(%d)", i) }
func (f *fakeGL) DisableVertexAttribArray(i uint32) { f.call("DisableVertexAttribArray(%d)", i) }

func (f *fakeGL) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int) {
	f.call("VertexAttribPointer(%d)", index)
	f.attribs[index] = [2]int{int(stride), offset}
}

func (f *fakeGL) CreateFramebuffer() uint32 {
	f.call("CreateFramebuffer")
	f.framebuffers++
	f.next++
	return f.next
}

func (f *fakeGL) DeleteFramebuffer(fb uint32) {
	f.deleted = append(f.deleted, fmt.Sprintf("framebuffer %d", fb))
}

func (f *fakeGL) BindFramebuffer(fb uint32) {
	f.call("BindFramebuffer(%d)", fb)
	f.framebuffer = fb
}

func (f *fakeGL) FramebufferTexture2D(attachment, textarget, texture uint32, level int32) {
	f.call("FramebufferTexture2D(%#x)", attachment)
	f.attachments[attachment] = texture
}

func (f *fakeGL) CheckFramebufferStatus() uint32 { return f.fbStatus }
func (f *fakeGL) DrawBuffers(bufs []uint32)    { f.call("DrawBuffers(%d)", len(bufs)) }
func (f *fakeGL) DrawableSize() (int32, int32) { return f.width, f.height }

func (f *fakeGL) Viewport(x, y, w, h int32) {
	f.call("Viewport")
	f.viewport = [4]int32{x, y, w, h}
}

func (f *fakeGL) Scissor(x, y, w, h int32) {
	f.call("Scissor")
	f.scissor = [4]int32{x, y, w, h}
}

func (f *fakeGL) DrawArrays(mode uint32, first, count int32) {
	f.draws = append(f.draws, fmt.Sprintf("arrays %d %d %d", mode, first, count))
}

func (f *fakeGL) DrawElementsBaseVertex(mode uint32, count int32, xtype uint32, offset int, base int32) {
	f.draws = append(f.draws, fmt.Sprintf("elements %d %d %#x %d %d", mode, count, xtype, offset, base))
}

func (f *fakeGL) Flush() { f.call("Flush") }

var errLink = errors.New("link failed")

package arb

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/internal/statecache"
	"github.com/gogpu/gfx/shader"
)

// Adapter drives an extension-based GL context. Optional features are
// detected from the extension list; render target combinations are backed
// by cached framebuffer objects.
type Adapter struct {
	dev      Device
	exts     map[string]bool
	caps     gfx.Caps
	fbo      bool
	fallback gfx.FallbackLog

	framebuffers *statecache.Cache[string, uint32]

	// Effective state, for values that span several slots.
	render gfx.RenderStateBlock
	stages gfx.TextureStateBlock

	envCombine [gfx.MaxTextureStages]bool
	stageOff   [gfx.MaxTextureStages]bool
	bound      []bool

	program      *program
	streams      []stream
	enabled      []uint32
	attribsDirty bool
	index        *buffer
}

var _ gfx.Adapter = (*Adapter)(nil)

type program struct {
	id       uint32
	attrs    []gfx.VertexAttribute
	uniforms map[string]int32
}

type texture struct {
	id    uint32
	depth bool
	// stencil is set for packed depth-stencil formats.
	stencil bool
}

type buffer struct {
	id        uint32
	target    uint32
	indexType uint32
	indexSize int
}

type stream struct {
	buf    *buffer
	stride uint32
	offset uint64
}

// New creates an Adapter over dev.
func New(dev Device, o gfx.OpenOptions) (*Adapter, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	a := &Adapter{
		dev:    dev,
		exts:   make(map[string]bool),
		render: gfx.InvalidRenderStates(),
		stages: gfx.InvalidTextureStates(),
	}
	for _, e := range dev.Extensions() {
		a.exts[strings.TrimSpace(e)] = true
	}
	a.fbo = a.exts[extFramebufferObject] || a.exts[extARBFramebuffer]
	a.caps = a.detectCaps()
	a.framebuffers = statecache.New[string, uint32](o.StateCacheSize, func(fb uint32) {
		a.dev.DeleteFramebuffer(fb)
	})
	a.restoreDefaults()
	if err := a.check("init"); err != nil {
		return nil, err
	}
	gfx.Logger().Debug("arb: context ready",
		slog.Int("extensions", len(a.exts)),
		slog.Int("texture_units", a.caps.MaxTextureStages),
		slog.Bool("framebuffer_object", a.fbo))
	return a, nil
}

func (a *Adapter) detectCaps() gfx.Caps {
	c := gfx.Caps{
		MaxTextureStages: int(a.dev.GetInteger(glMaxTextureUnits)),
		MaxVertexStreams: int(a.dev.GetInteger(glMaxVertexAttribs)),
	}
	switch {
	case !a.fbo:
		c.MaxColorTargets = 0
	case a.exts[extDrawBuffers]:
		c.MaxColorTargets = max(int(a.dev.GetInteger(glMaxDrawBuffers)), 1)
	default:
		c.MaxColorTargets = 1
	}
	for ext, flags := range map[string]gfx.CapFlags{
		extTextureEnvCombine: gfx.CapTextureCombine | gfx.CapThreeOperandCombiner | gfx.CapPerStageConstant,
		extTextureEnvDot3:    gfx.CapDot3,
		extStencilWrap:       gfx.CapStencilWrap,
		extBlendFuncSeparate: gfx.CapSeparateBlend,
		extBlendMinMax:       gfx.CapBlendMinMax,
		extBlendSubtract:     gfx.CapBlendSubtract,
	} {
		if a.exts[ext] {
			c.Flags |= flags
		}
	}
	// Dot3 is an extension of the combiner.
	if !c.Has(gfx.CapTextureCombine) {
		c.Flags &^= gfx.CapDot3
	}
	return c
}

// restoreDefaults sets the environment color every unit uses for constant
// and factor operands.
func (a *Adapter) restoreDefaults() {
	if !a.caps.Has(gfx.CapTextureCombine) {
		return
	}
	white := []float32{1, 1, 1, 1}
	for unit := range min(a.caps.MaxTextureStages, gfx.MaxTextureStages) {
		a.dev.ActiveTexture(glTexture0 + uint32(unit))
		a.dev.TexEnvfv(glTextureEnv, glTextureEnvColor, white)
	}
	a.dev.ActiveTexture(glTexture0)
}

// Name returns gfx.BackendARB.
func (a *Adapter) Name() string { return gfx.BackendARB }

// Caps returns the capabilities detected from the extension list.
func (a *Adapter) Caps() gfx.Caps { return a.caps }

// HasExtension reports whether the context advertises ext.
func (a *Adapter) HasExtension(ext string) bool { return a.exts[ext] }

// Stats returns framebuffer cache statistics.
func (a *Adapter) Stats() statecache.Stats { return a.framebuffers.Stats() }

// Fallbacks returns the number of distinct capability fallbacks taken.
func (a *Adapter) Fallbacks() int { return a.fallback.Count() }

func compileStage(stage string, desc gfx.ShaderDesc) (string, error) {
	if desc.Source == "" {
		return "", nil
	}
	code, err := shader.Compile(desc.Source, desc.Entry, shader.GLSL)
	if err != nil {
		return "", fmt.Errorf("arb: compile %s shader: %w", stage, err)
	}
	return code.Source, nil
}

// CreateProgram compiles the stages to GLSL and links them. A program
// without stages selects the fixed-function pipeline.
func (a *Adapter) CreateProgram(desc *gfx.ProgramDesc) (any, error) {
	vs, err := compileStage("vertex", desc.Vertex)
	if err != nil {
		return nil, err
	}
	fs, err := compileStage("fragment", desc.Fragment)
	if err != nil {
		return nil, err
	}
	p := &program{attrs: slices.Clone(desc.Attributes), uniforms: make(map[string]int32)}
	if vs == "" && fs == "" {
		return p, nil
	}
	p.id, err = a.dev.CreateProgram(vs, fs)
	if err != nil {
		return nil, fmt.Errorf("arb: link %q: %w: %w", desc.Name, gfx.ErrNativeCall, err)
	}
	return p, a.check("CreateProgram")
}

// CreateTexture allocates a texture with its full mip chain.
func (a *Adapter) CreateTexture(desc *gfx.TextureDesc) (any, error) {
	f, ok := textureFormats[desc.Format]
	if !ok {
		return nil, fmt.Errorf("arb: texture format %v: %w", desc.Format, gfx.ErrCapabilityUnsupported)
	}
	if desc.RenderTarget && !a.fbo {
		return nil, fmt.Errorf("arb: render target: %w: %s", gfx.ErrCapabilityUnsupported, extFramebufferObject)
	}
	id := a.dev.CreateTexture(int32(desc.Width), int32(desc.Height), int32(max(desc.MipLevels, 1)), f.internal, f.format, f.xtype)
	if err := a.check("CreateTexture"); err != nil {
		a.dev.DeleteTexture(id)
		return nil, err
	}
	return &texture{id: id, depth: f.depth, stencil: f.stencil}, nil
}

// CreateBuffer allocates a vertex or index buffer object.
func (a *Adapter) CreateBuffer(desc *gfx.BufferDesc) (any, error) {
	b := &buffer{target: glArrayBuffer}
	if desc.Usage&gputypes.BufferUsageIndex != 0 {
		b.target = glElementArrayBuffer
		b.indexType, b.indexSize = glUnsignedShort, 2
		if desc.IndexFormat == gputypes.IndexFormatUint32 {
			b.indexType, b.indexSize = glUnsignedInt, 4
		}
	}
	b.id = a.dev.CreateBuffer(b.target, int(desc.Size))
	if err := a.check("CreateBuffer"); err != nil {
		a.dev.DeleteBuffer(b.id)
		return nil, err
	}
	return b, nil
}

// CreateUniform returns no native object; uniforms are set by name on the
// bound program.
func (a *Adapter) CreateUniform(*gfx.UniformDesc) (any, error) {
	return nil, nil
}

// Release deletes a GL object. Releasing a texture drops every cached
// framebuffer, since any of them may reference it.
func (a *Adapter) Release(native any) {
	switch v := native.(type) {
	case *program:
		if v.id != 0 {
			a.dev.DeleteProgram(v.id)
		}
	case *texture:
		a.framebuffers.Clear()
		a.dev.DeleteTexture(v.id)
	case *buffer:
		a.dev.DeleteBuffer(v.id)
	}
}

// BindProgram switches programs. Attribute arrays are set up again at the
// next draw.
func (a *Adapter) BindProgram(prev, next *gfx.Program) error {
	if prev != nil {
		a.dev.UseProgram(0)
	}
	a.program = nil
	if next != nil {
		a.program = next.Native.(*program)
		if a.program.id != 0 {
			a.dev.UseProgram(a.program.id)
		}
	}
	a.attribsDirty = true
	return a.check("UseProgram")
}

func (p *program) location(dev Device, name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := dev.GetUniformLocation(p.id, name)
	p.uniforms[name] = loc
	return loc
}

// PushUniforms sets each uniform by name on the bound program. Names the
// linker optimized away are skipped.
func (a *Adapter) PushUniforms(p *gfx.Program, uniforms []*gfx.Uniform) error {
	if p == nil {
		return nil
	}
	prog := p.Native.(*program)
	if prog.id == 0 {
		return nil
	}
	for _, u := range uniforms {
		loc := prog.location(a.dev, u.Desc.Name)
		if loc < 0 {
			gfx.Logger().Debug("arb: inactive uniform", slog.String("name", u.Desc.Name))
			continue
		}
		a.dev.Uniform4fv(loc, u.Data())
	}
	return a.check("Uniform4fv")
}

// updateTexturing enables 2D texturing on the active unit when it has a
// texture and its stage is not disabled.
func (a *Adapter) updateTexturing(unit int) {
	if unit < len(a.bound) && a.bound[unit] && (unit >= len(a.stageOff) || !a.stageOff[unit]) {
		a.dev.Enable(glTexture2D)
	} else {
		a.dev.Disable(glTexture2D)
	}
}

func (a *Adapter) setStageEnabled(stage int, enabled bool) {
	a.stageOff[stage] = !enabled
	a.updateTexturing(stage)
}

// BindTextures binds textures to units in order and unbinds units left
// over from the previous list.
func (a *Adapter) BindTextures(textures []*gfx.Texture) error {
	n := max(len(textures), len(a.bound))
	a.bound = make([]bool, len(textures))
	for i := range n {
		var id uint32
		if i < len(textures) && textures[i] != nil {
			id = textures[i].Native.(*texture).id
			a.bound[i] = true
		}
		a.dev.ActiveTexture(glTexture0 + uint32(i))
		a.dev.BindTexture(glTexture2D, id)
		a.updateTexturing(i)
	}
	a.dev.ActiveTexture(glTexture0)
	return a.check("BindTexture")
}

// ApplyRenderStates issues GL calls for the specified changes in d.
func (a *Adapter) ApplyRenderStates(d *gfx.RenderStateDelta) error {
	a.applyRender(d)
	a.render.Merge(*d)
	return a.check("ApplyRenderStates")
}

// ApplyTextureStates issues texture environment calls for the first stages
// units.
func (a *Adapter) ApplyTextureStates(d *gfx.TextureStateDelta, stages int) error {
	a.applyStages(d, min(stages, gfx.MaxTextureStages))
	a.dev.ActiveTexture(glTexture0)
	return a.check("ApplyTextureStates")
}

func targetKey(colors []gfx.BoundTarget, depth *gfx.BoundTarget) string {
	var b strings.Builder
	for _, c := range colors {
		fmt.Fprintf(&b, "c%d.%d.%d;", c.Texture.Native.(*texture).id, c.Face, c.Level)
	}
	if depth != nil {
		fmt.Fprintf(&b, "d%d.%d", depth.Texture.Native.(*texture).id, depth.Level)
	}
	return b.String()
}

func (a *Adapter) buildFramebuffer(colors []gfx.BoundTarget, depth *gfx.BoundTarget) (uint32, error) {
	fb := a.dev.CreateFramebuffer()
	a.dev.BindFramebuffer(fb)
	draw := make([]uint32, 0, len(colors))
	for i, c := range colors {
		att := glColorAttachment0 + uint32(i)
		a.dev.FramebufferTexture2D(att, glTexture2D, c.Texture.Native.(*texture).id, int32(c.Level))
		draw = append(draw, att)
	}
	if len(draw) == 0 {
		draw = append(draw, glNone)
	}
	if depth != nil {
		t := depth.Texture.Native.(*texture)
		a.dev.FramebufferTexture2D(glDepthAttachment, glTexture2D, t.id, int32(depth.Level))
		if t.stencil {
			a.dev.FramebufferTexture2D(glStencilAttachment, glTexture2D, t.id, int32(depth.Level))
		}
	}
	a.dev.DrawBuffers(draw)
	if status := a.dev.CheckFramebufferStatus(); status != glFramebufferComplete {
		a.dev.BindFramebuffer(0)
		a.dev.DeleteFramebuffer(fb)
		return 0, fmt.Errorf("%w: status %#04x: %w", ErrIncompleteFramebuffer, status, gfx.ErrNativeCall)
	}
	gfx.Logger().Debug("arb: framebuffer created", slog.Int("colors", len(colors)), slog.Bool("depth", depth != nil))
	return fb, nil
}

// BindTargets binds the default framebuffer or a cached framebuffer object
// for the given attachments.
func (a *Adapter) BindTargets(colors []gfx.BoundTarget, depth *gfx.BoundTarget) error {
	if len(colors) == 0 && depth == nil {
		a.dev.BindFramebuffer(0)
		return a.check("BindFramebuffer")
	}
	if !a.fbo {
		return fmt.Errorf("arb: render targets: %w: %s", gfx.ErrCapabilityUnsupported, extFramebufferObject)
	}
	fb, err := a.framebuffers.GetOrCreate(targetKey(colors, depth), func() (uint32, error) {
		return a.buildFramebuffer(colors, depth)
	})
	if err != nil {
		return err
	}
	a.dev.BindFramebuffer(fb)
	return a.check("BindFramebuffer")
}

// BackBufferSize returns the default framebuffer size.
func (a *Adapter) BackBufferSize() gfx.Size {
	w, h := a.dev.DrawableSize()
	return gfx.Size{W: uint32(max(w, 0)), H: uint32(max(h, 0))}
}

// flipY converts a top-left origin rectangle to GL's bottom-left origin.
func flipY(r gfx.Rect, target gfx.Size) int32 {
	return int32(target.H) - int32(r.Y+r.H)
}

// SetViewport sets the viewport and scissor box.
func (a *Adapter) SetViewport(viewport, scissor gfx.Rect, target gfx.Size) error {
	a.dev.Viewport(int32(viewport.X), flipY(viewport, target), int32(viewport.W), int32(viewport.H))
	a.dev.Scissor(int32(scissor.X), flipY(scissor, target), int32(scissor.W), int32(scissor.H))
	return a.check("Viewport")
}

// BindVertexStream records a stream; attribute pointers are set at the
// next draw, when the program's attribute layout is known.
func (a *Adapter) BindVertexStream(slot int, buf *gfx.Buffer, stride uint32, offset uint64) error {
	if slot >= len(a.streams) {
		a.streams = append(a.streams, make([]stream, slot+1-len(a.streams))...)
	}
	st := stream{stride: stride, offset: offset}
	if buf != nil {
		st.buf = buf.Native.(*buffer)
	}
	a.streams[slot] = st
	a.attribsDirty = true
	return nil
}

// BindIndexBuffer binds buf to the element array target.
func (a *Adapter) BindIndexBuffer(buf *gfx.Buffer) error {
	a.index = nil
	var id uint32
	if buf != nil {
		a.index = buf.Native.(*buffer)
		id = a.index.id
	}
	a.dev.BindBuffer(glElementArrayBuffer, id)
	return a.check("BindBuffer")
}

// setupAttributes points every attribute of the bound program at its
// stream.
func (a *Adapter) setupAttributes() {
	if !a.attribsDirty {
		return
	}
	a.attribsDirty = false
	for _, loc := range a.enabled {
		a.dev.DisableVertexAttribArray(loc)
	}
	a.enabled = a.enabled[:0]
	if a.program == nil {
		return
	}
	for _, attr := range a.program.attrs {
		if attr.Stream >= len(a.streams) || a.streams[attr.Stream].buf == nil {
			continue
		}
		f, ok := vertexFormats[attr.Format]
		if !ok {
			a.fallback.Warn(fmt.Sprintf("vertex-format-%d", attr.Format), "arb: vertex format unsupported, attribute skipped",
				slog.Uint64("location", uint64(attr.Location)))
			continue
		}
		st := a.streams[attr.Stream]
		a.dev.BindBuffer(glArrayBuffer, st.buf.id)
		a.dev.VertexAttribPointer(attr.Location, f.size, f.xtype, f.normalized, int32(st.stride), int(st.offset+attr.Offset))
		a.dev.EnableVertexAttribArray(attr.Location)
		a.enabled = append(a.enabled, attr.Location)
	}
}

// Draw draws count vertices.
func (a *Adapter) Draw(prim gfx.Primitive, first, count uint32) error {
	a.setupAttributes()
	a.dev.DrawArrays(primitiveModes[prim], int32(first), int32(count))
	return a.check("DrawArrays")
}

// DrawIndexed draws count indices starting at index first.
func (a *Adapter) DrawIndexed(prim gfx.Primitive, first, count uint32, baseVertex int32) error {
	if a.index == nil {
		return fmt.Errorf("arb: draw indexed: %w", gfx.ErrInvalidContext)
	}
	a.setupAttributes()
	a.dev.DrawElementsBaseVertex(primitiveModes[prim], int32(count), a.index.indexType, int(first)*a.index.indexSize, baseVertex)
	return a.check("DrawElementsBaseVertex")
}

// EndFrame flushes the command stream. Presentation is left to the
// windowing layer.
func (a *Adapter) EndFrame() error {
	a.dev.Flush()
	return a.check("Flush")
}

// Reset forgets every tracked binding and cached framebuffer.
func (a *Adapter) Reset() error {
	a.framebuffers.Clear()
	a.render = gfx.InvalidRenderStates()
	a.stages = gfx.InvalidTextureStates()
	a.envCombine = [gfx.MaxTextureStages]bool{}
	a.stageOff = [gfx.MaxTextureStages]bool{}
	a.bound = nil
	a.program = nil
	a.streams = nil
	a.enabled = nil
	a.attribsDirty = true
	a.index = nil
	a.restoreDefaults()
	gfx.Logger().Debug("arb: adapter reset")
	return a.check("Reset")
}

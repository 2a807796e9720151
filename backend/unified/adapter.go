package unified

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/internal/statecache"
	"github.com/gogpu/gfx/shader"
)

// Uniform buffer layout: every program owns uniformRegisters four-float
// registers at group 0, binding 0.
const (
	uniformRegisters = 256
	registerSize     = 16
)

// Adapter drives a WebGPU-style HAL device. Render states are compiled
// into cached render pipelines at draw time; viewport, scissor, stencil
// reference and buffers are set dynamically on the render pass.
type Adapter struct {
	dev      hal.Device
	queue    hal.Queue
	caps     gfx.Caps
	samples  uint32
	fallback gfx.FallbackLog

	backBuffer      hal.TextureView
	backFormat      gputypes.TextureFormat
	backDepth       hal.TextureView
	backDepthFormat gputypes.TextureFormat
	width, height   uint32

	pipelines     *statecache.Cache[pipelineKey, hal.RenderPipeline]
	textureGroups *statecache.Cache[textureKey, hal.BindGroup]
	sampler       hal.Sampler
	serial        uint64

	// Effective state.
	render gfx.RenderStateBlock
	stages gfx.TextureStateBlock

	program     *program
	textures    []*texture
	streams     []stream
	index       *buffer
	indexFormat gputypes.IndexFormat
	useBack     bool
	target      targets
	viewport    gfx.Rect
	scissor     gfx.Rect
	targetSize  gfx.Size

	encoder      hal.CommandEncoder
	pass         hal.RenderPassEncoder
	passTarget   targets
	dirty        dirtyBits
	streamsDirty uint32
	boundKey     pipelineKey
	hasPipeline  bool
	draws        int

	inflight  []submission
	retired   []retired
	submitted uint64
}

var _ gfx.Adapter = (*Adapter)(nil)

type program struct {
	serial   uint64
	name     string
	attrs    []gfx.VertexAttribute
	textures int

	vertex        hal.ShaderModule
	vertexEntry   string
	fragment      hal.ShaderModule
	fragmentEntry string
	shared        bool // fragment uses the vertex module

	uniforms      hal.Buffer
	uniformLayout hal.BindGroupLayout
	uniformGroup  hal.BindGroup
	textureLayout hal.BindGroupLayout
	layout        hal.PipelineLayout

	keys map[pipelineKey]struct{}
}

type texture struct {
	serial  uint64
	tex     hal.Texture
	format  gputypes.TextureFormat
	sampled hal.TextureView // nil for depth formats
	views   map[uint32]hal.TextureView
}

type buffer struct {
	buf    hal.Buffer
	format gputypes.IndexFormat
}

type stream struct {
	buf    *buffer
	stride uint32
	offset uint64
}

// targets are the attachments of a render pass.
type targets struct {
	colors      []hal.TextureView
	formats     [gfx.MaxColorTargets]gputypes.TextureFormat
	depth       hal.TextureView
	depthFormat gputypes.TextureFormat
}

type textureKey struct {
	program  uint64
	textures [gfx.MaxTextureStages]uint64
}

type submission struct {
	index   uint64
	cmd     hal.CommandBuffer
	encoder hal.CommandEncoder
}

// retired is a native object destroyed once submission after completes.
type retired struct {
	after   uint64
	destroy func()
}

// dirtyBits track pass state to set before the next draw.
type dirtyBits uint8

const (
	dirtyUniforms dirtyBits = 1 << iota
	dirtyTextures
	dirtyViewport
	dirtyScissor
	dirtyStencilRef
	dirtyIndex

	dirtyAll dirtyBits = 1<<iota - 1
)

// New creates an Adapter over the HAL device and queue in cfg.
func New(cfg *Config, o gfx.OpenOptions) (*Adapter, error) {
	if cfg == nil || cfg.Device == nil || cfg.Queue == nil {
		return nil, ErrNilDevice
	}
	limits := cfg.limits()
	a := &Adapter{
		dev:             cfg.Device,
		queue:           cfg.Queue,
		samples:         max(cfg.SampleCount, 1),
		backBuffer:      cfg.BackBuffer,
		backFormat:      cfg.BackBufferFormat,
		backDepth:       cfg.DepthBuffer,
		backDepthFormat: cfg.DepthFormat,
		width:           cfg.Width,
		height:          cfg.Height,
		render:          gfx.InvalidRenderStates(),
		stages:          gfx.InvalidTextureStates(),
		indexFormat:     gputypes.IndexFormatUint16,
		useBack:         true,
		dirty:           dirtyAll,
	}
	if a.backDepth == nil {
		a.backDepthFormat = gputypes.TextureFormatUndefined
	}
	a.caps = gfx.Caps{
		Flags:            gfx.CapStencilWrap | gfx.CapSeparateBlend | gfx.CapBlendMinMax | gfx.CapBlendSubtract,
		MaxColorTargets:  min(int(limits.MaxColorAttachments), gfx.MaxColorTargets),
		MaxVertexStreams: min(int(limits.MaxVertexBuffers), maxStreams),
	}

	sampler, err := a.dev.CreateSampler(&hal.SamplerDescriptor{
		Label:        "gfx_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return nil, halErr("CreateSampler", err)
	}
	a.sampler = sampler

	a.pipelines = statecache.New[pipelineKey, hal.RenderPipeline](o.StateCacheSize, func(p hal.RenderPipeline) {
		a.retire(func() { a.dev.DestroyRenderPipeline(p) })
	})
	a.textureGroups = statecache.New[textureKey, hal.BindGroup](o.StateCacheSize, func(g hal.BindGroup) {
		a.retire(func() { a.dev.DestroyBindGroup(g) })
	})
	gfx.Logger().Debug("unified: device ready",
		slog.Int("color_targets", a.caps.MaxColorTargets),
		slog.Int("vertex_streams", a.caps.MaxVertexStreams),
		slog.Uint64("samples", uint64(a.samples)))
	return a, nil
}

// Name returns gfx.BackendUnified.
func (a *Adapter) Name() string { return gfx.BackendUnified }

// Caps returns the device capabilities. The unified backend has no
// texture stage combiners; MaxTextureStages is zero.
func (a *Adapter) Caps() gfx.Caps { return a.caps }

// Stats returns pipeline cache statistics.
func (a *Adapter) Stats() statecache.Stats { return a.pipelines.Stats() }

// Fallbacks returns the number of distinct capability fallbacks taken.
func (a *Adapter) Fallbacks() int { return a.fallback.Count() }

// SetBackBuffer replaces the back buffer view, typically with the
// swapchain image acquired for the next frame.
func (a *Adapter) SetBackBuffer(view hal.TextureView, width, height uint32) {
	a.endPass()
	a.backBuffer = view
	a.width, a.height = width, height
}

func (a *Adapter) nextSerial() uint64 {
	a.serial++
	return a.serial
}

// retire schedules destroy for when the GPU no longer uses the object.
func (a *Adapter) retire(destroy func()) {
	after := a.submitted
	if a.encoder != nil {
		after++
	}
	a.retired = append(a.retired, retired{after: after, destroy: destroy})
}

func entryOr(entry, def string) string {
	if entry == "" {
		return def
	}
	return entry
}

func (a *Adapter) shaderModule(name, stage string, desc gfx.ShaderDesc) (hal.ShaderModule, error) {
	code, err := shader.Compile(desc.Source, desc.Entry, shader.SPIRV)
	if err != nil {
		return nil, fmt.Errorf("unified: compile %s shader: %w", stage, err)
	}
	m, err := a.dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  name + "_" + stage,
		Source: hal.ShaderSource{SPIRV: code.SPIRV},
	})
	if err != nil {
		return nil, halErr("CreateShaderModule", err)
	}
	return m, nil
}

// CreateProgram compiles the stages to SPIR-V and creates the program's
// uniform buffer and layouts. A vertex stage is required; a program
// without a fragment stage writes depth and stencil only.
func (a *Adapter) CreateProgram(desc *gfx.ProgramDesc) (_ any, err error) {
	if desc.Vertex.Source == "" {
		return nil, fmt.Errorf("unified: program %q: %w: no vertex stage", desc.Name, gfx.ErrCapabilityUnsupported)
	}
	if desc.Textures < 0 || desc.Textures > gfx.MaxTextureStages {
		return nil, fmt.Errorf("unified: program %q samples %d textures: %w", desc.Name, desc.Textures, gfx.ErrCapabilityUnsupported)
	}
	for _, attr := range desc.Attributes {
		if attr.Stream < 0 || attr.Stream >= a.caps.MaxVertexStreams {
			return nil, fmt.Errorf("unified: program %q reads stream %d: %w", desc.Name, attr.Stream, gfx.ErrCapabilityUnsupported)
		}
	}

	name := desc.Name
	if name == "" {
		name = "gfx_program"
	}
	p := &program{
		serial:   a.nextSerial(),
		name:     name,
		attrs:    slices.Clone(desc.Attributes),
		textures: desc.Textures,
		keys:     make(map[pipelineKey]struct{}),
	}
	defer func() {
		if err != nil {
			p.destroy(a.dev)
		}
	}()

	p.vertexEntry = entryOr(desc.Vertex.Entry, "main")
	if p.vertex, err = a.shaderModule(name, "vertex", desc.Vertex); err != nil {
		return nil, err
	}
	if desc.Fragment.Source != "" {
		p.fragmentEntry = entryOr(desc.Fragment.Entry, "main")
		if desc.Fragment.Source == desc.Vertex.Source {
			p.fragment, p.shared = p.vertex, true
		} else if p.fragment, err = a.shaderModule(name, "fragment", desc.Fragment); err != nil {
			return nil, err
		}
	}

	if p.uniforms, err = a.dev.CreateBuffer(&hal.BufferDescriptor{
		Label: name + "_uniforms",
		Size:  uniformRegisters * registerSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	}); err != nil {
		return nil, halErr("CreateBuffer", err)
	}
	if p.uniformLayout, err = a.dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: name + "_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		}},
	}); err != nil {
		return nil, halErr("CreateBindGroupLayout", err)
	}
	if p.uniformGroup, err = a.dev.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  name + "_uniform_bind",
		Layout: p.uniformLayout,
		Entries: []gputypes.BindGroupEntry{{
			Binding: 0,
			Resource: gputypes.BufferBinding{
				Buffer: p.uniforms.NativeHandle(),
				Size:   uniformRegisters * registerSize,
			},
		}},
	}); err != nil {
		return nil, halErr("CreateBindGroup", err)
	}

	layouts := []hal.BindGroupLayout{p.uniformLayout}
	if p.textures > 0 {
		entries := make([]gputypes.BindGroupLayoutEntry, 0, 2*p.textures)
		for i := range p.textures {
			entries = append(entries,
				gputypes.BindGroupLayoutEntry{
					Binding:    uint32(2 * i),
					Visibility: gputypes.ShaderStageFragment,
					Texture: &gputypes.TextureBindingLayout{
						SampleType:    gputypes.TextureSampleTypeFloat,
						ViewDimension: gputypes.TextureViewDimension2D,
					},
				},
				gputypes.BindGroupLayoutEntry{
					Binding:    uint32(2*i + 1),
					Visibility: gputypes.ShaderStageFragment,
					Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
				})
		}
		if p.textureLayout, err = a.dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   name + "_texture_layout",
			Entries: entries,
		}); err != nil {
			return nil, halErr("CreateBindGroupLayout", err)
		}
		layouts = append(layouts, p.textureLayout)
	}
	if p.layout, err = a.dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            name + "_pipe_layout",
		BindGroupLayouts: layouts,
	}); err != nil {
		return nil, halErr("CreatePipelineLayout", err)
	}
	return p, nil
}

func (p *program) destroy(dev hal.Device) {
	if p.layout != nil {
		dev.DestroyPipelineLayout(p.layout)
	}
	if p.textureLayout != nil {
		dev.DestroyBindGroupLayout(p.textureLayout)
	}
	if p.uniformGroup != nil {
		dev.DestroyBindGroup(p.uniformGroup)
	}
	if p.uniformLayout != nil {
		dev.DestroyBindGroupLayout(p.uniformLayout)
	}
	if p.uniforms != nil {
		dev.DestroyBuffer(p.uniforms)
	}
	if p.fragment != nil && !p.shared {
		dev.DestroyShaderModule(p.fragment)
	}
	if p.vertex != nil {
		dev.DestroyShaderModule(p.vertex)
	}
}

// CreateTexture creates a 2D texture with its full mip chain. Color
// textures get a view for sampling; attachment views are created per mip
// level on first use.
func (a *Adapter) CreateTexture(desc *gfx.TextureDesc) (any, error) {
	levels := max(desc.MipLevels, 1)
	tex, err := a.dev.CreateTexture(&hal.TextureDescriptor{
		Label:         "gfx_texture",
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: levels,
		SampleCount:   a.samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         textureUsage(desc),
	})
	if err != nil {
		return nil, halErr("CreateTexture", err)
	}
	t := &texture{
		serial: a.nextSerial(),
		tex:    tex,
		format: desc.Format,
		views:  make(map[uint32]hal.TextureView),
	}
	if !desc.Format.IsDepthStencil() {
		t.sampled, err = a.dev.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:         "gfx_texture_view",
			Format:        desc.Format,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: levels,
		})
		if err != nil {
			a.dev.DestroyTexture(tex)
			return nil, halErr("CreateTextureView", err)
		}
	}
	return t, nil
}

// attachment returns the view of one mip level used as a pass attachment.
func (t *texture) attachment(dev hal.Device, level uint32) (hal.TextureView, error) {
	if v, ok := t.views[level]; ok {
		return v, nil
	}
	v, err := dev.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
		Label:         "gfx_attachment_view",
		Format:        t.format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		BaseMipLevel:  level,
		MipLevelCount: 1,
	})
	if err != nil {
		return nil, halErr("CreateTextureView", err)
	}
	t.views[level] = v
	return v, nil
}

func (t *texture) destroy(dev hal.Device) {
	for _, v := range t.views {
		dev.DestroyTextureView(v)
	}
	if t.sampled != nil {
		dev.DestroyTextureView(t.sampled)
	}
	dev.DestroyTexture(t.tex)
}

// CreateBuffer creates a vertex or index buffer. Sizes are rounded up to
// four bytes for queue writes.
func (a *Adapter) CreateBuffer(desc *gfx.BufferDesc) (any, error) {
	buf, err := a.dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "gfx_buffer",
		Size:  (desc.Size + 3) &^ 3,
		Usage: desc.Usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, halErr("CreateBuffer", err)
	}
	return &buffer{buf: buf, format: indexFormat(desc.IndexFormat)}, nil
}

// CreateUniform checks that the block fits the program uniform buffer. It
// has no native object of its own.
func (a *Adapter) CreateUniform(desc *gfx.UniformDesc) (any, error) {
	if desc.Vec4s < 0 || int(desc.Register)+desc.Vec4s > uniformRegisters {
		return nil, fmt.Errorf("unified: uniform %q at register %d: %w: %d registers available",
			desc.Name, desc.Register, gfx.ErrCapabilityUnsupported, uniformRegisters)
	}
	return nil, nil
}

// Release destroys a native object once the GPU is done with it.
// Pipelines built from a released program are dropped; releasing a
// texture drops every cached texture bind group.
func (a *Adapter) Release(native any) {
	switch v := native.(type) {
	case *program:
		for k := range v.keys {
			a.pipelines.Delete(k)
		}
		if v.textures > 0 {
			a.textureGroups.Clear()
		}
		if a.program == v {
			a.program = nil
		}
		a.retire(func() { v.destroy(a.dev) })
	case *texture:
		a.textureGroups.Clear()
		a.retire(func() { v.destroy(a.dev) })
	case *buffer:
		a.retire(func() { a.dev.DestroyBuffer(v.buf) })
	}
}

// BindProgram selects the program used by the next draws.
func (a *Adapter) BindProgram(prev, next *gfx.Program) error {
	a.program = nil
	if next != nil {
		a.program = next.Native.(*program)
	}
	a.dirty |= dirtyUniforms | dirtyTextures
	return nil
}

// PushUniforms writes each block into the program's uniform buffer. Queue
// writes land before the next submission, so draws already recorded are
// submitted first.
func (a *Adapter) PushUniforms(p *gfx.Program, uniforms []*gfx.Uniform) error {
	if p == nil || len(uniforms) == 0 {
		return nil
	}
	if a.draws > 0 {
		if err := a.submit(); err != nil {
			return err
		}
	}
	prog := p.Native.(*program)
	for _, u := range uniforms {
		data := u.Data()
		data = data[:min(len(data), u.Desc.Vec4s*4)]
		b := make([]byte, 0, len(data)*4)
		for _, f := range data {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
		}
		if err := a.queue.WriteBuffer(prog.uniforms, uint64(u.Desc.Register)*registerSize, b); err != nil {
			return halErr("WriteBuffer", err)
		}
	}
	return nil
}

// BindTextures records the textures sampled through group 1.
func (a *Adapter) BindTextures(textures []*gfx.Texture) error {
	a.textures = a.textures[:0]
	for _, t := range textures {
		var tex *texture
		if t != nil {
			tex = t.Native.(*texture)
		}
		a.textures = append(a.textures, tex)
	}
	a.dirty |= dirtyTextures
	return nil
}

// ApplyRenderStates merges the delta into the state the next pipeline is
// built from.
func (a *Adapter) ApplyRenderStates(d *gfx.RenderStateDelta) error {
	if v, ok := d.Get(gfx.RSFillMode); ok && v != gfx.FillSolid {
		a.fallback.Warn("fill-mode", "unified: fill mode unsupported, using solid", slog.String("mode", v.String()))
	}
	a.render.Merge(*d)
	if d.Changed(gfx.RSStencilRef) {
		a.dirty |= dirtyStencilRef
	}
	if d.Changed(gfx.RSScissorTest) {
		a.dirty |= dirtyScissor
	}
	return nil
}

// ApplyTextureStates tracks stage state. Render pipelines have no stage
// combiners: a stage set to anything but its default is logged once.
func (a *Adapter) ApplyTextureStates(d *gfx.TextureStateDelta, stages int) error {
	def := gfx.DefaultTextureStates()
	for stage, s := range d.States() {
		if stage >= stages {
			break
		}
		v, ok := d.Get(stage, s)
		if !ok {
			continue
		}
		if dv, _ := def.Get(stage, s); v != dv {
			a.fallback.Warn("texture-combine", "unified: texture stage combiners unsupported, combine in the fragment stage",
				slog.Int("stage", stage), slog.String("state", s.String()), slog.String("value", v.String()))
		}
	}
	a.stages.Merge(*d)
	return nil
}

// BindTargets selects the attachments of the next render pass. The
// current pass ends.
func (a *Adapter) BindTargets(colors []gfx.BoundTarget, depth *gfx.BoundTarget) error {
	a.endPass()
	if len(colors) == 0 && depth == nil {
		a.useBack = true
		return nil
	}
	if len(colors) > a.caps.MaxColorTargets {
		return fmt.Errorf("unified: %d color targets: %w", len(colors), gfx.ErrCapabilityUnsupported)
	}
	var t targets
	for i, c := range colors {
		tex := c.Texture.Native.(*texture)
		view, err := tex.attachment(a.dev, c.Level)
		if err != nil {
			return err
		}
		t.colors = append(t.colors, view)
		t.formats[i] = tex.format
	}
	if depth != nil {
		tex := depth.Texture.Native.(*texture)
		view, err := tex.attachment(a.dev, depth.Level)
		if err != nil {
			return err
		}
		t.depth, t.depthFormat = view, tex.format
	}
	a.useBack = false
	a.target = t
	return nil
}

// BackBufferSize returns the size of the back buffer view.
func (a *Adapter) BackBufferSize() gfx.Size {
	return gfx.Size{W: a.width, H: a.height}
}

// SetViewport records the viewport and scissor for the next draw.
func (a *Adapter) SetViewport(viewport, scissor gfx.Rect, target gfx.Size) error {
	a.viewport, a.scissor, a.targetSize = viewport, scissor, target
	a.dirty |= dirtyViewport | dirtyScissor
	return nil
}

// BindVertexStream records a stream; buffers are set on the pass at the
// next draw.
func (a *Adapter) BindVertexStream(slot int, buf *gfx.Buffer, stride uint32, offset uint64) error {
	if slot >= maxStreams {
		return fmt.Errorf("unified: vertex stream %d: %w", slot, gfx.ErrCapabilityUnsupported)
	}
	if slot >= len(a.streams) {
		a.streams = append(a.streams, make([]stream, slot+1-len(a.streams))...)
	}
	st := stream{stride: stride, offset: offset}
	if buf != nil {
		st.buf = buf.Native.(*buffer)
	}
	a.streams[slot] = st
	a.streamsDirty |= 1 << slot
	return nil
}

// BindIndexBuffer records the index buffer and its format. Unbinding
// resets the format to 16-bit.
func (a *Adapter) BindIndexBuffer(buf *gfx.Buffer) error {
	a.index = nil
	a.indexFormat = gputypes.IndexFormatUint16
	if buf != nil {
		a.index = buf.Native.(*buffer)
		a.indexFormat = a.index.format
	}
	a.dirty |= dirtyIndex
	return nil
}

// beginPass opens a render pass over the current targets. Attachments are
// loaded, so a frame may span several passes.
func (a *Adapter) beginPass() error {
	if a.pass != nil {
		return nil
	}
	t := a.target
	if a.useBack {
		if a.backBuffer == nil {
			return fmt.Errorf("%w: %w", ErrNoBackBuffer, gfx.ErrInvalidContext)
		}
		t = targets{colors: []hal.TextureView{a.backBuffer}, depth: a.backDepth, depthFormat: a.backDepthFormat}
		t.formats[0] = a.backFormat
	}
	if a.encoder == nil {
		enc, err := a.dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "gfx_frame"})
		if err != nil {
			return halErr("CreateCommandEncoder", err)
		}
		if err := enc.BeginEncoding("gfx_frame"); err != nil {
			enc.Destroy()
			return halErr("BeginEncoding", err)
		}
		a.encoder = enc
	}

	desc := &hal.RenderPassDescriptor{Label: "gfx_pass"}
	for _, v := range t.colors {
		desc.ColorAttachments = append(desc.ColorAttachments, hal.RenderPassColorAttachment{
			View:    v,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		})
	}
	if t.depth != nil {
		ds := &hal.RenderPassDepthStencilAttachment{View: t.depth}
		if t.depthFormat.HasDepth() {
			ds.DepthLoadOp, ds.DepthStoreOp = gputypes.LoadOpLoad, gputypes.StoreOpStore
		}
		if t.depthFormat.HasStencil() {
			ds.StencilLoadOp, ds.StencilStoreOp = gputypes.LoadOpLoad, gputypes.StoreOpStore
		}
		desc.DepthStencilAttachment = ds
	}
	a.pass = a.encoder.BeginRenderPass(desc)
	a.passTarget = t
	a.hasPipeline = false
	a.dirty = dirtyAll
	a.streamsDirty = 1<<len(a.streams) - 1
	a.pass.SetBlendConstant(&gputypes.Color{R: 1, G: 1, B: 1, A: 1})
	return nil
}

func (a *Adapter) endPass() {
	if a.pass != nil {
		a.pass.End()
		a.pass = nil
	}
}

func (a *Adapter) bindPipeline(prim gfx.Primitive) error {
	k := a.pipelineKey(prim)
	if a.hasPipeline && k == a.boundKey {
		return nil
	}
	p := a.program
	pipe, err := a.pipelines.GetOrCreate(k, func() (hal.RenderPipeline, error) {
		return a.buildPipeline(k, p)
	})
	if err != nil {
		return err
	}
	a.pass.SetPipeline(pipe)
	a.boundKey, a.hasPipeline = k, true
	return nil
}

func (a *Adapter) textureGroup() (hal.BindGroup, error) {
	p := a.program
	k := textureKey{program: p.serial}
	for i := range p.textures {
		if i >= len(a.textures) || a.textures[i] == nil || a.textures[i].sampled == nil {
			return nil, fmt.Errorf("unified: program %q: %w: no color texture bound to unit %d", p.name, gfx.ErrInvalidContext, i)
		}
		k.textures[i] = a.textures[i].serial
	}
	return a.textureGroups.GetOrCreate(k, func() (hal.BindGroup, error) {
		entries := make([]gputypes.BindGroupEntry, 0, 2*p.textures)
		for i := range p.textures {
			entries = append(entries,
				gputypes.BindGroupEntry{
					Binding:  uint32(2 * i),
					Resource: gputypes.TextureViewBinding{TextureView: a.textures[i].sampled.NativeHandle()},
				},
				gputypes.BindGroupEntry{
					Binding:  uint32(2*i + 1),
					Resource: gputypes.SamplerBinding{Sampler: a.sampler.NativeHandle()},
				})
		}
		g, err := a.dev.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   p.name + "_texture_bind",
			Layout:  p.textureLayout,
			Entries: entries,
		})
		if err != nil {
			return nil, halErr("CreateBindGroup", err)
		}
		return g, nil
	})
}

// prepare opens the pass if needed and sets everything the draw depends
// on that changed since the last draw.
func (a *Adapter) prepare(prim gfx.Primitive) error {
	if a.program == nil {
		return fmt.Errorf("unified: draw: %w: no program bound", gfx.ErrInvalidContext)
	}
	if err := a.beginPass(); err != nil {
		return err
	}
	if err := a.bindPipeline(prim); err != nil {
		return err
	}
	if a.dirty&dirtyUniforms != 0 {
		a.pass.SetBindGroup(0, a.program.uniformGroup, nil)
	}
	if a.dirty&dirtyTextures != 0 && a.program.textures > 0 {
		g, err := a.textureGroup()
		if err != nil {
			return err
		}
		a.pass.SetBindGroup(1, g, nil)
	}
	if a.dirty&dirtyViewport != 0 {
		vp := a.viewport
		a.pass.SetViewport(float32(vp.X), float32(vp.Y), float32(vp.W), float32(vp.H), 0, 1)
	}
	if a.dirty&dirtyScissor != 0 {
		r := gfx.Rect{W: a.targetSize.W, H: a.targetSize.H}
		if v, _ := a.render.Get(gfx.RSScissorTest); v == gfx.True {
			r = a.scissor
		}
		a.pass.SetScissorRect(r.X, r.Y, r.W, r.H)
	}
	if a.dirty&dirtyStencilRef != 0 {
		ref, _ := a.render.Get(gfx.RSStencilRef)
		a.pass.SetStencilReference(uint32(ref))
	}
	for slot, st := range a.streams {
		if a.streamsDirty&(1<<slot) != 0 && st.buf != nil {
			a.pass.SetVertexBuffer(uint32(slot), st.buf.buf, st.offset)
		}
	}
	if a.dirty&dirtyIndex != 0 && a.index != nil {
		a.pass.SetIndexBuffer(a.index.buf, a.indexFormat, 0)
	}
	a.dirty, a.streamsDirty = 0, 0
	return nil
}

// Draw draws count vertices starting at first.
func (a *Adapter) Draw(prim gfx.Primitive, first, count uint32) error {
	if err := a.prepare(prim); err != nil {
		return err
	}
	a.pass.Draw(count, 1, first, 0)
	a.draws++
	return nil
}

// DrawIndexed draws count indices starting at index first.
func (a *Adapter) DrawIndexed(prim gfx.Primitive, first, count uint32, baseVertex int32) error {
	if a.index == nil {
		return fmt.Errorf("unified: draw indexed: %w", gfx.ErrInvalidContext)
	}
	if err := a.prepare(prim); err != nil {
		return err
	}
	a.pass.DrawIndexed(count, 1, first, baseVertex, 0)
	a.draws++
	return nil
}

// submit ends the pass and submits the recorded commands.
func (a *Adapter) submit() error {
	a.endPass()
	if a.encoder == nil {
		return nil
	}
	enc := a.encoder
	a.encoder, a.draws = nil, 0

	cmd, err := enc.EndEncoding()
	if err != nil {
		enc.Destroy()
		return halErr("EndEncoding", err)
	}
	idx, err := a.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		a.dev.FreeCommandBuffer(cmd)
		enc.Destroy()
		return halErr("Submit", err)
	}
	a.submitted = idx
	a.inflight = append(a.inflight, submission{index: idx, cmd: cmd, encoder: enc})
	return nil
}

// reclaim frees command buffers and retired objects whose submissions
// completed.
func (a *Adapter) reclaim() {
	done := a.queue.PollCompleted()
	a.inflight = slices.DeleteFunc(a.inflight, func(s submission) bool {
		if s.index > done {
			return false
		}
		a.dev.FreeCommandBuffer(s.cmd)
		s.encoder.Destroy()
		return true
	})
	a.retired = slices.DeleteFunc(a.retired, func(r retired) bool {
		if r.after > done {
			return false
		}
		r.destroy()
		return true
	})
}

// EndFrame submits the frame's commands. Presentation is left to the
// windowing layer.
func (a *Adapter) EndFrame() error {
	err := a.submit()
	a.reclaim()
	return err
}

// Reset discards recorded commands, cached pipelines and bind groups and
// forgets every tracked binding.
func (a *Adapter) Reset() error {
	a.endPass()
	if a.encoder != nil {
		a.encoder.DiscardEncoding()
		a.encoder.Destroy()
		a.encoder = nil
	}
	a.pipelines.Clear()
	a.textureGroups.Clear()
	for _, s := range a.inflight {
		a.dev.FreeCommandBuffer(s.cmd)
		s.encoder.Destroy()
	}
	for _, r := range a.retired {
		r.destroy()
	}
	a.inflight, a.retired = nil, nil

	a.render = gfx.InvalidRenderStates()
	a.stages = gfx.InvalidTextureStates()
	a.program = nil
	a.textures = nil
	a.streams = nil
	a.index = nil
	a.indexFormat = gputypes.IndexFormatUint16
	a.useBack = true
	a.target = targets{}
	a.hasPipeline = false
	a.draws = 0
	a.dirty = dirtyAll
	gfx.Logger().Debug("unified: adapter reset")
	return nil
}

package gfx

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/gogpu/gfx/handle"
)

// Device owns the resources of one native device and the last context
// applied to it. Bind compares a requested context against the retained one
// and forwards only the groups that differ to the Adapter.
//
// A Device is not safe for concurrent use. See the dispatch package for
// driving one from several goroutines.
type Device struct {
	adapter Adapter
	caps    Caps
	opts    options
	stages  int

	programs *handle.Named[*Program]
	textures *handle.Table[*Texture]
	buffers  *handle.Table[*Buffer]
	uniforms *handle.Table[*Uniform]

	binder Binder
	active Context
	primed bool
	state  DeviceState

	// viewportStale is set from a target change until the viewport for
	// the new target has been applied.
	viewportStale bool
}

// NewDevice creates a Device driving a. The first Bind is always applied in
// full since nothing is known about the native state yet.
func NewDevice(a Adapter, opts ...Option) (*Device, error) {
	if a == nil {
		return nil, ErrNilAdapter
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	d := &Device{
		adapter: a,
		caps:    a.Caps(),
		opts:    o,
	}
	d.stages = min(MaxTextureStages, o.maxTextureStages)
	if d.caps.MaxTextureStages > 0 {
		d.stages = min(d.stages, d.caps.MaxTextureStages)
	}

	d.programs = handle.NewNamed(func(p *Program) { a.Release(p.Native) })
	d.textures = handle.New(func(t *Texture) { a.Release(t.Native) })
	d.buffers = handle.New(func(b *Buffer) { a.Release(b.Native) })
	d.uniforms = handle.New(func(u *Uniform) { a.Release(u.Native) })
	d.binder = newBinder(a, d.textures)
	return d, nil
}

// Adapter returns the adapter driving the device.
func (d *Device) Adapter() Adapter { return d.adapter }

// Caps returns the capabilities reported by the adapter.
func (d *Device) Caps() Caps { return d.caps }

// TextureStages returns the number of texture stages Bind applies.
func (d *Device) TextureStages() int { return d.stages }

// Binder returns the render-target binder.
func (d *Device) Binder() *Binder { return &d.binder }

// ActiveContext returns a copy of the last applied context.
func (d *Device) ActiveContext() *Context {
	return d.active.Clone()
}

// Bind brings the device into the state described by ctx. Groups equal to
// the retained context are skipped unless force is set.
//
// On failure the retained context reflects the groups that completed. An
// invalid handle is reported before any native call when strict handle
// checking is enabled (the default).
func (d *Device) Bind(ctx *Context, force bool) error {
	if d.state == Recovering {
		return ErrDeviceLost
	}
	if ctx == nil {
		return fmt.Errorf("%w: nil context", ErrInvalidContext)
	}
	if err := ctx.Targets.Validate(); err != nil {
		return err
	}
	if d.opts.strictHandles {
		if err := d.validate(ctx); err != nil {
			Logger().Error("gfx: bind rejected", slog.Any("err", err))
			return err
		}
	}
	return d.checkLost(d.bind(ctx, force || !d.primed))
}

// Rebind re-applies the retained context in full. Use it after code outside
// the device issued native calls directly.
func (d *Device) Rebind() error {
	return d.Bind(d.active.Clone(), true)
}

func (d *Device) bind(ctx *Context, force bool) error {
	if err := d.bindProgram(ctx, force); err != nil {
		return fmt.Errorf("gfx: program group: %w", err)
	}
	if err := d.bindRenderStates(ctx, force); err != nil {
		return fmt.Errorf("gfx: render state group: %w", err)
	}
	if err := d.bindTextureStates(ctx, force); err != nil {
		return fmt.Errorf("gfx: texture stage group: %w", err)
	}
	if err := d.bindTargets(ctx, force); err != nil {
		return fmt.Errorf("gfx: target group: %w", err)
	}
	if err := d.bindStreams(ctx, force); err != nil {
		return fmt.Errorf("gfx: stream group: %w", err)
	}
	if force {
		d.primed = true
	}
	return nil
}

func (d *Device) bindProgram(ctx *Context, force bool) error {
	a := &d.active
	switched := force || ctx.Program != a.Program
	pushUniforms := switched || !slices.Equal(ctx.Uniforms, a.Uniforms) || d.anyDirty(ctx.Uniforms)
	pushTextures := switched || !slices.Equal(ctx.Textures, a.Textures)
	if !pushUniforms && !pushTextures {
		Logger().Debug("gfx: program group unchanged")
		return nil
	}

	next, err := d.program(ctx.Program)
	if err != nil {
		return err
	}
	if switched {
		prev, _ := d.programs.Lookup(handle.Handle(a.Program))
		if err := d.adapter.BindProgram(prev, next); err != nil {
			return err
		}
		a.Program = ctx.Program
	}

	if pushUniforms {
		us := make([]*Uniform, len(ctx.Uniforms))
		for i, id := range ctx.Uniforms {
			u, ok := d.uniforms.Lookup(handle.Handle(id))
			if !ok {
				return fmt.Errorf("%w: uniform %d", ErrInvalidHandle, id)
			}
			us[i] = u
		}
		if err := d.adapter.PushUniforms(next, us); err != nil {
			return err
		}
		for _, u := range us {
			u.dirty = false
		}
		a.Uniforms = slices.Clone(ctx.Uniforms)
	}

	if pushTextures {
		ts := make([]*Texture, len(ctx.Textures))
		for i, id := range ctx.Textures {
			t, err := d.texture(id)
			if err != nil {
				return err
			}
			ts[i] = t
		}
		if err := d.adapter.BindTextures(ts); err != nil {
			return err
		}
		a.Textures = slices.Clone(ctx.Textures)
	}
	return nil
}

func (d *Device) anyDirty(ids []UniformID) bool {
	for _, id := range ids {
		if u, ok := d.uniforms.Lookup(handle.Handle(id)); ok && u.dirty {
			return true
		}
	}
	return false
}

func (d *Device) bindRenderStates(ctx *Context, force bool) error {
	delta := diffRenderStates(&d.active.RenderStates, &ctx.RenderStates, force)
	if !delta.Empty() {
		if err := d.adapter.ApplyRenderStates(&delta); err != nil {
			return err
		}
	}
	d.active.RenderStates = ctx.RenderStates
	return nil
}

func (d *Device) bindTextureStates(ctx *Context, force bool) error {
	delta := diffTextureStates(&d.active.TextureStates, &ctx.TextureStates, d.stages, force)
	if !delta.Empty() {
		if err := d.adapter.ApplyTextureStates(&delta, d.stages); err != nil {
			return err
		}
	}
	d.active.TextureStates = ctx.TextureStates
	return nil
}

func (d *Device) bindTargets(ctx *Context, force bool) error {
	a := &d.active
	rebind, err := d.binder.Bind(&a.Targets, &ctx.Targets, force)
	if err != nil {
		return err
	}
	if rebind {
		a.Targets = ctx.Targets.Clone()
		d.viewportStale = true
	}

	if !d.viewportStale && !force && ctx.Viewport == a.Viewport && ctx.Scissor == a.Scissor {
		return nil
	}
	vp := d.binder.ResolveViewport(ctx.Viewport)
	sc := d.binder.ResolveScissor(ctx.Scissor, vp)
	if err := d.adapter.SetViewport(vp, sc, d.binder.Size()); err != nil {
		return err
	}
	a.Viewport, a.Scissor = ctx.Viewport, ctx.Scissor
	d.viewportStale = false
	return nil
}

func (d *Device) bindStreams(ctx *Context, force bool) error {
	a := &d.active
	for i, s := range ctx.VertexStreams {
		if !force && i < len(a.VertexStreams) && a.VertexStreams[i] == s {
			continue
		}
		buf, err := d.buffer(s.Buffer)
		if err != nil {
			return err
		}
		if err := d.adapter.BindVertexStream(i, buf, s.Stride, s.Offset); err != nil {
			return err
		}
		if i < len(a.VertexStreams) {
			a.VertexStreams[i] = s
		} else {
			a.VertexStreams = append(a.VertexStreams, s)
		}
	}
	for i := len(a.VertexStreams) - 1; i >= len(ctx.VertexStreams); i-- {
		if err := d.adapter.BindVertexStream(i, nil, 0, 0); err != nil {
			return err
		}
		a.VertexStreams = a.VertexStreams[:i]
	}

	if force || ctx.IndexBuffer != a.IndexBuffer {
		buf, err := d.buffer(ctx.IndexBuffer)
		if err != nil {
			return err
		}
		if err := d.adapter.BindIndexBuffer(buf); err != nil {
			return err
		}
		a.IndexBuffer = ctx.IndexBuffer
	}
	return nil
}

// validate checks every handle ctx references before anything is applied.
// Zero handles are allowed where they mean "nothing bound".
func (d *Device) validate(ctx *Context) error {
	if ctx.Program != 0 && !d.programs.Valid(handle.Handle(ctx.Program)) {
		return fmt.Errorf("%w: program %d", ErrInvalidHandle, ctx.Program)
	}
	for _, id := range ctx.Uniforms {
		if !d.uniforms.Valid(handle.Handle(id)) {
			return fmt.Errorf("%w: uniform %d", ErrInvalidHandle, id)
		}
	}
	for _, id := range ctx.Textures {
		if id != 0 && !d.textures.Valid(handle.Handle(id)) {
			return fmt.Errorf("%w: texture %d", ErrInvalidHandle, id)
		}
	}
	for i, c := range ctx.Targets.Colors {
		if !d.textures.Valid(handle.Handle(c.Texture)) {
			return fmt.Errorf("%w: color target %d", ErrInvalidHandle, i)
		}
	}
	if t := ctx.Targets.Depth.Texture; t != 0 && !d.textures.Valid(handle.Handle(t)) {
		return fmt.Errorf("%w: depth target", ErrInvalidHandle)
	}
	for i, s := range ctx.VertexStreams {
		if s.Buffer != 0 && !d.buffers.Valid(handle.Handle(s.Buffer)) {
			return fmt.Errorf("%w: vertex stream %d", ErrInvalidHandle, i)
		}
	}
	if ctx.IndexBuffer != 0 && !d.buffers.Valid(handle.Handle(ctx.IndexBuffer)) {
		return fmt.Errorf("%w: index buffer %d", ErrInvalidHandle, ctx.IndexBuffer)
	}
	return nil
}

func (d *Device) program(id ProgramID) (*Program, error) {
	if id == 0 {
		return nil, nil
	}
	p, ok := d.programs.Lookup(handle.Handle(id))
	if !ok {
		return nil, fmt.Errorf("%w: program %d", ErrInvalidHandle, id)
	}
	return p, nil
}

func (d *Device) texture(id TextureID) (*Texture, error) {
	if id == 0 {
		return nil, nil
	}
	t, ok := d.textures.Lookup(handle.Handle(id))
	if !ok {
		return nil, fmt.Errorf("%w: texture %d", ErrInvalidHandle, id)
	}
	return t, nil
}

func (d *Device) buffer(id BufferID) (*Buffer, error) {
	if id == 0 {
		return nil, nil
	}
	b, ok := d.buffers.Lookup(handle.Handle(id))
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", ErrInvalidHandle, id)
	}
	return b, nil
}

// Draw draws count vertices starting at first with the bound context.
func (d *Device) Draw(prim Primitive, first, count uint32) error {
	if d.state == Recovering {
		return ErrDeviceLost
	}
	return d.checkLost(d.adapter.Draw(prim, first, count))
}

// DrawIndexed draws count indices starting at first from the bound index
// buffer.
func (d *Device) DrawIndexed(prim Primitive, first, count uint32, baseVertex int32) error {
	if d.state == Recovering {
		return ErrDeviceLost
	}
	if d.active.IndexBuffer == 0 {
		return fmt.Errorf("%w: no index buffer bound", ErrInvalidContext)
	}
	return d.checkLost(d.adapter.DrawIndexed(prim, first, count, baseVertex))
}

// EndFrame submits or presents the frame.
func (d *Device) EndFrame() error {
	if d.state == Recovering {
		return ErrDeviceLost
	}
	return d.checkLost(d.adapter.EndFrame())
}

// checkLost enters recovery when err reports device loss.
func (d *Device) checkLost(err error) error {
	if err != nil && errors.Is(err, ErrDeviceLost) && d.state == Ready {
		d.BeginRecovery()
	}
	return err
}

// Close destroys every resource the device still owns and returns it to
// its initial state. The next Bind is applied in full.
func (d *Device) Close() {
	d.programs.Clear()
	d.textures.Clear()
	d.buffers.Clear()
	d.uniforms.Clear()
	d.active = Context{}
	d.primed = false
	d.viewportStale = false
	d.binder = newBinder(d.adapter, d.textures)
	d.state = Ready
}

// CreateProgram creates a program. Named programs must have unique names.
func (d *Device) CreateProgram(desc *ProgramDesc) (ProgramID, error) {
	native, err := d.adapter.CreateProgram(desc)
	if err != nil {
		return 0, d.checkLost(fmt.Errorf("gfx: create program %q: %w", desc.Name, err))
	}
	h, err := d.programs.Add(desc.Name, &Program{Desc: *desc, Native: native})
	if err != nil {
		d.adapter.Release(native)
		return 0, err
	}
	return ProgramID(h), nil
}

// FindProgram returns the program created with name.
func (d *Device) FindProgram(name string) (ProgramID, bool) {
	h := d.programs.Find(name)
	return ProgramID(h), h != handle.Invalid
}

// DestroyProgram destroys a program.
func (d *Device) DestroyProgram(id ProgramID) error {
	if !d.programs.Remove(handle.Handle(id)) {
		return fmt.Errorf("%w: program %d", ErrInvalidHandle, id)
	}
	return nil
}

// CreateTexture creates a texture.
func (d *Device) CreateTexture(desc *TextureDesc) (TextureID, error) {
	native, err := d.adapter.CreateTexture(desc)
	if err != nil {
		return 0, d.checkLost(fmt.Errorf("gfx: create texture: %w", err))
	}
	return TextureID(d.textures.Add(&Texture{Desc: *desc, Native: native})), nil
}

// DestroyTexture destroys a texture.
func (d *Device) DestroyTexture(id TextureID) error {
	if !d.textures.Remove(handle.Handle(id)) {
		return fmt.Errorf("%w: texture %d", ErrInvalidHandle, id)
	}
	return nil
}

// CreateBuffer creates a vertex or index buffer.
func (d *Device) CreateBuffer(desc *BufferDesc) (BufferID, error) {
	native, err := d.adapter.CreateBuffer(desc)
	if err != nil {
		return 0, d.checkLost(fmt.Errorf("gfx: create buffer: %w", err))
	}
	return BufferID(d.buffers.Add(&Buffer{Desc: *desc, Native: native})), nil
}

// DestroyBuffer destroys a buffer.
func (d *Device) DestroyBuffer(id BufferID) error {
	if !d.buffers.Remove(handle.Handle(id)) {
		return fmt.Errorf("%w: buffer %d", ErrInvalidHandle, id)
	}
	return nil
}

// CreateUniform creates a constant block initialized to zero.
func (d *Device) CreateUniform(desc *UniformDesc) (UniformID, error) {
	native, err := d.adapter.CreateUniform(desc)
	if err != nil {
		return 0, d.checkLost(fmt.Errorf("gfx: create uniform %q: %w", desc.Name, err))
	}
	u := &Uniform{
		Desc:   *desc,
		Native: native,
		data:   make([]float32, desc.Vec4s*4),
		dirty:  true,
	}
	return UniformID(d.uniforms.Add(u)), nil
}

// SetUniform copies data into the constant block. The block is pushed by
// the next Bind that references it.
func (d *Device) SetUniform(id UniformID, data []float32) error {
	u, ok := d.uniforms.Lookup(handle.Handle(id))
	if !ok {
		return fmt.Errorf("%w: uniform %d", ErrInvalidHandle, id)
	}
	if len(data) > len(u.data) {
		return fmt.Errorf("%w: uniform %q holds %d floats, got %d",
			ErrInvalidContext, u.Desc.Name, len(u.data), len(data))
	}
	copy(u.data, data)
	u.dirty = true
	return nil
}

// DestroyUniform destroys a constant block.
func (d *Device) DestroyUniform(id UniformID) error {
	if !d.uniforms.Remove(handle.Handle(id)) {
		return fmt.Errorf("%w: uniform %d", ErrInvalidHandle, id)
	}
	return nil
}

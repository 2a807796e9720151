package fixed

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/internal/statecache"
	"github.com/gogpu/gfx/shader"
)

// Adapter drives a fixed-function device with optional programmable
// stages. State deltas are recorded into native state blocks, which are
// cached by their translated contents and replayed with a single call.
type Adapter struct {
	dev      Device
	native   NativeCaps
	caps     gfx.Caps
	blocks   *statecache.Cache[string, StateBlock]
	fallback gfx.FallbackLog

	// Effective native state, for values that span several slots.
	render gfx.RenderStateBlock

	textures int
	targets  int
}

var _ gfx.Adapter = (*Adapter)(nil)

type program struct {
	vs, ps any
}

// New creates an Adapter over dev.
func New(dev Device, o gfx.OpenOptions) (*Adapter, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	a := &Adapter{
		dev:    dev,
		native: dev.Caps(),
		render: gfx.InvalidRenderStates(),
	}
	a.caps = convertCaps(a.native)
	a.blocks = statecache.New[string, StateBlock](o.StateCacheSize, func(b StateBlock) { b.Release() })
	if err := a.restoreDefaults(); err != nil {
		return nil, err
	}
	return a, nil
}

func convertCaps(n NativeCaps) gfx.Caps {
	c := gfx.Caps{
		Flags:            gfx.CapTextureCombine,
		MaxTextureStages: int(n.MaxTextureBlendStages),
		MaxColorTargets:  max(int(n.MaxSimultaneousRTs), 1),
		MaxVertexStreams: int(n.MaxStreams),
	}
	if n.TextureOpCaps&TexOpCapsDotProduct3 != 0 {
		c.Flags |= gfx.CapDot3
	}
	if n.TextureOpCaps&TexOpCapsLerp != 0 {
		c.Flags |= gfx.CapThreeOperandCombiner
	}
	if n.PrimitiveMiscCaps&MiscCapsPerStageConstant != 0 {
		c.Flags |= gfx.CapPerStageConstant
	}
	if n.StencilCaps&(StencilCapsIncr|StencilCapsDecr) == StencilCapsIncr|StencilCapsDecr {
		c.Flags |= gfx.CapStencilWrap
	}
	if n.PrimitiveMiscCaps&MiscCapsSeparateAlphaBlend != 0 {
		c.Flags |= gfx.CapSeparateBlend
	}
	if n.PrimitiveMiscCaps&MiscCapsBlendOp != 0 {
		c.Flags |= gfx.CapBlendMinMax | gfx.CapBlendSubtract
	}
	return c
}

// restoreDefaults sets the native state the adapter relies on but never
// derives from a context.
func (a *Adapter) restoreDefaults() error {
	if err := a.dev.SetRenderState(RSTextureFactor, math.MaxUint32); err != nil {
		return nativeErr("SetRenderState", err)
	}
	if !a.caps.Has(gfx.CapPerStageConstant) {
		return nil
	}
	for stage := range uint32(a.caps.MaxTextureStages) {
		if err := a.dev.SetTextureStageState(stage, TSSConstant, math.MaxUint32); err != nil {
			return nativeErr("SetTextureStageState", err)
		}
	}
	return nil
}

// Name returns gfx.BackendFixed.
func (a *Adapter) Name() string { return gfx.BackendFixed }

// Caps returns the capabilities derived from the native caps.
func (a *Adapter) Caps() gfx.Caps { return a.caps }

// Stats returns state block cache statistics.
func (a *Adapter) Stats() statecache.Stats { return a.blocks.Stats() }

// Fallbacks returns the number of distinct capability fallbacks taken.
func (a *Adapter) Fallbacks() int { return a.fallback.Count() }

func (a *Adapter) compile(stage string, desc gfx.ShaderDesc, create func(src, entry string) (any, error)) (any, error) {
	if desc.Source == "" {
		return nil, nil
	}
	code, err := shader.Compile(desc.Source, desc.Entry, shader.HLSL)
	if err != nil {
		return nil, fmt.Errorf("fixed: compile %s shader: %w", stage, err)
	}
	obj, err := create(code.Source, code.Entry)
	if err != nil {
		return nil, nativeErr("Create"+stage+"Shader", err)
	}
	return obj, nil
}

// CreateProgram compiles the stages to HLSL and creates native shaders.
// A stage with no source stays on the fixed-function path.
func (a *Adapter) CreateProgram(desc *gfx.ProgramDesc) (any, error) {
	vs, err := a.compile("Vertex", desc.Vertex, a.dev.CreateVertexShader)
	if err != nil {
		return nil, err
	}
	ps, err := a.compile("Pixel", desc.Fragment, a.dev.CreatePixelShader)
	if err != nil {
		if vs != nil {
			a.dev.Release(vs)
		}
		return nil, err
	}
	return &program{vs: vs, ps: ps}, nil
}

func textureFormat(f gputypes.TextureFormat) (Format, bool) {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm:
		return FmtA8B8G8R8, false
	case gputypes.TextureFormatBGRA8Unorm:
		return FmtA8R8G8B8, false
	case gputypes.TextureFormatR8Unorm:
		return FmtL8, false
	case gputypes.TextureFormatDepth24PlusStencil8:
		return FmtD24S8, true
	case gputypes.TextureFormatDepth32Float:
		return FmtD32F, true
	default:
		return FmtUnknown, false
	}
}

// CreateTexture creates a native texture.
func (a *Adapter) CreateTexture(desc *gfx.TextureDesc) (any, error) {
	format, depth := textureFormat(desc.Format)
	if format == FmtUnknown {
		return nil, fmt.Errorf("fixed: texture format %v: %w", desc.Format, gfx.ErrCapabilityUnsupported)
	}
	var usage Usage
	switch {
	case desc.RenderTarget && depth:
		usage = UsageDepthStencil
	case desc.RenderTarget:
		usage = UsageRenderTarget
	}
	tex, err := a.dev.CreateTexture(desc.Width, desc.Height, max(desc.MipLevels, 1), usage, format)
	if err != nil {
		return nil, nativeErr("CreateTexture", err)
	}
	return tex, nil
}

// CreateBuffer creates a native vertex or index buffer.
func (a *Adapter) CreateBuffer(desc *gfx.BufferDesc) (any, error) {
	if desc.Size > math.MaxUint32 {
		return nil, fmt.Errorf("fixed: buffer size %d: %w", desc.Size, gfx.ErrCapabilityUnsupported)
	}
	if desc.Usage&gputypes.BufferUsageIndex != 0 {
		format := FmtIndex16
		if desc.IndexFormat == gputypes.IndexFormatUint32 {
			format = FmtIndex32
		}
		buf, err := a.dev.CreateIndexBuffer(uint32(desc.Size), format)
		return buf, nativeErr("CreateIndexBuffer", err)
	}
	buf, err := a.dev.CreateVertexBuffer(uint32(desc.Size))
	return buf, nativeErr("CreateVertexBuffer", err)
}

// CreateUniform returns no native object; constants live in the device's
// constant registers.
func (a *Adapter) CreateUniform(*gfx.UniformDesc) (any, error) {
	return nil, nil
}

// Release destroys a native object.
func (a *Adapter) Release(native any) {
	switch v := native.(type) {
	case nil:
	case *program:
		if v.vs != nil {
			a.dev.Release(v.vs)
		}
		if v.ps != nil {
			a.dev.Release(v.ps)
		}
	default:
		a.dev.Release(v)
	}
}

// BindProgram detaches the shaders of prev and attaches those of next.
func (a *Adapter) BindProgram(prev, next *gfx.Program) error {
	if prev != nil {
		if err := a.dev.SetVertexShader(nil); err != nil {
			return nativeErr("SetVertexShader", err)
		}
		if err := a.dev.SetPixelShader(nil); err != nil {
			return nativeErr("SetPixelShader", err)
		}
	}
	if next == nil {
		return nil
	}
	p := next.Native.(*program)
	if p.vs != nil {
		if err := a.dev.SetVertexShader(p.vs); err != nil {
			return nativeErr("SetVertexShader", err)
		}
	}
	if p.ps != nil {
		if err := a.dev.SetPixelShader(p.ps); err != nil {
			return nativeErr("SetPixelShader", err)
		}
	}
	return nil
}

// PushUniforms writes constants to both stages' register files.
func (a *Adapter) PushUniforms(p *gfx.Program, uniforms []*gfx.Uniform) error {
	if p == nil {
		return nil
	}
	for _, u := range uniforms {
		if err := a.dev.SetVertexShaderConstantF(u.Desc.Register, u.Data()); err != nil {
			return nativeErr("SetVertexShaderConstantF", err)
		}
		if err := a.dev.SetPixelShaderConstantF(u.Desc.Register, u.Data()); err != nil {
			return nativeErr("SetPixelShaderConstantF", err)
		}
	}
	return nil
}

// BindTextures binds textures to samplers and clears samplers left over
// from the previous list.
func (a *Adapter) BindTextures(textures []*gfx.Texture) error {
	for i, t := range textures {
		var native any
		if t != nil {
			native = t.Native
		}
		if err := a.dev.SetTexture(uint32(i), native); err != nil {
			return nativeErr("SetTexture", err)
		}
	}
	for i := len(textures); i < a.textures; i++ {
		if err := a.dev.SetTexture(uint32(i), nil); err != nil {
			return nativeErr("SetTexture", err)
		}
	}
	a.textures = len(textures)
	return nil
}

// record returns the cached state block for key, recording it with rec on
// a miss, and applies it.
func (a *Adapter) record(key string, rec func() error) error {
	block, err := a.blocks.GetOrCreate(key, func() (StateBlock, error) {
		gfx.Logger().Debug("fixed: recording state block", slog.Int("key_bytes", len(key)))
		if err := a.dev.BeginStateBlock(); err != nil {
			return nil, nativeErr("BeginStateBlock", err)
		}
		if err := rec(); err != nil {
			if b, endErr := a.dev.EndStateBlock(); endErr == nil && b != nil {
				b.Release()
			}
			return nil, err
		}
		b, err := a.dev.EndStateBlock()
		if err != nil {
			return nil, nativeErr("EndStateBlock", err)
		}
		return b, nil
	})
	if err != nil {
		return err
	}
	return nativeErr("StateBlock.Apply", block.Apply())
}

// ApplyRenderStates applies the specified changes in d through a cached
// state block.
func (a *Adapter) ApplyRenderStates(d *gfx.RenderStateDelta) error {
	ops := a.translateRender(d)
	if len(ops) > 0 {
		err := a.record(renderKey(ops), func() error {
			for _, op := range ops {
				if err := a.dev.SetRenderState(op.state, op.value); err != nil {
					return nativeErr("SetRenderState", err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	a.render.Merge(*d)
	return nil
}

// ApplyTextureStates applies the specified changes of the first stages
// stages in d through a cached state block.
func (a *Adapter) ApplyTextureStates(d *gfx.TextureStateDelta, stages int) error {
	ops := a.translateStages(d, stages)
	if len(ops) == 0 {
		return nil
	}
	return a.record(stageKey(ops), func() error {
		for _, op := range ops {
			if err := a.dev.SetTextureStageState(op.stage, op.state, op.value); err != nil {
				return nativeErr("SetTextureStageState", err)
			}
		}
		return nil
	})
}

// BindTargets binds color and depth surfaces. Color target 0 can never be
// empty natively, so a depth-only set keeps the back buffer color.
func (a *Adapter) BindTargets(colors []gfx.BoundTarget, depth *gfx.BoundTarget) error {
	backColor, backDepth, _, _ := a.dev.BackBuffer()

	if len(colors) == 0 {
		if err := a.dev.SetRenderTarget(0, backColor); err != nil {
			return nativeErr("SetRenderTarget", err)
		}
	}
	for i, c := range colors {
		surf, err := a.dev.Surface(c.Texture.Native, c.Face, c.Level)
		if err != nil {
			return nativeErr("Surface", err)
		}
		if err := a.dev.SetRenderTarget(uint32(i), surf); err != nil {
			return nativeErr("SetRenderTarget", err)
		}
	}
	n := max(len(colors), 1)
	for i := n; i < a.targets; i++ {
		if err := a.dev.SetRenderTarget(uint32(i), nil); err != nil {
			return nativeErr("SetRenderTarget", err)
		}
	}
	a.targets = n

	var ds any
	switch {
	case depth != nil:
		surf, err := a.dev.Surface(depth.Texture.Native, depth.Face, depth.Level)
		if err != nil {
			return nativeErr("Surface", err)
		}
		ds = surf
	case len(colors) == 0:
		ds = backDepth
	}
	return nativeErr("SetDepthStencilSurface", a.dev.SetDepthStencilSurface(ds))
}

// BackBufferSize returns the current back buffer size.
func (a *Adapter) BackBufferSize() gfx.Size {
	_, _, w, h := a.dev.BackBuffer()
	return gfx.Size{W: w, H: h}
}

// SetViewport sets the viewport and the scissor rectangle. The native
// origin is the top-left corner, as in gfx.
func (a *Adapter) SetViewport(viewport, scissor gfx.Rect, _ gfx.Size) error {
	vp := Viewport{X: viewport.X, Y: viewport.Y, Width: viewport.W, Height: viewport.H, MaxZ: 1}
	if err := a.dev.SetViewport(vp); err != nil {
		return nativeErr("SetViewport", err)
	}
	r := ScissorRect{
		Left:   int32(scissor.X),
		Top:    int32(scissor.Y),
		Right:  int32(scissor.X + scissor.W),
		Bottom: int32(scissor.Y + scissor.H),
	}
	return nativeErr("SetScissorRect", a.dev.SetScissorRect(r))
}

// BindVertexStream binds buf to a stream source.
func (a *Adapter) BindVertexStream(slot int, buf *gfx.Buffer, stride uint32, offset uint64) error {
	var native any
	if buf != nil {
		native = buf.Native
	} else {
		stride, offset = 0, 0
	}
	return nativeErr("SetStreamSource", a.dev.SetStreamSource(uint32(slot), native, uint32(offset), stride))
}

// BindIndexBuffer binds buf as the index buffer. The index format was
// fixed when the buffer was created.
func (a *Adapter) BindIndexBuffer(buf *gfx.Buffer) error {
	var native any
	if buf != nil {
		native = buf.Native
	}
	return nativeErr("SetIndices", a.dev.SetIndices(native))
}

// Draw draws count vertices.
func (a *Adapter) Draw(prim gfx.Primitive, first, count uint32) error {
	n := primitiveCount(prim, count)
	if n == 0 {
		return nil
	}
	return nativeErr("DrawPrimitive", a.dev.DrawPrimitive(primitiveTypes[prim], first, n))
}

// DrawIndexed draws count indices.
func (a *Adapter) DrawIndexed(prim gfx.Primitive, first, count uint32, baseVertex int32) error {
	n := primitiveCount(prim, count)
	if n == 0 {
		return nil
	}
	return nativeErr("DrawIndexedPrimitive", a.dev.DrawIndexedPrimitive(primitiveTypes[prim], baseVertex, first, n))
}

// EndFrame presents the back buffer.
func (a *Adapter) EndFrame() error {
	return nativeErr("Present", a.dev.Present())
}

// Reset drops every cached state block and the tracked device state, then
// restores the adapter defaults.
func (a *Adapter) Reset() error {
	a.blocks.Clear()
	a.render = gfx.InvalidRenderStates()
	a.textures = 0
	a.targets = 0
	gfx.Logger().Debug("fixed: adapter reset")
	return a.restoreDefaults()
}

package fixed

import (
	"fmt"
	"slices"
)

// fakeDevice records native calls and keeps the resulting device state.
type fakeDevice struct {
	caps NativeCaps

	calls []string

	failOn  string
	failErr error

	render map[RenderStateType]uint32
	stages map[[2]uint32]uint32

	recording *fakeBlock
	created   int
	released  int

	targets  map[uint32]any
	depth    any
	textures map[uint32]any
	viewport Viewport
	scissor  ScissorRect
	draws    [][3]uint32 // type, start, primitives

	width, height uint32
	nextObj       int
}

type fakeBlock struct {
	dev    *fakeDevice
	render []renderOp
	stages []stageOp
}

func (b *fakeBlock) Apply() error {
	if err := b.dev.record("Apply"); err != nil {
		return err
	}
	for _, op := range b.render {
		b.dev.render[op.state] = op.value
	}
	for _, op := range b.stages {
		b.dev.stages[[2]uint32{op.stage, uint32(op.state)}] = op.value
	}
	return nil
}

func (b *fakeBlock) Release() { b.dev.released++ }

// fullCaps reports every optional feature.
func fullCaps() NativeCaps {
	return NativeCaps{
		MaxTextureBlendStages: 8,
		MaxSimultaneousRTs:    4,
		MaxStreams:            16,
		TextureOpCaps:         TexOpCapsDotProduct3 | TexOpCapsLerp,
		StencilCaps:           StencilCapsIncr | StencilCapsDecr,
		PrimitiveMiscCaps:     MiscCapsBlendOp | MiscCapsPerStageConstant | MiscCapsSeparateAlphaBlend,
	}
}

// basicCaps reports a two-stage device without optional features.
func basicCaps() NativeCaps {
	return NativeCaps{MaxTextureBlendStages: 2, MaxSimultaneousRTs: 1, MaxStreams: 4}
}

func newFakeDevice(caps NativeCaps) *fakeDevice {
	return &fakeDevice{
		caps:     caps,
		render:   make(map[RenderStateType]uint32),
		stages:   make(map[[2]uint32]uint32),
		targets:  make(map[uint32]any),
		textures: make(map[uint32]any),
		width:    640,
		height:   480,
	}
}

func (f *fakeDevice) record(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return f.failErr
	}
	return nil
}

func (f *fakeDevice) reset() { f.calls = nil }

func (f *fakeDevice) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeDevice) called(name string) bool { return slices.Contains(f.calls, name) }

func (f *fakeDevice) object(kind string) any {
	f.nextObj++
	return fmt.Sprintf("%s#%d", kind, f.nextObj)
}

func (f *fakeDevice) Caps() NativeCaps { return f.caps }

func (f *fakeDevice) SetRenderState(state RenderStateType, value uint32) error {
	if err := f.record("SetRenderState"); err != nil {
		return err
	}
	if f.recording != nil {
		f.recording.render = append(f.recording.render, renderOp{state, value})
		return nil
	}
	f.render[state] = value
	return nil
}

func (f *fakeDevice) SetTextureStageState(stage uint32, state TextureStageStateType, value uint32) error {
	if err := f.record("SetTextureStageState"); err != nil {
		return err
	}
	if f.recording != nil {
		f.recording.stages = append(f.recording.stages, stageOp{stage, state, value})
		return nil
	}
	f.stages[[2]uint32{stage, uint32(state)}] = value
	return nil
}

func (f *fakeDevice) BeginStateBlock() error {
	if err := f.record("BeginStateBlock"); err != nil {
		return err
	}
	f.recording = &fakeBlock{dev: f}
	return nil
}

func (f *fakeDevice) EndStateBlock() (StateBlock, error) {
	if err := f.record("EndStateBlock"); err != nil {
		return nil, err
	}
	b := f.recording
	f.recording = nil
	f.created++
	return b, nil
}

func (f *fakeDevice) CreateVertexShader(source, entry string) (any, error) {
	if err := f.record("CreateVertexShader"); err != nil {
		return nil, err
	}
	return f.object("vs"), nil
}

func (f *fakeDevice) CreatePixelShader(source, entry string) (any, error) {
	if err := f.record("CreatePixelShader"); err != nil {
		return nil, err
	}
	return f.object("ps"), nil
}

func (f *fakeDevice) SetVertexShader(any) error { return f.record("SetVertexShader") }
func (f *fakeDevice) SetPixelShader(any) error  { return f.record("SetPixelShader") }

func (f *fakeDevice) SetVertexShaderConstantF(uint32, []float32) error {
	return f.record("SetVertexShaderConstantF")
}

func (f *fakeDevice) SetPixelShaderConstantF(uint32, []float32) error {
	return f.record("SetPixelShaderConstantF")
}

func (f *fakeDevice) CreateTexture(width, height, levels uint32, usage Usage, format Format) (any, error) {
	if err := f.record("CreateTexture"); err != nil {
		return nil, err
	}
	return f.object("tex"), nil
}

func (f *fakeDevice) CreateVertexBuffer(uint32) (any, error) {
	if err := f.record("CreateVertexBuffer"); err != nil {
		return nil, err
	}
	return f.object("vb"), nil
}

func (f *fakeDevice) CreateIndexBuffer(uint32, Format) (any, error) {
	if err := f.record("CreateIndexBuffer"); err != nil {
		return nil, err
	}
	return f.object("ib"), nil
}

func (f *fakeDevice) Release(any) { f.calls = append(f.calls, "Release") }

func (f *fakeDevice) SetTexture(sampler uint32, texture any) error {
	if err := f.record("SetTexture"); err != nil {
		return err
	}
	f.textures[sampler] = texture
	return nil
}

func (f *fakeDevice) SetStreamSource(uint32, any, uint32, uint32) error {
	return f.record("SetStreamSource")
}

func (f *fakeDevice) SetIndices(any) error { return f.record("SetIndices") }

func (f *fakeDevice) Surface(texture any, face, level uint32) (any, error) {
	if err := f.record("Surface"); err != nil {
		return nil, err
	}
	return fmt.Sprintf("%v/%d/%d", texture, face, level), nil
}

func (f *fakeDevice) SetRenderTarget(index uint32, surface any) error {
	if err := f.record("SetRenderTarget"); err != nil {
		return err
	}
	f.targets[index] = surface
	return nil
}

func (f *fakeDevice) SetDepthStencilSurface(surface any) error {
	if err := f.record("SetDepthStencilSurface"); err != nil {
		return err
	}
	f.depth = surface
	return nil
}

func (f *fakeDevice) BackBuffer() (color, depth any, width, height uint32) {
	return "backbuffer", "backdepth", f.width, f.height
}

func (f *fakeDevice) SetViewport(vp Viewport) error {
	if err := f.record("SetViewport"); err != nil {
		return err
	}
	f.viewport = vp
	return nil
}

func (f *fakeDevice) SetScissorRect(r ScissorRect) error {
	if err := f.record("SetScissorRect"); err != nil {
		return err
	}
	f.scissor = r
	return nil
}

func (f *fakeDevice) DrawPrimitive(pt PrimitiveType, start, prims uint32) error {
	if err := f.record("DrawPrimitive"); err != nil {
		return err
	}
	f.draws = append(f.draws, [3]uint32{uint32(pt), start, prims})
	return nil
}

func (f *fakeDevice) DrawIndexedPrimitive(pt PrimitiveType, _ int32, start, prims uint32) error {
	if err := f.record("DrawIndexedPrimitive"); err != nil {
		return err
	}
	f.draws = append(f.draws, [3]uint32{uint32(pt), start, prims})
	return nil
}

func (f *fakeDevice) Present() error { return f.record("Present") }

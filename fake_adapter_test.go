package gfx

import (
	"fmt"
	"slices"
)

// fakeAdapter records every native call it receives.
type fakeAdapter struct {
	caps  Caps
	back  Size
	calls []string

	failOn  string
	failErr error

	nextNative int
	released   []any
	resets     int

	programs      [][2]*Program // prev, next
	uniforms      [][]*Uniform
	textures      [][]*Texture
	renderDeltas  []RenderStateDelta
	textureDeltas []TextureStateDelta
	stages        []int
	targets       [][]BoundTarget
	viewports     [][3]any // viewport, scissor, target size
	streams       []*Buffer
	indexBuffers  []*Buffer
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		caps: Caps{MaxTextureStages: MaxTextureStages, MaxColorTargets: MaxColorTargets, MaxVertexStreams: 8},
		back: Size{W: 800, H: 600},
	}
}

func (f *fakeAdapter) record(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return f.failErr
	}
	return nil
}

func (f *fakeAdapter) reset() { f.calls = nil }

func (f *fakeAdapter) called(name string) bool {
	return slices.Contains(f.calls, name)
}

func (f *fakeAdapter) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeAdapter) create(kind string) (any, error) {
	if err := f.record("Create" + kind); err != nil {
		return nil, err
	}
	f.nextNative++
	return fmt.Sprintf("%s#%d", kind, f.nextNative), nil
}

func (f *fakeAdapter) Name() string { return "fake" }
func (f *fakeAdapter) Caps() Caps   { return f.caps }

func (f *fakeAdapter) CreateProgram(*ProgramDesc) (any, error) { return f.create("Program") }
func (f *fakeAdapter) CreateTexture(*TextureDesc) (any, error) { return f.create("Texture") }
func (f *fakeAdapter) CreateBuffer(*BufferDesc) (any, error)   { return f.create("Buffer") }
func (f *fakeAdapter) CreateUniform(*UniformDesc) (any, error) { return f.create("Uniform") }

func (f *fakeAdapter) Release(native any) {
	f.released = append(f.released, native)
}

func (f *fakeAdapter) BindProgram(prev, next *Program) error {
	f.programs = append(f.programs, [2]*Program{prev, next})
	return f.record("BindProgram")
}

func (f *fakeAdapter) PushUniforms(_ *Program, us []*Uniform) error {
	f.uniforms = append(f.uniforms, us)
	return f.record("PushUniforms")
}

func (f *fakeAdapter) BindTextures(ts []*Texture) error {
	f.textures = append(f.textures, ts)
	return f.record("BindTextures")
}

func (f *fakeAdapter) ApplyRenderStates(d *RenderStateDelta) error {
	f.renderDeltas = append(f.renderDeltas, *d)
	return f.record("ApplyRenderStates")
}

func (f *fakeAdapter) ApplyTextureStates(d *TextureStateDelta, stages int) error {
	f.textureDeltas = append(f.textureDeltas, *d)
	f.stages = append(f.stages, stages)
	return f.record("ApplyTextureStates")
}

func (f *fakeAdapter) BindTargets(colors []BoundTarget, _ *BoundTarget) error {
	f.targets = append(f.targets, colors)
	return f.record("BindTargets")
}

func (f *fakeAdapter) BackBufferSize() Size { return f.back }

func (f *fakeAdapter) SetViewport(vp, sc Rect, target Size) error {
	f.viewports = append(f.viewports, [3]any{vp, sc, target})
	return f.record("SetViewport")
}

func (f *fakeAdapter) BindVertexStream(_ int, buf *Buffer, _ uint32, _ uint64) error {
	f.streams = append(f.streams, buf)
	return f.record("BindVertexStream")
}

func (f *fakeAdapter) BindIndexBuffer(buf *Buffer) error {
	f.indexBuffers = append(f.indexBuffers, buf)
	return f.record("BindIndexBuffer")
}

func (f *fakeAdapter) Draw(Primitive, uint32, uint32) error { return f.record("Draw") }

func (f *fakeAdapter) DrawIndexed(Primitive, uint32, uint32, int32) error {
	return f.record("DrawIndexed")
}

func (f *fakeAdapter) EndFrame() error { return f.record("EndFrame") }

func (f *fakeAdapter) Reset() error {
	f.resets++
	return f.record("Reset")
}

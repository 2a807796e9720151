package fixed

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gfx"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	orig := gfx.Logger()
	t.Cleanup(func() { gfx.SetLogger(orig) })

	var buf bytes.Buffer
	gfx.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	return &buf
}

func newTestDevice(t *testing.T, caps NativeCaps) (*gfx.Device, *Adapter, *fakeDevice) {
	t.Helper()
	fake := newFakeDevice(caps)
	a, err := New(fake, gfx.OpenOptions{StateCacheSize: 16})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	dev, err := gfx.NewDevice(a)
	if err != nil {
		t.Fatalf("NewDevice() error = %v", err)
	}
	return dev, a, fake
}

func defaultContext() *gfx.Context {
	var ctx gfx.Context
	ctx.Reset()
	return &ctx
}

func mustBind(t *testing.T, dev *gfx.Device, ctx *gfx.Context) {
	t.Helper()
	if err := dev.Bind(ctx, false); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
}

func TestNewRejectsNilDevice(t *testing.T) {
	if _, err := New(nil, gfx.OpenOptions{}); !errors.Is(err, ErrNilDevice) {
		t.Errorf("New(nil) error = %v, want ErrNilDevice", err)
	}
}

func TestConvertCaps(t *testing.T) {
	full := convertCaps(fullCaps())
	for _, f := range []gfx.CapFlags{
		gfx.CapDot3, gfx.CapThreeOperandCombiner, gfx.CapPerStageConstant,
		gfx.CapStencilWrap, gfx.CapSeparateBlend, gfx.CapBlendMinMax, gfx.CapBlendSubtract,
	} {
		if !full.Has(f) {
			t.Errorf("full caps miss flag %#x", f)
		}
	}
	basic := convertCaps(basicCaps())
	if basic.Flags != gfx.CapTextureCombine {
		t.Errorf("basic caps flags = %#x, want only texture combine", basic.Flags)
	}
	if basic.MaxTextureStages != 2 || basic.MaxColorTargets != 1 {
		t.Errorf("basic caps = %+v", basic)
	}
}

func TestRestoreDefaults(t *testing.T) {
	_, _, fake := newTestDevice(t, fullCaps())
	if got := fake.render[RSTextureFactor]; got != 0xFFFFFFFF {
		t.Errorf("texture factor = %#x, want opaque white", got)
	}
	if got := fake.stages[[2]uint32{7, uint32(TSSConstant)}]; got != 0xFFFFFFFF {
		t.Errorf("stage 7 constant = %#x, want opaque white", got)
	}
}

func TestThreeOperandFallbackLoggedOnce(t *testing.T) {
	logs := captureLogs(t)
	dev, a, fake := newTestDevice(t, basicCaps())

	lerp := defaultContext()
	for s, v := range map[gfx.TextureState]gfx.TextureStateValue{
		gfx.TSColorOp:   gfx.TexOpLerp,
		gfx.TSColorArg2: gfx.TexArgDiffuse,
	} {
		if err := lerp.TextureStates.Set(0, s, v); err != nil {
			t.Fatal(err)
		}
	}

	for range 3 {
		mustBind(t, dev, lerp)
		mustBind(t, dev, defaultContext())
	}
	mustBind(t, dev, lerp)

	if got := fake.stages[[2]uint32{0, uint32(TSSColorOp)}]; got != TopModulate {
		t.Errorf("stage 0 color op = %d, want modulate %d", got, TopModulate)
	}
	if _, ok := fake.stages[[2]uint32{0, uint32(TSSColorArg0)}]; ok {
		t.Error("third operand written on a device without three-operand combiners")
	}
	if n := strings.Count(logs.String(), "three-operand combiner unsupported"); n != 1 {
		t.Errorf("fallback logged %d times, want 1", n)
	}
	// Separate alpha blending falls back too on this device.
	if a.Fallbacks() != 2 {
		t.Errorf("Fallbacks() = %d, want 2", a.Fallbacks())
	}
}

func TestThreeOperandNative(t *testing.T) {
	logs := captureLogs(t)
	dev, _, fake := newTestDevice(t, fullCaps())

	ctx := defaultContext()
	if err := ctx.TextureStates.Set(1, gfx.TSColorOp, gfx.TexOpLerp); err != nil {
		t.Fatal(err)
	}
	if err := ctx.TextureStates.Set(1, gfx.TSColorArg2, gfx.TexArgConstant); err != nil {
		t.Fatal(err)
	}
	mustBind(t, dev, ctx)

	if got := fake.stages[[2]uint32{1, uint32(TSSColorOp)}]; got != TopLerp {
		t.Errorf("stage 1 color op = %d, want lerp", got)
	}
	if got := fake.stages[[2]uint32{1, uint32(TSSColorArg0)}]; got != TAConstant {
		t.Errorf("stage 1 third operand = %d, want constant", got)
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected warnings: %s", logs)
	}
}

func TestTextureFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		state gfx.TextureState
		value gfx.TextureStateValue
		nat   TextureStageStateType
		want  uint32
		msg   string
	}{
		{"dot3", gfx.TSColorOp, gfx.TexOpDot3, TSSColorOp, TopSelectArg1, "dot3 combiner unsupported"},
		{"constant", gfx.TSColorArg1, gfx.TexArgConstant, TSSColorArg2, TATFactor, "per-stage constants unsupported"},
		{"constant alpha", gfx.TSAlphaArg0, gfx.TexArgConstantAlpha, TSSAlphaArg1, TATFactor, "per-stage constants unsupported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			dev, _, fake := newTestDevice(t, basicCaps())
			ctx := defaultContext()
			if err := ctx.TextureStates.Set(0, tt.state, tt.value); err != nil {
				t.Fatal(err)
			}
			mustBind(t, dev, ctx)
			if got := fake.stages[[2]uint32{0, uint32(tt.nat)}]; got != tt.want {
				t.Errorf("native state %d = %d, want %d", tt.nat, got, tt.want)
			}
			if !strings.Contains(logs.String(), tt.msg) {
				t.Errorf("fallback %q not logged: %s", tt.msg, logs)
			}
		})
	}
}

func TestRenderStateFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		state gfx.RenderState
		value gfx.RenderStateValue
		nat   RenderStateType
		want  uint32
		msg   string
	}{
		{"stencil wrap", gfx.RSStencilPass, gfx.StencilIncrWrap, RSStencilPass, 4, "wrapping stencil ops unsupported"},
		{"stencil wrap decr", gfx.RSStencilFail, gfx.StencilDecrWrap, RSStencilFail, 5, "wrapping stencil ops unsupported"},
		{"blend max", gfx.RSBlendOp, gfx.BlendOpMax, RSBlendOp, 1, "min/max blending unsupported"},
		{"blend subtract", gfx.RSBlendOp, gfx.BlendOpSubtract, RSBlendOp, 1, "subtractive blending unsupported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			dev, _, fake := newTestDevice(t, basicCaps())
			ctx := defaultContext()
			if err := ctx.RenderStates.Set(tt.state, tt.value); err != nil {
				t.Fatal(err)
			}
			mustBind(t, dev, ctx)
			if got := fake.render[tt.nat]; got != tt.want {
				t.Errorf("native state %d = %d, want %d", tt.nat, got, tt.want)
			}
			if !strings.Contains(logs.String(), tt.msg) {
				t.Errorf("fallback %q not logged: %s", tt.msg, logs)
			}
		})
	}
}

func TestSeparateBlendFallbackSkipsAlphaStates(t *testing.T) {
	captureLogs(t)
	dev, _, fake := newTestDevice(t, basicCaps())
	mustBind(t, dev, defaultContext())

	for _, s := range []RenderStateType{RSSrcBlendAlpha, RSDestBlendAlpha, RSBlendOpAlpha, RSSeparateAlphaBlendEnable} {
		if _, ok := fake.render[s]; ok {
			t.Errorf("native state %d written without separate blend support", s)
		}
	}

	dev, _, fake = newTestDevice(t, fullCaps())
	mustBind(t, dev, defaultContext())
	if fake.render[RSSeparateAlphaBlendEnable] != 1 {
		t.Error("separate alpha blending not enabled")
	}
}

func TestCullMode(t *testing.T) {
	tests := []struct {
		cull, front gfx.RenderStateValue
		want        uint32
	}{
		{gfx.CullNone, gfx.FrontCCW, CullNone},
		{gfx.CullBack, gfx.FrontCCW, CullCW},
		{gfx.CullBack, gfx.FrontCW, CullCCW},
		{gfx.CullFront, gfx.FrontCCW, CullCCW},
		{gfx.CullFront, gfx.FrontCW, CullCW},
	}
	for _, tt := range tests {
		if got := cullMode(tt.cull, tt.front); got != tt.want {
			t.Errorf("cullMode(%v, %v) = %d, want %d", tt.cull, tt.front, got, tt.want)
		}
	}
}

func TestFrontFaceChangeRewritesCullMode(t *testing.T) {
	dev, _, fake := newTestDevice(t, fullCaps())
	mustBind(t, dev, defaultContext())
	if got := fake.render[RSCullMode]; got != CullCW {
		t.Fatalf("default cull = %d, want CW", got)
	}

	ctx := defaultContext()
	if err := ctx.RenderStates.Set(gfx.RSFrontFace, gfx.FrontCW); err != nil {
		t.Fatal(err)
	}
	mustBind(t, dev, ctx)
	if got := fake.render[RSCullMode]; got != CullCCW {
		t.Errorf("cull after front face change = %d, want CCW", got)
	}
}

func TestFrontFaceAloneLeavesCullMode(t *testing.T) {
	dev, _, fake := newTestDevice(t, fullCaps())

	var ctx gfx.Context
	if err := ctx.RenderStates.Set(gfx.RSFrontFace, gfx.FrontCW); err != nil {
		t.Fatal(err)
	}
	mustBind(t, dev, &ctx)
	if got, ok := fake.render[RSCullMode]; ok {
		t.Fatalf("cull mode written as %d with the cull slot unspecified", got)
	}

	// The winding is remembered for the first cull write.
	if err := ctx.RenderStates.Set(gfx.RSCullMode, gfx.CullBack); err != nil {
		t.Fatal(err)
	}
	mustBind(t, dev, &ctx)
	if got := fake.render[RSCullMode]; got != CullCCW {
		t.Errorf("cull = %d, want CCW for back faces with CW winding", got)
	}
}

func TestStateBlocksAreCached(t *testing.T) {
	dev, a, fake := newTestDevice(t, fullCaps())
	a1 := defaultContext()
	a2 := defaultContext()
	if err := a2.RenderStates.Set(gfx.RSDepthWrite, gfx.False); err != nil {
		t.Fatal(err)
	}

	// First bind records the full render and texture blocks; each switch
	// after that records one render block until both directions are cached.
	for _, ctx := range []*gfx.Context{a1, a2, a1, a2, a1} {
		mustBind(t, dev, ctx)
	}
	st := a.Stats()
	if st.Misses != 4 || st.Hits != 2 {
		t.Errorf("Stats() = %+v, want 4 misses and 2 hits", st)
	}
	if fake.created != 4 {
		t.Errorf("state blocks recorded = %d, want 4", fake.created)
	}

	fake.reset()
	mustBind(t, dev, a2)
	if fake.called("BeginStateBlock") || fake.count("Apply") != 1 {
		t.Errorf("cached switch calls = %v, want a single Apply", fake.calls)
	}
}

func TestUnspecifiedStatesIssueNothing(t *testing.T) {
	dev, _, fake := newTestDevice(t, fullCaps())
	mustBind(t, dev, defaultContext())

	ctx := defaultContext()
	ctx.RenderStates = gfx.InvalidRenderStates()
	ctx.TextureStates = gfx.InvalidTextureStates()
	fake.reset()
	mustBind(t, dev, ctx)
	if fake.called("SetRenderState") || fake.called("SetTextureStageState") || fake.called("Apply") {
		t.Errorf("calls for unspecified states: %v", fake.calls)
	}
}

func TestBindTargets(t *testing.T) {
	dev, _, fake := newTestDevice(t, fullCaps())
	var ids []gfx.TextureID
	for range 2 {
		id, err := dev.CreateTexture(&gfx.TextureDesc{Width: 256, Height: 128, Format: gputypes.TextureFormatRGBA8Unorm, RenderTarget: true})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	depth, err := dev.CreateTexture(&gfx.TextureDesc{Width: 256, Height: 128, Format: gputypes.TextureFormatDepth24PlusStencil8, RenderTarget: true})
	if err != nil {
		t.Fatal(err)
	}

	ctx := defaultContext()
	ctx.Targets.Colors = []gfx.RenderTarget{{Texture: ids[0]}, {Texture: ids[1], Level: 1}}
	ctx.Targets.Depth = gfx.RenderTarget{Texture: depth}
	mustBind(t, dev, ctx)
	if fake.targets[1] == nil || fake.depth == nil || fake.depth == "backdepth" {
		t.Errorf("targets = %v, depth = %v", fake.targets, fake.depth)
	}
	if fake.viewport.Width != 256 || fake.viewport.Height != 128 {
		t.Errorf("viewport = %+v, want the target size", fake.viewport)
	}
	if fake.scissor != (ScissorRect{Right: 256, Bottom: 128}) {
		t.Errorf("scissor = %+v, want the viewport", fake.scissor)
	}

	mustBind(t, dev, defaultContext())
	if fake.targets[0] != "backbuffer" || fake.targets[1] != nil || fake.depth != "backdepth" {
		t.Errorf("back buffer bind: targets = %v, depth = %v", fake.targets, fake.depth)
	}
	if fake.viewport.Width != 640 || fake.viewport.Height != 480 {
		t.Errorf("viewport = %+v, want the back buffer size", fake.viewport)
	}
}

func TestCreateTextureUnsupportedFormat(t *testing.T) {
	dev, _, _ := newTestDevice(t, fullCaps())
	_, err := dev.CreateTexture(&gfx.TextureDesc{Width: 4, Height: 4, Format: gputypes.TextureFormatRG16Float})
	if !errors.Is(err, gfx.ErrCapabilityUnsupported) {
		t.Errorf("CreateTexture() error = %v, want ErrCapabilityUnsupported", err)
	}
}

func TestPrimitiveCount(t *testing.T) {
	tests := []struct {
		prim     gfx.Primitive
		vertices uint32
		want     uint32
	}{
		{gfx.PointList, 5, 5},
		{gfx.LineList, 6, 3},
		{gfx.LineStrip, 6, 5},
		{gfx.LineStrip, 1, 0},
		{gfx.TriangleList, 7, 2},
		{gfx.TriangleStrip, 6, 4},
		{gfx.TriangleStrip, 2, 0},
	}
	for _, tt := range tests {
		if got := primitiveCount(tt.prim, tt.vertices); got != tt.want {
			t.Errorf("primitiveCount(%v, %d) = %d, want %d", tt.prim, tt.vertices, got, tt.want)
		}
	}
}

func TestDraw(t *testing.T) {
	dev, _, fake := newTestDevice(t, fullCaps())
	mustBind(t, dev, defaultContext())
	if err := dev.Draw(gfx.TriangleList, 3, 6); err != nil {
		t.Fatal(err)
	}
	if len(fake.draws) != 1 || fake.draws[0] != [3]uint32{uint32(PTTriangleList), 3, 2} {
		t.Errorf("draws = %v", fake.draws)
	}
	if err := dev.EndFrame(); err != nil || !fake.called("Present") {
		t.Errorf("EndFrame() = %v, calls = %v", err, fake.calls)
	}
}

func TestProgramBinding(t *testing.T) {
	dev, _, fake := newTestDevice(t, fullCaps())
	ff, err := dev.CreateProgram(&gfx.ProgramDesc{Name: "fixed-function"})
	if err != nil {
		t.Fatal(err)
	}
	u, err := dev.CreateUniform(&gfx.UniformDesc{Name: "color", Vec4s: 1})
	if err != nil {
		t.Fatal(err)
	}

	ctx := defaultContext()
	ctx.Program = ff
	ctx.Uniforms = []gfx.UniformID{u}
	mustBind(t, dev, ctx)
	if fake.called("SetVertexShader") {
		t.Error("fixed-function program attached a vertex shader")
	}
	if fake.count("SetVertexShaderConstantF") != 1 || fake.count("SetPixelShaderConstantF") != 1 {
		t.Errorf("constants not pushed to both stages: %v", fake.calls)
	}

	fake.reset()
	mustBind(t, dev, defaultContext())
	if fake.count("SetVertexShader") != 1 || fake.count("SetPixelShader") != 1 {
		t.Errorf("switching away did not detach shaders: %v", fake.calls)
	}
}

func TestDeviceLossAndRecovery(t *testing.T) {
	dev, a, fake := newTestDevice(t, fullCaps())
	mustBind(t, dev, defaultContext())

	fake.failOn = "Present"
	fake.failErr = fmt.Errorf("present: %w", gfx.ErrDeviceLost)
	if err := dev.EndFrame(); !errors.Is(err, gfx.ErrDeviceLost) {
		t.Fatalf("EndFrame() error = %v, want ErrDeviceLost", err)
	}
	if dev.State() != gfx.Recovering {
		t.Fatalf("State() = %v, want Recovering", dev.State())
	}

	fake.failOn = ""
	cached := a.Stats().Len
	fake.reset()
	if err := dev.Recover(); err != nil {
		t.Fatalf("Recover() error = %v", err)
	}
	if fake.released != cached {
		t.Errorf("released %d state blocks, want %d", fake.released, cached)
	}
	if !fake.called("BeginStateBlock") {
		t.Error("Recover() did not re-record state blocks")
	}
	if dev.State() != gfx.Ready {
		t.Errorf("State() = %v, want Ready", dev.State())
	}
}

func TestNativeErrors(t *testing.T) {
	dev, _, fake := newTestDevice(t, fullCaps())
	fake.failOn = "BeginStateBlock"
	fake.failErr = errors.New("out of memory")
	err := dev.Bind(defaultContext(), false)
	if !errors.Is(err, gfx.ErrNativeCall) {
		t.Errorf("Bind() error = %v, want ErrNativeCall", err)
	}
	if dev.State() != gfx.Ready {
		t.Error("native failure entered recovery")
	}
}

func TestOpenRegistered(t *testing.T) {
	dev, err := gfx.Open(gfx.BackendFixed, newFakeDevice(fullCaps()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if dev.Adapter().Name() != gfx.BackendFixed {
		t.Errorf("adapter name = %q", dev.Adapter().Name())
	}
	if _, err := gfx.Open(gfx.BackendFixed, "not a device"); !errors.Is(err, ErrNotDevice) {
		t.Errorf("Open(string) error = %v, want ErrNotDevice", err)
	}
}

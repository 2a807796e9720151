package gfx

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/gfx/handle"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestResolveViewportClamps(t *testing.T) {
	logs := captureLogs(t)
	fake := newFakeAdapter() // 800x600 back buffer
	b := newBinder(fake, handle.New[*Texture](nil))

	got := b.ResolveViewport(Rect{X: 700, Y: 500, W: 200, H: 200})
	if want := (Rect{X: 700, Y: 500, W: 100, H: 100}); got != want {
		t.Errorf("ResolveViewport() = %v, want %v", got, want)
	}
	if !strings.Contains(logs.String(), "viewport clamped") {
		t.Errorf("no clamp warning logged: %q", logs.String())
	}
}

func TestResolveViewport(t *testing.T) {
	tests := []struct {
		name string
		in   Rect
		want Rect
		warn bool
	}{
		{"zero is full target", Rect{}, Rect{W: 800, H: 600}, false},
		{"inside", Rect{X: 10, Y: 20, W: 100, H: 100}, Rect{X: 10, Y: 20, W: 100, H: 100}, false},
		{"exact", Rect{W: 800, H: 600}, Rect{W: 800, H: 600}, false},
		{"too large", Rect{W: 1000, H: 700}, Rect{W: 800, H: 600}, true},
		{"origin outside", Rect{X: 900, Y: 700, W: 10, H: 10}, Rect{X: 800, Y: 600}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			b := newBinder(newFakeAdapter(), handle.New[*Texture](nil))
			if got := b.ResolveViewport(tt.in); got != tt.want {
				t.Errorf("ResolveViewport(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if warned := logs.Len() > 0; warned != tt.warn {
				t.Errorf("warned = %v, want %v", warned, tt.warn)
			}
		})
	}
}

func TestResolveScissor(t *testing.T) {
	b := newBinder(newFakeAdapter(), handle.New[*Texture](nil))
	vp := Rect{X: 10, Y: 10, W: 50, H: 50}
	if got := b.ResolveScissor(Rect{}, vp); got != vp {
		t.Errorf("zero scissor = %v, want viewport %v", got, vp)
	}
	sc := Rect{X: 700, Y: 0, W: 200, H: 10}
	if got, want := b.ResolveScissor(sc, vp), (Rect{X: 700, W: 100, H: 10}); got != want {
		t.Errorf("ResolveScissor(%v) = %v, want %v", sc, got, want)
	}
}

func TestBinderSize(t *testing.T) {
	fake := newFakeAdapter()
	textures := handle.New[*Texture](nil)
	color := TextureID(textures.Add(&Texture{Desc: TextureDesc{Width: 512, Height: 256}}))
	depth := TextureID(textures.Add(&Texture{Desc: TextureDesc{Width: 128, Height: 64}}))
	b := newBinder(fake, textures)

	tests := []struct {
		name string
		set  RenderTargetSet
		want Size
	}{
		{"back buffer", RenderTargetSet{}, Size{W: 800, H: 600}},
		{"color", RenderTargetSet{Colors: []RenderTarget{{Texture: color}}}, Size{W: 512, H: 256}},
		{"color mip", RenderTargetSet{Colors: []RenderTarget{{Texture: color, Level: 2}}}, Size{W: 128, H: 64}},
		{"mip floor", RenderTargetSet{Colors: []RenderTarget{{Texture: color, Level: 9}}}, Size{W: 1, H: 1}},
		{"depth only", RenderTargetSet{Depth: RenderTarget{Texture: depth}}, Size{W: 128, H: 64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prev RenderTargetSet
			if _, err := b.Bind(&prev, &tt.set, true); err != nil {
				t.Fatal(err)
			}
			if got := b.Size(); got != tt.want {
				t.Errorf("Size() = %v, want %v", got, tt.want)
			}
		})
	}

	fake.back = Size{W: 1024, H: 768}
	var prev RenderTargetSet
	if _, err := b.Bind(&prev, &RenderTargetSet{}, true); err != nil {
		t.Fatal(err)
	}
	if got := b.Size(); got != fake.back {
		t.Errorf("Size() after resize = %v, want %v", got, fake.back)
	}
}

func TestBinderBindSkipsEqualSets(t *testing.T) {
	fake := newFakeAdapter()
	textures := handle.New[*Texture](nil)
	rt := TextureID(textures.Add(&Texture{Desc: TextureDesc{Width: 64, Height: 64}}))
	b := newBinder(fake, textures)

	set := RenderTargetSet{Colors: []RenderTarget{{Texture: rt}}}
	same := set.Clone()
	rebind, err := b.Bind(&set, &same, false)
	if err != nil || rebind {
		t.Errorf("Bind(equal) = %v, %v, want false, nil", rebind, err)
	}
	if fake.called("BindTargets") {
		t.Error("Bind(equal) called the adapter")
	}

	rebind, err = b.Bind(&set, &same, true)
	if err != nil || !rebind {
		t.Errorf("Bind(equal, force) = %v, %v, want true, nil", rebind, err)
	}
}

func TestBinderBindUnknownTexture(t *testing.T) {
	b := newBinder(newFakeAdapter(), handle.New[*Texture](nil))
	var prev RenderTargetSet
	next := RenderTargetSet{Colors: []RenderTarget{{Texture: 5}}}
	if _, err := b.Bind(&prev, &next, false); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Bind() error = %v, want ErrInvalidHandle", err)
	}
}

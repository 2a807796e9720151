// Command gfxdemo renders a spinning triangle through the gfx device on a
// headless HAL device and reports the pipeline cache statistics.
//
// Usage:
//
//	gfxdemo -config gfxdemo.toml -frames 300 -threaded
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/backend/unified"
	"github.com/gogpu/gfx/dispatch"
)

const shaderSource = `
struct Uniforms {
    mvp: mat4x4<f32>,
    tint: vec4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;

@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    var pos = array<vec2<f32>, 3>(
        vec2<f32>(0.0, 0.5),
        vec2<f32>(-0.5, -0.5),
        vec2<f32>(0.5, -0.5)
    );
    return u.mvp * vec4<f32>(pos[idx], 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return u.tint;
}
`

func main() {
	var (
		configPath = flag.String("config", "", "TOML config file")
		frames     = flag.Int("frames", 0, "frames to render (overrides config)")
		threaded   = flag.Bool("threaded", false, "render on a dispatch queue goroutine")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *frames > 0 {
		cfg.Frames = *frames
	}
	if *threaded {
		cfg.Threaded = true
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	level, err := cfg.level()
	if err != nil {
		log.Fatal(err)
	}
	gfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(&cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *Config) error {
	native, cleanup, err := openHeadless(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer cleanup()

	dev, err := gfx.Open(gfx.BackendUnified, native, gfx.WithStateCacheSize(cfg.StateCacheSize))
	if err != nil {
		return err
	}
	defer dev.Close()

	prog, err := dev.CreateProgram(&gfx.ProgramDesc{
		Name:     "spin",
		Vertex:   gfx.ShaderDesc{Source: shaderSource, Entry: "vs_main"},
		Fragment: gfx.ShaderDesc{Source: shaderSource, Entry: "fs_main"},
	})
	if err != nil {
		return err
	}
	uniforms, err := dev.CreateUniform(&gfx.UniformDesc{Name: "frame", Vec4s: 5})
	if err != nil {
		return err
	}

	var ctx gfx.Context
	ctx.Reset()
	ctx.Program = prog
	ctx.Uniforms = []gfx.UniformID{uniforms}

	cam := cfg.Camera
	aspect := float32(cfg.Width) / float32(cfg.Height)
	projection := mgl32.Perspective(mgl32.DegToRad(cam.FOV), aspect, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, cam.Distance}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})

	var q *dispatch.Queue
	if cfg.Threaded {
		q = dispatch.New(dev, 8)
		defer q.Close()
	}

	for frame := range cfg.Frames {
		model := mgl32.HomogRotate3DZ(mgl32.DegToRad(cam.Spin * float32(frame)))
		mvp := projection.Mul4(view).Mul4(model)
		data := append(mvp[:], cfg.Tint[:]...)

		blend := gfx.False
		if cfg.BlendEvery > 0 && (frame/cfg.BlendEvery)%2 == 1 {
			blend = gfx.True
		}
		if err := ctx.RenderStates.Set(gfx.RSBlend, blend); err != nil {
			return err
		}

		cmds := []dispatch.Command{
			dispatch.Func(func(d *gfx.Device) error { return d.SetUniform(uniforms, data) }),
			dispatch.Bind{Context: &ctx},
			dispatch.Draw{Primitive: gfx.TriangleList, Count: 3},
			dispatch.EndFrame{},
		}
		if err := renderFrame(dev, q, cmds); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
	}
	if q != nil {
		if err := q.Flush(context.Background()); err != nil {
			return err
		}
	}

	a := dev.Adapter().(*unified.Adapter)
	st := a.Stats()
	gfx.Logger().Info("gfxdemo: done",
		slog.Int("frames", cfg.Frames),
		slog.Int("pipelines", st.Len),
		slog.Uint64("hits", st.Hits),
		slog.Uint64("misses", st.Misses),
		slog.Int("fallbacks", a.Fallbacks()))
	fmt.Printf("%d frames, %d pipelines (%d hits, %d misses)\n", cfg.Frames, st.Len, st.Hits, st.Misses)
	return nil
}

// renderFrame runs one frame's commands. With a queue the commands run on
// its render goroutine and the call waits for the frame to end.
func renderFrame(dev *gfx.Device, q *dispatch.Queue, cmds []dispatch.Command) error {
	if q == nil {
		for _, cmd := range cmds {
			if err := dispatch.Exec(dev, cmd); err != nil {
				return fmt.Errorf("%v: %w", cmd.Type(), err)
			}
		}
		return nil
	}
	results := make([]<-chan error, len(cmds))
	for i, cmd := range cmds {
		results[i] = q.Submit(cmd)
	}
	for i, r := range results {
		if err := <-r; err != nil {
			return fmt.Errorf("%v: %w", cmds[i].Type(), err)
		}
	}
	return nil
}

// openHeadless opens the noop HAL device with a back buffer of the given
// size.
func openHeadless(width, height uint32) (*unified.Config, func(), error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("gfxdemo: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, fmt.Errorf("gfxdemo: no adapters")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, fmt.Errorf("gfxdemo: open adapter: %w", err)
	}
	cleanup := func() {
		open.Device.Destroy()
		instance.Destroy()
	}

	back, err := open.Device.CreateTexture(&hal.TextureDescriptor{
		Label:         "gfxdemo_back_buffer",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("gfxdemo: back buffer: %w", err)
	}
	view, err := open.Device.CreateTextureView(back, &hal.TextureViewDescriptor{Label: "gfxdemo_back_view"})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("gfxdemo: back buffer view: %w", err)
	}

	return &unified.Config{
		Device:           open.Device,
		Queue:            open.Queue,
		BackBuffer:       view,
		BackBufferFormat: gputypes.TextureFormatBGRA8Unorm,
		Width:            width,
		Height:           height,
	}, cleanup, nil
}

// Package gfx is the device-abstraction core of a real-time renderer.
//
// # Overview
//
// Callers describe the complete GPU state they want for a draw as a
// declarative [Context] value. A [Device] keeps the last context it applied
// and, on every [Device.Bind], issues only the native calls needed to move
// the hardware from that state to the new one. The native work is done by an
// [Adapter]; three adapters ship with the module:
//
//   - backend/unified: modern unified-shader pipeline over the gogpu/wgpu HAL
//   - backend/fixed: fixed-function plus programmable pipeline (Direct3D 9 model)
//   - backend/arb: extension-driven OpenGL fixed/ARB pipeline
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/gfx"
//	    _ "github.com/gogpu/gfx/backend/unified"
//	)
//
//	dev, err := gfx.Open("unified", &unified.Config{Device: halDevice, Queue: halQueue})
//	if err != nil {
//	    return err
//	}
//	prog, _ := dev.CreateProgram(&gfx.ProgramDesc{Name: "sprite", Vertex: vs, Fragment: fs})
//
//	var ctx gfx.Context
//	ctx.Reset()
//	ctx.Program = prog
//	ctx.RenderStates.Set(gfx.RSBlend, gfx.True)
//	if err := dev.Bind(&ctx, false); err != nil {
//	    return err // skip the frame
//	}
//	_ = dev.Draw(gfx.TriangleList, 0, 6)
//
// # State descriptors
//
// [RenderStateBlock] and [TextureStateBlock] map a closed set of state
// identifiers to values. Every slot is a [Slot]: either a value or
// unspecified, meaning "leave the device as it is". [DeltaRenderStates]
// computes the minimal change between two blocks; backends with native state
// objects compile each distinct delta once and re-apply the cached object.
//
// # Groups
//
// Bind compares and applies five independent groups in order: program,
// render states, texture stages, render targets with viewport and scissor,
// vertex and index streams. A group whose state equals the retained context
// is skipped. Bind with force set re-applies everything, which is how a
// device is restored after loss (see [Device.Recover]).
//
// # Concurrency
//
// A Device is owned by one goroutine. The dispatch sub-package provides a
// FIFO command queue drained by a dedicated render goroutine for
// applications that produce work on other goroutines.
package gfx

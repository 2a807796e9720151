// Package glcall implements arb.Device over go-gl bindings for a GL 3.3
// compatibility context.
//
// The context must be current on the calling goroutine before New is
// called and for every later call; GL binds contexts per thread, so callers
// lock the render goroutine with runtime.LockOSThread.
package glcall

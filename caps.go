package gfx

import (
	"log/slog"
	"sync"
)

// CapFlags is a set of optional device features.
type CapFlags uint32

// Optional features. A backend that lacks one substitutes the closest
// supported behavior and warns once.
const (
	CapDot3 CapFlags = 1 << iota
	CapThreeOperandCombiner
	CapPerStageConstant
	CapStencilWrap
	CapSeparateBlend
	CapBlendMinMax
	CapBlendSubtract
	CapTextureCombine
)

// Caps describes what the active device supports.
type Caps struct {
	Flags            CapFlags
	MaxTextureStages int
	MaxColorTargets  int
	MaxVertexStreams int
}

// Has reports whether every feature in f is supported.
func (c Caps) Has(f CapFlags) bool {
	return c.Flags&f == f
}

// FallbackLog records capability fallbacks so each distinct cause is
// reported once per adapter instance.
type FallbackLog struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// Warn logs msg at warn level the first time cause is seen and reports
// whether it did.
func (f *FallbackLog) Warn(cause, msg string, args ...any) bool {
	f.mu.Lock()
	if _, ok := f.seen[cause]; ok {
		f.mu.Unlock()
		return false
	}
	if f.seen == nil {
		f.seen = make(map[string]struct{})
	}
	f.seen[cause] = struct{}{}
	f.mu.Unlock()

	Logger().Warn(msg, append([]any{slog.String("cause", cause)}, args...)...)
	return true
}

// Count returns the number of distinct causes reported.
func (f *FallbackLog) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

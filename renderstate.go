package gfx

import (
	"fmt"
	"iter"
)

// RenderState identifies one slot of a RenderStateBlock.
type RenderState uint8

// Render states, grouped by bundle.
const (
	// Raster bundle.
	RSFillMode RenderState = iota
	RSCullMode
	RSFrontFace
	RSScissorTest
	RSMultisample

	// Depth bundle.
	RSDepthTest
	RSDepthWrite
	RSDepthFunc

	// Stencil bundle.
	RSStencilTest
	RSStencilFunc
	RSStencilFail
	RSStencilDepthFail
	RSStencilPass
	RSStencilRef // raw 8-bit reference value

	// Blend bundle.
	RSBlend
	RSBlendSrc
	RSBlendDst
	RSBlendOp
	RSBlendSrcAlpha
	RSBlendDstAlpha
	RSBlendOpAlpha

	NumRenderStates
)

var renderStateNames = [NumRenderStates]string{
	RSFillMode:         "FillMode",
	RSCullMode:         "CullMode",
	RSFrontFace:        "FrontFace",
	RSScissorTest:      "ScissorTest",
	RSMultisample:      "Multisample",
	RSDepthTest:        "DepthTest",
	RSDepthWrite:       "DepthWrite",
	RSDepthFunc:        "DepthFunc",
	RSStencilTest:      "StencilTest",
	RSStencilFunc:      "StencilFunc",
	RSStencilFail:      "StencilFail",
	RSStencilDepthFail: "StencilDepthFail",
	RSStencilPass:      "StencilPass",
	RSStencilRef:       "StencilRef",
	RSBlend:            "Blend",
	RSBlendSrc:         "BlendSrc",
	RSBlendDst:         "BlendDst",
	RSBlendOp:          "BlendOp",
	RSBlendSrcAlpha:    "BlendSrcAlpha",
	RSBlendDstAlpha:    "BlendDstAlpha",
	RSBlendOpAlpha:     "BlendOpAlpha",
}

// String returns the state name.
func (s RenderState) String() string {
	if s < NumRenderStates {
		return renderStateNames[s]
	}
	return fmt.Sprintf("RenderState(%d)", uint8(s))
}

// RenderStateValue is the value held by a render-state slot. Each state
// accepts only its own subset; see RenderState.Legal.
type RenderStateValue uint8

// Render state values.
const (
	False RenderStateValue = iota
	True

	FillSolid
	FillWireframe
	FillPoint

	CullNone
	CullFront
	CullBack

	FrontCCW
	FrontCW

	CmpNever
	CmpLess
	CmpEqual
	CmpLessEqual
	CmpGreater
	CmpNotEqual
	CmpGreaterEqual
	CmpAlways

	StencilKeep
	StencilZero
	StencilReplace
	StencilIncrSat
	StencilDecrSat
	StencilInvert
	StencilIncrWrap
	StencilDecrWrap

	BlendZero
	BlendOne
	BlendSrcColor
	BlendInvSrcColor
	BlendSrcAlpha
	BlendInvSrcAlpha
	BlendDstColor
	BlendInvDstColor
	BlendDstAlpha
	BlendInvDstAlpha
	BlendSrcAlphaSat
	BlendFactor
	BlendInvFactor

	BlendOpAdd
	BlendOpSubtract
	BlendOpRevSubtract
	BlendOpMin
	BlendOpMax

	numRenderStateValues
)

var renderStateValueNames = [numRenderStateValues]string{
	"False", "True",
	"FillSolid", "FillWireframe", "FillPoint",
	"CullNone", "CullFront", "CullBack",
	"FrontCCW", "FrontCW",
	"CmpNever", "CmpLess", "CmpEqual", "CmpLessEqual", "CmpGreater", "CmpNotEqual", "CmpGreaterEqual", "CmpAlways",
	"StencilKeep", "StencilZero", "StencilReplace", "StencilIncrSat", "StencilDecrSat", "StencilInvert", "StencilIncrWrap", "StencilDecrWrap",
	"BlendZero", "BlendOne", "BlendSrcColor", "BlendInvSrcColor", "BlendSrcAlpha", "BlendInvSrcAlpha",
	"BlendDstColor", "BlendInvDstColor", "BlendDstAlpha", "BlendInvDstAlpha", "BlendSrcAlphaSat", "BlendFactor", "BlendInvFactor",
	"BlendOpAdd", "BlendOpSubtract", "BlendOpRevSubtract", "BlendOpMin", "BlendOpMax",
}

// String returns the value name.
func (v RenderStateValue) String() string {
	if v < numRenderStateValues {
		return renderStateValueNames[v]
	}
	return fmt.Sprintf("RenderStateValue(%d)", uint8(v))
}

// Bundle is a group of render states that native APIs set together.
type Bundle uint8

// Render-state bundles.
const (
	BundleRaster Bundle = iota
	BundleDepth
	BundleStencil
	BundleBlend

	NumBundles
)

var bundleStates = [NumBundles][]RenderState{
	BundleRaster:  {RSFillMode, RSCullMode, RSFrontFace, RSScissorTest, RSMultisample},
	BundleDepth:   {RSDepthTest, RSDepthWrite, RSDepthFunc},
	BundleStencil: {RSStencilTest, RSStencilFunc, RSStencilFail, RSStencilDepthFail, RSStencilPass, RSStencilRef},
	BundleBlend:   {RSBlend, RSBlendSrc, RSBlendDst, RSBlendOp, RSBlendSrcAlpha, RSBlendDstAlpha, RSBlendOpAlpha},
}

// States returns the states of the bundle in declaration order.
func (b Bundle) States() []RenderState {
	return bundleStates[b]
}

// Bundle returns the bundle a state belongs to.
func (s RenderState) Bundle() Bundle {
	switch {
	case s <= RSMultisample:
		return BundleRaster
	case s <= RSDepthFunc:
		return BundleDepth
	case s <= RSStencilRef:
		return BundleStencil
	default:
		return BundleBlend
	}
}

type valueRange struct {
	lo, hi RenderStateValue
	raw    bool
}

var renderStateLegal = [NumRenderStates]valueRange{
	RSFillMode:         {lo: FillSolid, hi: FillPoint},
	RSCullMode:         {lo: CullNone, hi: CullBack},
	RSFrontFace:        {lo: FrontCCW, hi: FrontCW},
	RSScissorTest:      {lo: False, hi: True},
	RSMultisample:      {lo: False, hi: True},
	RSDepthTest:        {lo: False, hi: True},
	RSDepthWrite:       {lo: False, hi: True},
	RSDepthFunc:        {lo: CmpNever, hi: CmpAlways},
	RSStencilTest:      {lo: False, hi: True},
	RSStencilFunc:      {lo: CmpNever, hi: CmpAlways},
	RSStencilFail:      {lo: StencilKeep, hi: StencilDecrWrap},
	RSStencilDepthFail: {lo: StencilKeep, hi: StencilDecrWrap},
	RSStencilPass:      {lo: StencilKeep, hi: StencilDecrWrap},
	RSStencilRef:       {raw: true},
	RSBlend:            {lo: False, hi: True},
	RSBlendSrc:         {lo: BlendZero, hi: BlendInvFactor},
	RSBlendDst:         {lo: BlendZero, hi: BlendInvFactor},
	RSBlendOp:          {lo: BlendOpAdd, hi: BlendOpMax},
	RSBlendSrcAlpha:    {lo: BlendZero, hi: BlendInvFactor},
	RSBlendDstAlpha:    {lo: BlendZero, hi: BlendInvFactor},
	RSBlendOpAlpha:     {lo: BlendOpAdd, hi: BlendOpMax},
}

// Legal reports whether v belongs to the legal value set of s.
func (s RenderState) Legal(v RenderStateValue) bool {
	if s >= NumRenderStates {
		return false
	}
	r := renderStateLegal[s]
	return r.raw || (v >= r.lo && v <= r.hi)
}

// RenderStateBlock maps every RenderState to a Slot. The zero value has
// every slot unspecified and equals InvalidRenderStates().
// Blocks are comparable with ==.
type RenderStateBlock struct {
	slots [NumRenderStates]Slot[RenderStateValue]
}

var defaultRenderStates = func() RenderStateBlock {
	var b RenderStateBlock
	for s, v := range map[RenderState]RenderStateValue{
		RSFillMode:         FillSolid,
		RSCullMode:         CullBack,
		RSFrontFace:        FrontCCW,
		RSScissorTest:      False,
		RSMultisample:      True,
		RSDepthTest:        True,
		RSDepthWrite:       True,
		RSDepthFunc:        CmpLessEqual,
		RSStencilTest:      False,
		RSStencilFunc:      CmpAlways,
		RSStencilFail:      StencilKeep,
		RSStencilDepthFail: StencilKeep,
		RSStencilPass:      StencilKeep,
		RSStencilRef:       0,
		RSBlend:            False,
		RSBlendSrc:         BlendSrcAlpha,
		RSBlendDst:         BlendInvSrcAlpha,
		RSBlendOp:          BlendOpAdd,
		RSBlendSrcAlpha:    BlendSrcAlpha,
		RSBlendDstAlpha:    BlendInvSrcAlpha,
		RSBlendOpAlpha:     BlendOpAdd,
	} {
		b.slots[s] = Value(v)
	}
	return b
}()

// DefaultRenderStates returns the block holding the documented pipeline
// default in every slot.
func DefaultRenderStates() RenderStateBlock {
	return defaultRenderStates
}

// InvalidRenderStates returns the block with every slot unspecified.
func InvalidRenderStates() RenderStateBlock {
	return RenderStateBlock{}
}

// Set stores v in slot s. Values outside the slot's legal set are rejected
// with ErrIllegalState and leave the block unchanged.
func (b *RenderStateBlock) Set(s RenderState, v RenderStateValue) error {
	if !s.Legal(v) {
		return fmt.Errorf("%w: %v = %v", ErrIllegalState, s, v)
	}
	b.slots[s] = Value(v)
	return nil
}

// Fill copies into every unspecified slot of b the slot of from.
func (b *RenderStateBlock) Fill(from *RenderStateBlock) {
	for s := range b.slots {
		if !b.slots[s].ok {
			b.slots[s] = from.slots[s]
		}
	}
}

// Unset marks slot s unspecified.
func (b *RenderStateBlock) Unset(s RenderState) {
	b.slots[s] = Slot[RenderStateValue]{}
}

// Get returns the value of slot s and whether it is specified.
func (b *RenderStateBlock) Get(s RenderState) (RenderStateValue, bool) {
	return b.slots[s].Get()
}

// Slot returns slot s.
func (b *RenderStateBlock) Slot(s RenderState) Slot[RenderStateValue] {
	return b.slots[s]
}

// Unspecified reports whether every slot is unspecified.
func (b *RenderStateBlock) Unspecified() bool {
	return *b == RenderStateBlock{}
}

// Signature packs every slot of the bundle into one word, so two blocks
// agree on a bundle exactly when their signatures are equal.
func (b *RenderStateBlock) Signature(bundle Bundle) uint64 {
	var sig uint64
	for _, s := range bundleStates[bundle] {
		sig = sig<<9 | b.slots[s].pack()
	}
	return sig
}

// Apply overlays d onto b: every changed slot takes the delta's value,
// including unspecified.
func (b *RenderStateBlock) Apply(d RenderStateDelta) {
	for s := range d.States() {
		b.slots[s] = d.to.slots[s]
	}
}

// Merge overlays only the specified changes of d onto b. Backends use it to
// track what the device actually holds.
func (b *RenderStateBlock) Merge(d RenderStateDelta) {
	for s := range d.States() {
		if d.to.slots[s].ok {
			b.slots[s] = d.to.slots[s]
		}
	}
}

// RenderStateDelta is the change between two render-state blocks.
type RenderStateDelta struct {
	changed uint32
	to      RenderStateBlock
}

// DeltaRenderStates returns the slots whose values differ between from
// and to, holding to's values.
func DeltaRenderStates(from, to RenderStateBlock) RenderStateDelta {
	d := RenderStateDelta{to: to}
	for s := range NumRenderStates {
		if from.slots[s] != to.slots[s] {
			d.changed |= 1 << s
		}
	}
	return d
}

// diffRenderStates compares bundle signatures first and only inspects the
// fields of bundles that differ. With force, every specified slot of next
// is included.
func diffRenderStates(prev, next *RenderStateBlock, force bool) RenderStateDelta {
	d := RenderStateDelta{to: *next}
	for bundle := range NumBundles {
		if !force && prev.Signature(bundle) == next.Signature(bundle) {
			continue
		}
		for _, s := range bundleStates[bundle] {
			if force {
				if next.slots[s].ok {
					d.changed |= 1 << s
				}
			} else if prev.slots[s] != next.slots[s] {
				d.changed |= 1 << s
			}
		}
	}
	return d
}

// Empty reports whether the delta changes nothing.
func (d RenderStateDelta) Empty() bool {
	return d.changed == 0
}

// Changed reports whether slot s is part of the delta.
func (d RenderStateDelta) Changed(s RenderState) bool {
	return d.changed&(1<<s) != 0
}

// ChangedBundle reports whether any slot of bundle is part of the delta.
func (d RenderStateDelta) ChangedBundle(bundle Bundle) bool {
	for _, s := range bundleStates[bundle] {
		if d.Changed(s) {
			return true
		}
	}
	return false
}

// Get returns the target value of slot s. ok is false when s is not
// changed or changes to unspecified.
func (d RenderStateDelta) Get(s RenderState) (v RenderStateValue, ok bool) {
	if !d.Changed(s) {
		return 0, false
	}
	return d.to.slots[s].Get()
}

// Target returns the full target block the delta was computed against.
func (d RenderStateDelta) Target() *RenderStateBlock {
	return &d.to
}

// States iterates the changed slots in declaration order.
func (d RenderStateDelta) States() iter.Seq[RenderState] {
	return func(yield func(RenderState) bool) {
		for s := range NumRenderStates {
			if d.Changed(s) && !yield(s) {
				return
			}
		}
	}
}

// Block returns the delta as a block: the target value in changed slots
// and unspecified everywhere else.
func (d RenderStateDelta) Block() RenderStateBlock {
	var b RenderStateBlock
	for s := range d.States() {
		b.slots[s] = d.to.slots[s]
	}
	return b
}

package gfx

import (
	"fmt"
	"iter"
)

// MaxTextureStages is the number of texture combiner stages a
// TextureStateBlock describes.
const MaxTextureStages = 8

// TextureState identifies one slot of a texture stage.
type TextureState uint8

// Texture stage states. Arg0 and Arg1 are the primary operands, Arg2 the
// third operand used by TexOpLerp.
const (
	TSColorOp TextureState = iota
	TSColorArg0
	TSColorArg1
	TSColorArg2
	TSAlphaOp
	TSAlphaArg0
	TSAlphaArg1
	TSAlphaArg2

	NumTextureStates
)

var textureStateNames = [NumTextureStates]string{
	"ColorOp", "ColorArg0", "ColorArg1", "ColorArg2",
	"AlphaOp", "AlphaArg0", "AlphaArg1", "AlphaArg2",
}

// String returns the state name.
func (s TextureState) String() string {
	if s < NumTextureStates {
		return textureStateNames[s]
	}
	return fmt.Sprintf("TextureState(%d)", uint8(s))
}

// IsOp reports whether s selects a combiner operation.
func (s TextureState) IsOp() bool {
	return s == TSColorOp || s == TSAlphaOp
}

// IsAlpha reports whether s belongs to the alpha combiner.
func (s TextureState) IsAlpha() bool {
	return s >= TSAlphaOp
}

// TextureStateValue is the value held by a texture-stage slot.
type TextureStateValue uint8

// Combiner operations.
const (
	TexOpDisable TextureStateValue = iota
	TexOpSelectArg0
	TexOpSelectArg1
	TexOpModulate
	TexOpModulate2X
	TexOpModulate4X
	TexOpAdd
	TexOpAddSigned
	TexOpSubtract
	TexOpDot3
	TexOpLerp // arg0*arg2 + arg1*(1-arg2)

	// Color operands.
	TexArgCurrent
	TexArgTexture
	TexArgConstant
	TexArgDiffuse
	TexArgFactor

	// Alpha operands.
	TexArgCurrentAlpha
	TexArgTextureAlpha
	TexArgConstantAlpha
	TexArgDiffuseAlpha
	TexArgFactorAlpha

	numTextureStateValues
)

var textureStateValueNames = [numTextureStateValues]string{
	"Disable", "SelectArg0", "SelectArg1", "Modulate", "Modulate2X", "Modulate4X",
	"Add", "AddSigned", "Subtract", "Dot3", "Lerp",
	"Current", "Texture", "Constant", "Diffuse", "Factor",
	"CurrentAlpha", "TextureAlpha", "ConstantAlpha", "DiffuseAlpha", "FactorAlpha",
}

// String returns the value name.
func (v TextureStateValue) String() string {
	if v < numTextureStateValues {
		return textureStateValueNames[v]
	}
	return fmt.Sprintf("TextureStateValue(%d)", uint8(v))
}

// Legal reports whether v belongs to the legal value set of s.
func (s TextureState) Legal(v TextureStateValue) bool {
	switch {
	case s >= NumTextureStates:
		return false
	case s.IsOp():
		return v <= TexOpLerp
	case s.IsAlpha():
		return v >= TexArgCurrentAlpha && v <= TexArgFactorAlpha
	default:
		return v >= TexArgCurrent && v <= TexArgFactor
	}
}

type textureStage [NumTextureStates]Slot[TextureStateValue]

// TextureStateBlock holds the combiner slots of every texture stage. The zero
// value has every slot unspecified and equals InvalidTextureStates().
type TextureStateBlock struct {
	stages [MaxTextureStages]textureStage
}

var defaultTextureStates = func() TextureStateBlock {
	var b TextureStateBlock
	for i := range MaxTextureStages {
		op := TexOpDisable
		if i == 0 {
			op = TexOpModulate
		}
		b.stages[i] = textureStage{
			TSColorOp:   Value(op),
			TSColorArg0: Value(TexArgTexture),
			TSColorArg1: Value(TexArgCurrent),
			TSColorArg2: Value(TexArgDiffuse),
			TSAlphaOp:   Value(op),
			TSAlphaArg0: Value(TexArgTextureAlpha),
			TSAlphaArg1: Value(TexArgCurrentAlpha),
			TSAlphaArg2: Value(TexArgDiffuseAlpha),
		}
	}
	return b
}()

// DefaultTextureStates returns the pipeline defaults: stage 0 modulates the
// texture with the incoming color, later stages are disabled.
func DefaultTextureStates() TextureStateBlock {
	return defaultTextureStates
}

// InvalidTextureStates returns the block with every slot unspecified.
func InvalidTextureStates() TextureStateBlock {
	return TextureStateBlock{}
}

func checkStage(stage int) error {
	if stage < 0 || stage >= MaxTextureStages {
		return fmt.Errorf("%w: texture stage %d out of range", ErrIllegalState, stage)
	}
	return nil
}

// Set stores v in slot s of stage. Out-of-range stages and illegal values
// return ErrIllegalState and leave the block unchanged.
func (b *TextureStateBlock) Set(stage int, s TextureState, v TextureStateValue) error {
	if err := checkStage(stage); err != nil {
		return err
	}
	if !s.Legal(v) {
		return fmt.Errorf("%w: stage %d %v = %v", ErrIllegalState, stage, s, v)
	}
	b.stages[stage][s] = Value(v)
	return nil
}

// Unset marks slot s of stage unspecified.
func (b *TextureStateBlock) Unset(stage int, s TextureState) {
	b.stages[stage][s] = Slot[TextureStateValue]{}
}

// Get returns the value of slot s of stage and whether it is specified.
func (b *TextureStateBlock) Get(stage int, s TextureState) (TextureStateValue, bool) {
	return b.stages[stage][s].Get()
}

// Slot returns slot s of stage.
func (b *TextureStateBlock) Slot(stage int, s TextureState) Slot[TextureStateValue] {
	return b.stages[stage][s]
}

// Signature packs every slot of one stage into a single word. Each slot takes
// eight bits: zero when unspecified, value+1 otherwise.
func (b *TextureStateBlock) Signature(stage int) uint64 {
	var sig uint64
	for _, slot := range b.stages[stage] {
		var bits uint64
		if v, ok := slot.Get(); ok {
			bits = uint64(v) + 1
		}
		sig = sig<<8 | bits
	}
	return sig
}

// Apply overlays d onto b, including changes to unspecified.
func (b *TextureStateBlock) Apply(d TextureStateDelta) {
	for stage, s := range d.States() {
		b.stages[stage][s] = d.to.stages[stage][s]
	}
}

// Merge overlays only the specified changes of d onto b.
func (b *TextureStateBlock) Merge(d TextureStateDelta) {
	for stage, s := range d.States() {
		if d.to.stages[stage][s].ok {
			b.stages[stage][s] = d.to.stages[stage][s]
		}
	}
}

// TextureStateDelta is the change between two texture-state blocks.
type TextureStateDelta struct {
	changed uint64 // bit stage*NumTextureStates + state
	to      TextureStateBlock
}

func textureBit(stage int, s TextureState) uint64 {
	return 1 << (uint(stage)*uint(NumTextureStates) + uint(s))
}

// DeltaTextureStates returns the slots whose values differ between from
// and to, holding to's values.
func DeltaTextureStates(from, to TextureStateBlock) TextureStateDelta {
	return diffTextureStates(&from, &to, MaxTextureStages, false)
}

// diffTextureStates compares the first n stages. Stages whose signature
// matches are skipped without inspecting their slots. With force, every
// specified slot of next is included.
func diffTextureStates(prev, next *TextureStateBlock, n int, force bool) TextureStateDelta {
	d := TextureStateDelta{to: *next}
	for stage := range min(n, MaxTextureStages) {
		if !force && prev.Signature(stage) == next.Signature(stage) {
			continue
		}
		for s := range NumTextureStates {
			ns := next.stages[stage][s]
			if (force && ns.ok) || (!force && ns != prev.stages[stage][s]) {
				d.changed |= textureBit(stage, s)
			}
		}
	}
	return d
}

// Empty reports whether the delta changes nothing.
func (d TextureStateDelta) Empty() bool {
	return d.changed == 0
}

// Changed reports whether slot s of stage is part of the delta.
func (d TextureStateDelta) Changed(stage int, s TextureState) bool {
	return d.changed&textureBit(stage, s) != 0
}

// StageChanged reports whether any slot of stage is part of the delta.
func (d TextureStateDelta) StageChanged(stage int) bool {
	return d.changed>>(uint(stage)*uint(NumTextureStates))&0xff != 0
}

// Get returns the target value of slot s of stage. ok is false when the slot
// is not changed or changes to unspecified.
func (d TextureStateDelta) Get(stage int, s TextureState) (TextureStateValue, bool) {
	if !d.Changed(stage, s) {
		return 0, false
	}
	return d.to.stages[stage][s].Get()
}

// Target returns the full target block the delta was computed against.
func (d TextureStateDelta) Target() *TextureStateBlock {
	return &d.to
}

// States iterates the changed (stage, state) pairs in stage order.
func (d TextureStateDelta) States() iter.Seq2[int, TextureState] {
	return func(yield func(int, TextureState) bool) {
		for stage := range MaxTextureStages {
			if !d.StageChanged(stage) {
				continue
			}
			for s := range NumTextureStates {
				if d.Changed(stage, s) && !yield(stage, s) {
					return
				}
			}
		}
	}
}

// Block returns the delta as a block: target values in changed slots and
// unspecified everywhere else.
func (d TextureStateDelta) Block() TextureStateBlock {
	var b TextureStateBlock
	for stage, s := range d.States() {
		b.stages[stage][s] = d.to.stages[stage][s]
	}
	return b
}

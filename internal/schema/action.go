package schema

import "fmt"

// Action is either a flat index or a packed (hex, primary action) pair,
// depending on the schema version.
type Action int

const (
	// ActionReset asks the simulation to start a new battle.
	ActionReset Action = -1

	// ActionRenderANSI asks the simulation to reply with a text render
	// of the battlefield before the model commits to an action.
	ActionRenderANSI Action = -2
)

// IsSentinel reports whether a is one of the reserved protocol values.
func (a Action) IsSentinel() bool {
	return a == ActionReset || a == ActionRenderANSI
}

func (a Action) String() string {
	switch a {
	case ActionReset:
		return "RESET"
	case ActionRenderANSI:
		return "RENDER_ANSI"
	default:
		return fmt.Sprintf("%d", int(a))
	}
}

// ActionMask marks which action indices are legal this turn.
// Index 0 is reserved and never chosen.
type ActionMask []bool

// At returns false for out-of-range indices.
func (m ActionMask) At(i int) bool {
	return i >= 0 && i < len(m) && m[i]
}

// Legal returns every legal index >= 1 in ascending order.
func (m ActionMask) Legal() []int {
	legal := make([]int, 0, len(m))
	for i := 1; i < len(m); i++ {
		if m[i] {
			legal = append(legal, i)
		}
	}
	return legal
}

// CompositeLayout describes a mask split into a primary-action region
// followed by one region per hex with HexActions sub-actions each.
//
// Primary actions below MovePrimary never need a hex. Primary actions
// above it need no hex while the unit is shooting.
type CompositeLayout struct {
	PrimaryActions int
	MovePrimary    int
	Hexes          int
	HexActions     int
	ShootingIndex  int
}

// MaskSize is the total number of mask entries for the layout.
func (l CompositeLayout) MaskSize() int {
	return l.PrimaryActions + l.Hexes*l.HexActions
}

// Offset returns the mask index for primary action pa targeting hex.
func (l CompositeLayout) Offset(hex, pa int) int {
	return l.PrimaryActions + hex*l.HexActions + pa - l.MovePrimary
}

// NeedsHex reports whether pa must be combined with a target hex.
func (l CompositeLayout) NeedsHex(pa int, shooting bool) bool {
	if pa < l.MovePrimary {
		return false
	}
	return !(pa > l.MovePrimary && shooting)
}

// Shooting reads the shooting flag from the battlefield vector.
// The flag is encoded as 0.0 or 1.0, so it is compared against 0.5.
func (l CompositeLayout) Shooting(battlefield []float32) (bool, error) {
	if l.ShootingIndex < 0 || l.ShootingIndex >= len(battlefield) {
		return false, fmt.Errorf("%w: shooting attribute at %d, battlefield has %d values",
			ErrMaskLayout, l.ShootingIndex, len(battlefield))
	}
	return battlefield[l.ShootingIndex] > 0.5, nil
}

// Pack encodes a hex-targeted action: hex in the high bits, primary
// action in the low byte.
func (l CompositeLayout) Pack(hex, pa int) Action {
	return Action(hex<<8 | pa)
}

// Unpack is the inverse of Pack.
func (l CompositeLayout) Unpack(a Action) (hex, pa int) {
	return int(a) >> 8, int(a) & 0xff
}

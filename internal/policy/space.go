package policy

import (
	"fmt"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

// ActionSpace turns a legality mask into a sampleable set of actions.
type ActionSpace interface {
	// Sample draws one legal action uniformly, or returns
	// schema.ActionReset if there is none.
	Sample(obs Observation, intn IntN) (schema.Action, error)

	// Prompt is the text shown to an operator choosing an action.
	Prompt() string
}

// FlatSpace treats every mask index as an action.
type FlatSpace struct{}

func (FlatSpace) Sample(obs Observation, intn IntN) (schema.Action, error) {
	legal := obs.Mask.Legal()
	if len(legal) == 0 {
		return schema.ActionReset, nil
	}
	return schema.Action(legal[intn(len(legal))]), nil
}

func (FlatSpace) Prompt() string {
	return "Enter an integer (blank or 0 for a random valid action): "
}

// CompositeSpace samples a primary action first and then, if needed, a
// target hex for it.
type CompositeSpace struct {
	Layout schema.CompositeLayout
}

func (c CompositeSpace) Sample(obs Observation, intn IntN) (schema.Action, error) {
	l := c.Layout
	if len(obs.Mask) < l.MaskSize() {
		return 0, fmt.Errorf("%w: mask has %d entries, layout needs %d",
			schema.ErrMaskLayout, len(obs.Mask), l.MaskSize())
	}
	shooting, err := l.Shooting(obs.Battlefield)
	if err != nil {
		return 0, err
	}

	// Index 0 (retreat) is skipped. A primary action that needs a hex
	// but has none legal is not a candidate.
	primaries := make([]int, 0, l.PrimaryActions)
	for pa := 1; pa < l.PrimaryActions; pa++ {
		if !obs.Mask[pa] {
			continue
		}
		if l.NeedsHex(pa, shooting) && !c.anyHex(obs.Mask, pa) {
			continue
		}
		primaries = append(primaries, pa)
	}
	if len(primaries) == 0 {
		return schema.ActionReset, nil
	}

	pa := primaries[intn(len(primaries))]
	if !l.NeedsHex(pa, shooting) {
		return schema.Action(pa), nil
	}

	hexes := c.hexes(obs.Mask, pa)
	return l.Pack(hexes[intn(len(hexes))], pa), nil
}

func (c CompositeSpace) anyHex(mask schema.ActionMask, pa int) bool {
	for hex := 0; hex < c.Layout.Hexes; hex++ {
		if mask[c.Layout.Offset(hex, pa)] {
			return true
		}
	}
	return false
}

func (c CompositeSpace) hexes(mask schema.ActionMask, pa int) []int {
	var hexes []int
	for hex := 0; hex < c.Layout.Hexes; hex++ {
		if mask[c.Layout.Offset(hex, pa)] {
			hexes = append(hexes, hex)
		}
	}
	return hexes
}

func (CompositeSpace) Prompt() string {
	return "Enter an action (hex<<8 | primary action; blank or 0 for a random valid action): "
}

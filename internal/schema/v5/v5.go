// Package v5 implements schema version 5: a composite action space
// addressed by primary action and target hex.
package v5

import (
	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

const Version = 5

// PrimaryAction enumerates the primary-action region of the mask.
type PrimaryAction int

const (
	PrimaryRetreat PrimaryAction = iota
	PrimaryWait
	PrimaryMove
	PrimaryAMoveTR
	PrimaryAMoveR
	PrimaryAMoveBR
	PrimaryAMoveBL
	PrimaryAMoveL
	PrimaryAMoveTL
	PrimaryAMove2TR
	PrimaryAMove2R
	PrimaryAMove2BR
	PrimaryAMove2BL
	PrimaryAMove2L
	PrimaryAMove2TL
	primaryCount
)

// Battlefield dimensions.
const (
	BattlefieldWidth  = 15
	BattlefieldHeight = 11
	Hexes             = BattlefieldWidth * BattlefieldHeight
)

// HexActions is the number of sub-actions per hex: MOVE plus every AMOVE.
const HexActions = int(primaryCount - PrimaryMove)

// Misc attributes at the head of the battlefield vector. The
// primary-action mask is one-hot over every primary action, so the
// shooting flag follows it.
const (
	MiscPrimaryActionMaskSize = int(primaryCount)
	MiscShootingIndex         = MiscPrimaryActionMaskSize
	MiscSize                  = MiscShootingIndex + 1
)

// Layout is the v5 composite mask layout.
var Layout = schema.CompositeLayout{
	PrimaryActions: int(primaryCount),
	MovePrimary:    int(PrimaryMove),
	Hexes:          Hexes,
	HexActions:     HexActions,
	ShootingIndex:  MiscShootingIndex,
}

// MaskSize is the length of a v5 action mask.
var MaskSize = Layout.MaskSize()

// SupplementaryType discriminates v5 supplementary payloads.
type SupplementaryType int

const (
	TypeRegular SupplementaryType = iota
	TypeANSIRender
)

// Supplementary is the v5 supplementary data attached to every state.
type Supplementary struct {
	Side        schema.Side
	Type        SupplementaryType
	BattleEnded bool
	ANSIRender  string
}

// NewState builds a v5 state value.
func NewState(sup *Supplementary, battlefield []float32, mask schema.ActionMask) *schema.BasicState {
	return &schema.BasicState{Ver: Version, Sup: sup, Battlefield: battlefield, Mask: mask}
}

// Decode validates s against v5 and returns its typed view.
func Decode(s schema.State) (schema.View, error) {
	if err := schema.CheckVersion(s, Version); err != nil {
		return schema.View{}, err
	}
	data := s.SupplementaryData()
	sup, ok := data.(*Supplementary)
	if !ok || sup == nil {
		return schema.View{}, schema.SupplementaryTypeError("*v5.Supplementary", data)
	}

	view := schema.View{
		Version:     Version,
		Side:        sup.Side,
		Kind:        schema.StateKindRegular,
		BattleEnded: sup.BattleEnded,
		Mask:        s.ActionMask(),
		Battlefield: s.BattlefieldState(),
	}
	if sup.Type == TypeANSIRender {
		view.Kind = schema.StateKindANSIRender
		view.Render = sup.ANSIRender
	}
	return view, nil
}

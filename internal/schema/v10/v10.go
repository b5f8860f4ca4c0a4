// Package v10 implements schema version 10: a flat action space where
// every mask index is an action.
package v10

import (
	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

const Version = 10

// Battlefield dimensions and the flat action count derived from them:
// retreat, wait, then per hex a move plus an attack in each of the 12
// directions.
const (
	BattlefieldWidth  = 15
	BattlefieldHeight = 11
	Hexes             = BattlefieldWidth * BattlefieldHeight
	HexActions        = 14
	GlobalActions     = 2
	MaskSize          = GlobalActions + Hexes*HexActions
)

// SupplementaryType discriminates v10 supplementary payloads.
type SupplementaryType int

const (
	TypeRegular SupplementaryType = iota
	TypeANSIRender
)

// Supplementary is the v10 supplementary data attached to every state.
type Supplementary struct {
	Side        schema.Side
	Type        SupplementaryType
	BattleEnded bool
	ANSIRender  string
}

// NewState builds a v10 state value.
func NewState(sup *Supplementary, battlefield []float32, mask schema.ActionMask) *schema.BasicState {
	return &schema.BasicState{Ver: Version, Sup: sup, Battlefield: battlefield, Mask: mask}
}

// Decode validates s against v10 and returns its typed view.
func Decode(s schema.State) (schema.View, error) {
	if err := schema.CheckVersion(s, Version); err != nil {
		return schema.View{}, err
	}
	data := s.SupplementaryData()
	sup, ok := data.(*Supplementary)
	if !ok || sup == nil {
		return schema.View{}, schema.SupplementaryTypeError("*v10.Supplementary", data)
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

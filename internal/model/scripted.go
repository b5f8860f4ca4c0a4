package model

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

// Built-in policy keywords understood by the simulation.
const (
	StupidAI         = "StupidAI"
	BattleAI         = "BattleAI"
	UserAI           = "MMAI_USER"
	ModelAI          = "MMAI_MODEL"
	ScriptSummonerAI = "MMAI_SCRIPT_SUMMONER"
)

// ErrUnknownScriptedAI is returned when a keyword is not a known built-in policy.
var ErrUnknownScriptedAI = errors.New("unknown scripted AI")

func init() {
	schema.RegisterContractError(ErrUnknownScriptedAI)
}

var knownAIs = []string{StupidAI, BattleAI, UserAI, ModelAI, ScriptSummonerAI}

// KnownAIs returns the recognised keywords in a stable order.
func KnownAIs() []string {
	return slices.Clone(knownAIs)
}

// IsKnownAI reports whether keyword names a built-in policy.
func IsKnownAI(keyword string) bool {
	return slices.Contains(knownAIs, keyword)
}

// Scripted names a built-in policy implemented inside the simulation.
type Scripted struct {
	placeholder
}

// NewScripted validates keyword against the known set.
func NewScripted(keyword string, logger zerolog.Logger) (*Scripted, error) {
	if !IsKnownAI(keyword) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScriptedAI, keyword)
	}
	return &Scripted{placeholder{name: keyword, logger: logger}}, nil
}

func (m *Scripted) Type() schema.ModelType { return schema.ModelTypeScripted }

// Package policy provides action selection strategies for the user agent
package policy

import (
	"math/rand/v2"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

// Observation is what a policy decides on: the legality mask and the
// battlefield vector it was captured with.
type Observation struct {
	Mask        schema.ActionMask
	Battlefield []float32
}

// Policy interface for action selection
type Policy interface {
	// SelectAction chooses an action for the observation. It may
	// return schema.ActionReset when nothing is legal.
	SelectAction(obs Observation) (schema.Action, error)
}

// IntN returns a uniform integer in [0, n). Tests inject deterministic ones.
type IntN func(n int) int

// DefaultIntN draws from the runtime's per-goroutine source, so no
// generator state is shared between turns or agents.
func DefaultIntN(n int) int {
	return rand.IntN(n)
}

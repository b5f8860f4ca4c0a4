package policy

import (
	"github.com/rs/zerolog"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

// RandomPolicy selects uniformly among legal actions
type RandomPolicy struct {
	space  ActionSpace
	intn   IntN
	logger zerolog.Logger
}

// NewRandom creates a random policy over space. A nil intn uses DefaultIntN.
func NewRandom(space ActionSpace, intn IntN, logger zerolog.Logger) *RandomPolicy {
	if intn == nil {
		intn = DefaultIntN
	}
	return &RandomPolicy{space: space, intn: intn, logger: logger}
}

// SelectAction implements Policy interface
func (p *RandomPolicy) SelectAction(obs Observation) (schema.Action, error) {
	action, err := p.space.Sample(obs, p.intn)
	if err != nil {
		return 0, err
	}
	if action == schema.ActionReset {
		p.logger.Info().Msg("No valid actions => reset")
	}
	return action, nil
}

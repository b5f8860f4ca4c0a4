package sim

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/smanolloff/vcmi-mlclient/internal/model"
	"github.com/smanolloff/vcmi-mlclient/internal/policy"
	"github.com/smanolloff/vcmi-mlclient/internal/schema"
	"github.com/smanolloff/vcmi-mlclient/internal/useragent"
)

// ErrNoModelLoader is returned for external-path models; the loopback
// host cannot load trained models.
var ErrNoModelLoader = errors.New("loopback host cannot load external models")

// Resolver turns placeholder models into concrete ones, the way the
// simulation instantiates its built-in policies by name.
type Resolver struct {
	strategy useragent.Strategy
	intn     policy.IntN
	logger   zerolog.Logger
}

// NewResolver resolves placeholders for version. A nil intn uses
// policy.DefaultIntN.
func NewResolver(version int, intn policy.IntN, logger zerolog.Logger) (*Resolver, error) {
	strategy, err := useragent.Lookup(version)
	if err != nil {
		return nil, err
	}
	if intn == nil {
		intn = policy.DefaultIntN
	}
	return &Resolver{strategy: strategy, intn: intn, logger: logger}, nil
}

// Resolve returns m itself when it can decide on its own.
func (r *Resolver) Resolve(m schema.Model) (schema.Model, error) {
	switch m.Type() {
	case schema.ModelTypeUser, schema.ModelTypeFunction:
		return m, nil
	case schema.ModelTypeExternalPath:
		return nil, fmt.Errorf("%w: %s", ErrNoModelLoader, m.Name())
	case schema.ModelTypeScripted:
	default:
		return nil, fmt.Errorf("cannot resolve model type %s", m.Type())
	}

	name := m.Name()
	switch name {
	case model.StupidAI, model.ScriptSummonerAI:
		r.logger.Debug().Str("model", name).Msg("Resolved to first valid action")
		return model.NewFunction(r.strategy.Version, name, r.sampler(first), nil), nil
	case model.BattleAI:
		r.logger.Debug().Str("model", name).Msg("Resolved to random valid action")
		return model.NewFunction(r.strategy.Version, name, r.sampler(r.intn), nil), nil
	default:
		return nil, fmt.Errorf("%w: %s has no loopback implementation", model.ErrUnknownScriptedAI, name)
	}
}

func first(int) int { return 0 }

// sampler decides through the version's action space, resetting on a
// finished battle.
func (r *Resolver) sampler(intn policy.IntN) model.ActionFunc {
	return func(s schema.State) (schema.Action, error) {
		view, err := r.strategy.Decode(s)
		if err != nil {
			return 0, err
		}
		if view.BattleEnded {
			return schema.ActionReset, nil
		}
		return r.strategy.Space.Sample(policy.Observation{Mask: view.Mask, Battlefield: view.Battlefield}, intn)
	}
}

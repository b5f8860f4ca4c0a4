package actor

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/smanolloff/vcmi-mlclient/internal/config"
	"github.com/smanolloff/vcmi-mlclient/internal/metrics"
	"github.com/smanolloff/vcmi-mlclient/internal/schema"
	"github.com/smanolloff/vcmi-mlclient/internal/session"
	"github.com/smanolloff/vcmi-mlclient/internal/sim"
	"github.com/smanolloff/vcmi-mlclient/internal/storage"
)

// defaultBatchSize is the flush threshold when stats-persist-freq is 0.
const defaultBatchSize = 32

// Actor is the host turn loop: it plays generated battles between the
// two session models and logs every decision
type Actor struct {
	cfg       *config.Config
	sess      *session.Context
	backend   storage.Backend
	collector *metrics.Collector
	logger    zerolog.Logger

	battleOpts sim.Options
	left       schema.Model
	right      schema.Model
	swapped    bool

	// Battle tracking
	battleCount    int
	decisionBuffer []*storage.Decision
}

// New resolves the session models for the loopback host and creates
// the actor.
func New(cfg *config.Config, sess *session.Context, backend storage.Backend, collector *metrics.Collector, logger zerolog.Logger) (*Actor, error) {
	resolver, err := sim.NewResolver(cfg.SchemaVersion, nil, logger)
	if err != nil {
		return nil, err
	}
	left, err := resolver.Resolve(sess.Left)
	if err != nil {
		return nil, fmt.Errorf("resolve left model: %w", err)
	}
	right, err := resolver.Resolve(sess.Right)
	if err != nil {
		return nil, fmt.Errorf("resolve right model: %w", err)
	}

	seed := uint64(cfg.Seed)
	if seed == 0 {
		seed = rand.Uint64()
	}

	a := &Actor{
		cfg:            cfg,
		sess:           sess,
		backend:        backend,
		collector:      collector,
		logger:         logger.With().Str("session_id", sess.ID.String()).Logger(),
		battleOpts:     sim.DefaultOptions(cfg.SchemaVersion, seed),
		left:           left,
		right:          right,
		decisionBuffer: make([]*storage.Decision, 0, defaultBatchSize),
	}

	a.logger.Info().
		Str("map", cfg.Map).
		Str("left", left.Name()).
		Str("right", right.Name()).
		Int("schema_version", cfg.SchemaVersion).
		Uint64("seed", seed).
		Bool("training", sess.Training).
		Bool("headless", cfg.Headless).
		Msg("Actor initialized")

	return a, nil
}

// Battles returns the number of finished battles.
func (a *Actor) Battles() int {
	return a.battleCount
}

// Close flushes buffered decisions.
func (a *Actor) Close() error {
	if len(a.decisionBuffer) == 0 {
		return nil
	}
	ctx, cancel := a.cfg.StatsContext(context.Background())
	defer cancel()
	if err := a.flushBuffer(ctx); err != nil {
		return fmt.Errorf("flush on close: %w", err)
	}
	return nil
}

// Run starts the actor main loop. It returns nil after max-battles
// battles, ctx.Err() on cancellation, and the model error on a contract
// violation.
func (a *Actor) Run(ctx context.Context) error {
	a.logger.Info().Int("max_battles", a.cfg.MaxBattles).Msg("Actor starting main loop")
	a.collector.SetRunning(true)
	defer a.collector.SetRunning(false)

	for {
		if err := ctx.Err(); err != nil {
			a.logger.Info().Msg("Context cancelled, stopping actor")
			return err
		}

		if a.cfg.MaxBattles > 0 && a.battleCount >= a.cfg.MaxBattles {
			a.logger.Info().Int("battles", a.battleCount).Msg("Reached maximum battles, stopping")
			return nil
		}

		if err := a.runBattle(ctx); err != nil {
			a.collector.LoopError(err)
			return fmt.Errorf("battle %d: %w", a.battleCount, err)
		}

		a.battleCount++
		if a.cfg.SwapSides > 0 && a.battleCount%a.cfg.SwapSides == 0 {
			a.swapped = !a.swapped
			a.logger.Debug().Bool("swapped", a.swapped).Msg("Swapped sides")
		}
		if a.cfg.StatsPersistFreq > 0 && a.battleCount%a.cfg.StatsPersistFreq == 0 {
			if err := a.flush(ctx); err != nil {
				return err
			}
		}
	}
}

// model returns the model currently playing side.
func (a *Actor) model(side schema.Side) schema.Model {
	if (side == schema.SideLeft) != a.swapped {
		return a.left
	}
	return a.right
}

// runBattle plays one battle and then sends the final state to both
// sides, each of which must answer with RESET.
func (a *Actor) runBattle(ctx context.Context) error {
	battle, err := sim.NewBattle(a.battleOpts, a.battleCount)
	if err != nil {
		return err
	}
	started := time.Now()
	resetBy := make(map[schema.Side]bool, 2)

	for !battle.Ended() {
		if err := ctx.Err(); err != nil {
			return err
		}

		side := battle.Active()
		action, err := a.ask(ctx, battle, side)
		if err != nil {
			return err
		}

		switch action {
		case schema.ActionRenderANSI:
			battle.RequestRender()
		case schema.ActionReset:
			a.logger.Info().Int("turn", battle.Turn()).Stringer("side", side).Msg("Battle reset before it ended")
			resetBy[side] = true
			battle.End()
		default:
			if err := battle.Apply(action); err != nil {
				if !errors.Is(err, sim.ErrIllegalAction) {
					return err
				}
				a.collector.LoopError(err)
				a.logger.Warn().Err(err).Str("model", a.model(side).Name()).Msg("Rejected action")
			}
		}
	}

	for _, side := range []schema.Side{schema.SideLeft, schema.SideRight} {
		if resetBy[side] {
			continue
		}
		if err := a.finish(ctx, battle, side); err != nil {
			return err
		}
	}

	a.collector.BattleFinished(battle.Index(), battle.Turn(), time.Since(started))
	a.logger.Debug().
		Int("battle", battle.Index()).
		Int("turns", battle.Turn()).
		Msg("Battle completed")
	return nil
}

// finish delivers the final state to side until it answers with
// anything but a render request.
func (a *Actor) finish(ctx context.Context, battle *sim.Battle, side schema.Side) error {
	for {
		action, err := a.ask(ctx, battle, side)
		if err != nil {
			return err
		}
		switch action {
		case schema.ActionRenderANSI:
			battle.RequestRender()
		case schema.ActionReset:
			return nil
		default:
			err := fmt.Errorf("%w: %d after the battle ended", sim.ErrIllegalAction, int(action))
			a.collector.LoopError(err)
			a.logger.Warn().Err(err).Stringer("side", side).Msg("Expected RESET")
			return nil
		}
	}
}

// ask queries the model playing side and records its answer.
func (a *Actor) ask(ctx context.Context, battle *sim.Battle, side schema.Side) (schema.Action, error) {
	m := a.model(side)
	legal := battle.LegalCount()

	action, err := m.Action(battle.StateFor(side))
	if err != nil {
		return 0, fmt.Errorf("turn %d, %s side, model %q: %w", battle.Turn(), side, m.Name(), err)
	}
	if err := a.record(ctx, battle, side, m, action, legal); err != nil {
		return 0, err
	}
	return action, nil
}

// record buffers the decision unless stats-mode excludes its side.
func (a *Actor) record(ctx context.Context, battle *sim.Battle, side schema.Side, m schema.Model, action schema.Action, legal int) error {
	switch {
	case a.cfg.StatsMode == "red" && side != schema.SideLeft:
		return nil
	case a.cfg.StatsMode == "blue" && side != schema.SideRight:
		return nil
	}

	a.decisionBuffer = append(a.decisionBuffer, &storage.Decision{
		SessionID:  a.sess.ID.String(),
		Battle:     battle.Index(),
		Turn:       battle.Turn(),
		Side:       side,
		Model:      m.Name(),
		Version:    battle.Version(),
		Action:     action,
		LegalCount: legal,
		Timestamp:  time.Now(),
	})

	if a.cfg.StatsPersistFreq == 0 && len(a.decisionBuffer) >= defaultBatchSize {
		return a.flush(ctx)
	}
	return nil
}

func (a *Actor) flush(ctx context.Context) error {
	ctx, cancel := a.cfg.StatsContext(ctx)
	defer cancel()
	if err := a.flushBuffer(ctx); err != nil {
		return fmt.Errorf("failed to flush decisions: %w", err)
	}
	return nil
}

// flushBuffer sends accumulated decisions to the decision log
func (a *Actor) flushBuffer(ctx context.Context) error {
	if len(a.decisionBuffer) == 0 {
		return nil
	}

	a.logger.Debug().Int("decisions", len(a.decisionBuffer)).Msg("Flushing decisions")

	if _, err := a.backend.StoreBatch(ctx, a.decisionBuffer); err != nil {
		return fmt.Errorf("failed to store batch: %w", err)
	}
	a.collector.DecisionsRecorded(len(a.decisionBuffer))

	// Clear buffer
	a.decisionBuffer = a.decisionBuffer[:0]
	return nil
}

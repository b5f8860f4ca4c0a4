// Package useragent implements the user-controlled model: interactive
// prompting, action replay and uniform-random play behind the render
// handshake the simulation expects.
package useragent

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/smanolloff/vcmi-mlclient/internal/policy"
	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

// NoValue is what Value reports; user agents have no value estimate.
const NoValue = -666

// ErrUnrequestedRender means a render reply arrived while no render
// request was pending.
var ErrUnrequestedRender = errors.New("render reply without a pending render request")

func init() {
	schema.RegisterContractError(ErrUnrequestedRender)
}

// resetsPerSummary is how many resets make up one throughput window.
const resetsPerSummary = 10

var spinner = [4]string{"\r|", "\r\\", "\r-", "\r/"}

// ThroughputSink receives a summary at the end of every benchmark window.
type ThroughputSink interface {
	Throughput(agent string, side schema.Side, stepsPerSec, resetsPerSec float64)
}

// Options configures an Agent. Zero values are usable defaults.
type Options struct {
	Benchmark   bool
	Interactive bool
	AutoRender  bool
	Verbose     bool

	// Recording, when non-empty and not interactive, is replayed in order.
	Recording policy.Recording

	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	Logger zerolog.Logger
	Sink   ThroughputSink
	Now    func() time.Time
	IntN   policy.IntN
}

type phase int

const (
	// phaseAwaitRenderRequest: the next regular state may trigger a render request.
	phaseAwaitRenderRequest phase = iota
	// phaseAwaitAction: a render was requested and the captured
	// observation is waiting for the render reply.
	phaseAwaitAction
)

// Agent is a schema.Model driven by one of the user policies.
type Agent struct {
	strategy Strategy
	opts     Options
	policy   policy.Policy
	logger   zerolog.Logger
	out      io.Writer

	phase   phase
	pending policy.Observation

	steps  int
	resets int
	t0     time.Time
}

// New builds an agent for the given schema version.
func New(version int, opts Options) (*Agent, error) {
	strategy, err := Lookup(version)
	if err != nil {
		return nil, err
	}

	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := opts.Logger.With().Int("schema_version", version).Logger()

	random := policy.NewRandom(strategy.Space, opts.IntN, logger)
	var p policy.Policy = random
	switch {
	case opts.Interactive:
		p = policy.NewPrompt(opts.In, opts.Out, opts.ErrOut, strategy.Space.Prompt(), random)
	case len(opts.Recording) > 0:
		p = policy.NewRecorded(opts.Recording)
	}

	return &Agent{
		strategy: strategy,
		opts:     opts,
		policy:   p,
		logger:   logger,
		out:      opts.Out,
	}, nil
}

func (a *Agent) Type() schema.ModelType { return schema.ModelTypeUser }
func (a *Agent) Name() string           { return fmt.Sprintf("UserAgent (v%d)", a.strategy.Version) }
func (a *Agent) Version() int           { return a.strategy.Version }

func (a *Agent) Value(schema.State) (float64, error) { return NoValue, nil }

// Action runs one step of the render handshake.
//
// With auto-render on, a regular state is answered with
// ActionRenderANSI and its observation is kept. The following render
// reply is printed and the action is decided on the kept observation.
func (a *Agent) Action(s schema.State) (schema.Action, error) {
	view, err := a.strategy.Decode(s)
	if err != nil {
		return 0, err
	}

	if a.steps == 0 && a.opts.Benchmark {
		a.t0 = a.opts.Now()
	}
	a.steps++

	var act schema.Action
	switch {
	case view.Kind == schema.StateKindANSIRender:
		if a.phase != phaseAwaitAction {
			return 0, ErrUnrequestedRender
		}
		fmt.Fprintln(a.out, view.Render)
		act, err = a.policy.SelectAction(a.pending)
		a.phase = phaseAwaitRenderRequest
		a.pending = policy.Observation{}
	case a.opts.AutoRender && !a.opts.Benchmark && a.phase == phaseAwaitRenderRequest:
		a.logger.Debug().Stringer("side", view.Side).Msg("Requesting render")
		a.phase = phaseAwaitAction
		a.pending = observe(view)
		act = schema.ActionRenderANSI
	case view.BattleEnded:
		act = a.reset(view.Side)
	default:
		a.phase = phaseAwaitRenderRequest
		act, err = a.policy.SelectAction(observe(view))
	}
	if err != nil {
		return 0, err
	}

	if a.opts.Verbose && !a.opts.Benchmark {
		a.logger.Debug().Stringer("action", act).Msg("getAction returning")
	}
	return act, nil
}

func (a *Agent) reset(side schema.Side) schema.Action {
	a.resets++
	fmt.Fprint(a.out, spinner[a.resets%len(spinner)])

	if a.resets == resetsPerSummary {
		if a.opts.Benchmark {
			now := a.opts.Now()
			elapsed := now.Sub(a.t0).Seconds()
			stepsPerSec := float64(a.steps) / elapsed
			resetsPerSec := float64(a.resets) / elapsed
			fmt.Fprintf(a.out, "  steps/s: %-6.0f resets/s: %-6.2f\n", stepsPerSec, resetsPerSec)
			if a.opts.Sink != nil {
				a.opts.Sink.Throughput(a.Name(), side, stepsPerSec, resetsPerSec)
			}
			a.t0 = now
		}
		a.resets = 0
		a.steps = 0
	}

	if !a.opts.Benchmark {
		a.logger.Debug().Msg("Battle ended => sending RESET")
	}
	return schema.ActionReset
}

// Counters returns the steps and resets of the current throughput window.
func (a *Agent) Counters() (steps, resets int) {
	return a.steps, a.resets
}

func observe(view schema.View) policy.Observation {
	return policy.Observation{
		Mask:        slices.Clone(view.Mask),
		Battlefield: slices.Clone(view.Battlefield),
	}
}

// Package session builds the session context: the two side models and
// the training flag handed to the simulation for the whole run.
package session

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/smanolloff/vcmi-mlclient/internal/config"
	"github.com/smanolloff/vcmi-mlclient/internal/logging"
	"github.com/smanolloff/vcmi-mlclient/internal/model"
	"github.com/smanolloff/vcmi-mlclient/internal/policy"
	"github.com/smanolloff/vcmi-mlclient/internal/schema"
	"github.com/smanolloff/vcmi-mlclient/internal/useragent"
)

// Context is created once at startup and read by the host every turn.
type Context struct {
	ID       uuid.UUID
	Left     schema.Model
	Right    schema.Model
	Training bool
}

// Model returns the model playing side.
func (c *Context) Model(side schema.Side) schema.Model {
	if side == schema.SideRight {
		return c.Right
	}
	return c.Left
}

// Options carries the process-level collaborators of Build.
type Options struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
	Sink   useragent.ThroughputSink
}

// Build selects a model for each side from cfg. MMAI_USER becomes a user
// agent, MMAI_MODEL an external-path placeholder, anything else a
// scripted placeholder. Only the first user agent auto-renders.
func Build(cfg *config.Config, loggers logging.Loggers, opts Options) (*Context, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	var recording policy.Recording
	if cfg.Prerecorded {
		rec, err := policy.LoadRecordingFile(cfg.ActionsFile, loggers.AI)
		if err != nil {
			return nil, err
		}
		recording = rec
	}

	if cfg.Benchmark {
		printBanner(opts.Out, cfg)
	}

	autorender := true
	build := func(ai, modelPath string, side schema.Side) (schema.Model, error) {
		logger := loggers.AI.With().Stringer("side", side).Logger()
		switch ai {
		case model.UserAI:
			agent, err := useragent.New(cfg.SchemaVersion, useragent.Options{
				Benchmark:   cfg.Benchmark,
				Interactive: cfg.Interactive,
				AutoRender:  autorender,
				Recording:   recording,
				In:          opts.In,
				Out:         opts.Out,
				ErrOut:      opts.ErrOut,
				Logger:      logger,
				Sink:        opts.Sink,
			})
			autorender = false
			return agent, err
		case model.ModelAI:
			return model.NewExternalPath(modelPath, logger), nil
		default:
			return model.NewScripted(ai, logger)
		}
	}

	left, err := build(cfg.LeftAI, cfg.LeftModel, schema.SideLeft)
	if err != nil {
		return nil, fmt.Errorf("left model: %w", err)
	}
	right, err := build(cfg.RightAI, cfg.RightModel, schema.SideRight)
	if err != nil {
		return nil, fmt.Errorf("right model: %w", err)
	}

	return &Context{
		ID:       uuid.New(),
		Left:     left,
		Right:    right,
		Training: cfg.Training,
	}, nil
}

func printBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Benchmark:\n")
	fmt.Fprintf(w, "* Map: %s\n", cfg.Map)
	fmt.Fprintf(w, "* Attacker AI: %s%s\n", cfg.LeftAI, modelSuffix(cfg.LeftAI, cfg.LeftModel))
	fmt.Fprintf(w, "* Defender AI: %s%s\n", cfg.RightAI, modelSuffix(cfg.RightAI, cfg.RightModel))
	fmt.Fprintln(w)
}

func modelSuffix(ai, path string) string {
	if ai == model.ModelAI {
		return " " + path
	}
	return ""
}

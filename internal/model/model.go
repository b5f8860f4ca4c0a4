// Package model provides the non-agent Model variants: identity-only
// placeholders the host resolves later, and a function-backed model
// for direct injection.
package model

import (
	"github.com/rs/zerolog"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

// Tripwire is returned by placeholder models from every decision method.
const Tripwire = -666

// placeholder holds the shared tripwire behaviour of Scripted and ExternalPath.
type placeholder struct {
	name   string
	logger zerolog.Logger
}

func (p *placeholder) Name() string { return p.name }

func (p *placeholder) trip(method string) {
	p.logger.Warn().
		Str("method", method).
		Str("model", p.name).
		Int("returning", Tripwire).
		Msg("Placeholder model invoked on the decision path")
}

func (p *placeholder) Version() int {
	p.trip("Version")
	return Tripwire
}

func (p *placeholder) Action(schema.State) (schema.Action, error) {
	p.trip("Action")
	return schema.Action(Tripwire), nil
}

func (p *placeholder) Value(schema.State) (float64, error) {
	p.trip("Value")
	return Tripwire, nil
}

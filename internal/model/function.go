package model

import (
	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

// ActionFunc decides an action for a state.
type ActionFunc func(s schema.State) (schema.Action, error)

// ValueFunc estimates the value of a state.
type ValueFunc func(s schema.State) (float64, error)

// Function forwards decisions to caller-supplied callables.
type Function struct {
	version int
	name    string
	action  ActionFunc
	value   ValueFunc
}

// NewFunction returns a model reporting version and name. A nil value
// callable makes Value return 0.
func NewFunction(version int, name string, action ActionFunc, value ValueFunc) *Function {
	return &Function{version: version, name: name, action: action, value: value}
}

func (m *Function) Type() schema.ModelType { return schema.ModelTypeFunction }
func (m *Function) Name() string           { return m.name }
func (m *Function) Version() int           { return m.version }

func (m *Function) Action(s schema.State) (schema.Action, error) {
	return m.action(s)
}

func (m *Function) Value(s schema.State) (float64, error) {
	if m.value == nil {
		return 0, nil
	}
	return m.value(s)
}

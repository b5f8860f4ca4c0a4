// Package schema defines the versioned contract between the battle
// simulation and the decision models plugged into it.
package schema

import "fmt"

// Side identifies which army a state or model belongs to.
type Side int

const (
	SideLeft Side = iota
	SideRight
	SideBoth
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	case SideBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseSide parses "left" or "right".
func ParseSide(s string) (Side, error) {
	switch s {
	case "left":
		return SideLeft, nil
	case "right":
		return SideRight, nil
	default:
		return 0, fmt.Errorf("invalid side %q: expected left or right", s)
	}
}

// ModelType tags the variant behind a Model.
type ModelType int

const (
	ModelTypeScripted ModelType = iota
	ModelTypeExternalPath
	ModelTypeUser
	ModelTypeFunction
)

func (t ModelType) String() string {
	switch t {
	case ModelTypeScripted:
		return "SCRIPTED"
	case ModelTypeExternalPath:
		return "EXTERNAL_PATH"
	case ModelTypeUser:
		return "USER"
	case ModelTypeFunction:
		return "FUNCTION"
	default:
		return "UNKNOWN"
	}
}

// MarshalText lets model types appear by name in YAML and JSON output.
func (t ModelType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// State is the opaque per-turn handle the simulation passes to a model.
// SupplementaryData must be type-asserted against the version's own
// supplementary data interface.
type State interface {
	Version() int
	SupplementaryData() any
	BattlefieldState() []float32
	ActionMask() ActionMask
}

// Model is the capability every decision policy exposes to the simulation.
type Model interface {
	// Type is pure and never fails.
	Type() ModelType

	// Name is the identifier the host uses to resolve placeholders.
	Name() string

	// Version is the schema version the model was built against.
	Version() int

	// Action decides the next action for the given state.
	Action(s State) (Action, error)

	// Value returns a value estimate for the given state.
	Value(s State) (float64, error)
}

// StateKind discriminates regular turns from render replies.
type StateKind int

const (
	StateKindRegular StateKind = iota
	StateKindANSIRender
)

// View is the typed decode of a State for exactly one schema version.
type View struct {
	Version     int
	Side        Side
	Kind        StateKind
	BattleEnded bool
	Render      string
	Mask        ActionMask
	Battlefield []float32
}

// BasicState is a plain State value. Hosts that keep their state in
// Go memory can hand it to models directly.
type BasicState struct {
	Ver         int
	Sup         any
	Battlefield []float32
	Mask        ActionMask
}

func (s *BasicState) Version() int                { return s.Ver }
func (s *BasicState) SupplementaryData() any      { return s.Sup }
func (s *BasicState) BattlefieldState() []float32 { return s.Battlefield }
func (s *BasicState) ActionMask() ActionMask      { return s.Mask }

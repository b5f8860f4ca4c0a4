package useragent

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/smanolloff/vcmi-mlclient/internal/policy"
	"github.com/smanolloff/vcmi-mlclient/internal/schema"
	v10 "github.com/smanolloff/vcmi-mlclient/internal/schema/v10"
	v5 "github.com/smanolloff/vcmi-mlclient/internal/schema/v5"
)

// ErrUnsupportedVersion is returned for schema versions without a strategy.
var ErrUnsupportedVersion = errors.New("unsupported schema version")

// Strategy is the versioned part of an agent: how states decode and
// how the mask maps to actions.
type Strategy struct {
	Version int
	Decode  func(schema.State) (schema.View, error)
	Space   policy.ActionSpace
}

var strategies = map[int]Strategy{
	v5.Version: {
		Version: v5.Version,
		Decode:  v5.Decode,
		Space:   policy.CompositeSpace{Layout: v5.Layout},
	},
	v10.Version: {
		Version: v10.Version,
		Decode:  v10.Decode,
		Space:   policy.FlatSpace{},
	},
}

// Lookup returns the strategy for version.
func Lookup(version int) (Strategy, error) {
	s, ok := strategies[version]
	if !ok {
		return Strategy{}, fmt.Errorf("%w: %d (supported: %v)", ErrUnsupportedVersion, version, Versions())
	}
	return s, nil
}

// Versions lists the supported schema versions in ascending order.
func Versions() []int {
	return slices.Sorted(maps.Keys(strategies))
}

// Package sim is a loopback stand-in for the battle simulation. It
// produces states for a schema version and applies the actions models
// return, so the decision layer can be driven without the engine.
package sim

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
	v10 "github.com/smanolloff/vcmi-mlclient/internal/schema/v10"
	v5 "github.com/smanolloff/vcmi-mlclient/internal/schema/v5"
)

// ErrIllegalAction is returned by Apply for actions the mask forbids.
var ErrIllegalAction = errors.New("illegal action")

// Options configures generated battles.
type Options struct {
	Version  int
	Seed     uint64
	MinTurns int
	MaxTurns int

	// ShootingChance is the probability in [0,1] that the acting unit
	// is a shooter. Only composite versions use it.
	ShootingChance float64
}

// DefaultOptions returns options for version with battle lengths
// between 10 and 40 turns.
func DefaultOptions(version int, seed uint64) Options {
	return Options{Version: version, Seed: seed, MinTurns: 10, MaxTurns: 40, ShootingChance: 0.2}
}

// Battle is one generated battle. Sides alternate every applied action.
type Battle struct {
	version        int
	index          int
	rng            *rand.Rand
	shootingChance float64

	length int
	turn   int
	active schema.Side

	render      bool
	ended       bool
	shooting    bool
	mask        schema.ActionMask
	battlefield []float32
}

// NewBattle generates battle number index. The same seed and index
// always produce the same battle.
func NewBattle(opts Options, index int) (*Battle, error) {
	if opts.Version != v5.Version && opts.Version != v10.Version {
		return nil, fmt.Errorf("no battle generator for schema version %d", opts.Version)
	}
	if opts.MinTurns <= 0 || opts.MaxTurns < opts.MinTurns {
		return nil, fmt.Errorf("invalid battle length range [%d, %d]", opts.MinTurns, opts.MaxTurns)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, uint64(index)))
	b := &Battle{
		version:        opts.Version,
		index:          index,
		rng:            rng,
		shootingChance: opts.ShootingChance,
		length:         opts.MinTurns + rng.IntN(opts.MaxTurns-opts.MinTurns+1),
		active:         schema.SideLeft,
	}
	b.nextTurn()
	return b, nil
}

func (b *Battle) Index() int              { return b.index }
func (b *Battle) Turn() int               { return b.turn }
func (b *Battle) Active() schema.Side     { return b.active }
func (b *Battle) Ended() bool             { return b.ended }
func (b *Battle) Version() int            { return b.version }
func (b *Battle) Mask() schema.ActionMask { return b.mask }

// LegalCount is the number of set mask bits at index 1 and above.
func (b *Battle) LegalCount() int {
	return len(b.mask.Legal())
}

// RequestRender makes the next State a render reply.
func (b *Battle) RequestRender() {
	b.render = true
}

// State returns the state for the active side. A pending render
// request is answered once.
func (b *Battle) State() schema.State {
	return b.StateFor(b.active)
}

// StateFor returns the state as side sees it. Once the battle has
// ended both sides are sent the final state.
func (b *Battle) StateFor(side schema.Side) schema.State {
	render := b.render
	b.render = false

	var text string
	if render {
		text = b.Render()
	}

	switch b.version {
	case v5.Version:
		sup := &v5.Supplementary{Side: side, BattleEnded: b.ended}
		if render {
			sup.Type, sup.ANSIRender = v5.TypeANSIRender, text
		}
		return v5.NewState(sup, b.battlefield, b.mask)
	default:
		sup := &v10.Supplementary{Side: side, BattleEnded: b.ended}
		if render {
			sup.Type, sup.ANSIRender = v10.TypeANSIRender, text
		}
		return v10.NewState(sup, b.battlefield, b.mask)
	}
}

// End finishes the battle early, as when a side retreats.
func (b *Battle) End() {
	b.ended = true
	b.mask = make(schema.ActionMask, len(b.mask))
}

// Apply performs a for the active side and passes the turn.
func (b *Battle) Apply(a schema.Action) error {
	if b.ended {
		return fmt.Errorf("%w: battle %d has ended", ErrIllegalAction, b.index)
	}
	if !b.legal(a) {
		return fmt.Errorf("%w: %d on turn %d", ErrIllegalAction, int(a), b.turn)
	}

	b.turn++
	if b.turn >= b.length {
		b.End()
		return nil
	}
	if b.active == schema.SideLeft {
		b.active = schema.SideRight
	} else {
		b.active = schema.SideLeft
	}
	b.nextTurn()
	return nil
}

// Render draws the battlefield: legal move targets as '+', other hexes as '.'.
func (b *Battle) Render() string {
	width, height := v10.BattlefieldWidth, v10.BattlefieldHeight
	targets := make(map[int]bool)

	switch b.version {
	case v5.Version:
		for hex := range v5.Hexes {
			if b.mask.At(v5.Layout.Offset(hex, int(v5.PrimaryMove))) {
				targets[hex] = true
			}
		}
	default:
		for hex := range v10.Hexes {
			if b.mask.At(v10.GlobalActions + hex*v10.HexActions) {
				targets[hex] = true
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Battle %d, turn %d, side: %s\n", b.index, b.turn, b.active)
	for y := range height {
		if y%2 == 1 {
			sb.WriteByte(' ')
		}
		for x := range width {
			if targets[y*width+x] {
				sb.WriteString("+ ")
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// nextTurn rolls the acting unit and its mask.
func (b *Battle) nextTurn() {
	b.shooting = b.rng.Float64() < b.shootingChance
	switch b.version {
	case v5.Version:
		b.mask, b.battlefield = b.compositeTurn()
	default:
		b.mask, b.battlefield = b.flatTurn()
	}
}

func (b *Battle) flatTurn() (schema.ActionMask, []float32) {
	mask := make(schema.ActionMask, v10.MaskSize)
	mask[1] = b.rng.IntN(2) == 0
	for range 1 + b.rng.IntN(12) {
		mask[v10.GlobalActions+b.rng.IntN(v10.MaskSize-v10.GlobalActions)] = true
	}
	return mask, []float32{float32(b.turn), float32(b.active)}
}

func (b *Battle) compositeTurn() (schema.ActionMask, []float32) {
	l := v5.Layout
	mask := make(schema.ActionMask, v5.MaskSize)
	battlefield := make([]float32, v5.MiscSize)

	mask[v5.PrimaryWait] = b.rng.IntN(2) == 0
	for range 1 + b.rng.IntN(6) {
		mask[l.Offset(b.rng.IntN(v5.Hexes), int(v5.PrimaryMove))] = true
		mask[v5.PrimaryMove] = true
	}
	for range b.rng.IntN(3) {
		pa := int(v5.PrimaryAMoveTR) + b.rng.IntN(l.PrimaryActions-int(v5.PrimaryAMoveTR))
		mask[pa] = true
		if !b.shooting {
			mask[l.Offset(b.rng.IntN(v5.Hexes), pa)] = true
		}
	}

	for pa := range l.PrimaryActions {
		if mask[pa] {
			battlefield[pa] = 1
		}
	}
	if b.shooting {
		battlefield[l.ShootingIndex] = 1
	}
	return mask, battlefield
}

func (b *Battle) legal(a schema.Action) bool {
	if a <= 0 {
		return false
	}
	if b.version != v5.Version {
		return b.mask.At(int(a))
	}

	l := v5.Layout
	if int(a) < l.PrimaryActions {
		// Pack(0, pa) == pa, so a hex-targeted action here targets hex 0.
		if l.NeedsHex(int(a), b.shooting) {
			return b.mask[a] && b.mask[l.Offset(0, int(a))]
		}
		return b.mask[a]
	}
	hex, pa := l.Unpack(a)
	if pa < l.MovePrimary || pa >= l.PrimaryActions || hex >= l.Hexes {
		return false
	}
	return b.mask[pa] && b.mask[l.Offset(hex, pa)]
}

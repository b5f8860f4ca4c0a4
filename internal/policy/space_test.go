package policy

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

// seeded returns a deterministic IntN for reproducible sampling tests.
func seeded(seed uint64) IntN {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return r.IntN
}

var testLayout = schema.CompositeLayout{
	PrimaryActions: 5,
	MovePrimary:    2,
	Hexes:          4,
	HexActions:     3,
	ShootingIndex:  0,
}

func TestFlatSpaceSamplesOnlyLegal(t *testing.T) {
	mask := schema.ActionMask{true, false, true, false, true, true}
	intn := seeded(1)

	for range 500 {
		a, err := FlatSpace{}.Sample(Observation{Mask: mask}, intn)
		require.NoError(t, err)
		assert.True(t, mask.At(int(a)), "sampled illegal action %d", a)
		assert.NotEqual(t, schema.Action(0), a)
	}
}

func TestFlatSpaceIsUniform(t *testing.T) {
	mask := schema.ActionMask{false, true, false, true, true, false, true}
	intn := seeded(7)
	const trials = 40000

	counts := map[schema.Action]int{}
	for range trials {
		a, err := FlatSpace{}.Sample(Observation{Mask: mask}, intn)
		require.NoError(t, err)
		counts[a]++
	}

	require.Len(t, counts, 4)
	for a, n := range counts {
		assert.InDelta(t, 0.25, float64(n)/trials, 0.02, "action %d", a)
	}
}

func TestFlatSpaceResetsWhenNothingLegal(t *testing.T) {
	a, err := FlatSpace{}.Sample(Observation{Mask: schema.ActionMask{true, false, false}}, seeded(1))
	require.NoError(t, err)
	assert.Equal(t, schema.ActionReset, a)
}

func compositeMask() schema.ActionMask {
	return make(schema.ActionMask, testLayout.MaskSize())
}

func TestCompositeSpaceNoHexPrimary(t *testing.T) {
	mask := compositeMask()
	mask[1] = true

	a, err := CompositeSpace{testLayout}.Sample(Observation{Mask: mask, Battlefield: []float32{0}}, seeded(1))
	require.NoError(t, err)
	assert.Equal(t, schema.Action(1), a)
}

func TestCompositeSpacePacksHex(t *testing.T) {
	mask := compositeMask()
	mask[2] = true
	mask[testLayout.Offset(3, 2)] = true

	a, err := CompositeSpace{testLayout}.Sample(Observation{Mask: mask, Battlefield: []float32{0}}, seeded(1))
	require.NoError(t, err)
	assert.Equal(t, testLayout.Pack(3, 2), a)
}

func TestCompositeSpaceShootingSkipsHex(t *testing.T) {
	mask := compositeMask()
	mask[4] = true

	a, err := CompositeSpace{testLayout}.Sample(Observation{Mask: mask, Battlefield: []float32{1}}, seeded(1))
	require.NoError(t, err)
	assert.Equal(t, schema.Action(4), a)
}

func TestCompositeSpaceSkipsPrimaryWithoutHex(t *testing.T) {
	mask := compositeMask()
	mask[1] = true
	mask[3] = true // legal, but no hex bit set and not shooting
	intn := seeded(3)

	for range 200 {
		a, err := CompositeSpace{testLayout}.Sample(Observation{Mask: mask, Battlefield: []float32{0}}, intn)
		require.NoError(t, err)
		assert.Equal(t, schema.Action(1), a)
	}
}

func TestCompositeSpaceResets(t *testing.T) {
	mask := compositeMask()
	mask[0] = true
	mask[2] = true

	a, err := CompositeSpace{testLayout}.Sample(Observation{Mask: mask, Battlefield: []float32{0}}, seeded(1))
	require.NoError(t, err)
	assert.Equal(t, schema.ActionReset, a)
}

func TestCompositeSpaceSamplesPrimaryThenHex(t *testing.T) {
	mask := compositeMask()
	mask[1] = true
	mask[2] = true
	mask[testLayout.Offset(0, 2)] = true
	mask[testLayout.Offset(2, 2)] = true
	intn := seeded(11)
	const trials = 40000

	counts := map[schema.Action]int{}
	for range trials {
		a, err := CompositeSpace{testLayout}.Sample(Observation{Mask: mask, Battlefield: []float32{0}}, intn)
		require.NoError(t, err)
		counts[a]++
	}

	// Primary first, then hex: WAIT gets half, each MOVE hex a quarter.
	assert.InDelta(t, 0.5, float64(counts[1])/trials, 0.02)
	assert.InDelta(t, 0.25, float64(counts[testLayout.Pack(0, 2)])/trials, 0.02)
	assert.InDelta(t, 0.25, float64(counts[testLayout.Pack(2, 2)])/trials, 0.02)
}

func TestCompositeSpaceLayoutErrors(t *testing.T) {
	_, err := CompositeSpace{testLayout}.Sample(Observation{Mask: schema.ActionMask{true}}, seeded(1))
	assert.ErrorIs(t, err, schema.ErrMaskLayout)

	_, err = CompositeSpace{testLayout}.Sample(Observation{Mask: compositeMask()}, seeded(1))
	assert.ErrorIs(t, err, schema.ErrMaskLayout)
}

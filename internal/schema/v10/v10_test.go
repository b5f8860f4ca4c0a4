package v10

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

func TestDecodeBattleEnded(t *testing.T) {
	s := NewState(&Supplementary{Side: schema.SideLeft, BattleEnded: true}, nil, make(schema.ActionMask, MaskSize))

	view, err := Decode(s)
	require.NoError(t, err)
	assert.True(t, view.BattleEnded)
	assert.Equal(t, schema.SideLeft, view.Side)
	assert.Len(t, view.Mask, MaskSize)
}

func TestDecodeRejectsOtherVersions(t *testing.T) {
	s := &schema.BasicState{Ver: 5, Sup: &Supplementary{}}

	_, err := Decode(s)
	require.Error(t, err)
	assert.True(t, schema.IsContractViolation(err))
	assert.Contains(t, err.Error(), "expected version 10, got: 5")
}

func TestDecodeNilSupplementaryData(t *testing.T) {
	s := &schema.BasicState{Ver: Version}

	_, err := Decode(s)
	assert.ErrorIs(t, err, schema.ErrSupplementaryType)
}

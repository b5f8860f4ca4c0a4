package policy

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

type fixedPolicy schema.Action

func (f fixedPolicy) SelectAction(Observation) (schema.Action, error) {
	return schema.Action(f), nil
}

func TestRecordedPolicyReplaysInOrder(t *testing.T) {
	p := NewRecorded(Recording{3, 7, 2})

	for _, want := range []schema.Action{3, 7, 2} {
		a, err := p.SelectAction(Observation{})
		require.NoError(t, err)
		assert.Equal(t, want, a)
	}
	assert.Zero(t, p.Remaining())

	_, err := p.SelectAction(Observation{})
	require.ErrorIs(t, err, ErrRecordingExhausted)
	assert.True(t, schema.IsContractViolation(err))
}

func TestRecordingSharedCursorsAreIndependent(t *testing.T) {
	rec := Recording{5, 6}
	left, right := NewRecorded(rec), NewRecorded(rec)

	a, _ := left.SelectAction(Observation{})
	b, _ := right.SelectAction(Observation{})
	assert.Equal(t, schema.Action(5), a)
	assert.Equal(t, schema.Action(5), b)
}

func TestLoadRecording(t *testing.T) {
	rec, err := LoadRecording(strings.NewReader("3\n7\n\n  2\n"), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, Recording{3, 7, 2}, rec)

	rec, err = LoadRecording(strings.NewReader(""), zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, rec)
}

func TestLoadRecordingRejectsBadInput(t *testing.T) {
	_, err := LoadRecording(strings.NewReader("1\nfoo\n"), zerolog.Nop())
	assert.ErrorContains(t, err, "recorded action 2")

	_, err = LoadRecording(strings.NewReader("-4\n"), zerolog.Nop())
	assert.ErrorContains(t, err, "negative value -4")
}

func TestLoadRecordingFileMissing(t *testing.T) {
	_, err := LoadRecordingFile(t.TempDir()+"/actions.txt", zerolog.Nop())
	assert.ErrorContains(t, err, "open recorded actions")
}

func TestPromptPolicy(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    schema.Action
		invalid int
	}{
		{name: "number is returned verbatim", input: "1234\n", want: 1234},
		{name: "blank falls back", input: "\n", want: 42},
		{name: "zero falls back", input: "0\n", want: 42},
		{name: "negative re-prompts", input: "-3\n8\n", want: 8, invalid: 1},
		{name: "garbage re-prompts", input: "abc\n\t\n", want: 42, invalid: 1},
		{name: "last line without newline", input: "x\n9", want: 9, invalid: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			p := NewPrompt(strings.NewReader(tt.input), &out, &errOut, FlatSpace{}.Prompt(), fixedPolicy(42))

			a, err := p.SelectAction(Observation{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, a)
			assert.Equal(t, tt.invalid, strings.Count(errOut.String(), "Invalid input!"))
			assert.Equal(t, tt.invalid+1, strings.Count(out.String(), "Enter an integer"))
		})
	}
}

func TestPromptPolicyClosedInputFallsBack(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrompt(strings.NewReader(""), &out, &errOut, "> ", fixedPolicy(1))

	for range 2 {
		a, err := p.SelectAction(Observation{})
		require.NoError(t, err)
		assert.Equal(t, schema.Action(1), a)
	}
	assert.Equal(t, "> > ", out.String())
	assert.Empty(t, errOut.String())
}

func TestPromptPolicyReadError(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrompt(iotest.ErrReader(errors.New("tty gone")), &out, &errOut, "> ", fixedPolicy(1))

	_, err := p.SelectAction(Observation{})
	assert.EqualError(t, err, "read interactive action: tty gone")
}

func TestRandomPolicyLogsReset(t *testing.T) {
	var buf bytes.Buffer
	p := NewRandom(FlatSpace{}, nil, zerolog.New(&buf))

	a, err := p.SelectAction(Observation{Mask: schema.ActionMask{false, false}})
	require.NoError(t, err)
	assert.Equal(t, schema.ActionReset, a)
	assert.Contains(t, buf.String(), "No valid actions")
}

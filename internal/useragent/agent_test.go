package useragent

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smanolloff/vcmi-mlclient/internal/policy"
	"github.com/smanolloff/vcmi-mlclient/internal/schema"
	v10 "github.com/smanolloff/vcmi-mlclient/internal/schema/v10"
	v5 "github.com/smanolloff/vcmi-mlclient/internal/schema/v5"
)

type sinkCall struct {
	agent         string
	side          schema.Side
	steps, resets float64
}

type recordingSink struct {
	calls []sinkCall
}

func (r *recordingSink) Throughput(agent string, side schema.Side, stepsPerSec, resetsPerSec float64) {
	r.calls = append(r.calls, sinkCall{agent, side, stepsPerSec, resetsPerSec})
}

func flatMask(legal ...int) schema.ActionMask {
	mask := make(schema.ActionMask, v10.MaskSize)
	for _, i := range legal {
		mask[i] = true
	}
	return mask
}

func regular(mask schema.ActionMask) schema.State {
	return v10.NewState(&v10.Supplementary{Side: schema.SideLeft}, nil, mask)
}

func render(text string, mask schema.ActionMask) schema.State {
	return v10.NewState(&v10.Supplementary{Type: v10.TypeANSIRender, ANSIRender: text}, nil, mask)
}

func ended() schema.State {
	return v10.NewState(&v10.Supplementary{Side: schema.SideRight, BattleEnded: true}, nil, flatMask())
}

func newAgent(t *testing.T, version int, opts Options) (*Agent, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts.Out = &out
	opts.ErrOut = &out
	opts.Logger = zerolog.Nop()
	a, err := New(version, opts)
	require.NoError(t, err)
	return a, &out
}

func TestAgentIdentity(t *testing.T) {
	a, _ := newAgent(t, 10, Options{})

	assert.Equal(t, schema.ModelTypeUser, a.Type())
	assert.Equal(t, "UserAgent (v10)", a.Name())
	assert.Equal(t, 10, a.Version())

	v, err := a.Value(regular(flatMask()))
	require.NoError(t, err)
	assert.Equal(t, float64(NoValue), v)
}

func TestNewUnsupportedVersion(t *testing.T) {
	_, err := New(7, Options{})
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.Equal(t, []int{5, 10}, Versions())
}

func TestAgentVersionMismatch(t *testing.T) {
	a, _ := newAgent(t, 5, Options{})

	_, err := a.Action(regular(flatMask(1)))
	require.ErrorIs(t, err, schema.ErrVersionMismatch)
	assert.True(t, schema.IsContractViolation(err))
	assert.Contains(t, err.Error(), "expected version 5, got: 10")
}

func TestAgentRandomPlay(t *testing.T) {
	a, _ := newAgent(t, 10, Options{})

	for range 100 {
		act, err := a.Action(regular(flatMask(4, 9, 100)))
		require.NoError(t, err)
		assert.Contains(t, []schema.Action{4, 9, 100}, act)
	}

	act, err := a.Action(regular(flatMask()))
	require.NoError(t, err)
	assert.Equal(t, schema.ActionReset, act)
}

func TestAgentRenderHandshake(t *testing.T) {
	draws := 0
	intn := func(n int) int {
		draws++
		return 0
	}
	a, out := newAgent(t, 10, Options{AutoRender: true, IntN: intn})

	act, err := a.Action(regular(flatMask(4)))
	require.NoError(t, err)
	assert.Equal(t, schema.ActionRenderANSI, act)
	assert.Zero(t, draws, "render request must not sample")

	act, err = a.Action(render("<battlefield>", flatMask(9)))
	require.NoError(t, err)
	assert.Equal(t, schema.Action(4), act, "decides on the mask captured before the render")
	assert.Equal(t, 1, draws)
	assert.Contains(t, out.String(), "<battlefield>\n")

	// Next turn starts another handshake.
	act, err = a.Action(regular(flatMask(9)))
	require.NoError(t, err)
	assert.Equal(t, schema.ActionRenderANSI, act)
}

func TestAgentRejectsUnrequestedRender(t *testing.T) {
	a, _ := newAgent(t, 10, Options{AutoRender: true, Recording: policy.Recording{3, 7}})

	_, err := a.Action(render("", flatMask(1)))
	assert.ErrorIs(t, err, ErrUnrequestedRender)
	assert.True(t, schema.IsContractViolation(err))

	act, err := a.Action(regular(flatMask(1)))
	require.NoError(t, err)
	require.Equal(t, schema.ActionRenderANSI, act)
	act, err = a.Action(render("", flatMask(1)))
	require.NoError(t, err)
	assert.Equal(t, schema.Action(3), act)

	// The reply was consumed along with its observation.
	_, err = a.Action(render("", flatMask(1)))
	assert.ErrorIs(t, err, ErrUnrequestedRender)
	assert.Equal(t, policy.Observation{}, a.pending)
}

func TestAgentRenderHandshakeKeepsRecording(t *testing.T) {
	a, _ := newAgent(t, 10, Options{AutoRender: true, Recording: policy.Recording{3, 7, 2}})

	var got []schema.Action
	for range 3 {
		act, err := a.Action(regular(flatMask(1)))
		require.NoError(t, err)
		require.Equal(t, schema.ActionRenderANSI, act)

		act, err = a.Action(render("", flatMask(1)))
		require.NoError(t, err)
		got = append(got, act)
	}
	assert.Equal(t, []schema.Action{3, 7, 2}, got)

	_, err := a.Action(regular(flatMask(1)))
	require.NoError(t, err)
	_, err = a.Action(render("", flatMask(1)))
	assert.ErrorIs(t, err, policy.ErrRecordingExhausted)
}

func TestAgentBenchmarkSkipsRender(t *testing.T) {
	a, _ := newAgent(t, 10, Options{AutoRender: true, Benchmark: true, Recording: policy.Recording{5}})

	act, err := a.Action(regular(flatMask(1)))
	require.NoError(t, err)
	assert.Equal(t, schema.Action(5), act)
}

func TestAgentBenchmarkThroughput(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	sink := &recordingSink{}
	a, out := newAgent(t, 10, Options{Benchmark: true, Sink: sink, Now: func() time.Time { return now }})

	for i := range resetsPerSummary {
		if i == resetsPerSummary-1 {
			now = base.Add(2 * time.Second)
		}
		act, err := a.Action(ended())
		require.NoError(t, err)
		assert.Equal(t, schema.ActionReset, act)
	}

	assert.Contains(t, out.String(), "  steps/s: 5      resets/s: 5.00  \n")
	steps, resets := a.Counters()
	assert.Zero(t, steps)
	assert.Zero(t, resets)

	require.Len(t, sink.calls, 1)
	assert.Equal(t, "UserAgent (v10)", sink.calls[0].agent)
	assert.Equal(t, schema.SideRight, sink.calls[0].side)
	assert.InDelta(t, 5.0, sink.calls[0].steps, 1e-9)
	assert.InDelta(t, 5.0, sink.calls[0].resets, 1e-9)
}

func TestAgentResetSpinner(t *testing.T) {
	a, out := newAgent(t, 10, Options{})

	for range 4 {
		_, err := a.Action(ended())
		require.NoError(t, err)
	}
	assert.Equal(t, "\r\\\r-\r/\r|", out.String())

	steps, resets := a.Counters()
	assert.Equal(t, 4, steps)
	assert.Equal(t, 4, resets)
}

func TestAgentInteractive(t *testing.T) {
	var out bytes.Buffer
	a, err := New(10, Options{
		Interactive: true,
		Recording:   policy.Recording{1},
		In:          strings.NewReader("oops\n77\n"),
		Out:         &out,
		ErrOut:      &out,
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)

	act, err := a.Action(regular(flatMask(2)))
	require.NoError(t, err)
	assert.Equal(t, schema.Action(77), act, "operator input wins over recording")
	assert.Contains(t, out.String(), "Invalid input!")
}

func TestAgentCompositeVersion(t *testing.T) {
	mask := make(schema.ActionMask, v5.MaskSize)
	mask[v5.PrimaryMove] = true
	mask[v5.Layout.Offset(42, int(v5.PrimaryMove))] = true
	battlefield := make([]float32, v5.MiscSize)

	a, _ := newAgent(t, 5, Options{})
	act, err := a.Action(v5.NewState(&v5.Supplementary{}, battlefield, mask))
	require.NoError(t, err)
	assert.Equal(t, v5.Layout.Pack(42, int(v5.PrimaryMove)), act)
}

func TestAgentsDoNotShareRenderState(t *testing.T) {
	left, _ := newAgent(t, 10, Options{AutoRender: true})
	right, _ := newAgent(t, 10, Options{AutoRender: false})

	act, err := left.Action(regular(flatMask(3)))
	require.NoError(t, err)
	assert.Equal(t, schema.ActionRenderANSI, act)

	act, err = right.Action(regular(flatMask(3)))
	require.NoError(t, err)
	assert.Equal(t, schema.Action(3), act)
}

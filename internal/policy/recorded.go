package policy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

// ErrRecordingExhausted is returned once every recorded action was replayed.
var ErrRecordingExhausted = errors.New("no more recorded actions")

func init() {
	schema.RegisterContractError(ErrRecordingExhausted)
}

// Recording is an immutable action sequence. Several RecordedPolicy
// values may share one; each keeps its own cursor.
type Recording []schema.Action

// LoadRecording reads whitespace-separated non-negative integers.
func LoadRecording(r io.Reader, logger zerolog.Logger) (Recording, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	var rec Recording
	for scanner.Scan() {
		word := scanner.Text()
		n, err := strconv.Atoi(word)
		if err != nil {
			return nil, fmt.Errorf("recorded action %d: %w", len(rec)+1, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("recorded action %d: negative value %d", len(rec)+1, n)
		}
		logger.Debug().Int("action", n).Msg("Loaded action")
		rec = append(rec, schema.Action(n))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read recorded actions: %w", err)
	}
	return rec, nil
}

// LoadRecordingFile opens path and loads it with LoadRecording.
func LoadRecordingFile(path string, logger zerolog.Logger) (Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recorded actions: %w", err)
	}
	defer f.Close()

	return LoadRecording(f, logger.With().Str("file", path).Logger())
}

// RecordedPolicy replays a Recording in order.
type RecordedPolicy struct {
	actions Recording
	next    int
}

func NewRecorded(actions Recording) *RecordedPolicy {
	return &RecordedPolicy{actions: actions}
}

// SelectAction ignores the observation.
func (p *RecordedPolicy) SelectAction(Observation) (schema.Action, error) {
	if p.next >= len(p.actions) {
		return 0, fmt.Errorf("%w: replayed all %d", ErrRecordingExhausted, len(p.actions))
	}
	action := p.actions[p.next]
	p.next++
	return action, nil
}

// Remaining returns how many recorded actions are left.
func (p *RecordedPolicy) Remaining() int {
	return len(p.actions) - p.next
}

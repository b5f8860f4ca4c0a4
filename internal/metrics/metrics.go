package metrics

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

// Throughput is the last benchmark window reported by a user agent.
type Throughput struct {
	Agent        string    `json:"agent"`
	Side         string    `json:"side"`
	StepsPerSec  float64   `json:"steps_per_sec"`
	ResetsPerSec float64   `json:"resets_per_sec"`
	ReportedAt   time.Time `json:"reported_at"`
}

// Snapshot is a point-in-time copy of the collected metrics.
type Snapshot struct {
	Throughput *Throughput `json:"throughput,omitempty"`
	Battles    int         `json:"battles"`
	Decisions  int         `json:"decisions"`
	Errors     int         `json:"errors"`
	Running    bool        `json:"running"`
}

// Metrics collector for client operations
type Collector struct {
	logger zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	snapshot Snapshot
}

func NewCollector(logger zerolog.Logger) *Collector {
	return &Collector{
		logger: logger,
		now:    time.Now,
	}
}

// Track user agent throughput
func (c *Collector) Throughput(agent string, side schema.Side, stepsPerSec, resetsPerSec float64) {
	c.logger.Info().
		Str("metric", "throughput").
		Str("agent", agent).
		Stringer("side", side).
		Float64("steps_per_sec", stepsPerSec).
		Float64("resets_per_sec", resetsPerSec).
		Msg("Throughput metric")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Throughput = &Throughput{
		Agent:        agent,
		Side:         side.String(),
		StepsPerSec:  stepsPerSec,
		ResetsPerSec: resetsPerSec,
		ReportedAt:   c.now(),
	}
}

// Track finished battles
func (c *Collector) BattleFinished(battle, turns int, duration time.Duration) {
	c.logger.Info().
		Str("metric", "battle_finished").
		Int("battle", battle).
		Int("turns", turns).
		Dur("duration", duration).
		Msg("Battle metric")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Battles++
}

// Track decisions returned by models
func (c *Collector) DecisionsRecorded(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Decisions += n
}

// Track failures of the turn loop
func (c *Collector) LoopError(err error) {
	c.logger.Warn().
		Str("metric", "loop_error").
		Err(err).
		Msg("Turn loop error")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Errors++
}

// Track turn loop state transitions
func (c *Collector) SetRunning(running bool) {
	c.logger.Info().
		Str("metric", "loop_state").
		Bool("running", running).
		Msg("Turn loop state metric")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Running = running
}

// Snapshot returns a copy of the current metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.snapshot
	if s.Throughput != nil {
		t := *s.Throughput
		s.Throughput = &t
	}
	return s
}

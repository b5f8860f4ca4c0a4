package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"time"

	"github.com/joho/godotenv"

	"github.com/smanolloff/vcmi-mlclient/internal/model"
	"github.com/smanolloff/vcmi-mlclient/internal/storage"
	"github.com/smanolloff/vcmi-mlclient/internal/useragent"
)

// LogLevels are the accepted values of the loglevel-* options.
var LogLevels = []string{"trace", "debug", "info", "warn", "error"}

// StatsModes are the accepted values of stats-mode.
var StatsModes = []string{"disabled", "red", "blue"}

// MemoryStorage selects the in-memory decision log.
const MemoryStorage = storage.Memory

// Config holds all client configuration
type Config struct {
	// Battle generation
	Map                  string `mapstructure:"map" yaml:"map"`
	MaxBattles           int    `mapstructure:"max-battles" yaml:"max-battles"`
	Seed                 int64  `mapstructure:"seed" yaml:"seed"`
	RandomHeroes         int    `mapstructure:"random-heroes" yaml:"random-heroes"`
	RandomObstacles      int    `mapstructure:"random-obstacles" yaml:"random-obstacles"`
	TownChance           int    `mapstructure:"town-chance" yaml:"town-chance"`
	WarmachineChance     int    `mapstructure:"warmachine-chance" yaml:"warmachine-chance"`
	TightFormationChance int    `mapstructure:"tight-formation-chance" yaml:"tight-formation-chance"`
	RandomTerrainChance  int    `mapstructure:"random-terrain-chance" yaml:"random-terrain-chance"`
	BattlefieldPattern   string `mapstructure:"battlefield-pattern" yaml:"battlefield-pattern"`
	ManaMin              int    `mapstructure:"mana-min" yaml:"mana-min"`
	ManaMax              int    `mapstructure:"mana-max" yaml:"mana-max"`
	SwapSides            int    `mapstructure:"swap-sides" yaml:"swap-sides"`

	// Models
	LeftAI        string `mapstructure:"left-ai" yaml:"left-ai"`
	RightAI       string `mapstructure:"right-ai" yaml:"right-ai"`
	LeftModel     string `mapstructure:"left-model" yaml:"left-model"`
	RightModel    string `mapstructure:"right-model" yaml:"right-model"`
	SchemaVersion int    `mapstructure:"schema-version" yaml:"schema-version"`

	// User agent
	Interactive bool   `mapstructure:"interactive" yaml:"interactive"`
	Prerecorded bool   `mapstructure:"prerecorded" yaml:"prerecorded"`
	ActionsFile string `mapstructure:"actions-file" yaml:"actions-file"`
	Benchmark   bool   `mapstructure:"benchmark" yaml:"benchmark"`
	Training    bool   `mapstructure:"training" yaml:"training"`
	Headless    bool   `mapstructure:"headless" yaml:"headless"`

	// Stats
	StatsMode        string        `mapstructure:"stats-mode" yaml:"stats-mode"`
	StatsStorage     string        `mapstructure:"stats-storage" yaml:"stats-storage"`
	StatsTimeout     time.Duration `mapstructure:"stats-timeout" yaml:"stats-timeout"`
	StatsPersistFreq int           `mapstructure:"stats-persist-freq" yaml:"stats-persist-freq"`

	// Status endpoints, empty disables
	StatusAddr string `mapstructure:"status-addr" yaml:"status-addr"`
	HealthAddr string `mapstructure:"health-addr" yaml:"health-addr"`

	// Logging
	LogLevelGlobal string `mapstructure:"loglevel-global" yaml:"loglevel-global"`
	LogLevelAI     string `mapstructure:"loglevel-ai" yaml:"loglevel-ai"`
	LogLevelStats  string `mapstructure:"loglevel-stats" yaml:"loglevel-stats"`
	LogJSON        bool   `mapstructure:"log-json" yaml:"log-json"`
}

// Default returns a config with sensible defaults
func Default() *Config {
	return &Config{
		Map:            "gym/A1.vmap",
		LeftAI:         model.UserAI,
		RightAI:        model.StupidAI,
		LeftModel:      "AI/MMAI/models/model.zip",
		RightModel:     "AI/MMAI/models/model.zip",
		SchemaVersion:  10,
		ActionsFile:    "actions.txt",
		StatsMode:      "disabled",
		StatsStorage:   MemoryStorage,
		StatsTimeout:   60 * time.Second,
		LogLevelGlobal: "error",
		LogLevelAI:     "warn",
		LogLevelStats:  "warn",
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	nonNegative := []struct {
		name  string
		value int
	}{
		{"max-battles", c.MaxBattles},
		{"random-heroes", c.RandomHeroes},
		{"random-obstacles", c.RandomObstacles},
		{"swap-sides", c.SwapSides},
		{"stats-persist-freq", c.StatsPersistFreq},
	}
	for _, o := range nonNegative {
		if o.value < 0 {
			return fmt.Errorf("bad value for %s: expected a non-negative integer, got: %d", o.name, o.value)
		}
	}
	if c.StatsTimeout < 0 {
		return fmt.Errorf("bad value for stats-timeout: expected a non-negative duration, got: %s", c.StatsTimeout)
	}

	percentages := []struct {
		name  string
		value int
	}{
		{"town-chance", c.TownChance},
		{"warmachine-chance", c.WarmachineChance},
		{"tight-formation-chance", c.TightFormationChance},
		{"random-terrain-chance", c.RandomTerrainChance},
	}
	for _, o := range percentages {
		if o.value < 0 || o.value > 100 {
			return fmt.Errorf("bad value for %s: expected an integer between 0 and 100, got: %d", o.name, o.value)
		}
	}

	if c.ManaMin < 0 || c.ManaMin > 500 {
		return fmt.Errorf("bad value for mana-min: expected an integer between 0 and 500, got: %d", c.ManaMin)
	}
	if c.ManaMax < c.ManaMin || c.ManaMax > 500 {
		return fmt.Errorf("bad value for mana-max: expected an integer between %d and 500, got: %d", c.ManaMin, c.ManaMax)
	}

	if _, err := regexp.Compile(c.BattlefieldPattern); err != nil {
		return fmt.Errorf("bad value for battlefield-pattern: %w", err)
	}

	if c.Map == "" {
		return errors.New("map is required")
	}
	if !model.IsKnownAI(c.LeftAI) {
		return fmt.Errorf("bad value for left-ai: %s", c.LeftAI)
	}
	if !model.IsKnownAI(c.RightAI) {
		return fmt.Errorf("bad value for right-ai: %s", c.RightAI)
	}
	if !slices.Contains(useragent.Versions(), c.SchemaVersion) {
		return fmt.Errorf("bad value for schema-version: expected one of %v, got: %d", useragent.Versions(), c.SchemaVersion)
	}

	for name, level := range map[string]string{
		"loglevel-global": c.LogLevelGlobal,
		"loglevel-ai":     c.LogLevelAI,
		"loglevel-stats":  c.LogLevelStats,
	} {
		if !slices.Contains(LogLevels, level) {
			return fmt.Errorf("bad value for %s: %s", name, level)
		}
	}

	if !slices.Contains(StatsModes, c.StatsMode) {
		return fmt.Errorf("bad value for stats-mode: expected disabled|red|blue, got: %s", c.StatsMode)
	}
	if c.StatsStorage == "" {
		return errors.New("stats-storage is required (use - for in-memory)")
	}

	if c.Benchmark && !c.hasLearnerSide() {
		return fmt.Errorf("benchmark requires at least one AI of type %s or %s", model.UserAI, model.ModelAI)
	}
	if c.Interactive && c.Benchmark {
		return errors.New("interactive and benchmark are mutually exclusive")
	}
	if c.Interactive && c.Prerecorded {
		return errors.New("interactive and prerecorded are mutually exclusive")
	}
	if c.Prerecorded && c.ActionsFile == "" {
		return errors.New("actions-file is required with prerecorded")
	}
	return nil
}

// StatsContext bounds decision log calls by stats-timeout. A zero
// timeout leaves ctx unbounded.
func (c *Config) StatsContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.StatsTimeout > 0 {
		return context.WithTimeout(ctx, c.StatsTimeout)
	}
	return context.WithCancel(ctx)
}

func (c *Config) hasLearnerSide() bool {
	for _, ai := range []string{c.LeftAI, c.RightAI} {
		if ai == model.UserAI || ai == model.ModelAI {
			return true
		}
	}
	return false
}

// LoadDotEnv loads a .env file into the process environment. A
// missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smanolloff/vcmi-mlclient/internal/actor"
	"github.com/smanolloff/vcmi-mlclient/internal/config"
	"github.com/smanolloff/vcmi-mlclient/internal/logging"
	"github.com/smanolloff/vcmi-mlclient/internal/metrics"
	"github.com/smanolloff/vcmi-mlclient/internal/session"
	"github.com/smanolloff/vcmi-mlclient/internal/status"
	"github.com/smanolloff/vcmi-mlclient/internal/storage"
)

var (
	cfg     *config.Config
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "mlclient",
	Short: "VCMI ML client",
	Long: `ML client that plays battles between scripted AIs, user agents and
external models, and logs every decision.

Every flag can also be set through an MLCLIENT_* environment variable
(e.g. MLCLIENT_LEFT_AI), a .env file or a --config file.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runClient,
}

func init() {
	cfg = config.Default()
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "", "Config file (yaml, toml or json)")

	// Battle generation
	flags.StringVar(&cfg.Map, "map", cfg.Map, "Path to map")
	flags.IntVar(&cfg.MaxBattles, "max-battles", cfg.MaxBattles, "Quit game after the Nth combat (0 for unlimited)")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for battle generation (0 for random)")
	flags.IntVar(&cfg.RandomHeroes, "random-heroes", cfg.RandomHeroes, "Pick heroes at random each Nth combat (0 to disable)")
	flags.IntVar(&cfg.RandomObstacles, "random-obstacles", cfg.RandomObstacles, "Place obstacles at random each Nth combat (0 to disable)")
	flags.IntVar(&cfg.TownChance, "town-chance", cfg.TownChance, "Percent chance to fight in a town (0-100)")
	flags.IntVar(&cfg.WarmachineChance, "warmachine-chance", cfg.WarmachineChance, "Percent chance to add a war machine to each hero (0-100)")
	flags.IntVar(&cfg.TightFormationChance, "tight-formation-chance", cfg.TightFormationChance, "Percent chance to use tight formation (0-100)")
	flags.IntVar(&cfg.RandomTerrainChance, "random-terrain-chance", cfg.RandomTerrainChance, "Percent chance to pick a random terrain (0-100)")
	flags.StringVar(&cfg.BattlefieldPattern, "battlefield-pattern", cfg.BattlefieldPattern, "Regex pattern of allowed battlefields")
	flags.IntVar(&cfg.ManaMin, "mana-min", cfg.ManaMin, "Minimum hero mana (0-500)")
	flags.IntVar(&cfg.ManaMax, "mana-max", cfg.ManaMax, "Maximum hero mana (mana-min-500)")
	flags.IntVar(&cfg.SwapSides, "swap-sides", cfg.SwapSides, "Swap the side models each Nth combat (0 to disable)")

	// Models
	flags.StringVar(&cfg.LeftAI, "left-ai", cfg.LeftAI, "AI for the left side")
	flags.StringVar(&cfg.RightAI, "right-ai", cfg.RightAI, "AI for the right side")
	flags.StringVar(&cfg.LeftModel, "left-model", cfg.LeftModel, "Path to the left model (for MMAI_MODEL)")
	flags.StringVar(&cfg.RightModel, "right-model", cfg.RightModel, "Path to the right model (for MMAI_MODEL)")
	flags.IntVar(&cfg.SchemaVersion, "schema-version", cfg.SchemaVersion, "Schema version of the user agent")

	// User agent
	flags.BoolVar(&cfg.Interactive, "interactive", cfg.Interactive, "Ask for each action")
	flags.BoolVar(&cfg.Prerecorded, "prerecorded", cfg.Prerecorded, "Replay the actions in actions-file")
	flags.StringVar(&cfg.ActionsFile, "actions-file", cfg.ActionsFile, "Whitespace-separated recorded actions")
	flags.BoolVar(&cfg.Benchmark, "benchmark", cfg.Benchmark, "Measure steps and resets per second")
	flags.BoolVar(&cfg.Training, "training", cfg.Training, "Run the session in training mode")
	flags.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run without a display")

	// Stats
	flags.StringVar(&cfg.StatsMode, "stats-mode", cfg.StatsMode, "Decision logging: disabled, red or blue")
	flags.StringVar(&cfg.StatsStorage, "stats-storage", cfg.StatsStorage, "SQLite decision log path (- for in-memory)")
	flags.DurationVar(&cfg.StatsTimeout, "stats-timeout", cfg.StatsTimeout, "Timeout for decision log writes")
	flags.IntVar(&cfg.StatsPersistFreq, "stats-persist-freq", cfg.StatsPersistFreq, "Flush the decision log each Nth combat (0 for batched)")

	// Status
	flags.StringVar(&cfg.StatusAddr, "status-addr", cfg.StatusAddr, "HTTP status address (empty to disable)")
	flags.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "gRPC health address (empty to disable)")

	// Logging
	flags.StringVar(&cfg.LogLevelGlobal, "loglevel-global", cfg.LogLevelGlobal, "Log level for the client")
	flags.StringVar(&cfg.LogLevelAI, "loglevel-ai", cfg.LogLevelAI, "Log level for the models")
	flags.StringVar(&cfg.LogLevelStats, "loglevel-stats", cfg.LogLevelStats, "Log level for stats and status")
	flags.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "Log JSON instead of console output")

	// Bind flags to viper for environment variable support
	viper.BindPFlags(flags)
	viper.SetEnvPrefix("MLCLIENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(describeCmd, exportCmd)
}

// loadConfig merges .env, config file, environment and flags into cfg.
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func newLoggers() (logging.Loggers, error) {
	return logging.New(logging.Options{
		GlobalLevel: cfg.LogLevelGlobal,
		AILevel:     cfg.LogLevelAI,
		StatsLevel:  cfg.LogLevelStats,
		JSON:        cfg.LogJSON,
		Output:      os.Stderr,
	})
}

func runClient(cmd *cobra.Command, args []string) error {
	loggers, err := newLoggers()
	if err != nil {
		return err
	}
	log := loggers.Global

	backend, err := storage.Open(cfg.StatsStorage)
	if err != nil {
		return fmt.Errorf("open decision log: %w", err)
	}
	defer backend.Close()

	collector := metrics.NewCollector(loggers.Stats)

	sess, err := session.Build(cfg, loggers, session.Options{
		In:     cmd.InOrStdin(),
		Out:    cmd.OutOrStdout(),
		ErrOut: cmd.ErrOrStderr(),
		Sink:   collector,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("session_id", sess.ID.String()).
		Str("left", sess.Left.Name()).
		Str("right", sess.Right.Name()).
		Str("stats_storage", cfg.StatsStorage).
		Msg("Starting ML client")

	actorInstance, err := actor.New(cfg, sess, backend, collector, loggers.Global)
	if err != nil {
		return fmt.Errorf("create actor: %w", err)
	}
	defer func() {
		if err := actorInstance.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to flush decision log")
		}
	}()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			log.Info().Msg("Shutdown signal received, stopping client...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.HealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.HealthAddr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.HealthAddr, err)
		}
		health := status.NewHealth(loggers.Stats)
		go func() {
			if err := health.Serve(lis); err != nil {
				log.Error().Err(err).Msg("Health server failed")
			}
		}()
		defer health.Stop()
		health.SetServing(true)
		defer health.SetServing(false)
	}

	if cfg.StatusAddr != "" {
		srv := status.NewServer(collector, backend, sess, loggers.Stats)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.StatusAddr); err != nil {
				log.Error().Err(err).Msg("Status server failed")
			}
		}()
	}

	err = actorInstance.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Int("battles", actorInstance.Battles()).Msg("Client stopped gracefully")
		return nil
	}
	if err != nil {
		return fmt.Errorf("client failed: %w", err)
	}

	log.Info().Int("battles", actorInstance.Battles()).Msg("Client finished")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

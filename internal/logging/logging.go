// Package logging builds the zerolog loggers for the client's log domains.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options selects the level of each domain and the output format.
type Options struct {
	GlobalLevel string
	AILevel     string
	StatsLevel  string
	JSON        bool
	Output      io.Writer
}

// Loggers is the per-domain logger bundle handed to components.
type Loggers struct {
	Global zerolog.Logger
	AI     zerolog.Logger
	Stats  zerolog.Logger
}

// New creates the domain loggers. Levels use zerolog names
// (trace, debug, info, warn, error).
func New(opts Options) (Loggers, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	base := zerolog.New(out).With().Timestamp().Logger()

	domain := func(name, level string) (zerolog.Logger, error) {
		lvl, err := zerolog.ParseLevel(level)
		if err != nil || lvl == zerolog.NoLevel {
			return zerolog.Logger{}, fmt.Errorf("invalid %s log level %q", name, level)
		}
		return base.Level(lvl).With().Str("domain", name).Logger(), nil
	}

	var (
		l   Loggers
		err error
	)
	if l.Global, err = domain("global", opts.GlobalLevel); err != nil {
		return Loggers{}, err
	}
	if l.AI, err = domain("ai", opts.AILevel); err != nil {
		return Loggers{}, err
	}
	if l.Stats, err = domain("stats", opts.StatsLevel); err != nil {
		return Loggers{}, err
	}
	return l, nil
}

// Nop returns loggers that discard everything.
func Nop() Loggers {
	return Loggers{Global: zerolog.Nop(), AI: zerolog.Nop(), Stats: zerolog.Nop()}
}

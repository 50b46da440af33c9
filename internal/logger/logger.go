// Package logger configures the global zerolog logger from command line options.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a go-flags option group shared by every command.
type Logger struct {
	Level  string `long:"log-level"  env:"LOG_LEVEL"  description:"Log level"            choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	Format string `long:"log-format" env:"LOG_FORMAT" description:"Log output format"    choice:"console" choice:"json" default:"console"`
	Output string `long:"log-output" env:"LOG_OUTPUT" description:"Log output stream"    choice:"stderr" choice:"stdout" default:"stderr"`
}

// Setup replaces the global logger according to the options.
func (l Logger) Setup() {
	log.Logger = l.New()
}

// New builds a logger according to the options without touching the global one.
// Unknown levels fall back to info.
func (l Logger) New() zerolog.Logger {
	level, err := zerolog.ParseLevel(l.Level)
	if err != nil || l.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stderr
	if l.Output == "stdout" {
		out = os.Stdout
	}

	return l.newWithWriter(out, level)
}

func (l Logger) newWithWriter(out io.Writer, level zerolog.Level) zerolog.Logger {
	if l.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

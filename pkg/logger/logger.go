// Package logx configures the process-wide zerolog logger.
package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool `split_words:"true" default:"false"`
	PrettyFormat bool `split_words:"true" default:"false"`
	Caller       bool `default:"true"`
}

var DefaultConfig = &Config{
	Debug:        false,
	PrettyFormat: false,
	Caller:       true,
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

// Init replaces the global logger. It also becomes the fallback for
// zerolog.Ctx, so code logging through a context without a logger still
// writes here.
func Init(opts ...Config) {
	log.Logger = New(os.Stdout, *safe(opts...))
	zerolog.DefaultContextLogger = &log.Logger
}

// New builds a logger writing to w.
func New(w io.Writer, conf Config) zerolog.Logger {
	if conf.PrettyFormat {
		w = zerolog.ConsoleWriter{Out: w}
	}

	logger := zerolog.New(w).With().Timestamp().Logger()
	if conf.Debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	if conf.Caller {
		logger = logger.With().Caller().Stack().Logger()
	}
	return logger
}

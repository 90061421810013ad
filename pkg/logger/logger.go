// Package logger holds the process-wide structured logger.
package logger

import (
	"io"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It is nil until Init is called; use Get in
// library code so an uninitialised process still logs somewhere.
var Log *logrus.Logger

// Config controls level and formatter, read from the environment.
type Config struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Init builds Log from LOG_LEVEL and LOG_FORMAT, writing to out. Call once
// from main, before constructing anything that captures the logger.
func Init(out io.Writer) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		cfg = Config{Level: "info", Format: "text"}
	}
	Log = New(cfg, out)
}

// New returns a logger for cfg writing to out.
func New(cfg Config, out io.Writer) *logrus.Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	// "json" for log collection, "text" for local runs.
	if strings.ToLower(cfg.Format) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	l.SetOutput(out)
	return l
}

// Get returns Log, or the logrus standard logger when Init was never called.
func Get() *logrus.Logger {
	if Log == nil {
		return logrus.StandardLogger()
	}
	return Log
}

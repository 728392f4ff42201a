package logger

import (
	"io"
	"os"
	"strings"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/sirupsen/logrus"
)

// New builds the process logger. An unknown level falls back to info.
func New(cfg config.LogConfig, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stdout
	}
	log := logrus.New()
	log.SetOutput(out)

	if strings.EqualFold(cfg.Format, "text") {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Warn("invalid log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

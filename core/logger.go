package core

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// NewLogger returns a new pre-configured logger writing to out. Probe results go to standard
// output, so callers usually pass standard error here.
func NewLogger(level log.Level, out io.Writer) *log.Logger {
	logger := log.New()

	logger.SetOutput(out)
	logger.SetFormatter(&log.TextFormatter{DisableTimestamp: false, FullTimestamp: true})
	logger.SetLevel(level)

	return logger
}

// Package logging builds the shared logrus.Logger used by both
// binaries, grounded on the root-level logging.go of the teacher repo:
// a TextFormatter with full timestamps and undisturbed field order,
// writing to stderr unless a log file path is configured.
package logging

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New builds a logger at the given logrus level, writing to path if
// non-empty or to stderr otherwise.
func New(level, path string) (*logrus.Logger, error) {
	log := logrus.New()

	out := os.Stderr
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		log.Out = f
	} else {
		log.Out = out
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		DisableSorting:  true,
		TimestampFormat: time.RFC3339,
	})
	return log, nil
}

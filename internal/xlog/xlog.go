// Package xlog is the package-level logger used across this repository,
// matching the call convention of the teacher's xd/lib/log package
// (log.Infof/Warnf/Debugf/Errorf called as bare functions rather than
// through a logger value threaded through every constructor) while backing
// it with logrus for structured fields and levels.
package xlog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the shared logger instance. Swap its formatter/output/level at
// process startup (see cmd/availctl) before any package under this module
// logs.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	Logger.SetLevel(logrus.InfoLevel)
}

// UseJSON switches to structured JSON output, for production deployments
// where logs are shipped to a collector rather than read on a terminal.
func UseJSON() {
	Logger.SetFormatter(&logrus.JSONFormatter{})
}

// SetLevel parses and applies a logrus level name ("debug", "info", ...).
func SetLevel(name string) error {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { Logger.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Logger.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Logger.Errorf(format, args...) }

func Debug(args ...interface{}) { Logger.Debug(args...) }
func Info(args ...interface{})  { Logger.Info(args...) }
func Warn(args ...interface{})  { Logger.Warn(args...) }
func Error(args ...interface{}) { Logger.Error(args...) }

// WithField returns a logrus entry pre-populated with one field, for call
// sites that want structured context (e.g. torrent infohash) alongside a
// message.
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

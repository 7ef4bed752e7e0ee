package database

import (
	"time"

	"github.com/anoixa/photo-album/config"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"
)

// logrusWriter adapts logrus to gorm's logger.Writer.
type logrusWriter struct {
	entry *logrus.Entry
}

func (w logrusWriter) Printf(format string, args ...interface{}) {
	w.entry.Infof(format, args...)
}

// newGormLogger logs SQL through logrus; statements only in development builds.
func newGormLogger() logger.Interface {
	logLevel := logger.Warn
	if config.IsDevelopment() && logrus.IsLevelEnabled(logrus.DebugLevel) {
		logLevel = logger.Info
	}

	return logger.New(
		logrusWriter{entry: logrus.WithField("component", "gorm")},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

package utils

import "github.com/sirupsen/logrus"

// SafeGo runs fn in a goroutine and logs a recovered panic.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				logrus.WithField("panic", err).Error("[SafeGo] panic recovered")
			}
		}()
		fn()
	}()
}

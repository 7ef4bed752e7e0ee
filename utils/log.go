package utils

import (
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
)

// SanitizeLogMessage drops control characters from user supplied values.
func SanitizeLogMessage(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		if r == '\n' || r == '\t' {
			sb.WriteRune(' ')
		} else if unicode.IsPrint(r) || unicode.IsGraphic(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SanitizeLogUsername truncates and sanitizes a login identifier.
func SanitizeLogUsername(username string) string {
	if len(username) > 50 {
		username = username[:50] + "..."
	}
	return SanitizeLogMessage(username)
}

// LogIfDevf logs a formatted message at debug level.
func LogIfDevf(format string, args ...interface{}) {
	logrus.Debugf(format, args...)
}

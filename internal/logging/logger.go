package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup configures a logrus logger for the given level and environment.
// Development keeps the human-readable text formatter; everything else logs
// JSON for ingestion.
func Setup(logLevel, environment string) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if environment == "development" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	}

	return logger
}

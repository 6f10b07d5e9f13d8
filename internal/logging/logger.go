package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Standard field keys used across the service.
const (
	FieldComponent = "component"
	FieldCoin      = "coin_id"
	FieldProvider  = "provider"
	FieldRequestID = "request_id"
)

// New creates a JSON logger at the given level. Development environments get
// caller information to ease debugging.
func New(level, environment string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stdout
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	logger.SetLevel(ParseLogrusLevel(level))
	if strings.EqualFold(environment, "development") {
		logger.SetReportCaller(true)
	}
	return logger
}

// ParseLogrusLevel maps a config string to a logrus level, defaulting to info.
func ParseLogrusLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// Component returns an entry tagged with a component name.
func Component(logger *logrus.Logger, name string) *logrus.Entry {
	return logger.WithField(FieldComponent, name)
}

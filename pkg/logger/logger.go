package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// InitLogger builds the global logger. level comes from config; when empty it
// is debug in development and info elsewhere. Development logs are colored
// text, everything else is JSON for log shipping.
func InitLogger(level string, isDevelopment bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	parsed, ok := parseLevel(level, isDevelopment)
	log.SetLevel(parsed)

	if isDevelopment {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.DateTime,
			ForceColors:     true,
		})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}

	Logger = log
	if !ok {
		log.WithField("log_level", level).Warn("Unknown log level, falling back to info")
	}
	return log
}

func parseLevel(level string, isDevelopment bool) (logrus.Level, bool) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		if isDevelopment {
			return logrus.DebugLevel, true
		}
		return logrus.InfoLevel, true
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel, false
	}
	return parsed, true
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return InitLogger("info", false)
	}
	return Logger
}

// Discard swaps the global logger for one that drops everything. Tests use it
// to keep optimizer debug output out of `go test -v`.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	Logger = log
	return log
}

// WithService creates a logger with service context
func WithService(serviceName string) *logrus.Entry {
	return GetLogger().WithField("service", serviceName)
}

// WithComponent creates a logger scoped to an engine component
func WithComponent(component string) *logrus.Entry {
	return GetLogger().WithField("component", component)
}

// WithOptimizationContext creates a logger with full optimization context
func WithOptimizationContext(optimizationID, contestType string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"optimization_id": optimizationID,
		"contest_type":    contestType,
	})
}

// WithHTTPContext creates a logger with HTTP request context
func WithHTTPContext(method, path, userAgent string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"http_method":     method,
		"http_path":       path,
		"http_user_agent": userAgent,
	})
}

package helpers

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a configured Logrus logger.
// level and format may be empty, in which case env decides: debug/text in
// development, info/json otherwise.
func NewLogger(appName, env, level, format string) *logrus.Logger {
	return newLogger(os.Stdout, appName, env, level, format)
}

func newLogger(out io.Writer, appName, env, level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	lvl := logrus.InfoLevel
	if env == "development" {
		lvl = logrus.DebugLevel
	}
	if level != "" {
		if parsed, err := logrus.ParseLevel(level); err == nil {
			lvl = parsed
		}
	}
	logger.SetLevel(lvl)

	if format == "" {
		format = "json"
		if env == "development" {
			format = "text"
		}
	}
	if strings.EqualFold(format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.WithFields(logrus.Fields{"app": appName, "env": env, "level": lvl.String()}).Info("logger initialized")
	return logger
}

type requestIDKey struct{}

// WithRequestID stores the correlation id of the current request in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the correlation id stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Entry returns a log entry tagged with the request id carried by ctx.
func Entry(ctx context.Context, logger *logrus.Logger) *logrus.Entry {
	e := logrus.NewEntry(logger)
	if id := RequestIDFrom(ctx); id != "" {
		e = e.WithField("request_id", id)
	}
	return e
}

// LogError Convenience methods to keep a unified logging interface
func LogError(logger *logrus.Logger, msg string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	logger.WithFields(fields).Error(msg)
}

func LogInfo(logger *logrus.Logger, msg string, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	logger.WithFields(fields).Info(msg)
}

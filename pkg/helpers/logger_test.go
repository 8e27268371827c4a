package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_EnvDefaults(t *testing.T) {
	var buf bytes.Buffer
	dev := newLogger(&buf, "app", "development", "", "")
	assert.Equal(t, logrus.DebugLevel, dev.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, dev.Formatter)

	prod := newLogger(&buf, "app", "production", "", "")
	assert.Equal(t, logrus.InfoLevel, prod.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, prod.Formatter)
}

func TestNewLogger_Overrides(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "app", "development", "warn", "json")
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	// an unknown level keeps the env default
	l = newLogger(&buf, "app", "production", "chatty", "")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestEntry_CarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "app", "production", "info", "json")
	buf.Reset()

	ctx := WithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", RequestIDFrom(ctx))
	Entry(ctx, l).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-123", line["request_id"])
	assert.Equal(t, "hello", line["msg"])

	buf.Reset()
	Entry(context.Background(), l).Info("plain")
	var plain map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &plain))
	_, ok := plain["request_id"]
	assert.False(t, ok)
}

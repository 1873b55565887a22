package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLogger(t *testing.T) {
	mock := NewMockLogger()

	mock.Info("fetched findings", "count", 42)
	mock.Debug("token acquired")
	mock.Warn("permission denied")
	mock.Error("request failed", "error", "boom")

	require.Len(t, *mock.Messages, 4)
	assert.True(t, mock.HasMessage("INFO", "fetched findings"))
	assert.True(t, mock.HasMessageContaining("ERROR", "request"))
	assert.False(t, mock.HasMessage("INFO", "nope"))

	mock.Clear()
	assert.Empty(t, *mock.Messages)
}

func TestMockLoggerWith(t *testing.T) {
	mock := NewMockLogger()

	mock.With("org", "acme").Info("filtered")

	require.Len(t, *mock.Messages, 1)
	last := (*mock.Messages)[0]
	assert.Equal(t, "filtered", last.Msg)
	assert.Equal(t, []any{"org", "acme"}, last.Args)
}

func TestLoggerInterface(_ *testing.T) {
	var _ Logger = &SlogLogger{}
	var _ Logger = &MockLogger{}

	exercise := func(l Logger) {
		l.Debug("debug")
		l.Info("info")
		l.Warn("warn")
		l.Error("error")
		l.With("key", "value").Info("with context")
		l.WithGroup("api").Info("grouped")
	}

	exercise(NewMockLogger())
	exercise(NewLogger(false, "text"))
	exercise(NewLogger(true, "json"))
}

func TestGlobalLogger(t *testing.T) {
	orig := GetGlobalLogger()
	defer SetGlobalLogger(orig)

	mock := NewMockLogger()
	SetGlobalLogger(mock)

	Info("hello")
	assert.True(t, mock.HasMessage("INFO", "hello"))
}

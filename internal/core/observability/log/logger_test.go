package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type named string

func (n named) String() string { return string(n) }

func TestLoggerFieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core), LevelInfo)

	l.Debug("hidden")
	l.Info("spawned",
		Uint64("id", 7),
		String("kind", "drifter"),
		Int("owners", 2),
		Bool("alive", true),
		Duration("dt", time.Second),
		Stringer("name", named("n")),
		Error(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "spawned", entry.Message)
	ctx := entry.ContextMap()
	assert.EqualValues(t, 7, ctx["id"])
	assert.Equal(t, "drifter", ctx["kind"])
	assert.EqualValues(t, 2, ctx["owners"])
	assert.Equal(t, true, ctx["alive"])
	assert.Equal(t, "n", ctx["name"])
	assert.Equal(t, "boom", ctx["error"])

	l.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, l.GetLevel())
	l.Debug("visible")
	assert.Equal(t, 2, logs.Len())
}

func TestLoggerWithSharesLevel(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core), LevelWarn)
	child := l.With(String("component", "registry")).Named("reg")

	child.Info("dropped")
	l.SetLevel(LevelInfo)
	child.Info("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "registry", logs.All()[0].ContextMap()["component"])
	assert.Equal(t, "reg", logs.All()[0].LoggerName)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug": LevelDebug,
		"":      LevelInfo,
		"info":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWithFormat(t *testing.T) {
	l, err := NewWithFormat(LevelInfo, "console")
	require.NoError(t, err)
	assert.Equal(t, LevelInfo, l.GetLevel())
	assert.NotNil(t, Provide())

	_, err = NewWithFormat(LevelInfo, "xml")
	assert.Error(t, err)
}

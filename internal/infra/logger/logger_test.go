package logger

import (
	"testing"

	"github.com/sifan077/bookmarks/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestFromApp(t *testing.T) {
	cfg := FromApp(config.App{Env: "production", LogLevel: "warn", LogEncoding: "json"})
	assert.Equal(t, Config{Development: false, Level: "warn", Encoding: "json"}, cfg)
	assert.True(t, FromApp(config.App{Env: "development"}).Development)
}

func TestNew_Levels(t *testing.T) {
	l, err := New(Config{Development: true})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New(Config{Level: "WARN"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestEncoderConfig(t *testing.T) {
	console := encoderConfig("console", false)
	assert.Equal(t, " | ", console.ConsoleSeparator)

	json := encoderConfig("json", true)
	assert.Empty(t, json.ConsoleSeparator)
	assert.Equal(t, "component", json.NameKey)
}

func TestGlobal(t *testing.T) {
	assert.NotNil(t, L())

	l, err := Init(Config{Level: "error"})
	require.NoError(t, err)
	assert.Same(t, l, L())
	assert.NotNil(t, Component("http"))
	assert.NoError(t, Sync())
}

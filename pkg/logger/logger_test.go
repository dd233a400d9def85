package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.name), "level %q", tt.name)
	}
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")

	log := newLogger(&Config{
		Level:    "debug",
		Format:   "json",
		Output:   "file",
		FilePath: path,
	})
	log.Info("array dispatched", zap.Int("ntask", 4))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"array dispatched"`)
	assert.Contains(t, string(data), `"ntask":4`)
}

func TestNewLoggerLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")

	log := newLogger(&Config{
		Level:    "error",
		Format:   "json",
		Output:   "file",
		FilePath: path,
	})
	log.Info("quiet")
	log.Error("loud")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "quiet")
	assert.Contains(t, string(data), "loud")
}

func TestNewLoggerNilConfig(t *testing.T) {
	assert.NotNil(t, newLogger(nil))
}

func TestLReturnsDefault(t *testing.T) {
	assert.NotNil(t, L())
}

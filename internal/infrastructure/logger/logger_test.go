package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{
			name: "json to stdout",
			cfg:  &Config{Level: "info", Format: "json", Output: "stdout"},
		},
		{
			name: "console to stderr",
			cfg:  &Config{Level: "debug", Format: "console", Output: "stderr"},
		},
		{
			name: "empty output defaults to stdout",
			cfg:  &Config{Level: "warn", Format: "json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billing.log")

	log, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNewUnwritableFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "billing.log")

	_, err := New(&Config{Level: "info", Format: "json", Output: path})
	assert.Error(t, err)
}

func TestZapLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, zapLevel(tt.level))
		})
	}
}

func TestJSONEncoderOutput(t *testing.T) {
	var buf bytes.Buffer

	core := zapcore.NewCore(buildEncoder("json"), zapcore.AddSync(&buf), zapcore.InfoLevel)
	log := zap.New(core)

	log.Info("statement generated", zap.String("run_id", "abc-123"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "statement generated", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "abc-123", entry["run_id"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	core := zapcore.NewCore(buildEncoder("json"), zapcore.AddSync(&buf), zapcore.InfoLevel)
	log := zap.New(core)

	log.Debug("should be filtered")
	assert.Empty(t, buf.String())

	log.Info("should be written")
	assert.Contains(t, buf.String(), "should be written")
}

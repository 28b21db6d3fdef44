package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zap.DebugLevel, false},
		{"", zap.InfoLevel, false},
		{"WARNING", zap.WarnLevel, false},
		{"error", zap.ErrorLevel, false},
		{"loud", zap.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_JSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Stderr: &buf})
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("dispatch", zap.String("scheme", "vore"))
	_ = logger.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "output = %q", buf.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "dispatch", entry["msg"])
	assert.Equal(t, "vore", entry["scheme"])
}

func TestNew_File(t *testing.T) {
	for _, rotate := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "logs", "run.log")
		logger, err := New(Options{Level: "warn", File: path, Rotate: rotate})
		require.NoError(t, err)
		logger.Warn("written")
		_ = logger.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err, "rotate=%v", rotate)
		assert.Contains(t, string(data), "written", "rotate=%v", rotate)
	}
}

func TestNew_BadOptions(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err, "expected level error")
	_, err = New(Options{Format: "xml"})
	assert.Error(t, err, "expected format error")
}

package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"WARN", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"info", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"bogus", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"debug", []string{"ERROR", "WARN", "INFO", "DEBUG"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(tempDir, tt.level+".log")
			cfg := FileConfig{Path: logFile, MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1}
			require.NoError(t, InitWithFileConfig(tt.level, cfg, false))
			t.Cleanup(InitNop)

			Debug("debug message")
			Info("info message", zap.String("file", "cube.glb"))
			Warn("warn message")
			Error("error message")
			Sync()

			content, err := os.ReadFile(logFile)
			require.NoError(t, err)
			for _, exp := range tt.expected {
				assert.Contains(t, string(content), exp)
			}
			for _, exc := range tt.excluded {
				assert.NotContains(t, string(content), exc)
			}
		})
	}
}

func TestFieldsAndNames(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "named.log")
	require.NoError(t, InitWithFileConfig("debug", FileConfig{Path: logFile, MaxSizeMB: 1}, false))
	t.Cleanup(InitNop)

	Named("decode").Info("decoded", zap.String("file", "cube.stl"), zap.Int("meshes", 1))
	Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	line := string(content)
	assert.True(t, strings.Contains(line, "decode"), line)
	assert.Contains(t, line, `"file": "cube.stl"`)
}

func TestNopByDefault(t *testing.T) {
	InitNop()
	assert.NotPanics(t, func() {
		Debug("dropped")
		Sugar.Infof("dropped %d", 1)
		Sync()
	})
	require.NoError(t, InitWithFileConfig("info", FileConfig{}, false))
	assert.NotNil(t, Log)
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/meshview.log")
	assert.Equal(t, FileConfig{
		Path:       "/tmp/meshview.log",
		MaxSizeMB:  20,
		MaxBackups: 3,
		MaxAgeDays: 14,
		Compress:   true,
	}, cfg)
}

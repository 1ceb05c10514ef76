package logging

import (
	"os"
	"path/filepath"
	"testing"

	"brewhouse/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAppCfg = config.AppConfig{
	Name:        "brewhouse",
	Environment: "test",
	Version:     "1.0.0",
}

func TestNew_StreamOutputs(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{"stdout json", config.LoggingConfig{Level: "info", Output: "stdout"}},
		{"stderr", config.LoggingConfig{Level: "debug", Output: "stderr"}},
		{"console format", config.LoggingConfig{Level: "warn", Output: "stdout", Format: "console"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger, closer, err := New(tc.cfg, testAppCfg)
			require.NoError(t, err)
			require.NotNil(t, logger)
			// Потоковые выводы закрывать не нужно
			assert.Nil(t, closer)
			assert.Equal(t, tc.cfg.Level, logger.GetLevel().String())
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "server.log")

	logger, closer, err := New(config.LoggingConfig{
		Level:    "error",
		Output:   "file",
		FilePath: logPath,
	}, testAppCfg)
	require.NoError(t, err)
	require.NotNil(t, closer)

	logger.Error().Msg("boom")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "boom")
}

func TestNew_FileOutputRequiresPath(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Output: "file"}, testAppCfg)
	assert.Error(t, err)
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger, _, err := New(config.LoggingConfig{Level: "loud"}, testAppCfg)
	require.NoError(t, err)
	assert.Equal(t, "info", logger.GetLevel().String())
}

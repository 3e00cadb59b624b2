package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// chdir mirrors testing.T.Chdir, which requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 100, cfg.History.Limit)
	assert.Empty(t, cfg.Execution.NodeTimeout)
	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestConfig_Merge(t *testing.T) {
	cfg := Default()
	overlay := &Config{
		Execution: ExecutionConfig{NodeTimeout: "30s"},
		History:   HistoryConfig{Limit: 25},
		Storage:   StorageConfig{DataDir: "/tmp/loom", Enabled: true},
		Logging:   LoggingConfig{Level: "debug"},
	}

	cfg.Merge(overlay)

	assert.Equal(t, "30s", cfg.Execution.NodeTimeout)
	assert.Equal(t, 25, cfg.History.Limit)
	assert.Equal(t, "/tmp/loom", cfg.Storage.DataDir)
	assert.True(t, cfg.Storage.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format, "unset overlay fields keep the base value")
}

func TestConfig_Merge_ZeroOverlayKeepsBase(t *testing.T) {
	cfg := Default()
	cfg.Execution.NodeTimeout = "10s"

	cfg.Merge(&Config{})

	assert.Equal(t, "10s", cfg.Execution.NodeTimeout)
	assert.Equal(t, 100, cfg.History.Limit)
}

func TestConfig_Finalize_Validation(t *testing.T) {
	cfg := &Config{Execution: ExecutionConfig{NodeTimeout: "not-a-duration"}}
	assert.Error(t, cfg.Finalize())

	cfg = &Config{History: HistoryConfig{Limit: -1}}
	assert.Error(t, cfg.Finalize())

	cfg = &Config{Logging: LoggingConfig{Level: "verbose"}}
	assert.Error(t, cfg.Finalize())

	cfg = &Config{Logging: LoggingConfig{Format: "xml"}}
	assert.Error(t, cfg.Finalize())

	cfg = &Config{Execution: ExecutionConfig{NodeTimeout: "45s"}}
	require.NoError(t, cfg.Finalize())
	assert.Equal(t, 45*time.Second, cfg.Execution.NodeTimeoutDuration())
}

func TestConfig_Finalize_EnvOverridesDataDir(t *testing.T) {
	t.Setenv(EnvDataDir, "/var/lib/loom")

	cfg := &Config{}
	require.NoError(t, cfg.Finalize())

	assert.Equal(t, "/var/lib/loom", cfg.Storage.DataDir)
}

func TestLoad_FromFileWithOverlay(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	base := []byte(`
[execution]
node_timeout = "20s"

[history]
limit = 10

[logging]
level = "warn"
`)
	overlay := []byte(`
[logging]
level = "debug"
format = "json"
`)
	require.NoError(t, writeFile(dir+"/loom.toml", base))
	require.NoError(t, writeFile(dir+"/loom.staging.toml", overlay))
	t.Setenv(EnvEngineEnv, "staging")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "20s", cfg.Execution.NodeTimeout)
	assert.Equal(t, 10, cfg.History.Limit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(EnvEngineEnv, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.History.Limit)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoggingConfig_LoggerLevels(t *testing.T) {
	cfg := LoggingConfig{Level: "error", Format: "text"}
	logger := cfg.Logger()
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(nil, slog.LevelInfo))
	assert.True(t, logger.Enabled(nil, slog.LevelError))

	cfg = LoggingConfig{Level: "debug", Format: "json"}
	logger = cfg.Logger()
	assert.True(t, logger.Enabled(nil, slog.LevelDebug))
}

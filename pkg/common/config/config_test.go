package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fferrors "github.com/vnykmshr/forkflow/pkg/common/errors"
)

// noEnvFile keeps tests from picking up a stray .env in the package directory.
var noEnvFile = "--env-file="

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("test", []string{noEnvFile})
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 0, cfg.BufferSize)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Logging.Timestamp)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "forkflow:in", cfg.Redis.InputKey)
	assert.Equal(t, "forkflow:out", cfg.Redis.OutputKey)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "", cfg.Schedule)
}

func TestLoadPrecedence(t *testing.T) {
	file := writeFile(t, "forkflow.yaml", `
workers: 6
buffer_size: 32
logging:
  level: debug
redis:
  input_key: jobs
`)
	t.Setenv("FORKFLOW_WORKERS", "10")
	t.Setenv("FORKFLOW_POLL_INTERVAL", "250ms")

	cfg, err := Load("test", []string{noEnvFile, "--config", file, "--log-level", "warn"})
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Workers, "env beats file")
	assert.Equal(t, 32, cfg.BufferSize, "file beats default")
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "warn", cfg.Logging.Level, "flag beats file")
	assert.Equal(t, "jobs", cfg.Redis.InputKey)

	cfg, err = Load("test", []string{noEnvFile, "--config", file, "-w", "2"})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers, "flag beats env")
}

func TestLoadEnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "FORKFLOW_SCHEDULE=@hourly\nFORKFLOW_REDIS_OUTPUT_KEY=results\n")
	t.Cleanup(func() {
		_ = os.Unsetenv("FORKFLOW_SCHEDULE")
		_ = os.Unsetenv("FORKFLOW_REDIS_OUTPUT_KEY")
	})

	cfg, err := Load("test", []string{"--env-file", envFile})
	require.NoError(t, err)
	assert.Equal(t, "@hourly", cfg.Schedule)
	assert.Equal(t, "results", cfg.Redis.OutputKey)
}

func TestLoadMissingEnvFileIgnored(t *testing.T) {
	_, err := Load("test", []string{"--env-file", filepath.Join(t.TempDir(), "absent.env")})
	assert.NoError(t, err)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load("test", []string{noEnvFile, "--config", filepath.Join(t.TempDir(), "absent.yaml")})
	assert.Error(t, err)
}

func TestLoadBadFlag(t *testing.T) {
	_, err := Load("test", []string{"--workers", "many"})
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"zero workers", []string{"--workers", "0"}, "Workers"},
		{"negative buffer", []string{"--buffer-size", "-1"}, "BufferSize"},
		{"bad level", []string{"--log-level", "loud"}, "Logging.Level"},
		{"same keys", []string{"--input-key", "q", "--output-key", "q"}, "Redis.OutputKey"},
		{"bad redis addr", []string{"--redis-addr", "nowhere"}, "Redis.Addr"},
		{"metrics without addr", []string{"--metrics", "--metrics-addr", ""}, "Metrics.Addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("test", append([]string{noEnvFile}, tt.args...))
			require.Error(t, err)

			var verr *fferrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "config", verr.Module)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

package config_test

import (
	"filescanner/internal/config"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "environment: production\n"))
	require.NoError(t, err)

	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, 15*time.Second, cfg.VirusTotal.RequestInterval)
	require.Equal(t, 3, cfg.Scanner.MaxConcurrentScans)
	require.Equal(t, 3, cfg.Scanner.RetryAttempts)
	require.Equal(t, time.Minute, cfg.Scanner.RetryDelay)
	require.Equal(t, "fixed", cfg.Scanner.RetryBackoff)
	require.Equal(t, 5, cfg.Scanner.ScanBatchSize)
	require.Equal(t, 1000, cfg.Scanner.ScanHistoryLimit)
	require.Equal(t, 30, cfg.Scanner.PollAttempts)
	require.Equal(t, 2*time.Second, cfg.Scanner.PollInterval)
	require.Equal(t, time.Hour, cfg.Scanner.CycleInterval)
	require.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	require.Equal(t, []string{"COMPLETED", "FAILED"}, cfg.Notify.Events)

	_, enabled := cfg.RescanInterval()
	require.False(t, enabled)

	size, err := cfg.HashBufferSize()
	require.NoError(t, err)
	require.Equal(t, 64*1024, size)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
scanner:
  maxConcurrentScans: 2
  retryBackoff: exponential
  autoRescanIntervalHours: 12
monitor:
  extensions: [".exe", ".dll"]
  minFileSize: 1KB
  maxFileSize: 10MB
`))
	require.NoError(t, err)

	require.Equal(t, 2, cfg.Scanner.MaxConcurrentScans)
	require.Equal(t, "exponential", cfg.Scanner.RetryBackoff)
	require.Equal(t, []string{".exe", ".dll"}, cfg.Monitor.Extensions)

	interval, enabled := cfg.RescanInterval()
	require.True(t, enabled)
	require.Equal(t, 12*time.Hour, interval)

	minSize, maxSize, err := cfg.FileSizeBounds()
	require.NoError(t, err)
	require.Equal(t, int64(1000), minSize)
	require.Equal(t, int64(10_000_000), maxSize)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SCANNER_SCAN_BATCH_SIZE", "9")
	t.Setenv("VIRUSTOTAL_API_KEY", "from-env")

	cfg, err := config.Load(writeConfig(t, "scanner:\n  scanBatchSize: 4\n"))
	require.NoError(t, err)
	require.Equal(t, 9, cfg.Scanner.ScanBatchSize)
	require.Equal(t, "from-env", cfg.VirusTotal.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{name: "backoff", content: "scanner:\n  retryBackoff: linear\n", msg: "retryBackoff"},
		{name: "concurrency", content: "scanner:\n  maxConcurrentScans: -1\n", msg: "maxConcurrentScans"},
		{name: "rescan", content: "scanner:\n  autoRescanIntervalHours: 0\n", msg: "autoRescanIntervalHours"},
		{name: "cache backend", content: "cache:\n  backend: memcached\n", msg: "cache.backend"},
		{name: "size", content: "monitor:\n  maxFileSize: lots\n", msg: "monitor.maxFileSize"},
		{name: "size order", content: "monitor:\n  minFileSize: 2MB\n  maxFileSize: 1MB\n", msg: "minFileSize"},
		{name: "cycle interval", content: "scanner:\n  cycleInterval: -1s\n", msg: "scanner.cycleInterval"},
		{name: "settings retry", content: "scanner:\n  settingsRetryInterval: -1m\n", msg: "scanner.settingsRetryInterval"},
		{name: "purge interval", content: "cache:\n  purgeInterval: -10m\n", msg: "cache.purgeInterval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			require.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestLoad_ZeroIntervalsFromEnv(t *testing.T) {
	tests := []struct {
		env string
		msg string
	}{
		{env: "SCANNER_CYCLE_INTERVAL", msg: "scanner.cycleInterval"},
		{env: "SCANNER_SETTINGS_RETRY_INTERVAL", msg: "scanner.settingsRetryInterval"},
		{env: "CACHE_PURGE_INTERVAL", msg: "cache.purgeInterval"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, "0s")

			_, err := config.Load(writeConfig(t, "environment: production\n"))
			require.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

package config

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{envRedisURL, envDatabaseURL, envBackend, envLogLevel, envMetricsFile} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFS(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		env     map[string]string
		check   func(t *testing.T, cfg *Config)
		wantErr bool
	}{
		{
			name: "defaults without files",
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, LogLevelInfo, cfg.LogLevel)
				require.Equal(t, BackendRedis, cfg.Backend)
				require.Equal(t, defaultRedisURL, cfg.Redis.URL)
				require.Equal(t, defaultRedisPrefix, cfg.Redis.Prefix)
				require.Empty(t, cfg.MetricsFile)
			},
		},
		{
			name: "yaml file",
			files: map[string]string{
				DefaultConfigFile: `
log_level: debug
backend: postgres
postgres:
  url: postgres://localhost/assets
  table_prefix: dev_
metrics_file: /tmp/ai.prom
`,
			},
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, LogLevelDebug, cfg.LogLevel)
				require.Equal(t, BackendPostgres, cfg.Backend)
				require.Equal(t, "postgres://localhost/assets", cfg.Postgres.URL)
				require.Equal(t, "dev_", cfg.Postgres.TablePrefix)
				require.Equal(t, "/tmp/ai.prom", cfg.MetricsFile)
			},
		},
		{
			name:  "env overrides yaml",
			files: map[string]string{DefaultConfigFile: "log_level: debug\nredis:\n  url: redis://a:6379/0\n"},
			env:   map[string]string{envRedisURL: "redis://b:6379/1", envLogLevel: "WARN"},
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, "redis://b:6379/1", cfg.Redis.URL)
				require.Equal(t, LogLevelWarn, cfg.LogLevel)
			},
		},
		{
			name: "dot env",
			files: map[string]string{
				DotEnvFile: "ASSETIMPORTER_BACKEND=postgres\nASSETIMPORTER_DATABASE_URL=postgres://env/assets\n",
			},
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, BackendPostgres, cfg.Backend)
				require.Equal(t, "postgres://env/assets", cfg.Postgres.URL)
			},
		},
		{
			name:  "environment wins over dot env",
			files: map[string]string{DotEnvFile: "ASSETIMPORTER_LOG_LEVEL=debug\n"},
			env:   map[string]string{envLogLevel: "error"},
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, LogLevelError, cfg.LogLevel)
			},
		},
		{
			name:    "postgres without url",
			files:   map[string]string{DefaultConfigFile: "backend: postgres\n"},
			wantErr: true,
		},
		{
			name:    "unknown backend",
			env:     map[string]string{envBackend: "mongo"},
			wantErr: true,
		},
		{
			name:    "unknown log level",
			files:   map[string]string{DefaultConfigFile: "log_level: verbose\n"},
			wantErr: true,
		},
		{
			name:    "broken yaml",
			files:   map[string]string{DefaultConfigFile: "log_level: [\n"},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			fs := afero.NewMemMapFs()
			for name, content := range tc.files {
				require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
			}

			cfg, err := LoadFS(fs, DefaultConfigFile)
			if tc.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}

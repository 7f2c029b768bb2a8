package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	DefaultConfigFile = "config.yml"
	DotEnvFile        = ".env"

	defaultRedisURL    = "redis://localhost:6379/0"
	defaultRedisPrefix = "assetimporter"

	envRedisURL    = "ASSETIMPORTER_REDIS_URL"
	envDatabaseURL = "ASSETIMPORTER_DATABASE_URL"
	envBackend     = "ASSETIMPORTER_BACKEND"
	envLogLevel    = "ASSETIMPORTER_LOG_LEVEL"
	envMetricsFile = "ASSETIMPORTER_METRICS_FILE"
)

type RedisConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
}

type PostgresConfig struct {
	URL         string `yaml:"url"`
	TablePrefix string `yaml:"table_prefix"`
}

type Config struct {
	LogLevel    string         `yaml:"log_level"`
	Backend     string         `yaml:"backend"`
	Redis       RedisConfig    `yaml:"redis"`
	Postgres    PostgresConfig `yaml:"postgres"`
	MetricsFile string         `yaml:"metrics_file"`
}

func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = LogLevelInfo
	}

	if c.Backend == "" {
		c.Backend = BackendRedis
	}

	if c.Redis.URL == "" {
		c.Redis.URL = defaultRedisURL
	}

	if c.Redis.Prefix == "" {
		c.Redis.Prefix = defaultRedisPrefix
	}
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("unknown log level: %q", c.LogLevel)
	}

	switch c.Backend {
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("redis url is required")
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("postgres url is required")
		}
	default:
		return fmt.Errorf("unknown backend: %q", c.Backend)
	}

	return nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		key   string
		value *string
	}{
		{envRedisURL, &c.Redis.URL},
		{envDatabaseURL, &c.Postgres.URL},
		{envBackend, &c.Backend},
		{envLogLevel, &c.LogLevel},
		{envMetricsFile, &c.MetricsFile},
	}

	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.value = v
		}
	}

	c.LogLevel = strings.ToLower(c.LogLevel)
	c.Backend = strings.ToLower(c.Backend)
}

// Load reads the optional YAML file and .env next to the working directory,
// then applies environment overrides and defaults.
func Load(cfgPath string) (*Config, error) {
	return LoadFS(afero.NewOsFs(), cfgPath)
}

func LoadFS(fs afero.Fs, cfgPath string) (*Config, error) {
	if err := loadDotEnv(fs, DotEnvFile); err != nil {
		return nil, err
	}

	cfg := &Config{}

	data, err := afero.ReadFile(fs, cfgPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", cfgPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("cannot read config file %s: %w", cfgPath, err)
	}

	cfg.applyEnv()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func MustLoad(cfgPath string) *Config {
	cfg, err := Load(cfgPath)
	if err != nil {
		panic(err)
	}

	return cfg
}

// loadDotEnv sets variables from the file that are not already set.
func loadDotEnv(fs afero.Fs, filename string) error {
	f, err := fs.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	env, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("cannot parse %s: %w", filename, err)
	}

	for k, v := range env {
		if _, ok := os.LookupEnv(k); ok {
			continue
		}

		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("cannot set %s: %w", k, err)
		}
	}

	return nil
}

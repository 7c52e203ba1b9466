package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	platformerrors "telewatch-go/internal/platform/errors"
)

// Loader reads a YAML config file on top of the defaults, then applies
// TELEWATCH_* environment overrides.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader for the given config file path.
func NewLoader(path string) *Loader {
	return &Loader{path: path, useDotEnv: true}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Load parses the file and returns a validated configuration. A missing file
// is not an error: the defaults plus env overrides are used instead.
func (l *Loader) Load() (*Config, error) {
	if l.useDotEnv {
		// No .env file is fine: the plain process environment applies.
		_ = godotenv.Load()
	}

	cfg := Default()

	if l.path != "" {
		data, err := os.ReadFile(l.path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, platformerrors.Wrap(platformerrors.KindConfig, "config.load", "read config file", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "config.load", "parse config file", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELEWATCH_SERVER_IP"); v != "" {
		cfg.Server.IP = v
	}
	if v := os.Getenv("TELEWATCH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TELEWATCH_CREDENTIALS_FILE"); v != "" {
		cfg.Server.Auth.CredentialsFile = v
	}
	if v := os.Getenv("TELEWATCH_TOKEN_TTL_SECONDS"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil {
			cfg.Server.Auth.TokenTTLSeconds = ttl
		}
	}
	if v := os.Getenv("TELEWATCH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TELEWATCH_AGENT_USERNAME"); v != "" {
		cfg.Agent.Username = v
	}
	if v := os.Getenv("TELEWATCH_AGENT_PASSWORD"); v != "" {
		cfg.Agent.Password = v
	}
	if v := os.Getenv("TELEWATCH_AGENT_SERVER"); v != "" {
		cfg.Agent.ServerAddr = v
	}
}

// Validate rejects configurations no process could run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return platformerrors.New(platformerrors.KindConfig, "config.validate",
			fmt.Sprintf("invalid server port: %d", c.Server.Port))
	}
	if c.Server.PathPart1 == "" || c.Server.PathPart2 == "" {
		return platformerrors.New(platformerrors.KindConfig, "config.validate", "ingest path segments must not be empty")
	}
	if c.Server.Auth.TokenTTLSeconds <= 0 {
		return platformerrors.New(platformerrors.KindConfig, "config.validate",
			fmt.Sprintf("invalid token ttl: %d", c.Server.Auth.TokenTTLSeconds))
	}
	switch c.Server.Sink.Driver {
	case "", "file", "sqlite", "redis":
	default:
		return platformerrors.New(platformerrors.KindConfig, "config.validate",
			fmt.Sprintf("unsupported sink driver: %s", c.Server.Sink.Driver))
	}
	switch c.Agent.RotatePolicy {
	case "", RotateAlways, RotateOnSuccess:
	default:
		return platformerrors.New(platformerrors.KindConfig, "config.validate",
			fmt.Sprintf("unsupported rotate policy: %s", c.Agent.RotatePolicy))
	}
	if c.Agent.PeriodSeconds <= 0 {
		return platformerrors.New(platformerrors.KindConfig, "config.validate",
			fmt.Sprintf("invalid agent period: %d", c.Agent.PeriodSeconds))
	}
	return nil
}

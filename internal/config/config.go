package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// AuthMode selects how requests are authorized.
type AuthMode string

const (
	AuthAPIKey   AuthMode = "api_key"
	AuthUserPool AuthMode = "user_pool"
)

// Config captures the backend connection and local file locations.
type Config struct {
	Endpoint         string
	RealtimeEndpoint string
	APIKey           string
	AuthMode         AuthMode
	IDToken          string
	IDTokenFile      string
	LogFile          string
	MutationTimeout  time.Duration
}

const (
	defaultConfigPath      = "~/.config/tick/config.toml"
	defaultLogFile         = "~/.local/state/tick/tick.log"
	defaultIDTokenFile     = "~/.config/tick/id_token"
	defaultMutationTimeout = 10 * time.Second
)

// loadDotEnv reads ./.env into the process environment without overriding
// variables that are already set.
var loadDotEnv = func() error { return godotenv.Load() }

// Load locates and parses the config, falling back to defaults when missing.
// Values from the environment (TICK_*, including a .env file) win over the
// file.
func Load(path string) (Config, error) {
	if err := loadDotEnv(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw struct {
		Endpoint         string `toml:"endpoint"`
		RealtimeEndpoint string `toml:"realtime_endpoint"`
		APIKey           string `toml:"api_key"`
		AuthMode         string `toml:"auth_mode"`
		IDTokenFile      string `toml:"id_token_file"`
		LogFile          string `toml:"log_file"`
		MutationTimeout  string `toml:"mutation_timeout"`
	}

	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	cfg := Config{
		Endpoint:         envOr("TICK_ENDPOINT", raw.Endpoint),
		RealtimeEndpoint: envOr("TICK_REALTIME_ENDPOINT", raw.RealtimeEndpoint),
		APIKey:           envOr("TICK_API_KEY", raw.APIKey),
		AuthMode:         AuthMode(strings.ToLower(envOr("TICK_AUTH_MODE", raw.AuthMode))),
		IDToken:          envOr("TICK_ID_TOKEN", ""),
		IDTokenFile:      envOr("TICK_ID_TOKEN_FILE", raw.IDTokenFile),
		LogFile:          envOr("TICK_LOG_FILE", raw.LogFile),
		MutationTimeout:  defaultMutationTimeout,
	}

	if timeout := envOr("TICK_MUTATION_TIMEOUT", raw.MutationTimeout); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("parse config: invalid mutation_timeout %q", timeout)
		}
		cfg.MutationTimeout = d
	}

	if cfg.AuthMode == "" {
		cfg.AuthMode = AuthUserPool
		if cfg.APIKey != "" {
			cfg.AuthMode = AuthAPIKey
		}
	}
	if cfg.AuthMode != AuthAPIKey && cfg.AuthMode != AuthUserPool {
		return Config{}, fmt.Errorf("parse config: unknown auth_mode %q", cfg.AuthMode)
	}

	if cfg.IDTokenFile == "" {
		cfg.IDTokenFile = defaultIDTokenFile
	}
	cfg.IDTokenFile = mustExpand(cfg.IDTokenFile)
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}
	cfg.LogFile = mustExpand(cfg.LogFile)

	return cfg, nil
}

// Validate reports settings without which the client cannot reach the backend.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is not configured (set endpoint in %s or TICK_ENDPOINT)", defaultConfigPath)
	}
	if c.AuthMode == AuthAPIKey && c.APIKey == "" {
		return fmt.Errorf("auth_mode api_key requires api_key or TICK_API_KEY")
	}
	return nil
}

// RequiresLogin reports whether a user session is needed.
func (c Config) RequiresLogin() bool {
	return c.AuthMode == AuthUserPool
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return strings.TrimSpace(fallback)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

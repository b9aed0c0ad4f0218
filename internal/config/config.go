package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"relaybot/internal/domain"
)

// Config is the root configuration for the relay bot.
type Config struct {
	General    GeneralConfig    `json:"general"`
	Telegram   TelegramConfig   `json:"telegram"`
	Operators  OperatorsConfig  `json:"operators"`
	Delivery   DeliveryConfig   `json:"delivery"`
	Transcript TranscriptConfig `json:"transcript"`
	Menu       MenuConfig       `json:"menu"`
	Metrics    MetricsConfig    `json:"metrics"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	LogFile  string `json:"logFile,omitempty"`
}

type TelegramConfig struct {
	Token    string `json:"token"`
	ProxyURL string `json:"proxyUrl,omitempty"` // SOCKS5/HTTP proxy for the Bot API
}

// OperatorsConfig names the primary operator and any extra operators
// present from startup. The primary can never be demoted.
type OperatorsConfig struct {
	Primary int64          `json:"primary"`
	Extra   FlexStringList `json:"extra,omitempty"`
}

type DeliveryConfig struct {
	Attempts          int     `json:"attempts"`
	BackoffSeconds    int     `json:"backoffSeconds"`
	ThrottlePerMinute float64 `json:"throttlePerMinute,omitempty"` // 0 = no proactive throttle
}

type TranscriptConfig struct {
	Backend string `json:"backend"` // "memory" | "sqlite"
	DBPath  string `json:"dbPath,omitempty"`
}

type MenuConfig struct {
	TemplatesPath string `json:"templatesPath,omitempty"` // YAML overrides for the built-in strings
}

type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Listen   string `json:"listen"`
	Endpoint string `json:"endpoint"`
}

// FlexStringList is a []string that can unmarshal from JSON arrays
// containing both strings and numbers, so operator IDs can be written
// either way in the config file.
type FlexStringList []string

func (f *FlexStringList) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			result = append(result, s)
			continue
		}
		var n float64
		if err := json.Unmarshal(item, &n); err == nil {
			result = append(result, strconv.FormatInt(int64(n), 10))
			continue
		}
		result = append(result, string(item))
	}
	*f = result
	return nil
}

// UserIDs parses the list into user identifiers, skipping entries that
// are not numeric.
func (f FlexStringList) UserIDs() []domain.UserID {
	ids := make([]domain.UserID, 0, len(f))
	for _, s := range f {
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, domain.UserID(id))
	}
	return ids
}

// DefaultConfigDir returns the default config directory (~/.relaybot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".relaybot"
	}
	return filepath.Join(home, ".relaybot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Transcript.DBPath = ExpandPath(cfg.Transcript.DBPath)
	cfg.Menu.TemplatesPath = ExpandPath(cfg.Menu.TemplatesPath)
	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is
// unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if cfg.Operators.Primary <= 0 {
		errs = append(errs, "operators.primary is required and must be a positive user ID")
	}

	if cfg.Delivery.Attempts < 1 || cfg.Delivery.Attempts > 10 {
		errs = append(errs, "delivery.attempts must be between 1 and 10")
	}
	if cfg.Delivery.BackoffSeconds < 1 {
		errs = append(errs, "delivery.backoffSeconds must be >= 1")
	}
	if cfg.Delivery.ThrottlePerMinute < 0 {
		errs = append(errs, "delivery.throttlePerMinute must not be negative")
	}

	switch cfg.Transcript.Backend {
	case "memory":
	case "sqlite":
		if cfg.Transcript.DBPath == "" {
			errs = append(errs, "transcript.dbPath is required for the sqlite backend")
		}
	default:
		errs = append(errs, "transcript.backend must be one of: memory, sqlite")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		errs = append(errs, "metrics.listen is required when metrics are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

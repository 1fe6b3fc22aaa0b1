package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, PROBELAUF_CONFIG env, ./probelauf.yaml, /etc/probelauf/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. PROBELAUF_CONFIG environment variable
// 3. ./probelauf.yaml in the current directory
// 4. /etc/probelauf/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("PROBELAUF_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"probelauf.yaml",
		"/etc/probelauf/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. Env vars
// take precedence over the config file so CI pipelines can inject the
// target without writing one.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PROBELAUF_ENDPOINT"); v != "" {
		cfg.Check.Endpoint = v
	}
	if v := os.Getenv("PROBELAUF_MODEL"); v != "" {
		cfg.Check.Model = v
	}
	if v := os.Getenv("PROBELAUF_API_KEY"); v != "" {
		cfg.Check.APIKey = v
	}
	if v := os.Getenv("PROBELAUF_API_SECRET"); v != "" {
		cfg.Check.APISecret = v
	}
	if v := os.Getenv("PROBELAUF_AUTH"); v != "" {
		cfg.Check.Auth = v
	}
	if v := os.Getenv("PROBELAUF_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Check.RequestTimeout = d
		}
	}
	if v := os.Getenv("PROBELAUF_FRAGMENT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Check.FragmentTimeout = d
		}
	}
	if v := os.Getenv("PROBELAUF_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Serve.Interval = d
		}
	}
	if v := os.Getenv("PROBELAUF_LISTEN"); v != "" {
		cfg.Serve.Listen = v
	}
	if v := os.Getenv("PROBELAUF_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("PROBELAUF_STORAGE_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.Storage.MaxSize = size
		}
	}
	if v := os.Getenv("PROBELAUF_POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. For each field ending in _file, if the value field is empty
// and the file field is set, the file is read, whitespace is trimmed, and
// the value field is populated.
func resolveFileReferences(cfg *Config) error {
	if cfg.Check.APIKeyFile != "" && cfg.Check.APIKey == "" {
		val, err := readSecretFile(cfg.Check.APIKeyFile)
		if err != nil {
			return fmt.Errorf("check.api_key_file: %w", err)
		}
		cfg.Check.APIKey = val
	}

	if cfg.Check.APISecretFile != "" && cfg.Check.APISecret == "" {
		val, err := readSecretFile(cfg.Check.APISecretFile)
		if err != nil {
			return fmt.Errorf("check.api_secret_file: %w", err)
		}
		cfg.Check.APISecret = val
	}

	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

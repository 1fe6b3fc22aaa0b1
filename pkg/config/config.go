// Package config provides unified configuration for the probelauf harness.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (PROBELAUF_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
//
// The validated check target itself is built through FromMap, which is
// the only place the four provider settings (endpoint, model, api_key,
// api_secret) are interpreted.
package config

import "time"

// Auth modes for the Authorization header sent to the backend.
const (
	AuthBearer = "bearer" // normalized key as bearer token (default)
	AuthJWT    = "jwt"    // short-lived token signed with api_secret
)

// Default wait budgets. Each suspension point (the basic response, every
// streaming fragment) is bounded individually.
const (
	DefaultRequestTimeout  = 30 * time.Second
	DefaultFragmentTimeout = 30 * time.Second
)

// Config holds all configuration for the probelauf harness.
type Config struct {
	Check   CheckConfig   `yaml:"check"`
	Serve   ServeConfig   `yaml:"serve"`
	Storage StorageConfig `yaml:"storage"`
}

// CheckConfig holds the verification target and its request knobs.
type CheckConfig struct {
	Endpoint      string `yaml:"endpoint"`        // required
	Model         string `yaml:"model"`           // required
	APIKey        string `yaml:"api_key"`         // required
	APIKeyFile    string `yaml:"api_key_file"`    // _file variant for api_key
	APISecret     string `yaml:"api_secret"`      // required only for auth: jwt
	APISecretFile string `yaml:"api_secret_file"` // _file variant for api_secret

	Auth string `yaml:"auth"` // "bearer" or "jwt", default: "bearer"

	RequestTimeout  time.Duration `yaml:"request_timeout"`  // default: 30s
	FragmentTimeout time.Duration `yaml:"fragment_timeout"` // default: 30s

	Prompt       string `yaml:"prompt"`        // basic scenario prompt
	StreamPrompt string `yaml:"stream_prompt"` // streaming scenario prompt

	Temperature *float64 `yaml:"temperature"` // optional
	MaxTokens   *int     `yaml:"max_tokens"`  // optional
}

// ServeConfig holds settings for the periodic verification server.
type ServeConfig struct {
	Interval    time.Duration `yaml:"interval"`     // default: 5m
	Listen      string        `yaml:"listen"`       // default: ":8080"
	MetricsPath string        `yaml:"metrics_path"` // default: "/metrics"
}

// StorageConfig holds run-history settings.
type StorageConfig struct {
	Type     string         `yaml:"type"`     // "memory" or "postgres", default: "memory"
	MaxSize  int            `yaml:"max_size"` // for memory store, default: 1000
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Check: CheckConfig{
			Auth:            AuthBearer,
			RequestTimeout:  DefaultRequestTimeout,
			FragmentTimeout: DefaultFragmentTimeout,
			Prompt:          "Say hello in one short sentence.",
			StreamPrompt:    "Count from 1 to 5.",
		},
		Serve: ServeConfig{
			Interval:    5 * time.Minute,
			Listen:      ":8080",
			MetricsPath: "/metrics",
		},
		Storage: StorageConfig{
			Type:    "memory",
			MaxSize: 1000,
			Postgres: PostgresConfig{
				MaxConns: 10,
			},
		},
	}
}

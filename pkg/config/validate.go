package config

import (
	"errors"
	"fmt"
)

// Validate checks the loaded configuration for valid values. Presence of
// the check target fields (endpoint, model, api_key) is enforced later by
// FromMap, which reports every missing field at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Check.Auth {
	case AuthBearer, AuthJWT, "":
		// valid
	default:
		errs = append(errs, fmt.Errorf("check.auth must be %q or %q, got %q", AuthBearer, AuthJWT, c.Check.Auth))
	}

	if c.Check.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("check.request_timeout must be >= 0, got %v", c.Check.RequestTimeout))
	}
	if c.Check.FragmentTimeout < 0 {
		errs = append(errs, fmt.Errorf("check.fragment_timeout must be >= 0, got %v", c.Check.FragmentTimeout))
	}

	if c.Serve.Interval <= 0 {
		errs = append(errs, fmt.Errorf("serve.interval must be > 0, got %v", c.Serve.Interval))
	}
	if c.Serve.Listen == "" {
		errs = append(errs, fmt.Errorf("serve.listen must not be empty"))
	}

	switch c.Storage.Type {
	case "memory", "postgres", "none":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\", \"postgres\", or \"none\", got %q", c.Storage.Type))
	}

	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	return errors.Join(errs...)
}

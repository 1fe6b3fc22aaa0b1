package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/rhuss/probelauf/pkg/api"
	"github.com/rhuss/probelauf/pkg/credential"
)

// Check is the immutable, validated configuration for one verification
// target. Construction either yields a fully valid value or fails before
// any client is built; a Check is never partially valid.
type Check struct {
	Endpoint  string // absolute http(s) URL
	Model     string
	APIKey    string // normalized (provider prefix applied)
	APISecret string // optional; consumed only by auth: jwt

	Auth string

	RequestTimeout  time.Duration
	FragmentTimeout time.Duration

	Prompt       string
	StreamPrompt string

	Temperature *float64
	MaxTokens   *int
}

// Recognized keys of the configuration mapping passed to FromMap.
const (
	KeyEndpoint  = "endpoint"
	KeyModel     = "model"
	KeyAPIKey    = "api_key"
	KeyAPISecret = "api_secret"
)

// requiredKeys in reporting order.
var requiredKeys = []string{KeyEndpoint, KeyModel, KeyAPIKey}

// FromMap assembles a Check from a mapping of named configuration values.
// It fails with a missing_field error naming every absent required field,
// or with an invalid_endpoint error if the endpoint is not a well-formed
// absolute URL. The api_key is normalized before it is stored.
//
// FromMap reads only the supplied mapping; it performs no I/O.
func FromMap(values map[string]string) (*Check, error) {
	var missing []string
	for _, k := range requiredKeys {
		if values[k] == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, api.NewMissingFieldError(missing...)
	}

	if err := validateEndpoint(values[KeyEndpoint]); err != nil {
		return nil, err
	}

	key, err := credential.Normalize(values[KeyAPIKey])
	if err != nil {
		return nil, err
	}

	d := Defaults().Check
	return &Check{
		Endpoint:        values[KeyEndpoint],
		Model:           values[KeyModel],
		APIKey:          key,
		APISecret:       values[KeyAPISecret],
		Auth:            d.Auth,
		RequestTimeout:  d.RequestTimeout,
		FragmentTimeout: d.FragmentTimeout,
		Prompt:          d.Prompt,
		StreamPrompt:    d.StreamPrompt,
	}, nil
}

// validateEndpoint rejects values that do not parse as absolute http(s) URLs.
func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return api.NewInvalidEndpointError(fmt.Sprintf("endpoint %q: %s", endpoint, err.Error()))
	}
	if !u.IsAbs() || u.Host == "" {
		return api.NewInvalidEndpointError(fmt.Sprintf("endpoint %q is not an absolute URL", endpoint))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return api.NewInvalidEndpointError(fmt.Sprintf("endpoint scheme %q is not http or https", u.Scheme))
	}
	return nil
}

// Resolve builds the validated Check from the loaded configuration
// section, layering the request knobs on top of the FromMap result.
func (c *CheckConfig) Resolve() (*Check, error) {
	check, err := FromMap(map[string]string{
		KeyEndpoint:  c.Endpoint,
		KeyModel:     c.Model,
		KeyAPIKey:    c.APIKey,
		KeyAPISecret: c.APISecret,
	})
	if err != nil {
		return nil, err
	}

	if c.Auth != "" {
		check.Auth = c.Auth
	}
	if c.RequestTimeout > 0 {
		check.RequestTimeout = c.RequestTimeout
	}
	if c.FragmentTimeout > 0 {
		check.FragmentTimeout = c.FragmentTimeout
	}
	if c.Prompt != "" {
		check.Prompt = c.Prompt
	}
	if c.StreamPrompt != "" {
		check.StreamPrompt = c.StreamPrompt
	}
	check.Temperature = c.Temperature
	check.MaxTokens = c.MaxTokens

	if check.Auth == AuthJWT && check.APISecret == "" {
		return nil, api.NewMissingFieldError(KeyAPISecret)
	}

	return check, nil
}

// Package credential canonicalizes raw API keys into the format the
// provider requires and, for providers that want a signed assertion
// instead of the raw key, derives short-lived bearer tokens from an
// api_key/api_secret pair.
package credential

import (
	"strings"

	"github.com/rhuss/probelauf/pkg/api"
)

// Prefix is the literal prefix the provider mandates on API keys.
const Prefix = "sk-"

// Normalize canonicalizes a raw API key. Keys already carrying the
// provider prefix are returned unchanged; everything else gets the
// prefix prepended. The transformation is pure and idempotent:
// normalizing an already-normalized key is a no-op.
//
// An empty input fails with an empty_credential error.
func Normalize(raw string) (string, error) {
	if raw == "" {
		return "", api.NewEmptyCredentialError()
	}
	if strings.HasPrefix(raw, Prefix) {
		return raw, nil
	}
	return Prefix + raw, nil
}

package credential

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/probelauf/pkg/api"
)

// TokenSigner derives short-lived HMAC-SHA256 signed bearer tokens from
// an api_key/api_secret pair. Some OpenAI-compatible providers reject
// raw keys and expect a signed assertion in the Authorization header
// instead; the key identifies the caller (iss claim) and the secret
// signs the token.
type TokenSigner struct {
	keyID  string
	secret []byte
	ttl    time.Duration

	// now is overridable for tests.
	now func() time.Time
}

// DefaultTokenTTL is the validity window of a signed token. Tokens are
// minted per run, so the window only needs to cover one verification pass.
const DefaultTokenTTL = 5 * time.Minute

// NewTokenSigner creates a signer for the given key/secret pair. The key
// is normalized first; an empty secret is a configuration error because
// nothing could sign the token.
func NewTokenSigner(apiKey, apiSecret string, ttl time.Duration) (*TokenSigner, error) {
	keyID, err := Normalize(apiKey)
	if err != nil {
		return nil, err
	}
	if apiSecret == "" {
		return nil, api.NewMissingFieldError("api_secret")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenSigner{
		keyID:  keyID,
		secret: []byte(apiSecret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Token mints a signed bearer token valid for the signer's TTL.
func (s *TokenSigner) Token() (string, error) {
	now := s.now()
	claims := jwtlib.MapClaims{
		"iss": s.keyID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

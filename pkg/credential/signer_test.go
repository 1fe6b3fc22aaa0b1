package credential

import (
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/probelauf/pkg/api"
)

func TestTokenSignerSignsVerifiableToken(t *testing.T) {
	signer, err := NewTokenSigner("abc123", "topsecret", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenSigner() error: %v", err)
	}

	tokenStr, err := signer.Token()
	if err != nil {
		t.Fatalf("Token() error: %v", err)
	}

	parsed, err := jwtlib.Parse(tokenStr, func(tok *jwtlib.Token) (any, error) {
		if tok.Method.Alg() != "HS256" {
			return nil, errors.New("unexpected signing method")
		}
		return []byte("topsecret"), nil
	})
	if err != nil {
		t.Fatalf("parsing signed token: %v", err)
	}
	if !parsed.Valid {
		t.Fatal("signed token did not validate")
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		t.Fatalf("claims type = %T, want MapClaims", parsed.Claims)
	}
	// The issuer is the normalized key, not the raw one.
	if claims["iss"] != "sk-abc123" {
		t.Errorf("iss claim = %v, want \"sk-abc123\"", claims["iss"])
	}
}

func TestTokenSignerExpiry(t *testing.T) {
	signer, err := NewTokenSigner("sk-abc", "s3cr3t", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenSigner() error: %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return base }

	tokenStr, err := signer.Token()
	if err != nil {
		t.Fatalf("Token() error: %v", err)
	}

	parsed, _, err := jwtlib.NewParser().ParseUnverified(tokenStr, jwtlib.MapClaims{})
	if err != nil {
		t.Fatalf("parsing token: %v", err)
	}
	claims := parsed.Claims.(jwtlib.MapClaims)

	exp, ok := claims["exp"].(float64)
	if !ok {
		t.Fatalf("exp claim type = %T, want float64", claims["exp"])
	}
	if int64(exp) != base.Add(time.Minute).Unix() {
		t.Errorf("exp = %d, want %d", int64(exp), base.Add(time.Minute).Unix())
	}
}

func TestTokenSignerRequiresSecret(t *testing.T) {
	_, err := NewTokenSigner("sk-abc", "", 0)
	if err == nil {
		t.Fatal("NewTokenSigner with empty secret expected error, got nil")
	}

	var e *api.Error
	if !errors.As(err, &e) || e.Kind != api.KindMissingField {
		t.Errorf("error = %v, want missing_field kind", err)
	}
}

func TestTokenSignerRequiresKey(t *testing.T) {
	_, err := NewTokenSigner("", "s3cr3t", 0)
	if err == nil {
		t.Fatal("NewTokenSigner with empty key expected error, got nil")
	}
	if api.KindOf(err) != api.KindEmptyCredential {
		t.Errorf("error kind = %q, want %q", api.KindOf(err), api.KindEmptyCredential)
	}
}

package api

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "kind and message",
			err:  NewTransportError("connection refused"),
			want: "transport: connection refused",
		},
		{
			name: "missing fields listed",
			err:  NewMissingFieldError("endpoint", "model"),
			want: "missing_field: required configuration fields are missing (fields: endpoint, model)",
		},
		{
			name: "timeout",
			err:  NewTimeoutError("no response within 30s"),
			want: "timeout: no response within 30s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFatal(t *testing.T) {
	fatal := []*Error{
		NewMissingFieldError("model"),
		NewInvalidEndpointError("not a URL"),
		NewEmptyCredentialError(),
		NewClientConstructionError("bad base URL"),
	}
	for _, e := range fatal {
		if !e.Fatal() {
			t.Errorf("%s: Fatal() = false, want true", e.Kind)
		}
	}

	recoverable := []*Error{
		NewTransportError("reset"),
		NewAuthenticationError("401"),
		NewTimeoutError("deadline"),
	}
	for _, e := range recoverable {
		if e.Fatal() {
			t.Errorf("%s: Fatal() = true, want false", e.Kind)
		}
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(NewAuthenticationError("nope")); got != KindAuthentication {
		t.Errorf("KindOf(auth error) = %q, want %q", got, KindAuthentication)
	}

	// Wrapped errors still resolve to their kind.
	wrapped := fmt.Errorf("basic scenario: %w", NewTimeoutError("deadline"))
	if got := KindOf(wrapped); got != KindTimeout {
		t.Errorf("KindOf(wrapped timeout) = %q, want %q", got, KindTimeout)
	}

	// Plain errors default to transport.
	if got := KindOf(errors.New("boom")); got != KindTransport {
		t.Errorf("KindOf(plain error) = %q, want %q", got, KindTransport)
	}
}

func TestMissingFieldErrorNamesAllFields(t *testing.T) {
	err := NewMissingFieldError("endpoint", "model", "api_key")
	if len(err.Fields) != 3 {
		t.Fatalf("Fields length = %d, want 3", len(err.Fields))
	}
	for _, f := range []string{"endpoint", "model", "api_key"} {
		if !strings.Contains(err.Error(), f) {
			t.Errorf("Error() = %q, missing field name %q", err.Error(), f)
		}
	}
}

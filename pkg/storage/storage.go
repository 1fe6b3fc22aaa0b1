// Package storage defines the run-history store interface and types
// shared across storage adapter implementations (memory, postgres).
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/rhuss/probelauf/pkg/verify"
)

// Run is one recorded verification run against a backend.
type Run struct {
	ID        string           `json:"id"`
	Endpoint  string           `json:"endpoint"`
	Model     string           `json:"model"`
	StartedAt time.Time        `json:"started_at"`
	Passed    bool             `json:"passed"`
	Outcomes  []verify.Outcome `json:"outcomes"`
}

// NewRun assembles a Run with a fresh ID from the scenario outcomes.
func NewRun(endpoint, model string, startedAt time.Time, outcomes []verify.Outcome) *Run {
	return &Run{
		ID:        NewRunID(),
		Endpoint:  endpoint,
		Model:     model,
		StartedAt: startedAt,
		Passed:    verify.AllPassed(outcomes),
		Outcomes:  outcomes,
	}
}

// NewRunID returns a fresh run identifier of the form "run_<24 hex chars>".
func NewRunID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform is broken.
		panic("reading random bytes: " + err.Error())
	}
	return "run_" + hex.EncodeToString(b)
}

// RunStore persists verification runs. Adapters live in the memory and
// postgres subpackages.
type RunStore interface {
	// SaveRun persists a run. Returns ErrConflict if the ID already exists.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun retrieves a run by ID. Returns ErrNotFound if it does not exist.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

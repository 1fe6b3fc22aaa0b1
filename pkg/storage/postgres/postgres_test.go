package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rhuss/probelauf/pkg/api"
	"github.com/rhuss/probelauf/pkg/storage"
	"github.com/rhuss/probelauf/pkg/verify"
)

func init() {
	// Configure testcontainers to use podman.
	// Detect the podman socket from `podman machine inspect`.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if no container runtime is available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	if _, err := exec.LookPath("podman"); err != nil {
		t.Skip("podman not found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("probelauf_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container (is podman running?): %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func makeTestRun(id string, startedAt time.Time) *storage.Run {
	return &storage.Run{
		ID:        id,
		Endpoint:  "https://api.example.com/v1",
		Model:     "test-model",
		StartedAt: startedAt,
		Passed:    false,
		Outcomes: []verify.Outcome{
			{Scenario: verify.ScenarioBasic, Status: verify.StatusPass, Detail: "Hello.", Duration: 150 * time.Millisecond},
			{Scenario: verify.ScenarioStreaming, Status: verify.StatusFail, Kind: api.KindTimeout,
				Detail: "no fragment received within 30s", Duration: 30 * time.Second, Fragments: 1},
		},
	}
}

func TestPostgres_SaveAndGet(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	run := makeTestRun(fmt.Sprintf("run_pg_test1_%d", time.Now().UnixNano()), time.Now().UTC())
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}

	if got.ID != run.ID {
		t.Errorf("ID = %q, want %q", got.ID, run.ID)
	}
	if got.Model != "test-model" {
		t.Errorf("Model = %q, want %q", got.Model, "test-model")
	}
	if got.Passed {
		t.Error("Passed = true, want false")
	}
	if len(got.Outcomes) != 2 {
		t.Fatalf("len(Outcomes) = %d, want 2", len(got.Outcomes))
	}
	if got.Outcomes[1].Kind != api.KindTimeout {
		t.Errorf("Outcomes[1].Kind = %q, want %q", got.Outcomes[1].Kind, api.KindTimeout)
	}
	if got.Outcomes[1].Fragments != 1 {
		t.Errorf("Outcomes[1].Fragments = %d, want 1", got.Outcomes[1].Fragments)
	}
}

func TestPostgres_GetNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetRun(context.Background(), "run_nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_DuplicateSave(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	run := makeTestRun(fmt.Sprintf("run_pg_dup_%d", time.Now().UnixNano()), time.Now().UTC())
	store.SaveRun(ctx, run)

	err := store.SaveRun(ctx, run)
	if !errors.Is(err, storage.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestPostgres_ListRuns(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	ts := time.Now().UnixNano()
	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		run := makeTestRun(fmt.Sprintf("run_pg_list_%d_%d", i, ts), base.Add(time.Duration(i)*time.Minute))
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Errorf("runs not ordered newest first: %v, %v", runs[0].StartedAt, runs[1].StartedAt)
	}
}

func TestPostgres_HealthCheck(t *testing.T) {
	store := setupTestDB(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

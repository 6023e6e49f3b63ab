package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vadim/igdm-console/internal/database"
)

// exerciseStore runs the contract every Store implementation must satisfy
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear on empty store: %v", err)
	}

	got, err := s.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Fatalf("empty store returned %q", got)
	}

	if err := s.Set(ctx, "first"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "second"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := s.Get(ctx); got != "second" {
		t.Errorf("Get after Set = %q, want last writer", got)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, _ := s.Get(ctx); got != "" {
		t.Errorf("Get after Clear = %q", got)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	exerciseStore(t, NewFile(path, ""))
}

func TestFile_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	if err := NewFile(path, DefaultKey).Set(ctx, "persisted"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := NewFile(path, DefaultKey).Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "persisted" {
		t.Errorf("Get = %q", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %o, want 600", perm)
	}
}

func TestFile_KeepsOtherKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"theme": "dark"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewFile(path, DefaultKey)
	if err := s.Set(ctx, "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	other := NewFile(path, "theme")
	if got, _ := other.Get(ctx); got != "dark" {
		t.Errorf("theme = %q", got)
	}
}

func TestFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`not json`), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFile(path, "").Get(context.Background()); err == nil {
		t.Error("expected error for corrupt file")
	}
}

func TestValidateDriver(t *testing.T) {
	for _, d := range []string{DriverFile, DriverPostgres, DriverMemory} {
		if err := ValidateDriver(d); err != nil {
			t.Errorf("ValidateDriver(%q) = %v", d, err)
		}
	}
	if err := ValidateDriver("redis"); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, database.PoolConfig{DSN: dsn, MaxConns: 2, MinConns: 1})
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer pool.Close()

	s := NewPostgres(pool, "auth_token_test")
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	exerciseStore(t, s)
}

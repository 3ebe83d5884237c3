package storage

import "testing"

// Test that DefaultConfig returns the documented defaults. The rest of this
// package talks to a live PostgreSQL instance and has no fake or in-memory
// substitute in this tree: cmd/dbcd exercises ApplySchema, SaveOutput and
// LoadOutput against a real database, and SaveSpend/LoadSpend have no
// caller.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Host != "localhost" {
		t.Fatalf("expected default host localhost, got %q", cfg.Host)
	}
	if cfg.Port != 5432 {
		t.Fatalf("expected default port 5432, got %d", cfg.Port)
	}
	if cfg.SSLMode != "disable" {
		t.Fatalf("expected default sslmode disable, got %q", cfg.SSLMode)
	}
}

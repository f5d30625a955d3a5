package workspace

import (
	"path/filepath"
	"testing"
)

func TestAllow(t *testing.T) {
	root := t.TempDir()
	extra := t.TempDir()

	guard, err := NewGuard(root)
	if err != nil {
		t.Fatal(err)
	}

	if err := guard.Check(extra); err == nil {
		t.Fatal("Check() should reject a directory before it is allowed")
	}

	if err := guard.Allow(extra); err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if err := guard.Allow(extra); err != nil {
		t.Fatalf("second Allow() error = %v", err)
	}
	if got := len(guard.Allowed()); got != 1 {
		t.Errorf("Allowed() has %d entries, want 1", got)
	}

	if err := guard.Check(extra); err != nil {
		t.Errorf("Check(allowed) error = %v", err)
	}
}

func TestAllowRejectsInvalid(t *testing.T) {
	guard, err := NewGuard(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := guard.Allow(""); err == nil {
		t.Error("Allow(\"\") should fail")
	}
	if err := guard.Allow(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Allow(missing) should fail")
	}
}

package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewGuard(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		root    string
		wantErr bool
	}{
		{name: "valid existing directory", root: tmpDir},
		{name: "current directory", root: "."},
		{name: "empty root", root: "", wantErr: true},
		{name: "non-existent directory", root: filepath.Join(tmpDir, "missing"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard, err := NewGuard(tt.root)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewGuard() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !filepath.IsAbs(guard.Root()) {
				t.Errorf("Root() = %q, want absolute path", guard.Root())
			}
		})
	}
}

func TestGuardCheck(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	notesDir := filepath.Join(root, "notes")
	nested := filepath.Join(notesDir, "work")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	escape := filepath.Join(root, "escape")
	if err := os.Symlink(outside, escape); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	sibling := root + "-sibling"
	if err := os.Mkdir(sibling, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(sibling) })

	guard, err := NewGuard(root)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		dir     string
		wantErr bool
	}{
		{name: "root itself", dir: root},
		{name: "child", dir: notesDir},
		{name: "nested child", dir: nested},
		{name: "trailing separator", dir: notesDir + string(filepath.Separator)},
		{name: "traversal back inside", dir: filepath.Join(nested, "..")},
		{name: "traversal out", dir: notesDir + "/../../", wantErr: true},
		{name: "outside", dir: outside, wantErr: true},
		{name: "symlink out of root", dir: escape, wantErr: true},
		{name: "sibling sharing prefix", dir: sibling, wantErr: true},
		{name: "missing", dir: filepath.Join(root, "missing"), wantErr: true},
		{name: "empty", dir: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Check(tt.dir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check(%q) error = %v, wantErr %v", tt.dir, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrOutsideRoot) {
				t.Errorf("Check(%q) error = %v, want ErrOutsideRoot", tt.dir, err)
			}
		})
	}
}

func TestGuardCheckRelativeToWorkingDirectory(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "notes"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(root)

	guard, err := NewGuard(".")
	if err != nil {
		t.Fatal(err)
	}
	if err := guard.Check("./notes/"); err != nil {
		t.Errorf("Check(./notes/) error = %v", err)
	}
	if err := guard.Check(".."); err == nil {
		t.Error("Check(..) should fail")
	}
}

// Package workspace confines note directories to a configured root.
// A guard resolves a notes directory to its real absolute path and accepts
// it only if it is the root, lies beneath it, or lies beneath an
// explicitly allowed directory.
package workspace

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for directories outside every allowed root.
var ErrOutsideRoot = errors.New("workspace: notes directory is outside the allowed roots")

// Guard enforces root boundaries on notes directories.
type Guard struct {
	root    string   // real absolute path of the root
	allowed []string // additional real absolute roots
}

// NewGuard creates a guard for an existing root directory. The root is
// made absolute and its symlinks are resolved.
func NewGuard(root string) (*Guard, error) {
	if root == "" {
		return nil, fmt.Errorf("workspace: root cannot be empty")
	}

	real, err := realPath(root)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve root %s: %w", root, err)
	}
	return &Guard{root: real}, nil
}

// Root returns the resolved root directory.
func (g *Guard) Root() string {
	return g.root
}

// Check accepts dir when it resolves inside the root or an allowed
// directory. Relative paths are taken from the working directory, the
// same way the notes store opens them.
func (g *Guard) Check(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: empty path", ErrOutsideRoot)
	}

	real, err := realPath(dir)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, dir)
	}
	if !g.IsWithin(real) {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, dir)
	}
	return nil
}

// IsWithin reports whether the resolved absolute path is a root or lies
// beneath one.
func (g *Guard) IsWithin(real string) bool {
	if within(real, g.root) {
		return true
	}
	for _, dir := range g.allowed {
		if within(real, dir) {
			return true
		}
	}
	return false
}

func within(path, root string) bool {
	if path == root {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path+sep, strings.TrimSuffix(root, sep)+sep)
}

// realPath makes path absolute, cleans it and resolves symlinks, so that
// "root/../elsewhere" and links out of the root are judged by where they
// actually point.
func realPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(filepath.Clean(abs))
}

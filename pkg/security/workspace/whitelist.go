package workspace

import (
	"fmt"
)

// Allow adds an existing directory outside the root to the accepted set.
// Symlinks in dir are resolved. Adding a directory twice is a no-op.
func (g *Guard) Allow(dir string) error {
	if dir == "" {
		return fmt.Errorf("workspace: allowed directory cannot be empty")
	}

	real, err := realPath(dir)
	if err != nil {
		return fmt.Errorf("workspace: resolve allowed directory %s: %w", dir, err)
	}

	for _, existing := range g.allowed {
		if existing == real {
			return nil
		}
	}
	g.allowed = append(g.allowed, real)
	return nil
}

// Allowed returns the directories added with Allow.
func (g *Guard) Allowed() []string {
	return append([]string(nil), g.allowed...)
}

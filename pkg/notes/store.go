// Package notes implements the flat-file note store and the per-query
// similarity search over it.
package notes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/entrhq/notes-agent/pkg/logging"
)

// FileName is the notes file kept inside a notes directory.
const FileName = "notes.txt"

var (
	ErrEmptyNote        = errors.New("notes: note must not be empty")
	ErrEmptyQuery       = errors.New("notes: query must not be empty")
	ErrInvalidPath      = errors.New("notes: path must be an existing directory")
	ErrNotesFileMissing = errors.New("notes: notes file does not exist")
)

var notesLog = logging.MustComponent("notes")

// NormalizePath strips one leading '<' and one trailing '>' and checks
// that the result names an existing directory.
func NormalizePath(path string) (string, error) {
	p := strings.TrimPrefix(path, "<")
	p = strings.TrimSuffix(p, ">")
	if p == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	info, err := os.Stat(p)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return p, nil
}

// Store is a directory holding one notes file with one note per line.
// Writes are append-only and unlocked.
type Store struct {
	dir string
}

// PathCheck vets a normalized notes directory before it is used.
type PathCheck func(dir string) error

// Open validates path, runs checks against the normalized directory and
// returns the store rooted there. The notes file itself need not exist yet.
func Open(path string, checks ...PathCheck) (*Store, error) {
	dir, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	for _, check := range checks {
		if err := check(dir); err != nil {
			return nil, err
		}
	}
	return &Store{dir: dir}, nil
}

// FilePath returns the path of the notes file.
func (s *Store) FilePath() string {
	return filepath.Join(s.dir, FileName)
}

// Append writes note followed by a newline in a single write, creating the
// file if needed.
func (s *Store) Append(note string) error {
	if note == "" {
		return ErrEmptyNote
	}

	f, err := os.OpenFile(s.FilePath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("notes: open %s: %w", s.FilePath(), err)
	}
	if _, err := f.Write([]byte(note + "\n")); err != nil {
		_ = f.Close()
		return fmt.Errorf("notes: write %s: %w", s.FilePath(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("notes: close %s: %w", s.FilePath(), err)
	}

	notesLog.Debugf("appended %d bytes to %s", len(note)+1, s.FilePath())
	return nil
}

// Load returns the full contents of the notes file.
func (s *Store) Load() (string, error) {
	b, err := os.ReadFile(s.FilePath())
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotesFileMissing, s.FilePath())
	}
	if err != nil {
		return "", fmt.Errorf("notes: read %s: %w", s.FilePath(), err)
	}
	return string(b), nil
}

// AppendNote validates note and path, in that order, and appends.
func AppendNote(path, note string, checks ...PathCheck) error {
	if note == "" {
		return ErrEmptyNote
	}
	s, err := Open(path, checks...)
	if err != nil {
		return err
	}
	return s.Append(note)
}

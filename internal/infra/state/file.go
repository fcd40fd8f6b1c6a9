package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mhaikal/finfit-advisor-go/internal/domain"
)

// File persists the snapshot as a single JSON file, written atomically
// via a temp file + rename so a crash mid-write never corrupts the
// previous snapshot.
type File struct {
	path string
}

// NewFile creates a file-backed snapshot store at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Save writes the snapshot to disk.
func (f *File) Save(snapshot *domain.SessionSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads the last snapshot. A missing or unreadable file yields
// (nil, nil): hydration falls back to defaults rather than failing.
func (f *File) Load() (*domain.SessionSnapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot domain.SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		// Corrupt snapshot: start fresh instead of refusing to boot.
		return nil, nil
	}
	return &snapshot, nil
}

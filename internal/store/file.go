package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spigell/job-matcher/internal/posting"
)

// File is a Memory store mirrored to a JSON file after every change.
type File struct {
	*Memory
	path string
}

// OpenFile loads path, creating its directory when needed. A missing file starts an
// empty store.
func OpenFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	f := &File{Memory: NewMemory(), path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading store %q: %w", path, err)
	case len(data) > 0:
		var items []*posting.Posting
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decoding store %q: %w", path, err)
		}
		for _, p := range items {
			if p == nil || p.ID == "" {
				continue
			}
			f.items[p.ID] = p
		}
	}

	f.persist = f.write
	return f, nil
}

// write replaces the file atomically.
func (f *File) write(items []*posting.Posting) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		tmp.Close()
		return fmt.Errorf("writing store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	return nil
}

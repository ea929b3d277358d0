// Package syncstate persists the name of the most recent fully processed
// feed file and decides which listing entries are new.
package syncstate

import (
	"fmt"
	"os"
	"strings"

	"github.com/deepfence/MispHarvester/utils"
)

type Store struct {
	Path string
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Read returns the stored marker. ok is false when no marker file exists or
// it holds only whitespace.
func (s *Store) Read() (name string, ok bool, err error) {
	exists, err := utils.PathExists(s.Path)
	if err != nil {
		return "", false, fmt.Errorf("stat marker %s: %w", s.Path, err)
	}
	if !exists {
		return "", false, nil
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", false, fmt.Errorf("read marker %s: %w", s.Path, err)
	}
	name = strings.TrimSpace(string(data))
	return name, name != "", nil
}

// Write replaces the marker with exactly name.
func (s *Store) Write(name string) error {
	if err := utils.WriteFileAtomic(s.Path, []byte(name), 0644); err != nil {
		return fmt.Errorf("write marker %s: %w", s.Path, err)
	}
	return nil
}

// Diff returns the entries of listing (most recent first) that are newer
// than marker. If the marker is absent or no longer listed, every entry is
// new.
func Diff(listing []string, marker string, ok bool) []string {
	if ok {
		for i, name := range listing {
			if name == marker {
				return append([]string{}, listing[:i]...)
			}
		}
	}
	return append([]string{}, listing...)
}

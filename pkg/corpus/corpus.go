// Package corpus persists the site's thread collection as a single JSON
// array and derives the identity indices the sanitizer validates against.
package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/troubleonmonday/forum-bot/pkg/sanitize"
	"github.com/troubleonmonday/forum-bot/pkg/types"
)

// Store reads and writes the persisted thread collection. The collection is
// always handled whole: one read at the start of a run, at most one write at
// the end.
type Store struct {
	path string
}

// NewStore creates a store for the thread collection at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the persisted collection.
func (s *Store) Path() string {
	return s.path
}

// Load reads the whole collection. An unreadable file or a payload that is
// not a JSON array of thread records is a configuration error; callers must
// abort before any external call.
func (s *Store) Load() ([]types.Thread, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read threads: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if !bytes.HasPrefix(trimmed, []byte("[")) {
		return nil, fmt.Errorf("threads file %s: expected a JSON array", s.path)
	}

	var threads []types.Thread
	if err := json.Unmarshal(trimmed, &threads); err != nil {
		return nil, fmt.Errorf("parse threads file %s: %w", s.path, err)
	}
	return threads, nil
}

// Save writes the whole collection in one atomic replace (temp file plus
// rename), so a concurrent reader never observes a partial corpus.
func (s *Store) Save(threads []types.Thread) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(threads, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal threads: %w", err)
	}
	data = append(data, '\n')

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write threads: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Indices holds the identity sets derived from the corpus at load time.
type Indices struct {
	IDs        map[string]bool
	Titles     map[string]bool // lower-cased, whitespace-normalized
	Categories map[string]bool
}

// BuildIndices derives the used-id set, the case-insensitive used-title set,
// and the allowed-category set from the loaded collection.
func BuildIndices(threads []types.Thread) Indices {
	idx := Indices{
		IDs:        make(map[string]bool),
		Titles:     make(map[string]bool),
		Categories: make(map[string]bool),
	}
	for _, t := range threads {
		if t.ID != "" {
			idx.IDs[t.ID] = true
		}
		if title := strings.ToLower(sanitize.NormalizeWhitespace(t.Title)); title != "" {
			idx.Titles[title] = true
		}
		if t.Category != "" {
			idx.Categories[t.Category] = true
		}
	}
	return idx
}

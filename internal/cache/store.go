// Package cache persists intermediate pipeline artifacts as JSON files
// on disk, one file per key under a category directory. Reruns of the
// pipeline skip LLM calls whose result is already cached.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Categories used by the pipeline.
const (
	CategoryRules      = "rules"
	CategoryQuestions  = "questions"
	CategoryValidation = "validation"
)

// Store is a directory-backed JSON cache. The zero value is not
// usable; construct with NewStore.
type Store struct {
	baseDir string
	enabled bool
}

// NewStore returns a Store rooted at baseDir. A disabled store misses
// every Get and drops every Put, which turns caching off without
// branching at call sites.
func NewStore(baseDir string, enabled bool) *Store {
	return &Store{baseDir: baseDir, enabled: enabled}
}

// Enabled reports whether the store persists anything.
func (s *Store) Enabled() bool { return s.enabled }

// sanitizeKey keeps keys safe as file names. Section ids and question
// ids only contain dots, digits, and underscores, but keys derived
// from user input must not escape the category directory.
func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_", string(os.PathSeparator), "_")
	out := r.Replace(key)
	if out == "" {
		out = "_"
	}
	return out
}

func (s *Store) path(category, key string) string {
	return filepath.Join(s.baseDir, category, sanitizeKey(key)+".json")
}

// Get loads the cached value for key into v. The second return is
// false on a miss; a corrupt cache file is also treated as a miss so a
// bad entry never wedges the pipeline.
func (s *Store) Get(category, key string, v any) (bool, error) {
	if !s.enabled {
		return false, nil
	}
	data, err := os.ReadFile(s.path(category, key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cache %s/%s: %w", category, key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, nil
	}
	return true, nil
}

// Put stores v under category/key, creating directories as needed. The
// file is written to a temp name and renamed so readers never see a
// partial entry.
func (s *Store) Put(category, key string, v any) error {
	if !s.enabled {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache %s/%s: %w", category, key, err)
	}
	path := s.path(category, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return fmt.Errorf("create cache temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache %s/%s: %w", category, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store cache %s/%s: %w", category, key, err)
	}
	return nil
}

// Invalidate removes the entry for key. Missing entries are not an
// error.
func (s *Store) Invalidate(category, key string) error {
	if !s.enabled {
		return nil
	}
	err := os.Remove(s.path(category, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("invalidate cache %s/%s: %w", category, key, err)
	}
	return nil
}

// Clear removes every entry in a category.
func (s *Store) Clear(category string) error {
	if !s.enabled {
		return nil
	}
	err := os.RemoveAll(filepath.Join(s.baseDir, category))
	if err != nil {
		return fmt.Errorf("clear cache %s: %w", category, err)
	}
	return nil
}

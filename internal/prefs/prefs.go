// Package prefs persists small console settings (auth token, open submenus, page size) to a
// YAML file between runs.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	KeyToken    = "auth.token"
	KeyPageSize = "records.page_size"
)

// MenuKey is the key holding whether a sidebar group is expanded.
func MenuKey(group string) string {
	return "menu." + group + ".open"
}

// Store is a string key-value map written back to its file on every change.
type Store struct {
	path   string
	mu     sync.Mutex
	values map[string]string
}

// Open loads the file at path. A missing file is an empty store; an empty path keeps values in
// memory only.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: map[string]string{}}

	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading prefs: %w", err)
	}

	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("decoding prefs: %w", err)
	}

	if s.values == nil {
		s.values = map[string]string{}
	}

	return s, nil
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]

	return v, ok
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value

	return s.save()
}

// Bool reads key as a boolean, returning def when it is unset or unparseable.
func (s *Store) Bool(key string, def bool) bool {
	v, ok := s.Get(key)
	if !ok {
		return def
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}

	return b
}

func (s *Store) SetBool(key string, value bool) error {
	return s.Set(key, strconv.FormatBool(value))
}

// Int reads key as an integer, returning def when it is unset or unparseable.
func (s *Store) Int(key string, def int) int {
	v, ok := s.Get(key)
	if !ok {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func (s *Store) SetInt(key string, value int) error {
	return s.Set(key, strconv.Itoa(value))
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return nil
	}

	delete(s.values, key)

	return s.save()
}

func (s *Store) save() error {
	if s.path == "" {
		return nil
	}

	data, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encoding prefs: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating prefs dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing prefs: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing prefs: %w", err)
	}

	return nil
}

// Package jsonfile stores user records in a single JSON document on disk.
// It backs the single-process UI where running a database is overkill.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pratik-mahalle/tiergate/internal/domain/user"
)

// document is the on-disk layout
type document struct {
	Users map[string]*user.Record `json:"users"`
}

// Store implements user.Store. Every write rewrites the whole file through a
// temporary file and a rename, so readers never observe a partial document.
type Store struct {
	mu    sync.RWMutex
	path  string
	users map[string]*user.Record
}

// Open loads the document at path, creating an empty one if it is missing
func Open(path string) (*Store, error) {
	s := &Store{path: path, users: make(map[string]*user.Record)}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := s.flush(s.users); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read user store %s: %w", path, err)
	}

	if len(data) > 0 {
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode user store %s: %w", path, err)
		}
		for id, r := range doc.Users {
			if r == nil {
				continue
			}
			r.ID = id
			s.users[id] = r
		}
	}
	return s, nil
}

// Get retrieves a user by ID
func (s *Store) Get(ctx context.Context, id string) (*user.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return r.Clone(), nil
}

// GetByEmail retrieves a user by email
func (s *Store) GetByEmail(ctx context.Context, email string) (*user.Record, error) {
	email = user.NormalizeEmail(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.users {
		if r.Email == email {
			return r.Clone(), nil
		}
	}
	return nil, user.ErrNotFound
}

// Create inserts a new user
func (s *Store) Create(ctx context.Context, r *user.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[r.ID]; exists {
		return fmt.Errorf("%w: %s", user.ErrAlreadyExists, r.ID)
	}
	for _, existing := range s.users {
		if existing.Email == r.Email {
			return fmt.Errorf("%w: %s", user.ErrAlreadyExists, r.Email)
		}
	}
	return s.commit(r)
}

// Put replaces a stored user. The in-memory copy only changes once the file
// has been written.
func (s *Store) Put(ctx context.Context, r *user.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[r.ID]; !ok {
		return user.ErrNotFound
	}
	return s.commit(r)
}

// List returns all user IDs sorted
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Ping checks the document directory is still writable
func (s *Store) Ping(ctx context.Context) error {
	_, err := os.Stat(filepath.Dir(s.path))
	return err
}

// commit writes the document with r applied and then swaps the cache.
// Callers hold s.mu.
func (s *Store) commit(r *user.Record) error {
	next := make(map[string]*user.Record, len(s.users)+1)
	for id, existing := range s.users {
		next[id] = existing
	}
	next[r.ID] = r.Clone()

	if err := s.flush(next); err != nil {
		return err
	}
	s.users = next
	return nil
}

func (s *Store) flush(users map[string]*user.Record) error {
	data, err := json.MarshalIndent(document{Users: users}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write user store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync user store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close user store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace user store: %w", err)
	}
	return nil
}

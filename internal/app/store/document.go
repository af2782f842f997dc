/*
Package store implements the file-backed document storage primitives underlying
the user and chat repositories.

This file defines DocumentStore, which keeps each record in its own
individually addressable JSON file named by the record's id. Documents grow
and are deleted independently, so locking is per document id rather than per
store; operations on unrelated documents never serialize against each other.
*/
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DocumentStore persists records of type T as one JSON file per id inside a
// single directory. Construct instances with NewDocumentStore.
type DocumentStore[T any] struct {
	// dir is the directory holding one <id>.json file per document.
	dir string

	// validate, when non-nil, is applied to every document decoded from disk.
	validate func(*T) error

	// mu guards the locks registry.
	mu sync.Mutex

	// locks maps document id to the mutex serializing access to that document.
	locks map[string]*sync.Mutex
}

// NewDocumentStore returns a DocumentStore rooted at dir.
// The directory is created lazily on the first write.
func NewDocumentStore[T any](dir string, validate func(*T) error) *DocumentStore[T] {
	return &DocumentStore[T]{
		dir:      dir,
		validate: validate,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex for the given document id, creating it on first use.
func (s *DocumentStore[T]) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}

	return lock
}

// path returns the file location for the given document id.
func (s *DocumentStore[T]) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Read loads the document with the given id, or nil if it does not exist.
func (s *DocumentStore[T]) Read(id string) (*T, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	return s.readLocked(id)
}

// Write persists doc under the given id, replacing any existing document.
func (s *DocumentStore[T]) Write(id string, doc *T) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	return s.writeLocked(id, doc)
}

// Update runs mutate on the stored document under the document's lock and
// persists the result. It returns nil without calling mutate if the document
// does not exist; an error returned by mutate aborts the write and is passed
// through unchanged.
func (s *DocumentStore[T]) Update(id string, mutate func(*T) error) (*T, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	doc, err := s.readLocked(id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	if err := mutate(doc); err != nil {
		return nil, err
	}

	if err := s.writeLocked(id, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// Delete permanently removes the document with the given id and reports
// whether it existed. The id's lock registry entry is dropped with it.
func (s *DocumentStore[T]) Delete(id string) (bool, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	err := os.Remove(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: deleting document %s: %v", ErrUnavailable, s.path(id), err)
	}

	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()

	return true, nil
}

// List returns the ids of all documents currently present in the store.
// A store directory that does not exist yet yields an empty result.
func (s *DocumentStore[T]) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: listing documents in %s: %v", ErrUnavailable, s.dir, err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	return ids, nil
}

// readLocked loads and decodes one document. Callers must hold the id's lock.
func (s *DocumentStore[T]) readLocked(id string) (*T, error) {
	raw, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading document %s: %v", ErrUnavailable, s.path(id), err)
	}

	doc := new(T)
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("%w: decoding document %s: %v", ErrUnavailable, s.path(id), err)
	}

	if s.validate != nil {
		if err := s.validate(doc); err != nil {
			return nil, fmt.Errorf("%w: invalid document %s: %v", ErrUnavailable, s.path(id), err)
		}
	}

	return doc, nil
}

// writeLocked encodes and persists one document atomically via a temporary
// file and rename. Callers must hold the id's lock.
func (s *DocumentStore[T]) writeLocked(id string, doc *T) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding document %s: %v", ErrUnavailable, s.path(id), err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating document directory %s: %v", ErrUnavailable, s.dir, err)
	}

	tmp := s.path(id) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("%w: writing document %s: %v", ErrUnavailable, s.path(id), err)
	}

	if err := os.Rename(tmp, s.path(id)); err != nil {
		return fmt.Errorf("%w: replacing document %s: %v", ErrUnavailable, s.path(id), err)
	}

	return nil
}

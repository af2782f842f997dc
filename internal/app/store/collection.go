/*
Package store implements the file-backed document storage primitives underlying
the user and chat repositories.

This file defines Collection, an ordered sequence of records of one type
persisted as a single JSON snapshot. Every write reads the whole collection,
mutates it in memory, and rewrites the whole snapshot; a per-collection mutex
serializes those read-modify-write cycles so concurrent callers cannot clobber
each other's changes.
*/
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrUnavailable indicates that a snapshot could not be read, decoded, or
	// written. Callers must treat it as "store is broken", never as "no such
	// record".
	ErrUnavailable = errors.New("document store unavailable")

	// ErrDuplicateKey indicates that an insert violated the caller-supplied
	// uniqueness predicate.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Collection is a file-backed, ordered sequence of records of type T.
// The zero value is not usable; construct instances with NewCollection.
type Collection[T any] struct {
	// path is the location of the JSON snapshot file.
	path string

	// validate, when non-nil, is applied to every record decoded from disk.
	// A failing record makes the whole read fail with ErrUnavailable.
	validate func(*T) error

	// mu serializes all read-modify-write cycles on the snapshot.
	mu sync.Mutex
}

// NewCollection returns a Collection persisted at path. No file is created
// until the first write; a missing snapshot reads as an empty collection.
func NewCollection[T any](path string, validate func(*T) error) *Collection[T] {
	return &Collection[T]{path: path, validate: validate}
}

// ReadAll returns the full collection in insertion order.
// A snapshot that does not exist yet yields an empty result, not an error.
func (c *Collection[T]) ReadAll() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.readLocked()
}

// FindOne returns the first record matching pred, or nil if none matches.
// A nil pred matches every record.
func (c *Collection[T]) FindOne(pred func(*T) bool) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.readLocked()
	if err != nil {
		return nil, err
	}

	for i := range records {
		if pred == nil || pred(&records[i]) {
			match := records[i]
			return &match, nil
		}
	}

	return nil, nil
}

// FindMany returns all records matching pred in insertion order.
// A nil pred returns the whole collection.
func (c *Collection[T]) FindMany(pred func(*T) bool) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.readLocked()
	if err != nil {
		return nil, err
	}

	if pred == nil {
		return records, nil
	}

	matches := make([]T, 0)
	for i := range records {
		if pred(&records[i]) {
			matches = append(matches, records[i])
		}
	}

	return matches, nil
}

// Insert appends record to the collection and persists the snapshot.
// When unique is non-nil and an existing record matches it, the insert fails
// with ErrDuplicateKey; the check and the append happen under the same lock,
// so the uniqueness invariant cannot be raced away.
func (c *Collection[T]) Insert(record T, unique func(*T) bool) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.readLocked()
	if err != nil {
		return nil, err
	}

	if unique != nil {
		for i := range records {
			if unique(&records[i]) {
				return nil, ErrDuplicateKey
			}
		}
	}

	records = append(records, record)

	if err := c.writeLocked(records); err != nil {
		return nil, err
	}

	return &record, nil
}

// Update applies patch to the first record matching pred and persists the
// snapshot. It returns the updated record, or nil if nothing matched.
func (c *Collection[T]) Update(pred func(*T) bool, patch func(*T)) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.readLocked()
	if err != nil {
		return nil, err
	}

	for i := range records {
		if pred == nil || pred(&records[i]) {
			patch(&records[i])

			if err := c.writeLocked(records); err != nil {
				return nil, err
			}

			updated := records[i]
			return &updated, nil
		}
	}

	return nil, nil
}

// Delete removes all records matching pred, persists the snapshot, and reports
// whether anything was removed.
func (c *Collection[T]) Delete(pred func(*T) bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.readLocked()
	if err != nil {
		return false, err
	}

	kept := make([]T, 0, len(records))
	for i := range records {
		if pred != nil && pred(&records[i]) {
			continue
		}
		kept = append(kept, records[i])
	}

	if len(kept) == len(records) {
		return false, nil
	}

	if err := c.writeLocked(kept); err != nil {
		return false, err
	}

	return true, nil
}

// readLocked loads and decodes the snapshot. Callers must hold c.mu.
func (c *Collection[T]) readLocked() ([]T, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("%w: reading snapshot %s: %v", ErrUnavailable, c.path, err)
	}

	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding snapshot %s: %v", ErrUnavailable, c.path, err)
	}

	if c.validate != nil {
		for i := range records {
			if err := c.validate(&records[i]); err != nil {
				return nil, fmt.Errorf("%w: invalid record in snapshot %s: %v", ErrUnavailable, c.path, err)
			}
		}
	}

	return records, nil
}

// writeLocked encodes and persists the full snapshot atomically via a
// temporary file and rename. Callers must hold c.mu.
func (c *Collection[T]) writeLocked(records []T) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding snapshot %s: %v", ErrUnavailable, c.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("%w: creating snapshot directory for %s: %v", ErrUnavailable, c.path, err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("%w: writing snapshot %s: %v", ErrUnavailable, c.path, err)
	}

	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("%w: replacing snapshot %s: %v", ErrUnavailable, c.path, err)
	}

	return nil
}

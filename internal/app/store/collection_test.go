package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tags int    `json:"tags"`
}

func newTestCollection(t *testing.T) *Collection[account] {
	t.Helper()
	return NewCollection[account](filepath.Join(t.TempDir(), "accounts.json"), nil)
}

func TestReadAll_MissingSnapshotIsEmpty(t *testing.T) {
	c := newTestCollection(t)

	records, err := c.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInsert_AppendsAndPersists(t *testing.T) {
	c := newTestCollection(t)

	created, err := c.Insert(account{ID: "a1", Name: "alice"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Name)

	_, err = c.Insert(account{ID: "b1", Name: "bob"}, nil)
	require.NoError(t, err)

	records, err := c.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	// insertion order preserved
	assert.Equal(t, "a1", records[0].ID)
	assert.Equal(t, "b1", records[1].ID)
}

func TestInsert_DuplicateKey(t *testing.T) {
	c := newTestCollection(t)

	unique := func(name string) func(*account) bool {
		return func(a *account) bool { return a.Name == name }
	}

	_, err := c.Insert(account{ID: "a1", Name: "alice"}, unique("alice"))
	require.NoError(t, err)

	_, err = c.Insert(account{ID: "a2", Name: "alice"}, unique("alice"))
	require.ErrorIs(t, err, ErrDuplicateKey)

	records, err := c.ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFindOne_FirstMatchOrNil(t *testing.T) {
	c := newTestCollection(t)

	_, err := c.Insert(account{ID: "a1", Name: "alice", Tags: 1}, nil)
	require.NoError(t, err)
	_, err = c.Insert(account{ID: "a2", Name: "alice", Tags: 2}, nil)
	require.NoError(t, err)

	found, err := c.FindOne(func(a *account) bool { return a.Name == "alice" })
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "a1", found.ID)

	missing, err := c.FindOne(func(a *account) bool { return a.Name == "carol" })
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFindMany_NilPredicateReturnsAll(t *testing.T) {
	c := newTestCollection(t)

	for i := 0; i < 3; i++ {
		_, err := c.Insert(account{ID: fmt.Sprintf("u%d", i), Name: "x"}, nil)
		require.NoError(t, err)
	}

	all, err := c.FindMany(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := c.FindMany(func(a *account) bool { return a.Name == "y" })
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdate_PatchesFirstMatch(t *testing.T) {
	c := newTestCollection(t)

	_, err := c.Insert(account{ID: "a1", Name: "alice"}, nil)
	require.NoError(t, err)

	updated, err := c.Update(
		func(a *account) bool { return a.ID == "a1" },
		func(a *account) { a.Tags = 7 },
	)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 7, updated.Tags)

	// persisted
	found, err := c.FindOne(func(a *account) bool { return a.ID == "a1" })
	require.NoError(t, err)
	assert.Equal(t, 7, found.Tags)

	missing, err := c.Update(
		func(a *account) bool { return a.ID == "nope" },
		func(a *account) { a.Tags = 9 },
	)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDelete_RemovesAllMatches(t *testing.T) {
	c := newTestCollection(t)

	_, err := c.Insert(account{ID: "a1", Name: "alice"}, nil)
	require.NoError(t, err)
	_, err = c.Insert(account{ID: "a2", Name: "alice"}, nil)
	require.NoError(t, err)
	_, err = c.Insert(account{ID: "b1", Name: "bob"}, nil)
	require.NoError(t, err)

	removed, err := c.Delete(func(a *account) bool { return a.Name == "alice" })
	require.NoError(t, err)
	assert.True(t, removed)

	records, err := c.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b1", records[0].ID)

	removed, err = c.Delete(func(a *account) bool { return a.Name == "alice" })
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestReadAll_CorruptSnapshotIsUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	c := NewCollection[account](path, nil)

	_, err := c.ReadAll()
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestReadAll_ValidationRejectsMalformedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"","name":"ghost"}]`), 0o644))

	c := NewCollection[account](path, func(a *account) error {
		if a.ID == "" {
			return fmt.Errorf("empty id")
		}
		return nil
	})

	_, err := c.ReadAll()
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCollection_ConcurrentWritersDoNotClobber(t *testing.T) {
	c := newTestCollection(t)

	const writers = 20
	var wg sync.WaitGroup
	wg.Add(writers)

	for i := 0; i < writers; i++ {
		go func(n int) {
			defer wg.Done()
			_, err := c.Insert(account{ID: fmt.Sprintf("u%d", n), Name: "x"}, nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records, err := c.ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, writers)
}

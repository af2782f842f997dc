package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempchat/internal/pkg/errs"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(t.TempDir())
}

func TestRegister_CreatesUser(t *testing.T) {
	r := newTestRepository(t)

	created, customErr := r.Register("alice", "hash-a")
	require.Nil(t, customErr)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "hash-a", created.CredentialHash)
	assert.Empty(t, created.PendingInvites)
	assert.Empty(t, created.ActiveChats)
}

func TestRegister_UsernameTaken(t *testing.T) {
	r := newTestRepository(t)

	first, customErr := r.Register("alice", "hash-a")
	require.Nil(t, customErr)

	_, customErr = r.Register("alice", "hash-b")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrUsernameTaken, customErr.Code)

	// exactly one record remains
	found, customErr := r.FindByUsername("alice")
	require.Nil(t, customErr)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, "hash-a", found.CredentialHash)
}

func TestRegister_InvalidUsername(t *testing.T) {
	r := newTestRepository(t)

	for _, name := range []string{"", "ab", "has space", "way-too-long-username-far-beyond-the-limit"} {
		_, customErr := r.Register(name, "hash")
		require.NotNil(t, customErr, "username %q should be rejected", name)
		assert.Equal(t, errs.ErrInvalidUsername, customErr.Code)
	}
}

func TestFind_AbsentIsNil(t *testing.T) {
	r := newTestRepository(t)

	byName, customErr := r.FindByUsername("nobody")
	require.Nil(t, customErr)
	assert.Nil(t, byName)

	byID, customErr := r.FindByID("no-such-id")
	require.Nil(t, customErr)
	assert.Nil(t, byID)
}

func TestFindByUsername_CaseSensitive(t *testing.T) {
	r := newTestRepository(t)

	_, customErr := r.Register("Alice", "hash")
	require.Nil(t, customErr)

	found, customErr := r.FindByUsername("alice")
	require.Nil(t, customErr)
	assert.Nil(t, found)
}

func TestAddPendingInvite_Idempotent(t *testing.T) {
	r := newTestRepository(t)

	target, customErr := r.Register("bob", "hash-b")
	require.Nil(t, customErr)

	updated, customErr := r.AddPendingInvite(target.ID, "sender-1", "alice")
	require.Nil(t, customErr)
	require.Len(t, updated.PendingInvites, 1)
	firstStamp := updated.PendingInvites[0].Timestamp

	// re-invite from the same sender is not duplicated and keeps the timestamp
	updated, customErr = r.AddPendingInvite(target.ID, "sender-1", "alice")
	require.Nil(t, customErr)
	require.Len(t, updated.PendingInvites, 1)
	assert.Equal(t, firstStamp, updated.PendingInvites[0].Timestamp)

	// a different sender appends a second entry
	updated, customErr = r.AddPendingInvite(target.ID, "sender-2", "carol")
	require.Nil(t, customErr)
	assert.Len(t, updated.PendingInvites, 2)
}

func TestAddPendingInvite_UnknownUser(t *testing.T) {
	r := newTestRepository(t)

	_, customErr := r.AddPendingInvite("ghost", "sender-1", "alice")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrUserNotFound, customErr.Code)
}

func TestRemovePendingInvite_NoOpWhenAbsent(t *testing.T) {
	r := newTestRepository(t)

	target, customErr := r.Register("bob", "hash-b")
	require.Nil(t, customErr)

	updated, customErr := r.RemovePendingInvite(target.ID, "sender-1")
	require.Nil(t, customErr)
	assert.Empty(t, updated.PendingInvites)

	_, customErr = r.AddPendingInvite(target.ID, "sender-1", "alice")
	require.Nil(t, customErr)

	updated, customErr = r.RemovePendingInvite(target.ID, "sender-1")
	require.Nil(t, customErr)
	assert.Empty(t, updated.PendingInvites)
}

func TestActiveChats_SetSemantics(t *testing.T) {
	r := newTestRepository(t)

	u, customErr := r.Register("bob", "hash-b")
	require.Nil(t, customErr)

	updated, customErr := r.AddActiveChat(u.ID, "chat-1")
	require.Nil(t, customErr)
	assert.Equal(t, []string{"chat-1"}, updated.ActiveChats)

	// adding the same id again is a no-op
	updated, customErr = r.AddActiveChat(u.ID, "chat-1")
	require.Nil(t, customErr)
	assert.Equal(t, []string{"chat-1"}, updated.ActiveChats)

	updated, customErr = r.AddActiveChat(u.ID, "chat-2")
	require.Nil(t, customErr)
	assert.Equal(t, []string{"chat-1", "chat-2"}, updated.ActiveChats)

	updated, customErr = r.RemoveActiveChat(u.ID, "chat-1")
	require.Nil(t, customErr)
	assert.Equal(t, []string{"chat-2"}, updated.ActiveChats)

	// removing an absent id is a no-op
	updated, customErr = r.RemoveActiveChat(u.ID, "chat-1")
	require.Nil(t, customErr)
	assert.Equal(t, []string{"chat-2"}, updated.ActiveChats)
}

func TestSearch_CaseInsensitiveExcludingSelf(t *testing.T) {
	r := newTestRepository(t)

	alice, customErr := r.Register("Alice", "hash")
	require.Nil(t, customErr)
	_, customErr = r.Register("alicia", "hash")
	require.Nil(t, customErr)
	_, customErr = r.Register("bob", "hash")
	require.Nil(t, customErr)

	matches, customErr := r.Search("ali", alice.ID)
	require.Nil(t, customErr)
	require.Len(t, matches, 1)
	assert.Equal(t, "alicia", matches[0].Username)
}

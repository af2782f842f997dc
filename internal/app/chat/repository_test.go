package chat

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempchat/internal/app/user"
	"tempchat/internal/pkg/errs"
)

var (
	alice = &user.User{ID: "11111111-1111-4111-8111-111111111111", Username: "alice"}
	bob   = &user.User{ID: "22222222-2222-4222-8222-222222222222", Username: "bob"}
)

func newTestRepository(t *testing.T, purgeDelay time.Duration) *Repository {
	t.Helper()
	return NewRepository(t.TempDir(), purgeDelay)
}

func TestCreate_PersistsActiveChat(t *testing.T) {
	r := newTestRepository(t, time.Minute)

	created, customErr := r.Create(alice, bob)
	require.Nil(t, customErr)
	assert.Equal(t, StatusActive, created.Status)
	assert.Equal(t, "alice", created.Participant1Username)
	assert.Equal(t, "bob", created.Participant2Username)
	assert.Empty(t, created.Messages)

	found, customErr := r.FindByID(created.ID)
	require.Nil(t, customErr)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
}

func TestFindByID_AbsentOrInvalidIsNil(t *testing.T) {
	r := newTestRepository(t, time.Minute)

	found, customErr := r.FindByID("33333333-3333-4333-8333-333333333333")
	require.Nil(t, customErr)
	assert.Nil(t, found)

	// ids that are not UUIDs never address storage
	found, customErr = r.FindByID("../users")
	require.Nil(t, customErr)
	assert.Nil(t, found)
}

func TestAppendMessage_AppendsTrimmedContent(t *testing.T) {
	r := newTestRepository(t, time.Minute)

	created, customErr := r.Create(alice, bob)
	require.Nil(t, customErr)

	msg, customErr := r.AppendMessage(created.ID, alice.ID, "  hi  ")
	require.Nil(t, customErr)
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, alice.ID, msg.SenderID)
	assert.NotEmpty(t, msg.ID)

	found, customErr := r.FindByID(created.ID)
	require.Nil(t, customErr)
	require.Len(t, found.Messages, 1)
	assert.Equal(t, "hi", found.Messages[0].Content)
}

func TestAppendMessage_EmptyContent(t *testing.T) {
	r := newTestRepository(t, time.Minute)

	created, customErr := r.Create(alice, bob)
	require.Nil(t, customErr)

	_, customErr = r.AppendMessage(created.ID, alice.ID, "   \t\n")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrEmptyMessage, customErr.Code)
}

func TestAppendMessage_MissingChat(t *testing.T) {
	r := newTestRepository(t, time.Minute)

	_, customErr := r.AppendMessage("33333333-3333-4333-8333-333333333333", alice.ID, "hi")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrChatNotFound, customErr.Code)
}

func TestClose_SetsClosureFieldsAndDeadline(t *testing.T) {
	r := newTestRepository(t, time.Minute)

	created, customErr := r.Create(alice, bob)
	require.Nil(t, customErr)

	closed, customErr := r.Close(created.ID, bob.ID)
	require.Nil(t, customErr)
	assert.Equal(t, StatusClosed, closed.Status)
	assert.Equal(t, bob.ID, closed.ClosedBy)
	require.NotNil(t, closed.ClosedAt)
	require.NotNil(t, closed.PurgeAt)
	assert.Equal(t, closed.ClosedAt.Add(time.Minute), *closed.PurgeAt)

	// no transition leaves Closed
	_, customErr = r.Close(created.ID, alice.ID)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrChatAlreadyClosed, customErr.Code)

	// appends are refused once closed
	_, customErr = r.AppendMessage(created.ID, alice.ID, "too late")
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrChatClosed, customErr.Code)
}

func TestClose_MissingChat(t *testing.T) {
	r := newTestRepository(t, time.Minute)

	_, customErr := r.Close("33333333-3333-4333-8333-333333333333", alice.ID)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrChatNotFound, customErr.Code)
}

func TestClose_PurgesAfterDelay(t *testing.T) {
	r := newTestRepository(t, 50*time.Millisecond)

	created, customErr := r.Create(alice, bob)
	require.Nil(t, customErr)

	_, customErr = r.Close(created.ID, alice.ID)
	require.Nil(t, customErr)

	// Close returns before the purge fires
	found, customErr := r.FindByID(created.ID)
	require.Nil(t, customErr)
	require.NotNil(t, found)
	assert.Equal(t, StatusClosed, found.Status)

	require.Eventually(t, func() bool {
		found, customErr := r.FindByID(created.ID)
		return customErr == nil && found == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRecoverPurges_RemovesOverdueChats(t *testing.T) {
	dir := t.TempDir()

	// a closed document whose deadline passed while no process was running
	overdue := writeClosedChat(t, dir, time.Now().UTC().Add(-time.Minute))

	fresh := NewRepository(dir, time.Minute)
	purged, customErr := fresh.RecoverPurges()
	require.Nil(t, customErr)
	assert.Equal(t, 1, purged)

	found, customErr := fresh.FindByID(overdue)
	require.Nil(t, customErr)
	assert.Nil(t, found)
}

// writeClosedChat drops a closed chat document with the given purge deadline
// straight into the store directory, bypassing the repository's own timers.
func writeClosedChat(t *testing.T, dataDir string, purgeAt time.Time) string {
	t.Helper()

	closedAt := purgeAt.Add(-time.Minute)
	doc := Chat{
		ID:                   "44444444-4444-4444-8444-444444444444",
		Participant1ID:       alice.ID,
		Participant2ID:       bob.ID,
		Participant1Username: alice.Username,
		Participant2Username: bob.Username,
		CreatedAt:            closedAt.Add(-time.Hour),
		Status:               StatusClosed,
		Messages:             []Message{},
		ClosedBy:             alice.ID,
		ClosedAt:             &closedAt,
		PurgeAt:              &purgeAt,
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)

	chatDir := filepath.Join(dataDir, "chats")
	require.NoError(t, os.MkdirAll(chatDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(chatDir, doc.ID+".json"), raw, 0o644))

	return doc.ID
}

func TestRecoverPurges_ReschedulesFutureDeadlines(t *testing.T) {
	dir := t.TempDir()

	old := NewRepository(dir, time.Hour)
	created, customErr := old.Create(alice, bob)
	require.Nil(t, customErr)
	_, customErr = old.Close(created.ID, alice.ID)
	require.Nil(t, customErr)

	fresh := NewRepository(dir, time.Hour)
	purged, customErr := fresh.RecoverPurges()
	require.Nil(t, customErr)
	assert.Zero(t, purged)

	// still present: the deadline is an hour away
	found, customErr := fresh.FindByID(created.ID)
	require.Nil(t, customErr)
	require.NotNil(t, found)
	assert.Equal(t, StatusClosed, found.Status)
}

func TestRecoverPurges_IgnoresActiveChats(t *testing.T) {
	dir := t.TempDir()

	r := NewRepository(dir, time.Millisecond)
	created, customErr := r.Create(alice, bob)
	require.Nil(t, customErr)

	purged, customErr := r.RecoverPurges()
	require.Nil(t, customErr)
	assert.Zero(t, purged)

	found, customErr := r.FindByID(created.ID)
	require.Nil(t, customErr)
	require.NotNil(t, found)
}

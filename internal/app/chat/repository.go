/*
Package chat contains the chat session entity and the repository persisting it.

This file defines the Repository, which stores each chat as its own
individually addressable document keyed by chat id. Message volume and
deletion timing are independent per chat, so per-chat documents (and per-chat
locks) keep unrelated sessions from serializing against each other.

Closing a chat schedules a delayed purge: the document is permanently deleted
a fixed interval after closure. The deadline is persisted on the document, and
RecoverPurges resumes outstanding purges after a process restart.
*/
package chat

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tempchat/internal/app/store"
	"tempchat/internal/app/user"
	"tempchat/internal/pkg/errs"
	"tempchat/internal/pkg/logx"
	"tempchat/internal/pkg/randx"
)

// chatsDir is the directory under the data dir holding one document per chat.
const chatsDir = "chats"

// Repository provides durable chat session operations, one document per chat.
type Repository struct {
	chats *store.DocumentStore[Chat]

	// purgeDelay is the interval between closure and permanent deletion.
	purgeDelay time.Duration

	// structured logger with repository context.
	logger zerolog.Logger
}

// NewRepository constructs a Repository persisting chats under dataDir.
// Callers should invoke RecoverPurges once after construction to resume
// purges that were scheduled before the last process restart.
func NewRepository(dataDir string, purgeDelay time.Duration) *Repository {
	repoLogger := logx.Logger().With().Str("component", "ChatRepository").Logger()

	return &Repository{
		chats:      store.NewDocumentStore(filepath.Join(dataDir, chatsDir), Validate),
		purgeDelay: purgeDelay,
		logger:     repoLogger,
	}
}

// Create allocates a new active chat between the two users and persists it
// immediately. The participant usernames are snapshotted onto the document.
func (r *Repository) Create(user1, user2 *user.User) (*Chat, *errs.CustomError) {
	newChat := &Chat{
		ID:                   randx.ChatID(),
		Participant1ID:       user1.ID,
		Participant2ID:       user2.ID,
		Participant1Username: user1.Username,
		Participant2Username: user2.Username,
		CreatedAt:            time.Now().UTC(),
		Status:               StatusActive,
		Messages:             []Message{},
	}

	if err := r.chats.Write(newChat.ID, newChat); err != nil {
		return nil, errs.NewError(errs.ErrStorageUnavailable, err)
	}

	r.logger.Info().
		Str("chat_id", newChat.ID).
		Str("participant1_id", user1.ID).
		Str("participant2_id", user2.ID).
		Msg("Chat created.")

	return newChat, nil
}

// FindByID returns the chat with the given id, or nil if it was never created
// or has already been purged.
func (r *Repository) FindByID(id string) (*Chat, *errs.CustomError) {
	if !randx.IsValidID(id) {
		return nil, nil
	}

	found, err := r.chats.Read(id)
	if err != nil {
		return nil, errs.NewError(errs.ErrStorageUnavailable, err)
	}

	return found, nil
}

// AppendMessage appends a message from senderID to the chat's history and
// persists the document. The content must be non-empty after trimming
// surrounding whitespace, and the chat must still be active.
func (r *Repository) AppendMessage(chatID, senderID, content string) (*Message, *errs.CustomError) {
	content = strings.TrimSpace(content)

	var appended Message

	updated, err := r.chats.Update(chatID, func(c *Chat) error {
		if c.Status != StatusActive {
			return errs.NewError(errs.ErrChatClosed)
		}

		if content == "" {
			return errs.NewError(errs.ErrEmptyMessage)
		}

		appended = Message{
			ID:        randx.MessageID(),
			SenderID:  senderID,
			Content:   content,
			Timestamp: time.Now().UTC(),
		}
		c.Messages = append(c.Messages, appended)

		return nil
	})
	if err != nil {
		var customErr *errs.CustomError
		if errors.As(err, &customErr) {
			return nil, customErr
		}
		return nil, errs.NewError(errs.ErrStorageUnavailable, err)
	}
	if updated == nil {
		return nil, errs.NewError(errs.ErrChatNotFound)
	}

	return &appended, nil
}

// Close transitions the chat from active to closed, persists the closure
// fields together with the purge deadline, and schedules the delayed purge.
// It returns immediately; the purge fires in the background once the delay
// elapses. A closed chat never becomes active again.
func (r *Repository) Close(chatID, closingUserID string) (*Chat, *errs.CustomError) {
	now := time.Now().UTC()
	deadline := now.Add(r.purgeDelay)

	updated, err := r.chats.Update(chatID, func(c *Chat) error {
		if c.Status != StatusActive {
			return errs.NewError(errs.ErrChatAlreadyClosed)
		}

		c.Status = StatusClosed
		c.ClosedBy = closingUserID
		c.ClosedAt = &now
		c.PurgeAt = &deadline

		return nil
	})
	if err != nil {
		var customErr *errs.CustomError
		if errors.As(err, &customErr) {
			return nil, customErr
		}
		return nil, errs.NewError(errs.ErrStorageUnavailable, err)
	}
	if updated == nil {
		return nil, errs.NewError(errs.ErrChatNotFound)
	}

	r.schedulePurge(chatID, r.purgeDelay)

	r.logger.Info().
		Str("chat_id", chatID).
		Str("closed_by", closingUserID).
		Time("purge_at", deadline).
		Msg("Chat closed. Purge scheduled.")

	return updated, nil
}

// Delete permanently removes the chat document and reports whether it existed.
func (r *Repository) Delete(chatID string) (bool, *errs.CustomError) {
	removed, err := r.chats.Delete(chatID)
	if err != nil {
		return false, errs.NewError(errs.ErrStorageUnavailable, err)
	}
	return removed, nil
}

// RecoverPurges scans all stored chats and resumes purge handling after a
// restart: closed chats whose deadline has already passed are purged now,
// and future deadlines are rescheduled for their remaining interval. It
// returns the number of chats purged immediately.
func (r *Repository) RecoverPurges() (int, *errs.CustomError) {
	ids, err := r.chats.List()
	if err != nil {
		return 0, errs.NewError(errs.ErrStorageUnavailable, err)
	}

	purged := 0
	now := time.Now().UTC()

	for _, id := range ids {
		doc, err := r.chats.Read(id)
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("chat_id", id).
				Msg("Skipping unreadable chat document during purge recovery.")
			continue
		}
		if doc == nil || doc.Status != StatusClosed {
			continue
		}

		deadline := now
		if doc.PurgeAt != nil {
			deadline = *doc.PurgeAt
		} else if doc.ClosedAt != nil {
			// Documents written before deadlines were persisted.
			deadline = doc.ClosedAt.Add(r.purgeDelay)
		}

		if remaining := deadline.Sub(now); remaining > 0 {
			r.schedulePurge(id, remaining)
			continue
		}

		r.purge(id)
		purged++
	}

	if purged > 0 {
		r.logger.Info().Int("purged", purged).Msg("Purge recovery removed overdue chats.")
	}

	return purged, nil
}

// schedulePurge arranges for the chat document to be deleted after delay.
// Fire-and-forget: the timer is never cancelled, and purging a chat that is
// already gone is a no-op.
func (r *Repository) schedulePurge(chatID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		r.purge(chatID)
	})
}

// purge deletes the chat document, logging the outcome.
func (r *Repository) purge(chatID string) {
	removed, err := r.chats.Delete(chatID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("chat_id", chatID).
			Msg("Failed to purge chat document.")
		return
	}

	if removed {
		r.logger.Info().Str("chat_id", chatID).Msg("Chat purged.")
	}
}

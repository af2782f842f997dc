/*
Package chat contains the chat session entity and the repository persisting it.

This file defines the Chat struct, the durable representation of one
conversation between exactly two users: the participant pair snapshot, the
append-only message history, and the closure bookkeeping that drives the
delayed purge.
*/
package chat

import (
	"fmt"
	"sort"
	"time"
)

// Status is the lifecycle state of a chat session.
type Status string

const (
	// StatusActive means both participants may exchange messages.
	StatusActive Status = "active"

	// StatusClosed means one participant ended the session; the document is
	// purged once the deadline in PurgeAt passes. A purged chat has no status
	// of its own: it is represented by the absence of the document.
	StatusClosed Status = "closed"
)

// Message is one entry in a chat's append-only history.
type Message struct {
	// ID is the unique identifier for the message.
	ID string `json:"id"`

	// SenderID is the id of the participant who sent the message.
	SenderID string `json:"senderId"`

	// Content is the message body, trimmed of surrounding whitespace.
	Content string `json:"content"`

	// Timestamp is when the message was appended.
	Timestamp time.Time `json:"timestamp"`
}

// Chat represents one conversation between exactly two users.
// Participant usernames are a snapshot taken at creation time; usernames are
// immutable, so the snapshot never goes stale.
type Chat struct {
	// ID is the unique identifier for the chat, generated at creation.
	ID string `json:"id"`

	// Participant1ID and Participant2ID identify the two users.
	Participant1ID string `json:"participant1Id"`
	Participant2ID string `json:"participant2Id"`

	// Participant1Username and Participant2Username are the usernames at
	// creation time, denormalized for display.
	Participant1Username string `json:"participant1Username"`
	Participant2Username string `json:"participant2Username"`

	// CreatedAt is when the chat was created.
	CreatedAt time.Time `json:"createdAt"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// Messages is the ordered history; append-only while Status is active.
	Messages []Message `json:"messages"`

	// ClosedBy is the id of the participant who closed the chat; empty while active.
	ClosedBy string `json:"closedBy,omitempty"`

	// ClosedAt is when the chat was closed; nil while active.
	ClosedAt *time.Time `json:"closedAt,omitempty"`

	// PurgeAt is the persisted deadline after which the document is deleted;
	// nil while active. Persisting it lets a restarted process resume purges.
	PurgeAt *time.Time `json:"purgeAt,omitempty"`
}

// Validate rejects malformed stored chat documents at the storage boundary.
func Validate(c *Chat) error {
	if c.ID == "" {
		return fmt.Errorf("chat document has empty id")
	}

	if c.Participant1ID == "" || c.Participant2ID == "" {
		return fmt.Errorf("chat document %s is missing a participant id", c.ID)
	}

	if c.Participant1ID == c.Participant2ID {
		return fmt.Errorf("chat document %s has identical participants", c.ID)
	}

	switch c.Status {
	case StatusActive:
		if c.ClosedAt != nil || c.ClosedBy != "" || c.PurgeAt != nil {
			return fmt.Errorf("chat document %s is active but carries closure fields", c.ID)
		}
	case StatusClosed:
		if c.ClosedAt == nil || c.ClosedBy == "" {
			return fmt.Errorf("chat document %s is closed but missing closure fields", c.ID)
		}
	default:
		return fmt.Errorf("chat document %s has unknown status %q", c.ID, c.Status)
	}

	return nil
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Chat) HasParticipant(userID string) bool {
	return c.Participant1ID == userID || c.Participant2ID == userID
}

// Links reports whether the chat connects the unordered pair (userA, userB).
func (c *Chat) Links(userA, userB string) bool {
	return (c.Participant1ID == userA && c.Participant2ID == userB) ||
		(c.Participant1ID == userB && c.Participant2ID == userA)
}

// OtherParticipant returns the id and username of the participant that is not
// userID. If userID is not a participant, the first participant is returned.
func (c *Chat) OtherParticipant(userID string) (string, string) {
	if c.Participant1ID == userID {
		return c.Participant2ID, c.Participant2Username
	}
	return c.Participant1ID, c.Participant1Username
}

// LastMessage returns the most recently appended message, or nil if the chat
// has no messages yet.
func (c *Chat) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	last := c.Messages[len(c.Messages)-1]
	return &last
}

// SortedMessages returns a copy of the history ordered by timestamp.
// Appends already happen in order; the sort guards against documents written
// with skewed clocks.
func (c *Chat) SortedMessages() []Message {
	sorted := make([]Message, len(c.Messages))
	copy(sorted, c.Messages)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	return sorted
}

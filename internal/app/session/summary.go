package session

import (
	"time"

	"tempchat/internal/app/chat"
)

// UserSummary is the public identity of a user, safe to hand to other users.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ChatSummary describes one active chat from a single participant's point of
// view: who the conversation is with, when it started, and the latest message.
type ChatSummary struct {
	ID            string        `json:"id"`
	OtherUserID   string        `json:"otherUserId"`
	OtherUsername string        `json:"otherUser"`
	CreatedAt     time.Time     `json:"createdAt"`
	LastMessage   *chat.Message `json:"lastMessage,omitempty"`
}

// Transcript bundles a chat's participant snapshot with its full message
// history, ordered by timestamp.
type Transcript struct {
	Chat     *chat.Chat     `json:"chat"`
	Messages []chat.Message `json:"messages"`
}

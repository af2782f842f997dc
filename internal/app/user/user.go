/*
Package user contains the user entity and the repository persisting it.

This file defines the User struct, the durable representation of a registered
account: identity, credential hash, the list of chat invitations awaiting a
decision, and the set of chats the user currently participates in.
*/
package user

import (
	"fmt"
	"time"
)

// Invite records a pending chat invitation sent to this user.
type Invite struct {
	// FromUserID is the id of the user who sent the invitation.
	FromUserID string `json:"fromUserId"`

	// FromUsername is the sender's username, denormalized for display.
	FromUsername string `json:"fromUsername"`

	// Timestamp is when the invitation was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// User represents one registered account.
// Field names in JSON mirror the persisted snapshot layout.
type User struct {
	// ID is the unique identifier for the user, generated at registration.
	ID string `json:"id"`

	// Username is unique (case-sensitive) across all users and immutable.
	Username string `json:"username"`

	// CredentialHash is the opaque credential material supplied at
	// registration. The core stores it verbatim and never interprets it.
	CredentialHash string `json:"credentialHash"`

	// CreatedAt is when the account was registered.
	CreatedAt time.Time `json:"createdAt"`

	// PendingInvites holds at most one entry per distinct sender.
	PendingInvites []Invite `json:"pendingInvites"`

	// ActiveChats is the set of chat ids the user participates in.
	ActiveChats []string `json:"activeChats"`
}

// Validate rejects malformed stored user records at the storage boundary.
func Validate(u *User) error {
	if u.ID == "" {
		return fmt.Errorf("user record has empty id")
	}

	if u.Username == "" {
		return fmt.Errorf("user record %s has empty username", u.ID)
	}

	seen := make(map[string]struct{}, len(u.PendingInvites))
	for _, invite := range u.PendingInvites {
		if invite.FromUserID == "" {
			return fmt.Errorf("user record %s has invite with empty sender id", u.ID)
		}
		if _, dup := seen[invite.FromUserID]; dup {
			return fmt.Errorf("user record %s has duplicate invite from %s", u.ID, invite.FromUserID)
		}
		seen[invite.FromUserID] = struct{}{}
	}

	return nil
}

// HasActiveChat reports whether chatID is in the user's active chat set.
func (u *User) HasActiveChat(chatID string) bool {
	for _, id := range u.ActiveChats {
		if id == chatID {
			return true
		}
	}
	return false
}

// InviteFrom returns the pending invite sent by fromUserID, or nil.
func (u *User) InviteFrom(fromUserID string) *Invite {
	for i := range u.PendingInvites {
		if u.PendingInvites[i].FromUserID == fromUserID {
			return &u.PendingInvites[i]
		}
	}
	return nil
}

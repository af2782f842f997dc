/*
Package user contains the user entity and the repository persisting it.

This file defines the Repository, which layers user-level operations over a
single document store collection holding every account. Username uniqueness,
invite bookkeeping, and active-chat membership are all enforced here; the
collection itself is schema-agnostic.
*/
package user

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tempchat/internal/app/store"
	"tempchat/internal/pkg/errs"
	"tempchat/internal/pkg/logx"
	"tempchat/internal/pkg/randx"
)

// usersFile is the snapshot file name holding the full user collection.
const usersFile = "users.json"

// Repository provides durable user operations over one collection snapshot.
type Repository struct {
	users *store.Collection[User]

	// structured logger with repository context.
	logger zerolog.Logger
}

// NewRepository constructs a Repository persisting users under dataDir.
func NewRepository(dataDir string) *Repository {
	repoLogger := logx.Logger().With().Str("component", "UserRepository").Logger()

	return &Repository{
		users:  store.NewCollection(filepath.Join(dataDir, usersFile), Validate),
		logger: repoLogger,
	}
}

// Register creates and persists a new user with no pending invites and no
// active chats. The credential hash is stored verbatim.
func (r *Repository) Register(username, credentialHash string) (*User, *errs.CustomError) {
	if !randx.IsValidUsername(username) {
		return nil, errs.NewError(errs.ErrInvalidUsername)
	}

	newUser := User{
		ID:             randx.UserID(),
		Username:       username,
		CredentialHash: credentialHash,
		CreatedAt:      time.Now().UTC(),
		PendingInvites: []Invite{},
		ActiveChats:    []string{},
	}

	created, err := r.users.Insert(newUser, func(u *User) bool { return u.Username == username })
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, errs.NewError(errs.ErrUsernameTaken)
		}
		return nil, errs.NewError(errs.ErrStorageUnavailable, err)
	}

	r.logger.Info().
		Str("user_id", created.ID).
		Str("username", created.Username).
		Msg("User registered.")

	return created, nil
}

// FindByUsername returns the user with the exact username, or nil if absent.
func (r *Repository) FindByUsername(username string) (*User, *errs.CustomError) {
	found, err := r.users.FindOne(func(u *User) bool { return u.Username == username })
	if err != nil {
		return nil, errs.NewError(errs.ErrStorageUnavailable, err)
	}
	return found, nil
}

// FindByID returns the user with the given id, or nil if absent.
func (r *Repository) FindByID(id string) (*User, *errs.CustomError) {
	found, err := r.users.FindOne(func(u *User) bool { return u.ID == id })
	if err != nil {
		return nil, errs.NewError(errs.ErrStorageUnavailable, err)
	}
	return found, nil
}

// Search returns all users whose username contains query case-insensitively,
// excluding the user with excludeID. Results keep collection order.
func (r *Repository) Search(query, excludeID string) ([]User, *errs.CustomError) {
	needle := strings.ToLower(query)

	matches, err := r.users.FindMany(func(u *User) bool {
		return u.ID != excludeID && strings.Contains(strings.ToLower(u.Username), needle)
	})
	if err != nil {
		return nil, errs.NewError(errs.ErrStorageUnavailable, err)
	}

	return matches, nil
}

// AddPendingInvite records an invitation from fromUserID on the target user.
// Idempotent: an existing invite from the same sender is left untouched with
// its original timestamp. Returns the updated user record.
func (r *Repository) AddPendingInvite(userID, fromUserID, fromUsername string) (*User, *errs.CustomError) {
	updated, err := r.users.Update(
		func(u *User) bool { return u.ID == userID },
		func(u *User) {
			if u.InviteFrom(fromUserID) != nil {
				return
			}
			u.PendingInvites = append(u.PendingInvites, Invite{
				FromUserID:   fromUserID,
				FromUsername: fromUsername,
				Timestamp:    time.Now().UTC(),
			})
		},
	)
	if err != nil {
		return nil, errs.NewError(errs.ErrStorageUnavailable, err)
	}
	if updated == nil {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}

	r.logger.Debug().
		Str("user_id", userID).
		Str("from_user_id", fromUserID).
		Msg("Pending invite recorded.")

	return updated, nil
}

// RemovePendingInvite removes the invite sent by fromUserID, if present.
// Removing an absent invite is a no-op, not an error.
func (r *Repository) RemovePendingInvite(userID, fromUserID string) (*User, *errs.CustomError) {
	updated, err := r.users.Update(
		func(u *User) bool { return u.ID == userID },
		func(u *User) {
			kept := u.PendingInvites[:0]
			for _, invite := range u.PendingInvites {
				if invite.FromUserID != fromUserID {
					kept = append(kept, invite)
				}
			}
			u.PendingInvites = kept
		},
	)
	if err != nil {
		return nil, errs.NewError(errs.ErrStorageUnavailable, err)
	}
	if updated == nil {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}

	return updated, nil
}

// AddActiveChat adds chatID to the user's active chat set.
// Adding an id already present is a no-op.
func (r *Repository) AddActiveChat(userID, chatID string) (*User, *errs.CustomError) {
	updated, err := r.users.Update(
		func(u *User) bool { return u.ID == userID },
		func(u *User) {
			if u.HasActiveChat(chatID) {
				return
			}
			u.ActiveChats = append(u.ActiveChats, chatID)
		},
	)
	if err != nil {
		return nil, errs.NewError(errs.ErrStorageUnavailable, err)
	}
	if updated == nil {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}

	return updated, nil
}

// RemoveActiveChat removes chatID from the user's active chat set.
// Removing an absent id is a no-op.
func (r *Repository) RemoveActiveChat(userID, chatID string) (*User, *errs.CustomError) {
	updated, err := r.users.Update(
		func(u *User) bool { return u.ID == userID },
		func(u *User) {
			kept := u.ActiveChats[:0]
			for _, id := range u.ActiveChats {
				if id != chatID {
					kept = append(kept, id)
				}
			}
			u.ActiveChats = kept
		},
	)
	if err != nil {
		return nil, errs.NewError(errs.ErrStorageUnavailable, err)
	}
	if updated == nil {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}

	return updated, nil
}

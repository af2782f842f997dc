/*
Package session implements the chat session lifecycle engine.

This file defines the Engine, which orchestrates the cross-entity protocol:
invitation, acceptance, rejection, messaging, closure, and listing. Each
operation is a multi-step read-modify-write sequence across the user and chat
repositories; every failing precondition is checked before the first mutating
store call, so failure paths leave no partial state behind. The accept
sequence itself is best-effort sequential: create the chat, link it to both
users, then consume the invite, with no rollback on partial failure.
*/
package session

import (
	"golang.org/x/time/rate"

	"github.com/rs/zerolog"

	"tempchat/internal/app/chat"
	"tempchat/internal/app/user"
	"tempchat/internal/configs"
	"tempchat/internal/pkg/errs"
	"tempchat/internal/pkg/logx"
)

// SearchQueryMinLength is the minimum length of a user search query.
const SearchQueryMinLength = 2

// Engine orchestrates the chat session lifecycle across both repositories.
// It is safe for use by concurrent request handlers.
type Engine struct {
	users *user.Repository
	chats *chat.Repository

	// limiter throttles invites per user; nil when rate limiting is disabled.
	limiter *inviteLimiter

	// structured logger with engine context.
	logger zerolog.Logger
}

// NewEngine constructs an Engine over the given repositories.
// Invite rate limiting is enabled when cfg.InviteRate is positive.
func NewEngine(users *user.Repository, chats *chat.Repository, cfg *configs.AppConfig) *Engine {
	engineLogger := logx.Logger().With().Str("component", "SessionEngine").Logger()

	e := &Engine{
		users:  users,
		chats:  chats,
		logger: engineLogger,
	}

	if cfg.InviteRate > 0 {
		e.limiter = newInviteLimiter(rate.Limit(cfg.InviteRate), cfg.InviteBurst)
	}

	return e
}

// Register creates a new user account. The credential hash is opaque to the
// engine; hashing belongs to the excluded request-handling layer.
func (e *Engine) Register(username, credentialHash string) (*user.User, *errs.CustomError) {
	return e.users.Register(username, credentialHash)
}

// Invite records a pending invitation from fromUserID to the user named
// toUsername. No chat is created yet; that happens on acceptance.
// Re-inviting a user who already holds a pending invite from the same sender
// is idempotent and leaves the original invite untouched.
func (e *Engine) Invite(fromUserID, toUsername string) (*UserSummary, *errs.CustomError) {
	fromUser, customErr := e.users.FindByID(fromUserID)
	if customErr != nil {
		return nil, customErr
	}
	if fromUser == nil {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}

	if toUsername == fromUser.Username {
		return nil, errs.NewError(errs.ErrSelfInvite)
	}

	if e.limiter != nil && !e.limiter.Allow(fromUser.ID) {
		e.logger.Warn().
			Str("user_id", fromUser.ID).
			Msg("Invite rejected by rate limiter.")
		return nil, errs.NewError(errs.ErrInviteRateLimited)
	}

	invited, customErr := e.users.FindByUsername(toUsername)
	if customErr != nil {
		return nil, customErr
	}
	if invited == nil {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}

	linked, customErr := e.activeChatWith(fromUser, invited.ID)
	if customErr != nil {
		return nil, customErr
	}
	if linked {
		return nil, errs.NewError(errs.ErrChatExists)
	}

	if _, customErr := e.users.AddPendingInvite(invited.ID, fromUser.ID, fromUser.Username); customErr != nil {
		return nil, customErr
	}

	e.logger.Info().
		Str("from_user_id", fromUser.ID).
		Str("to_user_id", invited.ID).
		Msg("Invitation sent.")

	return &UserSummary{ID: invited.ID, Username: invited.Username}, nil
}

// Accept consumes a pending invite and opens a new active chat between the
// two users. The effects are applied in a fixed order — create the chat, add
// it to the accepting user, add it to the inviting user, remove the invite —
// each persisted individually with no rollback on partial failure.
func (e *Engine) Accept(toUserID, fromUserID string) (*chat.Chat, *errs.CustomError) {
	toUser, customErr := e.users.FindByID(toUserID)
	if customErr != nil {
		return nil, customErr
	}
	if toUser == nil {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}

	if toUser.InviteFrom(fromUserID) == nil {
		return nil, errs.NewError(errs.ErrInviteNotFound)
	}

	invitingUser, customErr := e.users.FindByID(fromUserID)
	if customErr != nil {
		return nil, customErr
	}
	if invitingUser == nil {
		return nil, errs.NewError(errs.ErrInvitingUserNotFound)
	}

	newChat, customErr := e.chats.Create(toUser, invitingUser)
	if customErr != nil {
		return nil, customErr
	}

	if _, customErr := e.users.AddActiveChat(toUser.ID, newChat.ID); customErr != nil {
		e.logger.Error().
			Str("chat_id", newChat.ID).
			Str("user_id", toUser.ID).
			Msg("Accept left chat unlinked from accepting user.")
		return nil, customErr
	}

	if _, customErr := e.users.AddActiveChat(invitingUser.ID, newChat.ID); customErr != nil {
		e.logger.Error().
			Str("chat_id", newChat.ID).
			Str("user_id", invitingUser.ID).
			Msg("Accept left chat unlinked from inviting user.")
		return nil, customErr
	}

	if _, customErr := e.users.RemovePendingInvite(toUser.ID, fromUserID); customErr != nil {
		return nil, customErr
	}

	e.logger.Info().
		Str("chat_id", newChat.ID).
		Str("accepted_by", toUser.ID).
		Str("invited_by", invitingUser.ID).
		Msg("Invitation accepted. Chat opened.")

	return newChat, nil
}

// Reject removes the pending invite from fromUserID unconditionally.
// Rejecting an invite that was never sent, or was already consumed, is a
// no-op; repeated calls observe the same final state.
func (e *Engine) Reject(toUserID, fromUserID string) *errs.CustomError {
	_, customErr := e.users.RemovePendingInvite(toUserID, fromUserID)
	return customErr
}

// SendMessage appends a message to the chat on behalf of userID.
// A caller who is neither in the chat's participant pair nor holding the chat
// id in their active set is denied, regardless of whether the chat exists; a
// former participant of a freshly closed chat instead learns the chat is
// closed or gone.
func (e *Engine) SendMessage(userID, chatID, content string) (*chat.Message, *errs.CustomError) {
	sender, customErr := e.users.FindByID(userID)
	if customErr != nil {
		return nil, customErr
	}
	if sender == nil {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}

	target, customErr := e.chats.FindByID(chatID)
	if customErr != nil {
		return nil, customErr
	}

	if !canAccess(sender, chatID, target) {
		return nil, errs.NewError(errs.ErrChatAccessDenied)
	}
	if target == nil {
		return nil, errs.NewError(errs.ErrChatNotFound)
	}

	return e.chats.AppendMessage(chatID, sender.ID, content)
}

// CloseChat ends the chat session on behalf of userID. The chat id is removed
// from both participants' active chat sets, the document transitions to
// closed, and the delayed purge is scheduled. CloseChat returns before the
// purge executes.
func (e *Engine) CloseChat(userID, chatID string) *errs.CustomError {
	closer, customErr := e.users.FindByID(userID)
	if customErr != nil {
		return customErr
	}
	if closer == nil {
		return errs.NewError(errs.ErrUserNotFound)
	}

	target, customErr := e.chats.FindByID(chatID)
	if customErr != nil {
		return customErr
	}

	if !canAccess(closer, chatID, target) {
		return errs.NewError(errs.ErrChatAccessDenied)
	}
	if target == nil {
		return errs.NewError(errs.ErrChatNotFound)
	}
	if target.Status != chat.StatusActive {
		return errs.NewError(errs.ErrChatAlreadyClosed)
	}

	// Unlink first so neither participant lists a chat that is about to close.
	for _, participantID := range []string{target.Participant1ID, target.Participant2ID} {
		if _, customErr := e.users.RemoveActiveChat(participantID, chatID); customErr != nil {
			if customErr.Code == errs.ErrUserNotFound {
				continue
			}
			return customErr
		}
	}

	if _, customErr := e.chats.Close(chatID, closer.ID); customErr != nil {
		return customErr
	}

	return nil
}

// ListActiveChats returns a summary per chat in the user's active chat set,
// in stored order. Ids that no longer resolve to an active chat are skipped
// silently; dangling references are transient, not an error.
func (e *Engine) ListActiveChats(userID string) ([]ChatSummary, *errs.CustomError) {
	owner, customErr := e.users.FindByID(userID)
	if customErr != nil {
		return nil, customErr
	}
	if owner == nil {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}

	summaries := make([]ChatSummary, 0, len(owner.ActiveChats))

	for _, chatID := range owner.ActiveChats {
		found, customErr := e.chats.FindByID(chatID)
		if customErr != nil {
			return nil, customErr
		}
		if found == nil || found.Status != chat.StatusActive {
			continue
		}

		otherID, otherName := found.OtherParticipant(owner.ID)
		summaries = append(summaries, ChatSummary{
			ID:            found.ID,
			OtherUserID:   otherID,
			OtherUsername: otherName,
			CreatedAt:     found.CreatedAt,
			LastMessage:   found.LastMessage(),
		})
	}

	return summaries, nil
}

// Messages returns the chat's full transcript, ordered by timestamp, with the
// same membership check as SendMessage.
func (e *Engine) Messages(userID, chatID string) (*Transcript, *errs.CustomError) {
	reader, customErr := e.users.FindByID(userID)
	if customErr != nil {
		return nil, customErr
	}
	if reader == nil {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}

	found, customErr := e.chats.FindByID(chatID)
	if customErr != nil {
		return nil, customErr
	}

	if !canAccess(reader, chatID, found) {
		return nil, errs.NewError(errs.ErrChatAccessDenied)
	}
	if found == nil {
		return nil, errs.NewError(errs.ErrChatNotFound)
	}

	return &Transcript{Chat: found, Messages: found.SortedMessages()}, nil
}

// SearchUsers returns the public identities of users whose username contains
// query case-insensitively, excluding the requesting user.
func (e *Engine) SearchUsers(userID, query string) ([]UserSummary, *errs.CustomError) {
	if len(query) < SearchQueryMinLength {
		return nil, errs.NewError(errs.ErrSearchQueryTooShort, SearchQueryMinLength)
	}

	matches, customErr := e.users.Search(query, userID)
	if customErr != nil {
		return nil, customErr
	}

	summaries := make([]UserSummary, 0, len(matches))
	for _, match := range matches {
		summaries = append(summaries, UserSummary{ID: match.ID, Username: match.Username})
	}

	return summaries, nil
}

// canAccess reports whether u may address the chat: either the id is in the
// user's own active chat set, or the chat document still names the user as a
// participant. The second clause keeps freshly closed chats addressable by
// their former participants, who get a closed/not-found answer instead of a
// misleading access denial.
func canAccess(u *user.User, chatID string, target *chat.Chat) bool {
	if u.HasActiveChat(chatID) {
		return true
	}
	return target != nil && target.HasParticipant(u.ID)
}

// activeChatWith reports whether fromUser already shares an active chat with
// otherID, by resolving each id in fromUser's active chat set and comparing
// participant pairs. Dangling ids are skipped.
func (e *Engine) activeChatWith(fromUser *user.User, otherID string) (bool, *errs.CustomError) {
	for _, chatID := range fromUser.ActiveChats {
		found, customErr := e.chats.FindByID(chatID)
		if customErr != nil {
			return false, customErr
		}
		if found == nil || found.Status != chat.StatusActive {
			continue
		}
		if found.Links(fromUser.ID, otherID) {
			return true, nil
		}
	}

	return false, nil
}

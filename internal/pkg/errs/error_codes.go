/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system failures both inside the
chat core and to whatever request-handling layer consumes it.
*/
package errs

// 1xxx: Input Validation Errors
const (
	// ErrEmptyMessage indicates that a message body was empty after trimming whitespace.
	ErrEmptyMessage = 1101

	// ErrSelfInvite indicates that a user attempted to invite themselves to a chat.
	ErrSelfInvite = 1102

	// ErrInvalidUsername indicates that a username failed validation at registration.
	ErrInvalidUsername = 1103

	// ErrSearchQueryTooShort indicates that a user search query was shorter than the minimum.
	ErrSearchQueryTooShort = 1104

	// ErrInviteRateLimited indicates that the inviting user exceeded the invite rate limit.
	ErrInviteRateLimited = 1105
)

// 2xxx: Chat Session Errors
const (
	// ErrChatExists indicates that an active chat already links the two users.
	ErrChatExists = 2101

	// ErrChatNotFound indicates that no chat document exists for the requested id.
	ErrChatNotFound = 2102

	// ErrChatClosed indicates that a message was sent to a chat that is no longer active.
	ErrChatClosed = 2103

	// ErrChatAlreadyClosed indicates that a close was requested for a chat already closed.
	ErrChatAlreadyClosed = 2104

	// ErrChatAccessDenied indicates that the requesting user is not a participant of the chat.
	ErrChatAccessDenied = 2105
)

// 3xxx: User and Invitation Errors
const (
	// ErrUsernameTaken indicates that the requested username is already registered.
	ErrUsernameTaken = 3101

	// ErrUserNotFound indicates that no user exists for the requested username or id.
	ErrUserNotFound = 3102

	// ErrInviteNotFound indicates that no matching pending invite exists for the user.
	ErrInviteNotFound = 3201

	// ErrInvitingUserNotFound indicates that the user behind a pending invite no longer exists.
	ErrInvitingUserNotFound = 3202
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000

	// ErrStorageUnavailable indicates that the underlying document store failed to
	// read or write a snapshot. Distinct from any not-found condition.
	ErrStorageUnavailable = 5101
)

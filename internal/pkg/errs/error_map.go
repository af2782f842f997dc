/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to
standardize responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: Input Validation Errors
	ErrEmptyMessage:        {Code: ErrEmptyMessage, Message: "Message content is required.", Status: http.StatusBadRequest},
	ErrSelfInvite:          {Code: ErrSelfInvite, Message: "Cannot invite yourself.", Status: http.StatusBadRequest},
	ErrInvalidUsername:     {Code: ErrInvalidUsername, Message: "Invalid username.", Status: http.StatusBadRequest},
	ErrSearchQueryTooShort: {Code: ErrSearchQueryTooShort, Message: "Search query must be at least %d characters.", Status: http.StatusBadRequest},
	ErrInviteRateLimited:   {Code: ErrInviteRateLimited, Message: "Too many invitations. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Chat Session Errors
	ErrChatExists:        {Code: ErrChatExists, Message: "Chat already exists with this user.", Status: http.StatusConflict},
	ErrChatNotFound:      {Code: ErrChatNotFound, Message: "Chat not found.", Status: http.StatusNotFound},
	ErrChatClosed:        {Code: ErrChatClosed, Message: "Chat is closed.", Status: http.StatusConflict},
	ErrChatAlreadyClosed: {Code: ErrChatAlreadyClosed, Message: "Chat is already closed.", Status: http.StatusConflict},
	ErrChatAccessDenied:  {Code: ErrChatAccessDenied, Message: "Access denied to this chat.", Status: http.StatusForbidden},

	// 3xxx: User and Invitation Errors
	ErrUsernameTaken:        {Code: ErrUsernameTaken, Message: "Username is already taken.", Status: http.StatusConflict},
	ErrUserNotFound:         {Code: ErrUserNotFound, Message: "User not found.", Status: http.StatusNotFound},
	ErrInviteNotFound:       {Code: ErrInviteNotFound, Message: "Invitation not found or already accepted.", Status: http.StatusNotFound},
	ErrInvitingUserNotFound: {Code: ErrInvitingUserNotFound, Message: "Inviting user not found.", Status: http.StatusNotFound},

	// 5xxx: Internal System Errors
	ErrUnknown:            {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStorageUnavailable: {Code: ErrStorageUnavailable, Message: "Storage is temporarily unavailable.", Status: http.StatusServiceUnavailable},
}

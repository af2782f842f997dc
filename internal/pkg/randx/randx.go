/*
Package randx provides functions for generating unique identifiers and for
validating user-supplied identity strings.

User, chat, and message records are all keyed by standard UUID v4 strings.
*/
package randx

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// UsernameMinLength is the minimum number of characters in a username.
	UsernameMinLength = 3

	// UsernameMaxLength is the maximum number of characters in a username.
	UsernameMaxLength = 32

	// UsernameChars defines the character set allowed in usernames.
	UsernameChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_-"
)

// UserID generates a standard UUID v4 string to serve as a unique identifier for a user.
func UserID() string {
	return uuid.New().String()
}

// ChatID generates a standard UUID v4 string to serve as a unique identifier for a chat.
func ChatID() string {
	return uuid.New().String()
}

// MessageID generates a standard UUID v4 string to serve as a unique identifier for a message.
func MessageID() string {
	return uuid.New().String()
}

// IsValidID checks whether the given string parses as a UUID.
// Chat and user ids arriving from outside the core are validated with this
// before they are used to address storage.
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// IsValidUsername checks if the given string is a valid username.
// Validity criteria: length within [UsernameMinLength, UsernameMaxLength] and
// all characters belong to the UsernameChars set.
func IsValidUsername(name string) bool {
	if len(name) < UsernameMinLength || len(name) > UsernameMaxLength {
		return false
	}

	for _, char := range name {
		if !strings.ContainsRune(UsernameChars, char) {
			return false
		}
	}

	return true
}

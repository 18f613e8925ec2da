package service

import "errors"

var (
	// ErrUnauthenticated is returned for user-scoped actions on a
	// connection that never completed authentication.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrEmptyContent rejects messages that are empty after trimming.
	ErrEmptyContent = errors.New("message content is empty")
	// ErrInvalidUserID rejects malformed user identifiers.
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrRecipientNotFound rejects sends to a user id that does not exist.
	ErrRecipientNotFound = errors.New("recipient not found")
)

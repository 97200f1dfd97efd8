package session

import "errors"

var (
	// ErrInvalidID is returned for ids that fail the allow-list
	ErrInvalidID = errors.New("invalid session id")
	// ErrNotFound is returned for sessions that do not exist or have expired
	ErrNotFound = errors.New("session does not exist")
	// ErrIncomplete is returned while a session record is missing or unreadable but the session exists
	ErrIncomplete = errors.New("session is still being processed")
	// ErrNothingToMerge is returned when no source session contributed a file
	ErrNothingToMerge = errors.New("no files found to merge")
	// ErrKeyNotFound is returned by KV implementations for missing keys
	ErrKeyNotFound = errors.New("key not found")
)

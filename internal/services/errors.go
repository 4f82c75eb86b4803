// Package services defines the business logic for accounts, translation
// history, and the translation flow itself. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors represent expected business conditions. Anything else coming
// out of a service method is a persistence or upstream fault, wrapped but
// never silently converted into a false success. Translation into HTTP
// status codes is performed at the handler layer.
package services

import "errors"

// Account-related errors.
var (
	// ErrUsernameTaken indicates a signup collision: the username is
	// already registered. The existing account is left untouched.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrAccountNotFound indicates that the requested account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAuthFailed indicates a credential mismatch (wrong password, or the
	// account is absent). It deliberately does not distinguish the two.
	ErrAuthFailed = errors.New("invalid credentials")
)

// History-related errors.
var (
	// ErrEntryNotFound indicates that the requested history entry does not exist.
	ErrEntryNotFound = errors.New("history entry not found")
)

// Translation-related errors.
var (
	// ErrEmptyText is returned when a translation request carries no text.
	ErrEmptyText = errors.New("text is empty")

	// ErrTextTooLong is returned when the text exceeds the configured
	// maximum length limit.
	ErrTextTooLong = errors.New("text too long")
)

// Package repository defines error types that are reused across the user
// store implementations. These sentinel values allow the service layer to
// distinguish a missing record from a uniqueness violation without knowing
// which backend produced them.
package repository

import "errors"

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// ErrDuplicate is returned when an insert violates the unique username or
// email constraint. The service translates it into a 409 conflict.
var ErrDuplicate = errors.New("username or email already exists")

// ErrTooLong is returned when a field exceeds its column width.
var ErrTooLong = errors.New("field value too long")

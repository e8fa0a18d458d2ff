package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrConnectionNotFound is returned when a connection does not exist
	// or belongs to another user.
	ErrConnectionNotFound = errors.New("connection not found")
)

package storage

import "errors"

// Common storage errors
var (
	// ErrRecordNotFound indicates that record was not found in storage
	ErrRecordNotFound = errors.New("record not found")

	// ErrEmptyResponse indicates that the store accepted the write but returned no record
	ErrEmptyResponse = errors.New("store returned no records")
)

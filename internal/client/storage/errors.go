package storage

import "errors"

// Common client storage errors
var (
	// ErrInvalidReceipt indicates a receipt without record id
	ErrInvalidReceipt = errors.New("receipt must have a record id")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)

package store

import "errors"

var (
	// ErrInvalidName indicates an empty or whitespace-only migration name.
	ErrInvalidName = errors.New("invalid migration name")

	// ErrStoreClosed indicates the store was used after Close.
	ErrStoreClosed = errors.New("store closed")

	// ErrCorrupt indicates the persisted installed-set could not be read back.
	ErrCorrupt = errors.New("installed-set is corrupt")
)

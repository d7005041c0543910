// Package store defines the persistence contract for the installed-set: the
// ordered, unique list of currently installed migration names.
package store

import (
	"context"
	"strings"
)

// Store persists which migrations are installed.
//
// Implementations must preserve insertion order and keep names unique.
// Concurrent installs across processes are only safe when the implementation
// makes Add and Remove atomic; implementations document their guarantees.
type Store interface {
	// IsInstalled reports whether name is installed.
	IsInstalled(ctx context.Context, name string) (bool, error)

	// Installed returns all installed names in insertion order.
	// Returns an empty slice if nothing is installed.
	Installed(ctx context.Context) ([]string, error)

	// Add appends name. Adding an installed name is a no-op.
	Add(ctx context.Context, name string) error

	// Remove deletes name. Removing a name that is not installed is a no-op.
	Remove(ctx context.Context, name string) error
}

// ValidateName rejects names that cannot be stored.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	return nil
}

package actions

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/appmigrate/appmigrate/migration"
)

// Remove deletes a file or directory tree. A path that does not exist is
// not an error.
type Remove struct {
	base
	path string
}

// Compile-time check that Remove implements migration.Action.
var _ migration.Action = (*Remove)(nil)

// NewRemove returns an action deleting path.
func NewRemove(name, path string, opts ...Option) *Remove {
	return &Remove{base: newBase(name, opts), path: path}
}

func (r *Remove) Process(ctx context.Context) error {
	r.info = nil

	existed := true
	if _, err := os.Lstat(r.path); errors.Is(err, fs.ErrNotExist) {
		existed = false
	} else if err != nil {
		return migration.Fail(err)
	}

	if existed {
		if err := os.RemoveAll(r.path); err != nil {
			return migration.Failf("failed to remove %s: %w", r.path, err)
		}
	}

	r.info = map[string]string{
		"destination": r.path,
		"removed":     strconv.FormatBool(existed),
	}
	return nil
}

package migration

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMigration indicates a name could not be resolved to a Migration.
var ErrInvalidMigration = errors.New("invalid migration")

// InvalidMigrationError is returned by a Factory for unknown or malformed names.
type InvalidMigrationError struct {
	Name string
	Err  error
}

func (e *InvalidMigrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid migration %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("invalid migration %q", e.Name)
}

func (e *InvalidMigrationError) Is(target error) bool {
	return target == ErrInvalidMigration
}

func (e *InvalidMigrationError) Unwrap() error {
	return e.Err
}

// InstallError is a fatal failure around installing a migration. Nothing is
// persisted when it is returned.
type InstallError struct {
	Name string
	Err  error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install %s: %v", e.Name, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// UninstallError is a fatal failure around uninstalling a migration.
type UninstallError struct {
	Name string
	Err  error
}

func (e *UninstallError) Error() string {
	return fmt.Sprintf("uninstall %s: %v", e.Name, e.Err)
}

func (e *UninstallError) Unwrap() error {
	return e.Err
}

// ActionFailedError is a recoverable failure of a single action. The
// executor records it and continues with the next action.
type ActionFailedError struct {
	Migration string
	Action    string
	Err       error
}

// Fail wraps err as a recoverable action failure. Action implementations
// return it from Process; the executor fills in the migration and action names.
func Fail(err error) error {
	if err == nil {
		return nil
	}
	return &ActionFailedError{Err: err}
}

// Failf is Fail with a formatted message.
func Failf(format string, args ...any) error {
	return &ActionFailedError{Err: fmt.Errorf(format, args...)}
}

func (e *ActionFailedError) Error() string {
	if e.Err == nil {
		return "action failed"
	}
	return e.Err.Error()
}

func (e *ActionFailedError) Unwrap() error {
	return e.Err
}

// ActionsFailedError reports the actions that failed during an otherwise
// completed install or uninstall.
type ActionsFailedError struct {
	Name     string
	Failures []*ActionFailedError
}

func (e *ActionsFailedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Action+": "+f.Error())
	}
	return fmt.Sprintf("%s: %d action(s) failed: %s", e.Name, len(e.Failures), strings.Join(parts, "; "))
}

func (e *ActionsFailedError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

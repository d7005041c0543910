// Package migration implements the selection and orchestration engine for
// reversible application setup work.
//
// A Migration is a named bundle of ordered install and uninstall Actions.
// Installed migrations are tracked by a store.Store; the Migrator runs
// actions and keeps the store in sync, the Orchestrator adds the idempotent
// startup semantics and records every Result in a Results log.
//
// Addresses are flat sequential ids over the installed migrations and their
// install actions. They are recomputed on every invocation and are not stable
// across installs or uninstalls.
package migration

import (
	"context"
	"reflect"
	"slices"
)

// Operation selects which action list of a migration is in scope.
type Operation string

const (
	OperationInstall   Operation = "install"
	OperationUninstall Operation = "uninstall"
)

// Action is a single unit of setup work.
type Action interface {
	// Name identifies the action within its migration.
	Name() string

	// Type is a free-form category tag such as "config" or "views". May be empty.
	Type() string

	// Description is a human-readable summary of the action.
	Description() string

	// Process performs the work. Returning an *ActionFailedError marks a
	// recoverable failure; any other error aborts the batch.
	Process(ctx context.Context) error

	// ProcessedDataInfo describes what Process did. Only meaningful after a
	// successful Process call.
	ProcessedDataInfo() map[string]string
}

// Migration is a bundle of ordered install and uninstall actions.
// The two lists are independent and need not mirror each other.
type Migration interface {
	Description() string
	Install() Actions
	Uninstall() Actions
}

// Named is implemented by migrations that carry their own identifier.
type Named interface {
	Name() string
}

// Actions is an ordered list of actions.
type Actions []Action

// NewActions returns the given actions as an ordered list.
func NewActions(actions ...Action) Actions {
	return Actions(actions)
}

// All returns the actions in declared order.
func (a Actions) All() []Action {
	return []Action(a)
}

// Len returns the number of actions.
func (a Actions) Len() int {
	return len(a)
}

// Filter returns the actions whose type is one of types, in declared order.
func (a Actions) Filter(types ...string) Actions {
	var filtered Actions
	for _, action := range a {
		if slices.Contains(types, action.Type()) {
			filtered = append(filtered, action)
		}
	}
	return filtered
}

// ActionsFor returns the action list of m for op.
func ActionsFor(m Migration, op Operation) Actions {
	if op == OperationUninstall {
		return m.Uninstall()
	}
	return m.Install()
}

// NameOf returns the canonical identifier of m: its own name when it
// implements Named, otherwise the package-qualified Go type name.
func NameOf(m Migration) string {
	if named, ok := m.(Named); ok {
		return named.Name()
	}
	t := reflect.TypeOf(m)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

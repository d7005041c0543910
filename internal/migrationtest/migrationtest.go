// Package migrationtest provides migrations and actions for tests.
package migrationtest

import (
	"context"
	"sync/atomic"

	"github.com/appmigrate/appmigrate/migration"
)

// Action is a configurable action. Its description is its name and its
// processed data info is always {"key": "name"}.
type Action struct {
	ActionName string
	ActionType string

	// Err is returned from Process when set.
	Err error

	calls atomic.Int32
}

var _ migration.Action = (*Action)(nil)

// NewAction returns an action that succeeds.
func NewAction(name, typ string) *Action {
	return &Action{ActionName: name, ActionType: typ}
}

// Failing returns an action failing recoverably with message.
func Failing(name, typ, message string) *Action {
	return &Action{ActionName: name, ActionType: typ, Err: migration.Failf("%s", message)}
}

func (a *Action) Name() string        { return a.ActionName }
func (a *Action) Type() string        { return a.ActionType }
func (a *Action) Description() string { return a.ActionName }

func (a *Action) Process(ctx context.Context) error {
	a.calls.Add(1)
	return a.Err
}

func (a *Action) ProcessedDataInfo() map[string]string {
	return map[string]string{"key": "name"}
}

// Calls returns how often Process ran.
func (a *Action) Calls() int {
	return int(a.calls.Load())
}

// Foo has one untyped install and one untyped uninstall action.
type Foo struct{}

func (Foo) Description() string { return "Foo migration." }

func (Foo) Install() migration.Actions {
	return migration.NewActions(NewAction("config-install", ""))
}

func (Foo) Uninstall() migration.Actions {
	return migration.NewActions(NewAction("config-uninstall", ""))
}

// Bar has a config and a views action for each direction.
type Bar struct{}

func (Bar) Description() string { return "Bar migration." }

func (Bar) Install() migration.Actions {
	return migration.NewActions(
		NewAction("config-install", "config"),
		NewAction("view-install", "views"),
	)
}

func (Bar) Uninstall() migration.Actions {
	return migration.NewActions(
		NewAction("config-uninstall", "config"),
		NewAction("view-uninstall", "views"),
	)
}

// Custom is a named migration with fixed action lists. The same action
// values are returned on every call so tests can inspect them afterwards.
type Custom struct {
	ID               string
	Desc             string
	InstallActions   []migration.Action
	UninstallActions []migration.Action
}

var _ migration.Named = (*Custom)(nil)

func (c *Custom) Name() string        { return c.ID }
func (c *Custom) Description() string { return c.Desc }

func (c *Custom) Install() migration.Actions {
	return migration.NewActions(c.InstallActions...)
}

func (c *Custom) Uninstall() migration.Actions {
	return migration.NewActions(c.UninstallActions...)
}

// FooName and BarName are the registry names of Foo and Bar.
var (
	FooName = migration.NameOf(Foo{})
	BarName = migration.NameOf(Bar{})
)

// Registry returns a registry holding Foo and Bar.
func Registry() *migration.Registry {
	r := migration.NewRegistry()
	r.Add(Foo{})
	r.Add(Bar{})
	return r
}

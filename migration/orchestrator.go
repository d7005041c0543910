package migration

import (
	"context"
	"fmt"
)

// Orchestrator is the install/uninstall entry point for application startup
// code. Both operations are idempotent against the installed-set, so they
// can be called unconditionally on every run.
//
// The check and the store update are not atomic: two processes installing
// the same migration at the same time may both run its actions.
type Orchestrator struct {
	migrator *Migrator
	results  *Results
	enabled  bool
}

// NewOrchestrator returns an enabled Orchestrator appending to results.
func NewOrchestrator(m *Migrator, results *Results) *Orchestrator {
	return &Orchestrator{migrator: m, results: results, enabled: true}
}

// SetEnabled switches the orchestrator on or off. When off, every call is a no-op.
func (o *Orchestrator) SetEnabled(enabled bool) {
	o.enabled = enabled
}

// Enabled reports whether the orchestrator runs migrations.
func (o *Orchestrator) Enabled() bool {
	return o.enabled
}

// Results returns the result log.
func (o *Orchestrator) Results() *Results {
	return o.results
}

// Migrator returns the underlying migrator.
func (o *Orchestrator) Migrator() *Migrator {
	return o.migrator
}

// Install installs the named migration unless it is already installed.
// It returns a nil Result when nothing was done.
func (o *Orchestrator) Install(ctx context.Context, name string) (*Result, error) {
	if !o.enabled {
		return nil, nil
	}
	if done, err := o.installed(ctx, name, true); err != nil || done {
		return nil, err
	}
	return o.record(o.migrator.Install(ctx, name))
}

// InstallMigration is Install for a migration value.
func (o *Orchestrator) InstallMigration(ctx context.Context, m Migration) (*Result, error) {
	if !o.enabled {
		return nil, nil
	}
	if done, err := o.installed(ctx, NameOf(m), true); err != nil || done {
		return nil, err
	}
	return o.record(o.migrator.InstallMigration(ctx, m))
}

// Uninstall uninstalls the named migration if it is installed.
// It returns a nil Result when nothing was done.
func (o *Orchestrator) Uninstall(ctx context.Context, name string) (*Result, error) {
	if !o.enabled {
		return nil, nil
	}
	if done, err := o.installed(ctx, name, false); err != nil || done {
		return nil, err
	}
	return o.record(o.migrator.Uninstall(ctx, name))
}

// UninstallMigration is Uninstall for a migration value.
func (o *Orchestrator) UninstallMigration(ctx context.Context, m Migration) (*Result, error) {
	if !o.enabled {
		return nil, nil
	}
	if done, err := o.installed(ctx, NameOf(m), false); err != nil || done {
		return nil, err
	}
	return o.record(o.migrator.UninstallMigration(ctx, m))
}

// installed reports whether name is already in the desired state.
func (o *Orchestrator) installed(ctx context.Context, name string, wantInstalled bool) (bool, error) {
	ok, err := o.migrator.IsInstalled(ctx, name)
	if err != nil {
		if wantInstalled {
			return false, &InstallError{Name: name, Err: fmt.Errorf("failed to check installed state: %w", err)}
		}
		return false, &UninstallError{Name: name, Err: fmt.Errorf("failed to check installed state: %w", err)}
	}
	return ok == wantInstalled, nil
}

func (o *Orchestrator) record(result *Result, err error) (*Result, error) {
	if result != nil {
		o.results.Add(result)
	}
	return result, err
}

package migration

import (
	"context"
	"log/slog"

	"github.com/appmigrate/appmigrate/internal/logging"
	"github.com/appmigrate/appmigrate/store"
)

// Migrator runs migrations and keeps the installed-set in sync.
//
// Install always runs every install action and then records the migration as
// installed, also when some actions failed. Only a fatal error keeps the
// store untouched. The store is responsible for atomic updates when several
// processes install concurrently.
type Migrator struct {
	store    store.Store
	factory  Factory
	executor *Executor
	logger   *slog.Logger
}

// NewMigrator returns a Migrator using s as the installed-set and f to
// construct migrations by name.
func NewMigrator(s store.Store, f Factory) *Migrator {
	return &Migrator{
		store:    s,
		factory:  f,
		executor: NewExecutor(),
		logger:   logging.L("migrator"),
	}
}

// Store returns the installed-set.
func (m *Migrator) Store() store.Store { return m.store }

// Factory returns the migration factory.
func (m *Migrator) Factory() Factory { return m.factory }

// Executor returns the executor used for install and uninstall.
func (m *Migrator) Executor() *Executor { return m.executor }

// Selector returns a selector over the same store and factory.
func (m *Migrator) Selector() *Selector { return NewSelector(m.store, m.factory) }

// RunOption configures a single Install or Uninstall call.
type RunOption func(*runOptions)

type runOptions struct {
	onOutcome OutcomeFunc
}

// WithOutcomes streams each action outcome to fn while the call runs.
func WithOutcomes(fn OutcomeFunc) RunOption {
	return func(o *runOptions) { o.onOutcome = fn }
}

// IsInstalled reports whether name is in the installed-set.
func (m *Migrator) IsInstalled(ctx context.Context, name string) (bool, error) {
	return m.store.IsInstalled(ctx, name)
}

// Installed returns the installed names in installation order.
func (m *Migrator) Installed(ctx context.Context) ([]string, error) {
	return m.store.Installed(ctx)
}

// Install constructs the named migration and installs it. A name the
// factory cannot construct yields an *InstallError wrapping the
// *InvalidMigrationError.
func (m *Migrator) Install(ctx context.Context, name string, opts ...RunOption) (*Result, error) {
	mig, err := m.factory.Create(name)
	if err != nil {
		return nil, &InstallError{Name: name, Err: err}
	}
	return m.install(ctx, name, mig, opts)
}

// InstallMigration installs mig under NameOf(mig).
func (m *Migrator) InstallMigration(ctx context.Context, mig Migration, opts ...RunOption) (*Result, error) {
	return m.install(ctx, NameOf(mig), mig, opts)
}

func (m *Migrator) install(ctx context.Context, name string, mig Migration, opts []RunOption) (*Result, error) {
	o := applyRunOptions(opts)
	log := m.logger.With(logging.KeyMigration, name, logging.KeyOperation, OperationInstall)

	pairs := pairsOf(name, mig, OperationInstall)
	outcomes, err := m.executor.Run(ctx, pairs, o.onOutcome)
	if err != nil {
		return nil, &InstallError{Name: name, Err: err}
	}

	if err := m.store.Add(ctx, name); err != nil {
		return nil, &InstallError{Name: name, Err: err}
	}

	result := newResult(OperationInstall, name, mig, outcomes)
	if failures := Failures(outcomes); len(failures) > 0 {
		log.Warn("installed with failed actions", "failed", len(failures), "processed", result.Actions.Len())
		return result, &ActionsFailedError{Name: name, Failures: failures}
	}
	log.Info("installed", "processed", result.Actions.Len())
	return result, nil
}

// Uninstall constructs the named migration and uninstalls it. A migration
// that is not installed yields an empty Result and no error. Construction
// failures are wrapped in *UninstallError.
func (m *Migrator) Uninstall(ctx context.Context, name string, opts ...RunOption) (*Result, error) {
	mig, err := m.factory.Create(name)
	if err != nil {
		return nil, &UninstallError{Name: name, Err: err}
	}
	return m.uninstall(ctx, name, mig, opts)
}

// UninstallMigration uninstalls mig under NameOf(mig).
func (m *Migrator) UninstallMigration(ctx context.Context, mig Migration, opts ...RunOption) (*Result, error) {
	return m.uninstall(ctx, NameOf(mig), mig, opts)
}

func (m *Migrator) uninstall(ctx context.Context, name string, mig Migration, opts []RunOption) (*Result, error) {
	o := applyRunOptions(opts)
	log := m.logger.With(logging.KeyMigration, name, logging.KeyOperation, OperationUninstall)

	installed, err := m.store.IsInstalled(ctx, name)
	if err != nil {
		return nil, &UninstallError{Name: name, Err: err}
	}
	if !installed {
		log.Debug("not installed, nothing to uninstall")
		return &Result{Operation: OperationUninstall, Name: name, Migration: mig}, nil
	}

	pairs := pairsOf(name, mig, OperationUninstall)
	outcomes, err := m.executor.Run(ctx, pairs, o.onOutcome)
	if err != nil {
		return nil, &UninstallError{Name: name, Err: err}
	}

	if err := m.store.Remove(ctx, name); err != nil {
		return nil, &UninstallError{Name: name, Err: err}
	}

	result := newResult(OperationUninstall, name, mig, outcomes)
	if failures := Failures(outcomes); len(failures) > 0 {
		log.Warn("uninstalled with failed actions", "failed", len(failures), "processed", result.Actions.Len())
		return result, &ActionsFailedError{Name: name, Failures: failures}
	}
	log.Info("uninstalled", "processed", result.Actions.Len())
	return result, nil
}

func pairsOf(name string, mig Migration, op Operation) []Pair {
	actions := ActionsFor(mig, op)
	pairs := make([]Pair, 0, len(actions))
	for _, action := range actions {
		pairs = append(pairs, Pair{Name: name, Migration: mig, Action: action})
	}
	return pairs
}

func applyRunOptions(opts []RunOption) runOptions {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

package console

import (
	"context"
	"errors"

	"github.com/appmigrate/appmigrate/migration"
)

const uninstallHint = "Nothing to uninstall. Use --name, --all or --id to select migrations."

// Uninstall runs migration:uninstall. Every selected migration is
// uninstalled as a whole and removed from the installed-set; --id only
// considers migration addresses.
func (c *Console) Uninstall(ctx context.Context, crit Criteria) int {
	if crit.Type != "" {
		c.failure("--type is not supported by migration:uninstall")
		return ExitUsage
	}

	if crit.Interactive {
		if !crit.empty() {
			c.failure("--interactive cannot be combined with --name, --all or --id")
			return ExitUsage
		}
		ids, code := c.pick(ctx)
		if code != ExitOK || len(ids) == 0 {
			return code
		}
		return c.uninstallBulk(ctx, migration.ByAddress(ids...))
	}

	switch {
	case crit.Name != "":
		if !c.uninstallName(ctx, crit.Name) {
			return ExitFailure
		}
		return ExitOK
	case crit.All:
		return c.uninstallBulk(ctx, migration.All())
	case crit.ID != "":
		ids, err := migration.ParseIDs(crit.ID)
		if err != nil {
			c.failure("--id: " + err.Error())
			return ExitUsage
		}
		return c.uninstallBulk(ctx, migration.ByAddress(ids...))
	default:
		c.hint(uninstallHint)
		return ExitOK
	}
}

// uninstallName uninstalls one migration and reports whether it went
// without failures. A migration that is not installed prints nothing.
func (c *Console) uninstallName(ctx context.Context, name string) bool {
	_, err := c.migrator.Uninstall(ctx, name, migration.WithOutcomes(c.printOutcome))
	if err == nil {
		return true
	}
	var failed *migration.ActionsFailedError
	if !errors.As(err, &failed) {
		var wrapped *migration.UninstallError
		if errors.As(err, &wrapped) {
			err = wrapped.Err
		}
		c.failure(name + ": " + err.Error())
	}
	return false
}

func (c *Console) uninstallBulk(ctx context.Context, crit migration.Criterion) int {
	sel, err := c.migrator.Selector().Resolve(ctx, crit, migration.OperationUninstall)
	if err != nil {
		c.failure(err.Error())
		return ExitFailure
	}

	code := ExitOK
	for _, f := range sel.Failures {
		c.failure(f.Error())
		code = ExitFailure
	}
	for _, entry := range sel.Migrations {
		if !c.uninstallName(ctx, entry.Name) {
			code = ExitFailure
		}
	}
	return code
}

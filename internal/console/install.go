package console

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/appmigrate/appmigrate/migration"
)

const installHint = "Nothing to install. Use --name, --all, --id or --type to select migrations."

// Install runs migration:install.
//
// --name installs the migration and records it as installed. The bulk
// criteria re-run install actions of already installed migrations and
// leave the installed-set alone.
func (c *Console) Install(ctx context.Context, crit Criteria) int {
	if crit.Interactive {
		if !crit.empty() {
			c.failure("--interactive cannot be combined with --name, --all, --id or --type")
			return ExitUsage
		}
		ids, code := c.pick(ctx)
		if code != ExitOK || len(ids) == 0 {
			return code
		}
		return c.installBulk(ctx, migration.ByAddress(ids...))
	}

	switch {
	case crit.Name != "":
		return c.installName(ctx, crit.Name)
	case crit.All:
		return c.installBulk(ctx, migration.All())
	case crit.ID != "":
		ids, err := migration.ParseIDs(crit.ID)
		if err != nil {
			c.failure("--id: " + err.Error())
			return ExitUsage
		}
		return c.installBulk(ctx, migration.ByAddress(ids...))
	case crit.Type != "":
		types := migration.ParseTypes(crit.Type)
		if len(types) == 0 {
			c.failure("--type: no types given")
			return ExitUsage
		}
		return c.installBulk(ctx, migration.ByType(types...))
	default:
		c.hint(installHint)
		return ExitOK
	}
}

func (c *Console) installName(ctx context.Context, name string) int {
	_, err := c.migrator.Install(ctx, name, migration.WithOutcomes(c.printOutcome))
	if err == nil {
		return ExitOK
	}

	// Failed actions were already printed as they happened.
	var failed *migration.ActionsFailedError
	if !errors.As(err, &failed) {
		var wrapped *migration.InstallError
		if errors.As(err, &wrapped) {
			err = wrapped.Err
		}
		c.failure(name + ": " + err.Error())
	}
	return ExitFailure
}

func (c *Console) installBulk(ctx context.Context, crit migration.Criterion) int {
	sel, err := c.migrator.Selector().Resolve(ctx, crit, migration.OperationInstall)
	if err != nil {
		c.failure(err.Error())
		return ExitFailure
	}

	code := ExitOK
	for _, f := range sel.Failures {
		c.failure(f.Error())
		code = ExitFailure
	}

	outcomes, err := c.migrator.Executor().Run(ctx, sel.Pairs, c.printOutcome)
	if err != nil {
		c.failure(err.Error())
		return ExitFailure
	}
	if len(migration.Failures(outcomes)) > 0 {
		code = ExitFailure
	}
	return code
}

// formatIDs renders ids the way --id accepts them.
func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, "|")
}

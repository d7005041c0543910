package console

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/appmigrate/appmigrate/migration"
)

// ListHeaders are the column headers of migration:list.
var ListHeaders = []string{"ID", "Migration / - Action", "Type", "Description"}

// ListRows returns the migration:list rows for addrs. A migration that
// cannot be constructed shows its error as description.
func ListRows(addrs []migration.Address) [][]string {
	rows := make([][]string, 0, len(addrs))
	for _, addr := range addrs {
		id := strconv.Itoa(addr.ID)
		switch {
		case addr.Kind == migration.KindAction:
			rows = append(rows, []string{id, "- " + addr.Action.Name(), addr.Action.Type(), addr.Action.Description()})
		case addr.Err != nil:
			rows = append(rows, []string{id, addr.Name, "", addr.Err.Error()})
		default:
			rows = append(rows, []string{id, addr.Name, "", addr.Migration.Description()})
		}
	}
	return rows
}

// List runs migration:list. It always exits with ExitOK; a store that cannot
// be read is reported on Err.
func (c *Console) List(ctx context.Context) int {
	entries, err := migration.LoadInstalled(ctx, c.migrator.Store(), c.migrator.Factory())
	if err != nil {
		c.failure(err.Error())
		return ExitOK
	}

	rows := ListRows(migration.AssignAddresses(entries))
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(c.out.border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return c.out.header
			}
			return c.out.cell
		}).
		Headers(ListHeaders...).
		Rows(rows...)

	fmt.Fprintln(c.io.Out, t.Render())
	return ExitOK
}

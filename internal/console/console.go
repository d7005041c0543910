// Package console implements the migration:install, migration:uninstall and
// migration:list commands against plain writers. Handlers return the
// process exit code.
package console

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"

	"github.com/appmigrate/appmigrate/migration"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// IO is where a command writes. Success lines go to Out, failures and hints
// to Err.
type IO struct {
	Out     io.Writer
	Err     io.Writer
	Verbose bool
}

// Criteria are the selection flags of install and uninstall. When several
// are set, the first in field order wins.
type Criteria struct {
	Name        string
	All         bool
	ID          string
	Type        string
	Interactive bool
}

func (c Criteria) empty() bool {
	return c.Name == "" && !c.All && c.ID == "" && c.Type == ""
}

// Picker lets the user choose addresses interactively.
type Picker interface {
	Pick(ctx context.Context, addrs []migration.Address) ([]int, error)
}

// Console runs the migration commands.
type Console struct {
	migrator *migration.Migrator
	io       IO
	picker   Picker
	out      styles
	errOut   styles
}

// New returns a Console for m writing to streams.
func New(m *migration.Migrator, streams IO) *Console {
	return &Console{
		migrator: m,
		io:       streams,
		out:      newStyles(lipgloss.NewRenderer(streams.Out)),
		errOut:   newStyles(lipgloss.NewRenderer(streams.Err)),
	}
}

// WithPicker sets the picker used for --interactive.
func (c *Console) WithPicker(p Picker) *Console {
	c.picker = p
	return c
}

// printOutcome writes one action line and, when verbose, its processed
// data info sorted by key.
func (c *Console) printOutcome(o migration.Outcome) {
	if o.Failed() {
		c.failure(fmt.Sprintf("%s: %s: %s", o.Name, o.Action.Name(), o.Err.Error()))
		return
	}
	fmt.Fprintln(c.io.Out, c.out.success.Render(fmt.Sprintf("%s: %s: %s", o.Name, o.Action.Name(), o.Action.Description())))
	if !c.io.Verbose {
		return
	}
	keys := make([]string, 0, len(o.Info))
	for k := range o.Info {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintln(c.io.Out, c.out.muted.Render(k+": "+o.Info[k]))
	}
}

func (c *Console) failure(line string) {
	fmt.Fprintln(c.io.Err, c.errOut.err.Render(line))
}

func (c *Console) hint(line string) {
	fmt.Fprintln(c.io.Err, c.errOut.muted.Render(line))
}

// pick runs the interactive picker over the current address mapping.
func (c *Console) pick(ctx context.Context) ([]int, int) {
	if c.picker == nil {
		c.failure("interactive mode is not available")
		return nil, ExitUsage
	}
	entries, err := migration.LoadInstalled(ctx, c.migrator.Store(), c.migrator.Factory())
	if err != nil {
		c.failure(err.Error())
		return nil, ExitFailure
	}
	addrs := migration.AssignAddresses(entries)
	if len(addrs) == 0 {
		c.hint("No migrations installed.")
		return nil, ExitOK
	}
	ids, err := c.picker.Pick(ctx, addrs)
	if err != nil {
		c.failure(err.Error())
		return nil, ExitFailure
	}
	if len(ids) > 0 {
		c.hint("Selected --id=" + formatIDs(ids))
	}
	return ids, ExitOK
}

package migration

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/appmigrate/appmigrate/store"
)

// Criterion selects migrations and actions. Build one with ByName, All,
// ByAddress or ByType.
type Criterion interface {
	fmt.Stringer
	criterion()
}

type byName struct{ name string }

type all struct{}

type byAddress struct{ ids []int }

type byType struct{ types []string }

func (byName) criterion()    {}
func (all) criterion()       {}
func (byAddress) criterion() {}
func (byType) criterion()    {}

func (c byName) String() string { return "name=" + c.name }
func (all) String() string      { return "all" }
func (c byAddress) String() string {
	parts := make([]string, len(c.ids))
	for i, id := range c.ids {
		parts[i] = strconv.Itoa(id)
	}
	return "id=" + strings.Join(parts, "|")
}
func (c byType) String() string { return "type=" + strings.Join(c.types, "|") }

// ByName selects one migration, constructed through the factory, whether or
// not it is installed.
func ByName(name string) Criterion { return byName{name: name} }

// All selects every installed migration.
func All() Criterion { return all{} }

// ByAddress selects by address. A migration address selects all of that
// migration's actions; an action address selects that action only.
// Unknown addresses are ignored.
func ByAddress(ids ...int) Criterion { return byAddress{ids: ids} }

// ByType selects the actions of installed migrations whose type is one of types.
func ByType(types ...string) Criterion { return byType{types: types} }

// Pair is one action to run, with the migration it belongs to.
type Pair struct {
	Name      string
	Migration Migration
	Action    Action
}

// ResolveError records an installed migration that could not be constructed
// during a bulk selection.
type ResolveError struct {
	Name string
	Err  error
}

func (e ResolveError) Error() string {
	return e.Name + ": " + e.Err.Error()
}

func (e ResolveError) Unwrap() error {
	return e.Err
}

// Selection is the resolved form of a Criterion.
type Selection struct {
	// Pairs are the actions to run, migration-major in installed order.
	Pairs []Pair

	// Migrations are the migrations selected as a whole (by name, all, or by
	// migration address), in installed order.
	Migrations []Installed

	// Failures are installed migrations skipped because they could not be
	// constructed. Only bulk criteria produce them.
	Failures []ResolveError
}

// Selector turns a Criterion into a Selection. It never modifies the store
// and never processes actions.
type Selector struct {
	store   store.Store
	factory Factory
}

// NewSelector returns a selector reading from s and constructing with f.
func NewSelector(s store.Store, f Factory) *Selector {
	return &Selector{store: s, factory: f}
}

// Resolve resolves c for op.
//
// With OperationUninstall, ByAddress still addresses the install mapping
// shown by migration:list, so only migration addresses select anything:
// an action address points at an install action, which has no uninstall
// counterpart.
func (s *Selector) Resolve(ctx context.Context, c Criterion, op Operation) (*Selection, error) {
	if c, ok := c.(byName); ok {
		return s.resolveName(c.name, op)
	}

	entries, err := LoadInstalled(ctx, s.store, s.factory)
	if err != nil {
		return nil, err
	}

	switch c := c.(type) {
	case all:
		return resolveAll(entries, op), nil
	case byAddress:
		return resolveAddresses(entries, c.ids, op), nil
	case byType:
		return resolveTypes(entries, c.types, op), nil
	default:
		return nil, fmt.Errorf("unsupported criterion %T", c)
	}
}

func (s *Selector) resolveName(name string, op Operation) (*Selection, error) {
	m, err := s.factory.Create(name)
	if err != nil {
		return nil, err
	}

	sel := &Selection{Migrations: []Installed{{Name: name, Migration: m}}}
	for _, action := range ActionsFor(m, op) {
		sel.Pairs = append(sel.Pairs, Pair{Name: name, Migration: m, Action: action})
	}
	return sel, nil
}

func resolveAll(entries []Installed, op Operation) *Selection {
	sel := &Selection{}
	for _, entry := range entries {
		if entry.Err != nil {
			sel.Failures = append(sel.Failures, ResolveError{Name: entry.Name, Err: entry.Err})
			continue
		}
		sel.Migrations = append(sel.Migrations, entry)
		for _, action := range ActionsFor(entry.Migration, op) {
			sel.Pairs = append(sel.Pairs, Pair{Name: entry.Name, Migration: entry.Migration, Action: action})
		}
	}
	return sel
}

func resolveAddresses(entries []Installed, ids []int, op Operation) *Selection {
	sel := &Selection{}
	addrs := AssignAddresses(entries)

	// Walk migration by migration so a migration-level hit takes precedence
	// over per-action hits inside the same migration.
	for i := 0; i < len(addrs); {
		head := addrs[i]
		j := i + 1
		for j < len(addrs) && addrs[j].Kind == KindAction {
			j++
		}
		children := addrs[i+1 : j]
		i = j

		whole := slices.Contains(ids, head.ID)
		if head.Err != nil {
			if whole {
				sel.Failures = append(sel.Failures, ResolveError{Name: head.Name, Err: head.Err})
			}
			continue
		}

		entry := Installed{Name: head.Name, Migration: head.Migration}
		if whole {
			sel.Migrations = append(sel.Migrations, entry)
			if op == OperationUninstall {
				for _, action := range head.Migration.Uninstall() {
					sel.Pairs = append(sel.Pairs, Pair{Name: head.Name, Migration: head.Migration, Action: action})
				}
				continue
			}
			for _, child := range children {
				sel.Pairs = append(sel.Pairs, Pair{Name: head.Name, Migration: head.Migration, Action: child.Action})
			}
			continue
		}

		if op == OperationUninstall {
			continue
		}
		for _, child := range children {
			if slices.Contains(ids, child.ID) {
				sel.Pairs = append(sel.Pairs, Pair{Name: head.Name, Migration: head.Migration, Action: child.Action})
			}
		}
	}
	return sel
}

func resolveTypes(entries []Installed, types []string, op Operation) *Selection {
	sel := &Selection{}
	for _, entry := range entries {
		if entry.Err != nil {
			sel.Failures = append(sel.Failures, ResolveError{Name: entry.Name, Err: entry.Err})
			continue
		}
		for _, action := range ActionsFor(entry.Migration, op).Filter(types...) {
			sel.Pairs = append(sel.Pairs, Pair{Name: entry.Name, Migration: entry.Migration, Action: action})
		}
	}
	return sel
}

// ParseIDs parses a "|" separated list of addresses such as "2|5".
// Empty segments are skipped; anything that is not a positive integer is an error.
func ParseIDs(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("invalid id %q: must be a positive integer", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no ids given")
	}
	return ids, nil
}

// ParseTypes parses a "|" separated list of action types such as "config|views".
func ParseTypes(s string) []string {
	var types []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			types = append(types, part)
		}
	}
	return types
}

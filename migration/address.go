package migration

import (
	"context"
	"fmt"

	"github.com/appmigrate/appmigrate/store"
)

// Installed is one entry of the installed-set, resolved through a Factory.
// Err is set when the factory could not construct the migration.
type Installed struct {
	Name      string
	Migration Migration
	Err       error
}

// LoadInstalled reads the installed names from s in installation order and
// constructs each migration with f. Construction failures are recorded per
// entry; only store failures are returned as an error.
func LoadInstalled(ctx context.Context, s store.Store, f Factory) ([]Installed, error) {
	names, err := s.Installed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read installed migrations: %w", err)
	}

	entries := make([]Installed, 0, len(names))
	for _, name := range names {
		m, err := f.Create(name)
		entries = append(entries, Installed{Name: name, Migration: m, Err: err})
	}
	return entries, nil
}

// AddressKind tells whether an address points at a migration or an action.
type AddressKind int

const (
	KindMigration AddressKind = iota
	KindAction
)

func (k AddressKind) String() string {
	if k == KindAction {
		return "action"
	}
	return "migration"
}

// Address is one row of the flat address mapping.
type Address struct {
	ID        int
	Kind      AddressKind
	Name      string
	Migration Migration
	Action    Action // nil for KindMigration
	Err       error  // construction error of the migration, KindMigration only
}

// AssignAddresses numbers the entries depth-first starting at 1: each
// migration takes one address, followed by one address per install action.
// A migration that failed to construct takes its own address and nothing else.
func AssignAddresses(entries []Installed) []Address {
	var (
		addrs []Address
		id    int
	)
	for _, entry := range entries {
		id++
		addrs = append(addrs, Address{
			ID:        id,
			Kind:      KindMigration,
			Name:      entry.Name,
			Migration: entry.Migration,
			Err:       entry.Err,
		})
		if entry.Err != nil || entry.Migration == nil {
			continue
		}
		for _, action := range entry.Migration.Install() {
			id++
			addrs = append(addrs, Address{
				ID:        id,
				Kind:      KindAction,
				Name:      entry.Name,
				Migration: entry.Migration,
				Action:    action,
			})
		}
	}
	return addrs
}

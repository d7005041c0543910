// Package actions provides ready-made migration actions: publishing files
// from an fs.FS, removing published files and running SQL scripts.
package actions

import "maps"

// Option configures an action.
type Option func(*base)

// WithType sets the action type used by type selection, e.g. "config".
func WithType(typ string) Option {
	return func(b *base) { b.typ = typ }
}

// WithDescription sets the human-readable description.
func WithDescription(description string) Option {
	return func(b *base) { b.description = description }
}

// base carries the identity shared by all actions in this package.
type base struct {
	name        string
	typ         string
	description string
	info        map[string]string
}

func newBase(name string, opts []Option) base {
	b := base{name: name}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) Name() string        { return b.name }
func (b *base) Type() string        { return b.typ }
func (b *base) Description() string { return b.description }

// ProcessedDataInfo returns what the last successful Process did.
func (b *base) ProcessedDataInfo() map[string]string {
	return maps.Clone(b.info)
}

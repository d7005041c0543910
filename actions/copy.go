package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/appmigrate/appmigrate/migration"
)

// Copy publishes a file or a directory tree from src to a destination on disk.
// Existing destination files are kept unless the action overwrites.
type Copy struct {
	base
	src       fs.FS
	from      string
	to        string
	overwrite bool
}

// Compile-time check that Copy implements migration.Action.
var _ migration.Action = (*Copy)(nil)

// NewCopy returns an action copying from (a slash-separated path in src) to
// the filesystem path to. When from is a directory, to is the target directory.
func NewCopy(name string, src fs.FS, from, to string, opts ...Option) *Copy {
	return &Copy{base: newBase(name, opts), src: src, from: from, to: to}
}

// Overwrite makes the action replace existing destination files.
func (c *Copy) Overwrite(overwrite bool) *Copy {
	c.overwrite = overwrite
	return c
}

// Process copies the files. A missing source or an unwritable destination is
// a recoverable failure.
func (c *Copy) Process(ctx context.Context) error {
	c.info = nil

	info, err := fs.Stat(c.src, c.from)
	if err != nil {
		return migration.Failf("source %s: %w", c.from, err)
	}

	var copied, skipped int
	copyOne := func(from, to string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := c.copyFile(from, to)
		if err != nil {
			return migration.Fail(err)
		}
		if done {
			copied++
		} else {
			skipped++
		}
		return nil
	}

	if !info.IsDir() {
		if err := copyOne(c.from, c.to); err != nil {
			return err
		}
	} else {
		err := fs.WalkDir(c.src, c.from, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return migration.Fail(err)
			}
			if d.IsDir() {
				return nil
			}
			rel := p
			if c.from != "." {
				rel = p[len(c.from)+1:]
			}
			return copyOne(p, filepath.Join(c.to, filepath.FromSlash(rel)))
		})
		if err != nil {
			return err
		}
	}

	c.info = map[string]string{
		"source":      c.from,
		"destination": c.to,
		"files":       strconv.Itoa(copied),
		"skipped":     strconv.Itoa(skipped),
	}
	return nil
}

// copyFile copies one file. It reports false when the destination existed
// and was kept.
func (c *Copy) copyFile(from, to string) (bool, error) {
	if !c.overwrite {
		if _, err := os.Stat(to); err == nil {
			return false, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("failed to stat %s: %w", to, err)
		}
	}

	in, err := c.src.Open(from)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", path.Clean(from), err)
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return false, fmt.Errorf("failed to create directory for %s: %w", to, err)
	}

	out, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", to, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return false, fmt.Errorf("failed to write %s: %w", to, err)
	}
	if err := out.Close(); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", to, err)
	}
	return true, nil
}

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/appmigrate/appmigrate/boot"
	"github.com/appmigrate/appmigrate/internal/console"
	"github.com/appmigrate/appmigrate/internal/logging"
	"github.com/appmigrate/appmigrate/internal/picker"
)

// openApp boots the engine for cmd. Log settings from the config apply
// unless given as flags.
func openApp(cmd *cobra.Command) (*boot.App, error) {
	app, err := boot.New(cmd.Context(), boot.Options{ConfigPath: configPath, Registry: hostRegistry})
	if err != nil {
		return nil, err
	}

	level, format := logLevel, logFormat
	if level == "" {
		level = app.Config().Log.Level
	}
	if format == "" {
		format = app.Config().Log.Format
	}
	logging.Init(format, level, cmd.ErrOrStderr())
	return app, nil
}

// newConsole wires a console to cmd's streams.
func newConsole(cmd *cobra.Command, app *boot.App, verbose bool) *console.Console {
	c := console.New(app.Migrator(), console.IO{
		Out:     cmd.OutOrStdout(),
		Err:     cmd.ErrOrStderr(),
		Verbose: verbose,
	})
	return c.WithPicker(picker.Terminal{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()})
}

// writerNotifier prints install messages, one per line.
type writerNotifier struct {
	w io.Writer
}

func (n writerNotifier) Notify(level, message string) {
	_, _ = fmt.Fprintf(n.w, "[%s] %s\n", level, message)
}

// closeApp flushes pending messages and releases the app.
func closeApp(cmd *cobra.Command, app *boot.App) {
	app.FlushMessages(writerNotifier{w: cmd.ErrOrStderr()})
	if err := app.Close(); err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
}

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/appmigrate/appmigrate/internal/console"
	"github.com/appmigrate/appmigrate/internal/logging"
	"github.com/appmigrate/appmigrate/migration"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:           "appmigrate",
	Short:         "Install and uninstall application migrations",
	Long:          `appmigrate keeps track of installed migrations and runs their install and uninstall actions.`,
	Version:       getVersion(),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logFormat, logLevel, cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to appmigrate.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default from config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default from config)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})
}

// exitCode carries a command's exit code back to Execute.
type exitCode int

func (c exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(c))
}

type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// codeOf maps an error returned by a command to the process exit code.
func codeOf(err error) int {
	var (
		code  exitCode
		usage *usageError
	)
	switch {
	case err == nil:
		return console.ExitOK
	case errors.As(err, &code):
		return int(code)
	case errors.As(err, &usage):
		return console.ExitUsage
	default:
		return console.ExitFailure
	}
}

// exit turns a console exit code into a command result.
func exit(code int) error {
	if code == console.ExitOK {
		return nil
	}
	return exitCode(code)
}

// hostRegistry holds the migrations of a program embedding the CLI.
var hostRegistry *migration.Registry

func Execute() {
	ExecuteWith(nil)
}

// ExecuteWith runs the CLI with reg as the migration registry. Programs that
// install migrations from Go values pass their registry here so the commands
// can construct those migrations by name.
func ExecuteWith(reg *migration.Registry) {
	hostRegistry = reg
	err := rootCmd.Execute()
	var code exitCode
	if err != nil && !errors.As(err, &code) {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(codeOf(err))
}

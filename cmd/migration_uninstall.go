package cmd

import (
	"github.com/spf13/cobra"

	"github.com/appmigrate/appmigrate/internal/console"
)

var uninstallCriteria console.Criteria
var uninstallVerbose bool

var migrationUninstallCmd = &cobra.Command{
	Use:   "migration:uninstall",
	Short: "Uninstall migrations",
	Long: `Run uninstall actions of installed migrations and remove them from the
installed set. Only migration addresses are accepted by --id.`,
	Example: `  # Uninstall a migration
  appmigrate migration:uninstall --name app.search

  # Uninstall everything
  appmigrate migration:uninstall --all`,
	Args: cobra.NoArgs,
	RunE: runMigrationUninstall,
}

func init() {
	rootCmd.AddCommand(migrationUninstallCmd)

	flags := migrationUninstallCmd.Flags()
	flags.StringVar(&uninstallCriteria.Name, "name", "", "Migration to uninstall")
	flags.BoolVar(&uninstallCriteria.All, "all", false, "Uninstall all installed migrations")
	flags.StringVar(&uninstallCriteria.ID, "id", "", `Migration addresses to uninstall, separated by "|"`)
	flags.StringVar(&uninstallCriteria.Type, "type", "", "Not supported; uninstall works on whole migrations")
	flags.BoolVar(&uninstallCriteria.Interactive, "interactive", false, "Choose addresses interactively")
	flags.BoolVarP(&uninstallVerbose, "verbose", "v", false, "Print processed data of each action")
	_ = flags.MarkHidden("type")
}

func runMigrationUninstall(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, app)

	return exit(newConsole(cmd, app, uninstallVerbose).Uninstall(cmd.Context(), uninstallCriteria))
}

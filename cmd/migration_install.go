package cmd

import (
	"github.com/spf13/cobra"

	"github.com/appmigrate/appmigrate/internal/console"
)

var installCriteria console.Criteria
var installVerbose bool

var migrationInstallCmd = &cobra.Command{
	Use:   "migration:install",
	Short: "Run install actions",
	Long: `Run install actions of migrations.

--name installs one migration and records it as installed. --all, --id and
--type re-run install actions of migrations that are already installed.
Addresses for --id are the ones shown by migration:list.`,
	Example: `  # Install a migration
  appmigrate migration:install --name app.search

  # Re-run two addresses
  appmigrate migration:install --id "2|5"

  # Re-run all config and views actions
  appmigrate migration:install --type "config|views" -v`,
	Args: cobra.NoArgs,
	RunE: runMigrationInstall,
}

func init() {
	rootCmd.AddCommand(migrationInstallCmd)

	flags := migrationInstallCmd.Flags()
	flags.StringVar(&installCriteria.Name, "name", "", "Migration to install")
	flags.BoolVar(&installCriteria.All, "all", false, "Re-run install actions of all installed migrations")
	flags.StringVar(&installCriteria.ID, "id", "", `Addresses to run, separated by "|"`)
	flags.StringVar(&installCriteria.Type, "type", "", `Action types to run, separated by "|"`)
	flags.BoolVar(&installCriteria.Interactive, "interactive", false, "Choose addresses interactively")
	flags.BoolVarP(&installVerbose, "verbose", "v", false, "Print processed data of each action")
}

func runMigrationInstall(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, app)

	return exit(newConsole(cmd, app, installVerbose).Install(cmd.Context(), installCriteria))
}

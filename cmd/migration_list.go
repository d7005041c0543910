package cmd

import (
	"github.com/spf13/cobra"
)

var migrationListCmd = &cobra.Command{
	Use:   "migration:list",
	Short: "List installed migrations and their install actions",
	Long: `List installed migrations in installation order, each followed by its
install actions. The ID column holds the addresses accepted by --id.`,
	Args: cobra.NoArgs,
	RunE: runMigrationList,
}

func init() {
	rootCmd.AddCommand(migrationListCmd)
}

func runMigrationList(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, app)

	return exit(newConsole(cmd, app, false).List(cmd.Context()))
}

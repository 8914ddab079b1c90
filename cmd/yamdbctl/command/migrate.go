package command

import (
	"fmt"

	"yamdb/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(db); err != nil {
			return err
		}
		fmt.Println("✓ Schema is up to date")
		return nil
	},
}

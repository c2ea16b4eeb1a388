package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/careflowhq/careflow/internal/shared/infrastructure/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := buildContainer(cmd.Context())
		if err != nil {
			return err
		}
		defer container.Close()

		if err := migrations.RunPostgresMigrations(cmd.Context(), container.DB); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

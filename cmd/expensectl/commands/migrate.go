package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/expense-intake/pkg/database"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("db")

			db, err := database.New(database.Config{
				Path:         path,
				MaxOpenConns: 1,
				MaxIdleConns: 1,
			}, zap.NewNop())
			if err != nil {
				return err
			}
			defer db.Close()

			migrator := database.NewMigrator(db, zap.NewNop())
			if err := migrator.Run(cmd.Context(), database.Migrations()); err != nil {
				return err
			}

			applied, err := migrator.AppliedVersions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied to %s\n", len(applied), path)
			return nil
		},
	}
	cmd.Flags().String("db", "data/expense-intake.db", "SQLite database path")
	return cmd
}

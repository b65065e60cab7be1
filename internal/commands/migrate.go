package commands

import (
	"github.com/smallbiznis/partita/internal/migration"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				infrastructure(),
				migration.Module,
			)
			if err := app.Err(); err != nil {
				return err
			}
			return runOnce(cmd.Context(), app)
		},
	}
}

package commands

import (
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/partita/internal/seed"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errCompanyRequired = errors.New("--company is required")

func newSeedCommand() *cobra.Command {
	var companyID int64

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Install the default chart of accounts, tax codes and functions for a company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if companyID <= 0 {
				return errCompanyRequired
			}
			app := fx.New(
				infrastructure(),
				fx.Invoke(func(conn *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
					return seed.EnsureCompany(conn, node, snowflake.ID(companyID), log)
				}),
			)
			if err := app.Err(); err != nil {
				return err
			}
			return runOnce(cmd.Context(), app)
		},
	}

	cmd.Flags().Int64Var(&companyID, "company", 0, "company id to seed (required)")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

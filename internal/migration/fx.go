package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/partita/internal/config"
	"github.com/smallbiznis/partita/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, log *zap.Logger) error {
		if err := Run(conn); err != nil {
			return err
		}
		if cfg.DefaultCompanyID == 0 {
			return nil
		}
		return seed.EnsureCompany(conn, node, snowflake.ID(cfg.DefaultCompanyID), log)
	}),
)

package tax

import (
	"github.com/smallbiznis/partita/internal/tax/repository"
	"github.com/smallbiznis/partita/internal/tax/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tax.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewResolver),
	fx.Provide(service.NewService),
)

package accountingfunction

import (
	"github.com/smallbiznis/partita/internal/accountingfunction/repository"
	"github.com/smallbiznis/partita/internal/accountingfunction/service"
	"go.uber.org/fx"
)

var Module = fx.Module("accountingfunction.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package vatregister

import (
	"github.com/smallbiznis/partita/internal/vatregister/repository"
	"github.com/smallbiznis/partita/internal/vatregister/service"
	"go.uber.org/fx"
)

var Module = fx.Module("vatregister.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

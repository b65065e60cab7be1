package openitem

import (
	"github.com/smallbiznis/partita/internal/openitem/repository"
	"github.com/smallbiznis/partita/internal/openitem/service"
	"go.uber.org/fx"
)

var Module = fx.Module("openitem.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

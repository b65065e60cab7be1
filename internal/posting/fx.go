package posting

import (
	"github.com/smallbiznis/partita/internal/posting/repository"
	"github.com/smallbiznis/partita/internal/posting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("posting.service",
	fx.Provide(repository.NewStore),
	fx.Provide(service.New),
)

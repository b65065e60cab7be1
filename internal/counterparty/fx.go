package counterparty

import (
	"github.com/smallbiznis/partita/internal/counterparty/domain"
	"github.com/smallbiznis/partita/internal/counterparty/repository"
	"github.com/smallbiznis/partita/internal/counterparty/service"
	"go.uber.org/fx"
)

var Module = fx.Module("counterparty.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(repo domain.Repository) domain.Directory { return service.NewDirectory(repo) }),
)

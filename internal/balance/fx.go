package balance

import (
	"github.com/smallbiznis/patungan/internal/balance/repository"
	balanceservice "github.com/smallbiznis/patungan/internal/balance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("balance.service",
	fx.Provide(repository.Provide),
	fx.Provide(balanceservice.NewService),
)

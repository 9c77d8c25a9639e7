package charge

import (
	"github.com/smallbiznis/patungan/internal/charge/repository"
	chargeservice "github.com/smallbiznis/patungan/internal/charge/service"
	"go.uber.org/fx"
)

var Module = fx.Module("charge.service",
	fx.Provide(repository.Provide),
	fx.Provide(chargeservice.NewService),
)

package payment

import (
	"github.com/smallbiznis/patungan/internal/payment/repository"
	paymentservice "github.com/smallbiznis/patungan/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(paymentservice.NewResolver),
	fx.Provide(paymentservice.NewService),
)

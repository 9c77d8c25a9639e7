package subscription

import (
	"github.com/smallbiznis/patungan/internal/subscription/repository"
	subscriptionservice "github.com/smallbiznis/patungan/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(subscriptionservice.NewService),
)

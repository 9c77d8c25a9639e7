package user

import (
	userdomain "github.com/smallbiznis/patungan/internal/user/domain"
	userservice "github.com/smallbiznis/patungan/internal/user/service"
	"github.com/smallbiznis/patungan/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.ProvideStore[userdomain.User]),
	fx.Provide(userservice.NewService),
)

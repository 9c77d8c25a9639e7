package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/patungan/internal/clock"
	userdomain "github.com/smallbiznis/patungan/internal/user/domain"
	"github.com/smallbiznis/patungan/pkg/db"
	"github.com/smallbiznis/patungan/pkg/db/option"
	"github.com/smallbiznis/patungan/pkg/db/pagination"
	"github.com/smallbiznis/patungan/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Store repository.Repository[userdomain.User]
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	store repository.Repository[userdomain.User]
}

func NewService(p Params) userdomain.Service {
	return &Service{
		log:   p.Log.Named("user.service"),
		genID: p.GenID,
		clock: p.Clock,
		store: p.Store,
	}
}

func (s *Service) Create(ctx context.Context, req *userdomain.CreateUserRequest) (*userdomain.User, error) {
	if req == nil {
		return nil, userdomain.ErrInvalidEmail
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, userdomain.ErrInvalidEmail
	}

	user := &userdomain.User{
		ID:          s.genID.Generate(),
		Email:       email,
		DisplayName: strings.TrimSpace(req.DisplayName),
		CreatedAt:   s.clock.Now(),
	}
	if err := s.store.Create(ctx, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, userdomain.ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*userdomain.User, error) {
	user, err := s.store.FindOne(ctx, &userdomain.User{ID: id})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, userdomain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) List(ctx context.Context, page *pagination.Pagination) ([]*userdomain.User, *pagination.PageInfo, error) {
	if page == nil {
		page = &pagination.Pagination{}
	}
	if page.PageSize < 1 {
		page.PageSize = 10
	}

	opts := []option.QueryOption{
		option.WithOrderBy("id ASC"),
		option.WithLimit(page.PageSize + 1),
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, option.WithWhere("id > ?", cursor.ID))
	}

	users, err := s.store.Find(ctx, &userdomain.User{}, opts...)
	if err != nil {
		return nil, nil, err
	}

	info := pagination.BuildCursorPageInfo(users, int32(page.PageSize), func(u *userdomain.User) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: u.ID.String()})
		return token
	})
	if info.HasMore {
		users = users[:page.PageSize]
	}
	return users, info, nil
}

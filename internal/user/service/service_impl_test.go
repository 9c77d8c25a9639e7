package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/patungan/internal/clock"
	userdomain "github.com/smallbiznis/patungan/internal/user/domain"
	"github.com/smallbiznis/patungan/pkg/db/pagination"
	"github.com/smallbiznis/patungan/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupUserService(t *testing.T) userdomain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&userdomain.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	return NewService(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewSystemClock(),
		Store: repository.ProvideStore[userdomain.User](db),
	})
}

func TestCreateUserNormalizesEmail(t *testing.T) {
	svc := setupUserService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, &userdomain.CreateUserRequest{
		Email:       "  Andi@Patungan.LOCAL ",
		DisplayName: " Andi ",
	})
	require.NoError(t, err)
	assert.Equal(t, "andi@patungan.local", user.Email)
	assert.Equal(t, "Andi", user.DisplayName)

	got, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
}

func TestCreateUserRejectsInvalidEmail(t *testing.T) {
	svc := setupUserService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &userdomain.CreateUserRequest{Email: "not-an-email"})
	require.ErrorIs(t, err, userdomain.ErrInvalidEmail)

	_, err = svc.Create(ctx, &userdomain.CreateUserRequest{Email: "   "})
	require.ErrorIs(t, err, userdomain.ErrInvalidEmail)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	svc := setupUserService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &userdomain.CreateUserRequest{Email: "budi@patungan.local"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &userdomain.CreateUserRequest{Email: "BUDI@patungan.local"})
	require.ErrorIs(t, err, userdomain.ErrDuplicateEmail)
}

func TestGetUserNotFound(t *testing.T) {
	svc := setupUserService(t)

	_, err := svc.Get(context.Background(), snowflake.ID(42))
	require.ErrorIs(t, err, userdomain.ErrUserNotFound)
}

func TestListUsersPaginates(t *testing.T) {
	svc := setupUserService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, &userdomain.CreateUserRequest{
			Email: fmt.Sprintf("user%d@patungan.local", i),
		})
		require.NoError(t, err)
	}

	first, info, err := svc.List(ctx, &pagination.Pagination{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.True(t, info.HasMore)
	require.NotEmpty(t, info.NextPageToken)

	second, info, err := svc.List(ctx, &pagination.Pagination{PageSize: 2, PageToken: info.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.True(t, second[0].ID > first[1].ID)
	require.True(t, info.HasMore)

	third, info, err := svc.List(ctx, &pagination.Pagination{PageSize: 2, PageToken: info.NextPageToken})
	require.NoError(t, err)
	require.Len(t, third, 1)
	assert.False(t, info.HasMore)
}

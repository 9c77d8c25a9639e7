package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/patungan/pkg/db/pagination"
)

var (
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrDuplicateEmail = errors.New("duplicate_email")
)

type CreateUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type Service interface {
	Create(ctx context.Context, req *CreateUserRequest) (*User, error)
	Get(ctx context.Context, id snowflake.ID) (*User, error)
	List(ctx context.Context, page *pagination.Pagination) ([]*User, *pagination.PageInfo, error)
}

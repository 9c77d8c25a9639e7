package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, p *Payment) error
	Update(ctx context.Context, db *gorm.DB, p *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	// FindByIDForUpdate locks the payment row before the status check so
	// concurrent transitions serialize instead of double-applying.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Payment, error)
	// HasPendingOnDate reports whether the user already has a PENDING
	// payment scheduled on date, optionally ignoring one payment id.
	HasPendingOnDate(ctx context.Context, db *gorm.DB, userID snowflake.ID, date time.Time, excludeID *snowflake.ID) (bool, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Payment, error)
	ListByCharge(ctx context.Context, db *gorm.DB, chargeID snowflake.ID) ([]Payment, error)
}

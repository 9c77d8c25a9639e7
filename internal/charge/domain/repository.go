package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, charge *Charge) error
	Update(ctx context.Context, db *gorm.DB, charge *Charge) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Charge, error)
	ListBySubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]Charge, error)
	// LastPeriodEnd returns the latest period_end among the subscription's
	// charges, or nil when none have been generated yet.
	LastPeriodEnd(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) (*time.Time, error)
	// HasOverlap reports whether any existing charge period intersects
	// [start, end], both bounds inclusive.
	HasOverlap(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, start, end time.Time) (bool, error)

	InsertShares(ctx context.Context, db *gorm.DB, shares []ChargeShare) error
	UpdateShare(ctx context.Context, db *gorm.DB, s *ChargeShare) error
	FindShare(ctx context.Context, db *gorm.DB, chargeID, userID snowflake.ID) (*ChargeShare, error)
	// FindShareForUpdate locks the share row for the surrounding transaction.
	FindShareForUpdate(ctx context.Context, tx *gorm.DB, chargeID, userID snowflake.ID) (*ChargeShare, error)
	SharesByCharge(ctx context.Context, db *gorm.DB, chargeID snowflake.ID) ([]ChargeShare, error)
}

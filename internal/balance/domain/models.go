// Package domain contains the read-only balance aggregates.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Totals is a due/paid aggregation over charge shares. Balance is always
// TotalDue minus TotalPaid.
type Totals struct {
	TotalDue  decimal.Decimal `json:"total_due"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	Balance   decimal.Decimal `json:"balance"`
}

// ShareRow is one charge share with its parent charge's period attached,
// as read by the aggregation queries.
type ShareRow struct {
	UserID      snowflake.ID    `gorm:"column:user_id"`
	AmountDue   decimal.Decimal `gorm:"column:amount_due"`
	AmountPaid  decimal.Decimal `gorm:"column:amount_paid"`
	PeriodStart time.Time       `gorm:"column:period_start"`
}

type Repository interface {
	// SharesForUser returns the user's shares on non-cancelled charges,
	// optionally limited to charges whose period starts on or before asOf.
	SharesForUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, asOf *time.Time) ([]ShareRow, error)
	// SharesForSubscription returns every share on the subscription's
	// non-cancelled charges, with the same optional cutoff.
	SharesForSubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, asOf *time.Time) ([]ShareRow, error)
}

type Service interface {
	ForUser(ctx context.Context, userID snowflake.ID, asOf *time.Time) (*Totals, error)
	ForSubscription(ctx context.Context, subscriptionID snowflake.ID, asOf *time.Time) (*Totals, error)
}

package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// GenerateForSubscription creates every missing charge whose period ends
	// on or before until, together with its shares. Periods that would
	// overlap an existing charge are skipped; only newly created charges are
	// returned.
	GenerateForSubscription(ctx context.Context, subscriptionID snowflake.ID, until time.Time) ([]Charge, error)

	Get(ctx context.Context, id snowflake.ID) (*Charge, error)
	ListBySubscription(ctx context.Context, subscriptionID snowflake.ID) ([]Charge, error)
	Shares(ctx context.Context, chargeID snowflake.ID) ([]ChargeShare, error)

	// Cancel marks a charge CANCELLED. Only charges with no recorded
	// payments on any share can be cancelled.
	Cancel(ctx context.Context, id snowflake.ID) (*Charge, error)
}

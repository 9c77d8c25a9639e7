package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreatePaymentRequest struct {
	UserID        snowflake.ID    `json:"user_id"`
	ChargeID      *snowflake.ID   `json:"charge_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	ScheduledDate time.Time       `json:"scheduled_date"`
	CreatedBy     snowflake.ID    `json:"created_by"`
}

// Service owns the payment state machine. Verify and Revert mutate the
// matched charge share inside the same transaction as the payment update.
type Service interface {
	Create(ctx context.Context, req *CreatePaymentRequest) (*Payment, error)
	Get(ctx context.Context, id snowflake.ID) (*Payment, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]Payment, error)

	// Reschedule moves a PENDING payment to a conflict-free date at or
	// after newDate.
	Reschedule(ctx context.Context, id snowflake.ID, newDate time.Time) (*Payment, error)

	Verify(ctx context.Context, id, verifierID snowflake.ID, reference *string) (*Payment, error)
	Revert(ctx context.Context, id snowflake.ID) error
	Cancel(ctx context.Context, id, actorID snowflake.ID) (*Payment, error)
}

// ConflictResolver suggests a free scheduled date for a user's payment. The
// partial unique index on pending payments stays the authoritative guard;
// the resolver only probes.
type ConflictResolver interface {
	HasConflict(ctx context.Context, userID snowflake.ID, date time.Time) (bool, error)
	ResolveDateConflicts(ctx context.Context, userID snowflake.ID, proposed time.Time, excludeID *snowflake.ID) (time.Time, error)
}

package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateSubscriptionRequest struct {
	OwnerID      snowflake.ID       `json:"owner_id"`
	Title        string             `json:"title"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	Currency     string             `json:"currency"`
	BillingDay   int                `json:"billing_day"`
	StartDate    time.Time          `json:"start_date"`
	EndDate      *time.Time         `json:"end_date,omitempty"`
	Metadata     map[string]any     `json:"metadata,omitempty"`
	Participants []ParticipantInput `json:"participants,omitempty"`
}

type ParticipantInput struct {
	UserID     snowflake.ID     `json:"user_id"`
	ShareType  ShareType        `json:"share_type"`
	ShareValue *decimal.Decimal `json:"share_value,omitempty"`
}

type Service interface {
	Create(ctx context.Context, req *CreateSubscriptionRequest) (*Subscription, error)
	Get(ctx context.Context, id snowflake.ID) (*Subscription, error)
	ListActive(ctx context.Context, asOf time.Time) ([]Subscription, error)
	Deactivate(ctx context.Context, id snowflake.ID) error

	AddParticipant(ctx context.Context, subscriptionID snowflake.ID, input *ParticipantInput) (*Participant, error)
	RemoveParticipant(ctx context.Context, subscriptionID, userID snowflake.ID) error
	Participants(ctx context.Context, subscriptionID snowflake.ID) ([]Participant, error)
}

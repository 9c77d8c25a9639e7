// Package domain contains persistence models for shared subscriptions and
// their participants.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Frequency is the billing cadence of a subscription.
type Frequency string

const (
	FrequencyMonthly Frequency = "MONTHLY"
)

// ShareType selects how a participant's portion of a charge is computed.
type ShareType string

const (
	ShareTypeEqual  ShareType = "EQUAL"
	ShareTypeCustom ShareType = "CUSTOM"
)

// Subscription is a shared recurring expense owned by one user and split
// among its participants.
type Subscription struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	OwnerID     snowflake.ID      `json:"owner_id" gorm:"not null;index"`
	Title       string            `json:"title" gorm:"type:text;not null"`
	TotalAmount decimal.Decimal   `json:"total_amount" gorm:"type:numeric(20,2);not null"`
	Currency    string            `json:"currency" gorm:"type:text;not null"`
	BillingDay  int               `json:"billing_day" gorm:"type:smallint;not null"`
	Frequency   Frequency         `json:"frequency" gorm:"type:text;not null;default:'MONTHLY'"`
	StartDate   time.Time         `json:"start_date" gorm:"not null"`
	EndDate     *time.Time        `json:"end_date,omitempty" gorm:""`
	IsActive    bool              `json:"is_active" gorm:"not null;default:true"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// Participant is a user's inclusion in a subscription together with the
// rule used to compute their share of each charge. share_value is only
// meaningful for CUSTOM participants.
type Participant struct {
	ID             snowflake.ID     `json:"id" gorm:"primaryKey"`
	SubscriptionID snowflake.ID     `json:"subscription_id" gorm:"not null;index;uniqueIndex:ux_participant,priority:1"`
	UserID         snowflake.ID     `json:"user_id" gorm:"not null;uniqueIndex:ux_participant,priority:2"`
	ShareType      ShareType        `json:"share_type" gorm:"type:text;not null"`
	ShareValue     *decimal.Decimal `json:"share_value,omitempty" gorm:"type:numeric(20,2)"`
	IsActive       bool             `json:"is_active" gorm:"not null;default:true"`
	CreatedAt      time.Time        `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time        `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Participant) TableName() string { return "participants" }

// Package domain contains the periodic charge and per-user share models.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type ChargeStatus string

const (
	ChargeStatusPending   ChargeStatus = "PENDING"
	ChargeStatusGenerated ChargeStatus = "GENERATED"
	ChargeStatusCancelled ChargeStatus = "CANCELLED"
)

type ShareStatus string

const (
	ShareStatusOpen    ShareStatus = "OPEN"
	ShareStatusSettled ShareStatus = "SETTLED"
)

// Charge is one billing period of a subscription. Period bounds are
// inclusive dates; amount_total is immutable after creation.
type Charge struct {
	ID             snowflake.ID    `json:"id" gorm:"primaryKey"`
	SubscriptionID snowflake.ID    `json:"subscription_id" gorm:"not null;index;uniqueIndex:ux_charge_period,priority:1"`
	PeriodStart    time.Time       `json:"period_start" gorm:"not null;uniqueIndex:ux_charge_period,priority:2"`
	PeriodEnd      time.Time       `json:"period_end" gorm:"not null;uniqueIndex:ux_charge_period,priority:3"`
	AmountTotal    decimal.Decimal `json:"amount_total" gorm:"type:numeric(20,2);not null"`
	Status         ChargeStatus    `json:"status" gorm:"type:text;not null;default:'GENERATED'"`
	CreatedAt      time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Charge) TableName() string { return "charges" }

// ChargeShare is one participant's slice of a charge. amount_paid never
// exceeds amount_due and never goes negative; only payment verification and
// reversal touch it.
type ChargeShare struct {
	ID         snowflake.ID    `json:"id" gorm:"primaryKey"`
	ChargeID   snowflake.ID    `json:"charge_id" gorm:"not null;uniqueIndex:ux_charge_share,priority:1"`
	UserID     snowflake.ID    `json:"user_id" gorm:"not null;index;uniqueIndex:ux_charge_share,priority:2"`
	AmountDue  decimal.Decimal `json:"amount_due" gorm:"type:numeric(20,2);not null"`
	AmountPaid decimal.Decimal `json:"amount_paid" gorm:"type:numeric(20,2);not null"`
	Status     ShareStatus     `json:"status" gorm:"type:text;not null;default:'OPEN'"`
	CreatedAt  time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ChargeShare) TableName() string { return "charge_shares" }

var (
	ErrChargeNotFound      = errors.New("charge_not_found")
	ErrChargeShareNotFound = errors.New("charge_share_not_found")
	ErrChargeNotCancelable = errors.New("charge_not_cancelable")
	ErrInvalidPeriod       = errors.New("invalid_period")
)

// Package domain contains the payment model and its state machine contract.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusVerified  PaymentStatus = "VERIFIED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// Payment is a participant's scheduled settlement. charge_id is optional; a
// payment without one transitions states but never touches a charge share.
type Payment struct {
	ID                    snowflake.ID    `json:"id" gorm:"primaryKey"`
	UserID                snowflake.ID    `json:"user_id" gorm:"not null;index"`
	ChargeID              *snowflake.ID   `json:"charge_id,omitempty" gorm:"index"`
	Amount                decimal.Decimal `json:"amount" gorm:"type:numeric(20,2);not null"`
	Currency              string          `json:"currency" gorm:"type:text;not null"`
	ScheduledDate         time.Time       `json:"scheduled_date" gorm:"not null"`
	Status                PaymentStatus   `json:"status" gorm:"type:text;not null;default:'PENDING'"`
	CreatedBy             snowflake.ID    `json:"created_by" gorm:"not null"`
	VerifiedBy            *snowflake.ID   `json:"verified_by,omitempty"`
	VerifiedAt            *time.Time      `json:"verified_at,omitempty"`
	VerificationReference *string         `json:"verification_reference,omitempty" gorm:"type:text"`
	CreatedAt             time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt             time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Payment) TableName() string { return "payments" }

var (
	ErrPaymentNotFound             = errors.New("payment_not_found")
	ErrInvalidAmount               = errors.New("invalid_amount")
	ErrInvalidCurrency             = errors.New("invalid_currency")
	ErrInvalidScheduledDate        = errors.New("invalid_scheduled_date")
	ErrInvalidStateTransition      = errors.New("invalid_state_transition")
	ErrSelfVerificationForbidden   = errors.New("self_verification_forbidden")
	ErrPaymentExceedsAmountDue     = errors.New("payment_exceeds_amount_due")
	ErrDuplicateScheduledDate      = errors.New("duplicate_scheduled_date")
	ErrNoAvailableDateWithinWindow = errors.New("no_available_date_within_window")
)

package domain

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrSubscriptionInactive = errors.New("subscription_inactive")
	ErrInvalidTitle         = errors.New("invalid_title")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidCurrency      = errors.New("invalid_currency")
	ErrInvalidBillingDay    = errors.New("invalid_billing_day")
	ErrInvalidShareValue    = errors.New("invalid_share_value")
	ErrDuplicateParticipant = errors.New("duplicate_participant")
	ErrParticipantNotFound  = errors.New("participant_not_found")
)

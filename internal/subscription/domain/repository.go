package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sub *Subscription) error
	Update(ctx context.Context, db *gorm.DB, sub *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	// FindByIDForUpdate locks the subscription row for the duration of the
	// surrounding transaction.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Subscription, error)
	ListActive(ctx context.Context, db *gorm.DB, asOf time.Time) ([]Subscription, error)

	InsertParticipant(ctx context.Context, db *gorm.DB, p *Participant) error
	UpdateParticipant(ctx context.Context, db *gorm.DB, p *Participant) error
	FindParticipant(ctx context.Context, db *gorm.DB, subscriptionID, userID snowflake.ID) (*Participant, error)
	ActiveParticipants(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]Participant, error)
}

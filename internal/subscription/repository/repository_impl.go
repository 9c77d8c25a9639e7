package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/patungan/internal/subscription/domain"
	"github.com/smallbiznis/patungan/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, sub *domain.Subscription) error {
	return conn.WithContext(ctx).Create(sub).Error
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, sub *domain.Subscription) error {
	return conn.WithContext(ctx).Save(sub).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	var item domain.Subscription
	err := conn.WithContext(ctx).
		Where("id = ?", id).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	var item domain.Subscription
	err := db.ForUpdate(tx.WithContext(ctx)).
		Where("id = ?", id).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repo) ListActive(ctx context.Context, conn *gorm.DB, asOf time.Time) ([]domain.Subscription, error) {
	var items []domain.Subscription
	err := conn.WithContext(ctx).
		Where("is_active = ?", true).
		Where("start_date <= ?", asOf).
		Where("end_date IS NULL OR end_date >= ?", asOf).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) InsertParticipant(ctx context.Context, conn *gorm.DB, p *domain.Participant) error {
	return conn.WithContext(ctx).Create(p).Error
}

func (r *repo) UpdateParticipant(ctx context.Context, conn *gorm.DB, p *domain.Participant) error {
	return conn.WithContext(ctx).Save(p).Error
}

func (r *repo) FindParticipant(ctx context.Context, conn *gorm.DB, subscriptionID, userID snowflake.ID) (*domain.Participant, error) {
	var item domain.Participant
	err := conn.WithContext(ctx).
		Where("subscription_id = ? AND user_id = ?", subscriptionID, userID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repo) ActiveParticipants(ctx context.Context, conn *gorm.DB, subscriptionID snowflake.ID) ([]domain.Participant, error) {
	var items []domain.Participant
	err := conn.WithContext(ctx).
		Where("subscription_id = ? AND is_active = ?", subscriptionID, true).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

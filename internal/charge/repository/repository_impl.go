package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/patungan/internal/charge/domain"
	"github.com/smallbiznis/patungan/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, charge *domain.Charge) error {
	return conn.WithContext(ctx).Create(charge).Error
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, charge *domain.Charge) error {
	return conn.WithContext(ctx).Save(charge).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Charge, error) {
	var item domain.Charge
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

func (r *repo) ListBySubscription(ctx context.Context, conn *gorm.DB, subscriptionID snowflake.ID) ([]domain.Charge, error) {
	var items []domain.Charge
	err := conn.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("period_start ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) LastPeriodEnd(ctx context.Context, conn *gorm.DB, subscriptionID snowflake.ID) (*time.Time, error) {
	var item domain.Charge
	err := conn.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("period_end DESC").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	end := item.PeriodEnd
	return &end, nil
}

func (r *repo) HasOverlap(ctx context.Context, conn *gorm.DB, subscriptionID snowflake.ID, start, end time.Time) (bool, error) {
	var count int64
	err := conn.WithContext(ctx).
		Model(&domain.Charge{}).
		Where("subscription_id = ?", subscriptionID).
		Where("period_start <= ? AND period_end >= ?", end, start).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) InsertShares(ctx context.Context, conn *gorm.DB, shares []domain.ChargeShare) error {
	if len(shares) == 0 {
		return nil
	}
	return conn.WithContext(ctx).Create(&shares).Error
}

func (r *repo) UpdateShare(ctx context.Context, conn *gorm.DB, s *domain.ChargeShare) error {
	return conn.WithContext(ctx).Save(s).Error
}

func (r *repo) FindShare(ctx context.Context, conn *gorm.DB, chargeID, userID snowflake.ID) (*domain.ChargeShare, error) {
	var item domain.ChargeShare
	err := conn.WithContext(ctx).
		Where("charge_id = ? AND user_id = ?", chargeID, userID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repo) FindShareForUpdate(ctx context.Context, tx *gorm.DB, chargeID, userID snowflake.ID) (*domain.ChargeShare, error) {
	var item domain.ChargeShare
	err := db.ForUpdate(tx.WithContext(ctx)).
		Where("charge_id = ? AND user_id = ?", chargeID, userID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repo) SharesByCharge(ctx context.Context, conn *gorm.DB, chargeID snowflake.ID) ([]domain.ChargeShare, error) {
	var items []domain.ChargeShare
	err := conn.WithContext(ctx).
		Where("charge_id = ?", chargeID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

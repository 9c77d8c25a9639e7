package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/patungan/internal/payment/domain"
	"github.com/smallbiznis/patungan/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, p *domain.Payment) error {
	return conn.WithContext(ctx).Create(p).Error
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, p *domain.Payment) error {
	return conn.WithContext(ctx).Save(p).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var item domain.Payment
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

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var item domain.Payment
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

func (r *repo) HasPendingOnDate(ctx context.Context, conn *gorm.DB, userID snowflake.ID, date time.Time, excludeID *snowflake.ID) (bool, error) {
	q := conn.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("user_id = ?", userID).
		Where("scheduled_date = ?", date).
		Where("status = ?", domain.PaymentStatusPending)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ListByUser(ctx context.Context, conn *gorm.DB, userID snowflake.ID) ([]domain.Payment, error) {
	var items []domain.Payment
	err := conn.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("scheduled_date ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByCharge(ctx context.Context, conn *gorm.DB, chargeID snowflake.ID) ([]domain.Payment, error) {
	var items []domain.Payment
	err := conn.WithContext(ctx).
		Where("charge_id = ?", chargeID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

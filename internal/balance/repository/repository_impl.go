package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/patungan/internal/balance/domain"
	chargedomain "github.com/smallbiznis/patungan/internal/charge/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) SharesForUser(ctx context.Context, conn *gorm.DB, userID snowflake.ID, asOf *time.Time) ([]domain.ShareRow, error) {
	var rows []domain.ShareRow
	q := conn.WithContext(ctx).
		Table("charge_shares").
		Select("charge_shares.user_id, charge_shares.amount_due, charge_shares.amount_paid, charges.period_start").
		Joins("JOIN charges ON charges.id = charge_shares.charge_id").
		Where("charge_shares.user_id = ?", userID).
		Where("charges.status <> ?", chargedomain.ChargeStatusCancelled)
	if asOf != nil {
		q = q.Where("charges.period_start <= ?", *asOf)
	}
	if err := q.Order("charges.period_start ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) SharesForSubscription(ctx context.Context, conn *gorm.DB, subscriptionID snowflake.ID, asOf *time.Time) ([]domain.ShareRow, error) {
	var rows []domain.ShareRow
	q := conn.WithContext(ctx).
		Table("charge_shares").
		Select("charge_shares.user_id, charge_shares.amount_due, charge_shares.amount_paid, charges.period_start").
		Joins("JOIN charges ON charges.id = charge_shares.charge_id").
		Where("charges.subscription_id = ?", subscriptionID).
		Where("charges.status <> ?", chargedomain.ChargeStatusCancelled)
	if asOf != nil {
		q = q.Where("charges.period_start <= ?", *asOf)
	}
	if err := q.Order("charges.period_start ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	balancedomain "github.com/smallbiznis/patungan/internal/balance/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo balancedomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo balancedomain.Repository
}

func NewService(p Params) balancedomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("balance.service"),
		repo: p.Repo,
	}
}

func (s *Service) ForUser(ctx context.Context, userID snowflake.ID, asOf *time.Time) (*balancedomain.Totals, error) {
	rows, err := s.repo.SharesForUser(ctx, s.db, userID, normalize(asOf))
	if err != nil {
		return nil, err
	}
	return aggregate(rows), nil
}

func (s *Service) ForSubscription(ctx context.Context, subscriptionID snowflake.ID, asOf *time.Time) (*balancedomain.Totals, error) {
	rows, err := s.repo.SharesForSubscription(ctx, s.db, subscriptionID, normalize(asOf))
	if err != nil {
		return nil, err
	}
	return aggregate(rows), nil
}

// aggregate sums in Go so decimal precision never depends on the database
// driver's numeric handling. An empty row set yields zeros.
func aggregate(rows []balancedomain.ShareRow) *balancedomain.Totals {
	due := decimal.Zero
	paid := decimal.Zero
	for _, row := range rows {
		due = due.Add(row.AmountDue)
		paid = paid.Add(row.AmountPaid)
	}
	return &balancedomain.Totals{
		TotalDue:  due,
		TotalPaid: paid,
		Balance:   due.Sub(paid),
	}
}

func normalize(asOf *time.Time) *time.Time {
	if asOf == nil {
		return nil
	}
	t := asOf.UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

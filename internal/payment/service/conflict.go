package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/patungan/internal/config"
	obsmetrics "github.com/smallbiznis/patungan/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/patungan/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ResolverParams struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       paymentdomain.Repository
	Billing    *config.BillingConfigHolder
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Resolver struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       paymentdomain.Repository
	billing    *config.BillingConfigHolder
	obsMetrics *obsmetrics.Metrics
}

func NewResolver(p ResolverParams) paymentdomain.ConflictResolver {
	return &Resolver{
		db:         p.DB,
		log:        p.Log.Named("payment.resolver"),
		repo:       p.Repo,
		billing:    p.Billing,
		obsMetrics: p.ObsMetrics,
	}
}

func (r *Resolver) HasConflict(ctx context.Context, userID snowflake.ID, date time.Time) (bool, error) {
	return r.repo.HasPendingOnDate(ctx, r.db, userID, dateOf(date), nil)
}

// ResolveDateConflicts returns proposed when it is free, otherwise the first
// free date found by probing one day at a time within the configured window.
// The probing is advisory; the pending-payment unique index catches the race
// where two callers settle on the same date.
func (r *Resolver) ResolveDateConflicts(ctx context.Context, userID snowflake.ID, proposed time.Time, excludeID *snowflake.ID) (time.Time, error) {
	proposed = dateOf(proposed)
	window := r.billing.Current().ConflictWindowDays

	for offset := 0; offset <= window; offset++ {
		candidate := proposed.AddDate(0, 0, offset)
		conflict, err := r.repo.HasPendingOnDate(ctx, r.db, userID, candidate, excludeID)
		if err != nil {
			return time.Time{}, err
		}
		if conflict {
			continue
		}
		if offset > 0 {
			if r.obsMetrics != nil {
				r.obsMetrics.IncScheduleConflict()
			}
			r.log.Info("scheduled date moved off conflict",
				zap.String("user_id", userID.String()),
				zap.Time("proposed", proposed),
				zap.Time("resolved", candidate))
		}
		return candidate, nil
	}
	return time.Time{}, paymentdomain.ErrNoAvailableDateWithinWindow
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

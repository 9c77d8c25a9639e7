package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	chargedomain "github.com/smallbiznis/patungan/internal/charge/domain"
	"github.com/smallbiznis/patungan/internal/clock"
	obsmetrics "github.com/smallbiznis/patungan/internal/observability/metrics"
	"github.com/smallbiznis/patungan/internal/share"
	subscriptiondomain "github.com/smallbiznis/patungan/internal/subscription/domain"
	"github.com/smallbiznis/patungan/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       chargedomain.Repository
	SubRepo    subscriptiondomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       chargedomain.Repository
	subRepo    subscriptiondomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) chargedomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("charge.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		subRepo:    p.SubRepo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) GenerateForSubscription(ctx context.Context, subscriptionID snowflake.ID, until time.Time) ([]chargedomain.Charge, error) {
	if until.IsZero() {
		return nil, chargedomain.ErrInvalidPeriod
	}
	until = dateOf(until)

	sub, err := s.subRepo.FindByID(ctx, s.db, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	if !sub.IsActive {
		return nil, subscriptiondomain.ErrSubscriptionInactive
	}

	participants, err := s.subRepo.ActiveParticipants(ctx, s.db, subscriptionID)
	if err != nil {
		return nil, err
	}
	members, err := share.MembersFromParticipants(participants)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, share.ErrNoActiveParticipants
	}

	genStart, err := s.generationStart(ctx, sub)
	if err != nil {
		return nil, err
	}

	var created []chargedomain.Charge
	anchor := firstAnchorOnOrAfter(genStart, sub.BillingDay)
	for {
		periodEnd := periodEndFor(anchor, sub.BillingDay)
		if periodEnd.After(until) {
			break
		}
		if sub.EndDate != nil && periodEnd.After(dateOf(*sub.EndDate)) {
			break
		}

		charge, err := s.createPeriod(ctx, sub, members, anchor, periodEnd)
		if err != nil {
			return nil, err
		}
		if charge != nil {
			created = append(created, *charge)
		}
		anchor = periodEnd.AddDate(0, 0, 1)
	}

	if len(created) > 0 {
		s.log.Info("charges generated",
			zap.String("subscription_id", subscriptionID.String()),
			zap.Int("count", len(created)))
	}
	return created, nil
}

// generationStart is the day after the last generated period, or the
// subscription start when nothing has been generated yet.
func (s *Service) generationStart(ctx context.Context, sub *subscriptiondomain.Subscription) (time.Time, error) {
	lastEnd, err := s.repo.LastPeriodEnd(ctx, s.db, sub.ID)
	if err != nil {
		return time.Time{}, err
	}
	if lastEnd == nil {
		return dateOf(sub.StartDate), nil
	}
	return dateOf(*lastEnd).AddDate(0, 0, 1), nil
}

// createPeriod writes one charge and its shares in a single transaction.
// Overlapping periods are skipped up front so re-generation stays idempotent;
// a nil charge with nil error marks a skip.
func (s *Service) createPeriod(
	ctx context.Context,
	sub *subscriptiondomain.Subscription,
	members []share.Member,
	periodStart, periodEnd time.Time,
) (*chargedomain.Charge, error) {

	shares, err := share.Compute(members, sub.TotalAmount)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	charge := &chargedomain.Charge{
		ID:             s.genID.Generate(),
		SubscriptionID: sub.ID,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		AmountTotal:    money.Round(sub.TotalAmount),
		Status:         chargedomain.ChargeStatusGenerated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	skipped := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		overlap, err := s.repo.HasOverlap(ctx, tx, sub.ID, periodStart, periodEnd)
		if err != nil {
			return err
		}
		if overlap {
			skipped = true
			return nil
		}

		if err := s.repo.Insert(ctx, tx, charge); err != nil {
			return err
		}

		rows := make([]chargedomain.ChargeShare, 0, len(shares))
		for _, sh := range shares {
			rows = append(rows, chargedomain.ChargeShare{
				ID:         s.genID.Generate(),
				ChargeID:   charge.ID,
				UserID:     sh.UserID,
				AmountDue:  sh.Amount,
				AmountPaid: decimal.Zero,
				Status:     chargedomain.ShareStatusOpen,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}
		return s.repo.InsertShares(ctx, tx, rows)
	})
	if err != nil {
		return nil, err
	}
	if skipped {
		return nil, nil
	}

	if s.obsMetrics != nil {
		s.obsMetrics.IncChargeGenerated(string(sub.Frequency))
	}
	return charge, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*chargedomain.Charge, error) {
	charge, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if charge == nil {
		return nil, chargedomain.ErrChargeNotFound
	}
	return charge, nil
}

func (s *Service) ListBySubscription(ctx context.Context, subscriptionID snowflake.ID) ([]chargedomain.Charge, error) {
	return s.repo.ListBySubscription(ctx, s.db, subscriptionID)
}

func (s *Service) Shares(ctx context.Context, chargeID snowflake.ID) ([]chargedomain.ChargeShare, error) {
	charge, err := s.repo.FindByID(ctx, s.db, chargeID)
	if err != nil {
		return nil, err
	}
	if charge == nil {
		return nil, chargedomain.ErrChargeNotFound
	}
	return s.repo.SharesByCharge(ctx, s.db, chargeID)
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID) (*chargedomain.Charge, error) {
	var out *chargedomain.Charge
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		charge, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if charge == nil {
			return chargedomain.ErrChargeNotFound
		}
		if charge.Status == chargedomain.ChargeStatusCancelled {
			out = charge
			return nil
		}

		shares, err := s.repo.SharesByCharge(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, sh := range shares {
			if sh.AmountPaid.IsPositive() {
				return chargedomain.ErrChargeNotCancelable
			}
		}

		charge.Status = chargedomain.ChargeStatusCancelled
		charge.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, charge); err != nil {
			return err
		}
		out = charge
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

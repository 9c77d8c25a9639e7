package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	chargedomain "github.com/smallbiznis/patungan/internal/charge/domain"
	"github.com/smallbiznis/patungan/internal/clock"
	"github.com/smallbiznis/patungan/internal/config"
	obsmetrics "github.com/smallbiznis/patungan/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/patungan/internal/payment/domain"
	"github.com/smallbiznis/patungan/pkg/db"
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
	Repo       paymentdomain.Repository
	ChargeRepo chargedomain.Repository
	Resolver   paymentdomain.ConflictResolver
	Billing    *config.BillingConfigHolder
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       paymentdomain.Repository
	chargeRepo chargedomain.Repository
	resolver   paymentdomain.ConflictResolver
	billing    *config.BillingConfigHolder
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		chargeRepo: p.ChargeRepo,
		resolver:   p.Resolver,
		billing:    p.Billing,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req *paymentdomain.CreatePaymentRequest) (*paymentdomain.Payment, error) {
	if req == nil {
		return nil, paymentdomain.ErrInvalidAmount
	}
	if !money.IsPositive(req.Amount) {
		return nil, paymentdomain.ErrInvalidAmount
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.billing.Current().DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, paymentdomain.ErrInvalidCurrency
	}

	scheduled, err := s.validateScheduledDate(req.ScheduledDate)
	if err != nil {
		return nil, err
	}

	if req.ChargeID != nil {
		charge, err := s.chargeRepo.FindByID(ctx, s.db, *req.ChargeID)
		if err != nil {
			return nil, err
		}
		if charge == nil {
			return nil, chargedomain.ErrChargeNotFound
		}
	}

	resolved, err := s.resolver.ResolveDateConflicts(ctx, req.UserID, scheduled, nil)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	payment := &paymentdomain.Payment{
		ID:            s.genID.Generate(),
		UserID:        req.UserID,
		ChargeID:      req.ChargeID,
		Amount:        money.Round(req.Amount),
		Currency:      currency,
		ScheduledDate: resolved,
		Status:        paymentdomain.PaymentStatusPending,
		CreatedBy:     req.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, payment); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, paymentdomain.ErrDuplicateScheduledDate
		}
		return nil, err
	}

	s.log.Info("payment scheduled",
		zap.String("payment_id", payment.ID.String()),
		zap.String("user_id", payment.UserID.String()),
		zap.Time("scheduled_date", payment.ScheduledDate))
	return payment, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*paymentdomain.Payment, error) {
	payment, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, paymentdomain.ErrPaymentNotFound
	}
	return payment, nil
}

func (s *Service) ListByUser(ctx context.Context, userID snowflake.ID) ([]paymentdomain.Payment, error) {
	return s.repo.ListByUser(ctx, s.db, userID)
}

func (s *Service) Reschedule(ctx context.Context, id snowflake.ID, newDate time.Time) (*paymentdomain.Payment, error) {
	scheduled, err := s.validateScheduledDate(newDate)
	if err != nil {
		return nil, err
	}

	var out *paymentdomain.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return paymentdomain.ErrPaymentNotFound
		}
		if payment.Status != paymentdomain.PaymentStatusPending {
			return paymentdomain.ErrInvalidStateTransition
		}

		resolved, err := s.resolver.ResolveDateConflicts(ctx, payment.UserID, scheduled, &payment.ID)
		if err != nil {
			return err
		}

		payment.ScheduledDate = resolved
		payment.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, payment); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return paymentdomain.ErrDuplicateScheduledDate
			}
			return err
		}
		out = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Verify(ctx context.Context, id, verifierID snowflake.ID, reference *string) (*paymentdomain.Payment, error) {
	now := s.clock.Now()
	var out *paymentdomain.Payment
	ledgerEffect := false
	settled := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return paymentdomain.ErrPaymentNotFound
		}
		if payment.Status != paymentdomain.PaymentStatusPending {
			return paymentdomain.ErrInvalidStateTransition
		}
		if verifierID == payment.UserID {
			return paymentdomain.ErrSelfVerificationForbidden
		}

		if payment.ChargeID != nil {
			applied, nowSettled, err := s.applyToShare(ctx, tx, payment, now)
			if err != nil {
				return err
			}
			ledgerEffect = applied
			settled = nowSettled
		}

		ref := s.verificationReference(reference)
		payment.Status = paymentdomain.PaymentStatusVerified
		payment.VerifiedBy = &verifierID
		payment.VerifiedAt = &now
		payment.VerificationReference = &ref
		payment.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return err
		}
		out = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.IncPaymentVerified(ledgerEffect)
		if settled {
			s.obsMetrics.IncShareSettled()
		}
	}
	s.log.Info("payment verified",
		zap.String("payment_id", out.ID.String()),
		zap.String("verified_by", verifierID.String()),
		zap.Bool("ledger_effect", ledgerEffect))
	return out, nil
}

// applyToShare adds the payment amount to the matched charge share. A
// payment whose user has no share on the charge transitions without any
// ledger effect.
func (s *Service) applyToShare(ctx context.Context, tx *gorm.DB, payment *paymentdomain.Payment, now time.Time) (applied bool, settled bool, err error) {
	cs, err := s.chargeRepo.FindShareForUpdate(ctx, tx, *payment.ChargeID, payment.UserID)
	if err != nil {
		return false, false, err
	}
	if cs == nil {
		return false, false, nil
	}

	newPaid := cs.AmountPaid.Add(payment.Amount)
	if newPaid.GreaterThan(cs.AmountDue) {
		if !money.WithinTolerance(newPaid, cs.AmountDue) {
			return false, false, paymentdomain.ErrPaymentExceedsAmountDue
		}
		newPaid = cs.AmountDue
	}

	wasSettled := cs.Status == chargedomain.ShareStatusSettled
	cs.AmountPaid = newPaid
	if newPaid.GreaterThanOrEqual(cs.AmountDue) {
		cs.Status = chargedomain.ShareStatusSettled
	} else {
		cs.Status = chargedomain.ShareStatusOpen
	}
	cs.UpdatedAt = now
	if err := s.chargeRepo.UpdateShare(ctx, tx, cs); err != nil {
		return false, false, err
	}
	return true, !wasSettled && cs.Status == chargedomain.ShareStatusSettled, nil
}

func (s *Service) Revert(ctx context.Context, id snowflake.ID) error {
	now := s.clock.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return paymentdomain.ErrPaymentNotFound
		}
		if payment.Status != paymentdomain.PaymentStatusVerified {
			return paymentdomain.ErrInvalidStateTransition
		}

		if payment.ChargeID != nil {
			cs, err := s.chargeRepo.FindShareForUpdate(ctx, tx, *payment.ChargeID, payment.UserID)
			if err != nil {
				return err
			}
			if cs != nil {
				cs.AmountPaid = money.ClampNonNegative(cs.AmountPaid.Sub(payment.Amount))
				if cs.AmountPaid.GreaterThanOrEqual(cs.AmountDue) {
					cs.Status = chargedomain.ShareStatusSettled
				} else {
					cs.Status = chargedomain.ShareStatusOpen
				}
				cs.UpdatedAt = now
				if err := s.chargeRepo.UpdateShare(ctx, tx, cs); err != nil {
					return err
				}
			}
		}

		payment.Status = paymentdomain.PaymentStatusPending
		payment.VerifiedBy = nil
		payment.VerifiedAt = nil
		payment.VerificationReference = nil
		payment.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, payment); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return paymentdomain.ErrDuplicateScheduledDate
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.IncPaymentReverted()
	}
	s.log.Info("payment reverted", zap.String("payment_id", id.String()))
	return nil
}

func (s *Service) Cancel(ctx context.Context, id, actorID snowflake.ID) (*paymentdomain.Payment, error) {
	var out *paymentdomain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return paymentdomain.ErrPaymentNotFound
		}
		if payment.Status != paymentdomain.PaymentStatusPending {
			return paymentdomain.ErrInvalidStateTransition
		}

		payment.Status = paymentdomain.PaymentStatusCancelled
		payment.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return err
		}
		out = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.IncPaymentCancelled()
	}
	s.log.Info("payment cancelled",
		zap.String("payment_id", out.ID.String()),
		zap.String("actor_id", actorID.String()))
	return out, nil
}

// validateScheduledDate normalizes to a UTC date and rejects past dates and
// dates beyond the configured scheduling horizon.
func (s *Service) validateScheduledDate(t time.Time) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, paymentdomain.ErrInvalidScheduledDate
	}
	scheduled := dateOf(t)
	today := dateOf(s.clock.Now())
	if scheduled.Before(today) {
		return time.Time{}, paymentdomain.ErrInvalidScheduledDate
	}
	horizon := today.AddDate(0, 0, s.billing.Current().MaxScheduleAheadDays)
	if scheduled.After(horizon) {
		return time.Time{}, paymentdomain.ErrInvalidScheduledDate
	}
	return scheduled, nil
}

func (s *Service) verificationReference(reference *string) string {
	if reference != nil {
		if ref := strings.TrimSpace(*reference); ref != "" {
			return ref
		}
	}
	return ulid.Make().String()
}

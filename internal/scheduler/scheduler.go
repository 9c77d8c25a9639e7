// Package scheduler sweeps active subscriptions and asks the charge
// generator to materialize upcoming billing periods.
package scheduler

import (
	"context"
	"errors"
	"time"

	chargedomain "github.com/smallbiznis/patungan/internal/charge/domain"
	"github.com/smallbiznis/patungan/internal/clock"
	"github.com/smallbiznis/patungan/internal/config"
	"github.com/smallbiznis/patungan/internal/lock"
	"github.com/smallbiznis/patungan/internal/share"
	subscriptiondomain "github.com/smallbiznis/patungan/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const generationLockKey = "patungan:scheduler:charge_generation"

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

type Params struct {
	fx.In

	Log             *zap.Logger
	Clock           clock.Clock
	SubscriptionSvc subscriptiondomain.Service
	ChargeSvc       chargedomain.Service
	Billing         *config.BillingConfigHolder
	Locker          *lock.Locker `optional:"true"`
	Config          Config       `optional:"true"`
}

type Scheduler struct {
	log             *zap.Logger
	cfg             Config
	clock           clock.Clock
	subscriptionSvc subscriptiondomain.Service
	chargeSvc       chargedomain.Service
	billing         *config.BillingConfigHolder
	locker          *lock.Locker
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.SubscriptionSvc == nil || p.ChargeSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:             p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:             p.Config.withDefaults(),
		clock:           p.Clock,
		subscriptionSvc: p.SubscriptionSvc,
		chargeSvc:       p.ChargeSvc,
		billing:         p.Billing,
		locker:          p.Locker,
	}, nil
}

// RunOnce performs one generation sweep. Per-subscription failures are
// logged and skipped so one bad subscription cannot stall the rest.
func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, generationLockKey, s.cfg.LockTTL)
		if err != nil {
			return err
		}
		if !ok {
			s.log.Debug("generation sweep already running elsewhere")
			return nil
		}
		defer func() {
			if err := s.locker.Release(ctx, generationLockKey, token); err != nil {
				s.log.Warn("failed to release generation lock", zap.Error(err))
			}
		}()
	}

	now := s.clock.Now()
	until := now.AddDate(0, s.billing.Current().GenerateHorizonMonths, 0)

	subs, err := s.subscriptionSvc.ListActive(ctx, now)
	if err != nil {
		return err
	}
	if len(subs) > s.cfg.BatchSize {
		subs = subs[:s.cfg.BatchSize]
	}

	generated := 0
	for i := range subs {
		sub := subs[i]
		charges, err := s.chargeSvc.GenerateForSubscription(ctx, sub.ID, until)
		if errors.Is(err, share.ErrNoActiveParticipants) {
			s.log.Warn("subscription has no active participants",
				zap.String("subscription_id", sub.ID.String()))
			continue
		}
		if err != nil {
			s.log.Error("charge generation failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
			continue
		}
		generated += len(charges)
	}

	s.log.Info("generation sweep finished",
		zap.Int("subscriptions", len(subs)),
		zap.Int("charges_generated", generated))
	return nil
}

// RunForever sweeps immediately and then on every tick until ctx ends.
func (s *Scheduler) RunForever(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		s.log.Error("generation sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.log.Error("generation sweep failed", zap.Error(err))
			}
		}
	}
}

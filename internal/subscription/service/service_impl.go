package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/patungan/internal/clock"
	"github.com/smallbiznis/patungan/internal/config"
	subscriptiondomain "github.com/smallbiznis/patungan/internal/subscription/domain"
	"github.com/smallbiznis/patungan/pkg/db"
	"github.com/smallbiznis/patungan/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    subscriptiondomain.Repository
	Billing *config.BillingConfigHolder
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    subscriptiondomain.Repository
	billing *config.BillingConfigHolder
}

func NewService(p Params) subscriptiondomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("subscription.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		billing: p.Billing,
	}
}

func (s *Service) Create(ctx context.Context, req *subscriptiondomain.CreateSubscriptionRequest) (*subscriptiondomain.Subscription, error) {
	if req == nil {
		return nil, subscriptiondomain.ErrInvalidTitle
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, subscriptiondomain.ErrInvalidTitle
	}
	if !money.IsPositive(req.TotalAmount) {
		return nil, subscriptiondomain.ErrInvalidAmount
	}
	if req.BillingDay < 1 || req.BillingDay > 31 {
		return nil, subscriptiondomain.ErrInvalidBillingDay
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.billing.Current().DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, subscriptiondomain.ErrInvalidCurrency
	}

	now := s.clock.Now()
	startDate := req.StartDate.UTC()
	if startDate.IsZero() {
		startDate = now
	}

	seen := make(map[snowflake.ID]struct{}, len(req.Participants))
	participants := make([]subscriptiondomain.Participant, 0, len(req.Participants))
	for i := range req.Participants {
		input := req.Participants[i]
		if _, dup := seen[input.UserID]; dup {
			return nil, subscriptiondomain.ErrDuplicateParticipant
		}
		seen[input.UserID] = struct{}{}

		p, err := s.buildParticipant(0, &input, now)
		if err != nil {
			return nil, err
		}
		participants = append(participants, *p)
	}

	sub := &subscriptiondomain.Subscription{
		ID:          s.genID.Generate(),
		OwnerID:     req.OwnerID,
		Title:       title,
		TotalAmount: money.Round(req.TotalAmount),
		Currency:    currency,
		BillingDay:  req.BillingDay,
		Frequency:   subscriptiondomain.FrequencyMonthly,
		StartDate:   startDate,
		EndDate:     req.EndDate,
		IsActive:    true,
		Metadata:    datatypes.JSONMap(req.Metadata),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, sub); err != nil {
			return err
		}
		for i := range participants {
			participants[i].SubscriptionID = sub.ID
			if err := s.repo.InsertParticipant(ctx, tx, &participants[i]); err != nil {
				if db.IsDuplicateKeyErr(err) {
					return subscriptiondomain.ErrDuplicateParticipant
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("subscription created",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("owner_id", sub.OwnerID.String()),
		zap.Int("participants", len(participants)))

	return sub, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	sub, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *Service) ListActive(ctx context.Context, asOf time.Time) ([]subscriptiondomain.Subscription, error) {
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}
	return s.repo.ListActive(ctx, s.db, asOf.UTC())
}

func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if sub == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		if !sub.IsActive {
			return nil
		}
		sub.IsActive = false
		sub.UpdatedAt = s.clock.Now()
		return s.repo.Update(ctx, tx, sub)
	})
}

func (s *Service) AddParticipant(ctx context.Context, subscriptionID snowflake.ID, input *subscriptiondomain.ParticipantInput) (*subscriptiondomain.Participant, error) {
	if input == nil {
		return nil, subscriptiondomain.ErrInvalidShareValue
	}

	now := s.clock.Now()
	var out *subscriptiondomain.Participant

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.repo.FindByIDForUpdate(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		if sub == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		if !sub.IsActive {
			return subscriptiondomain.ErrSubscriptionInactive
		}

		existing, err := s.repo.FindParticipant(ctx, tx, subscriptionID, input.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.IsActive {
				return subscriptiondomain.ErrDuplicateParticipant
			}
			// Rejoining participant keeps its row; the share rule is replaced.
			updated, err := s.buildParticipant(subscriptionID, input, now)
			if err != nil {
				return err
			}
			existing.ShareType = updated.ShareType
			existing.ShareValue = updated.ShareValue
			existing.IsActive = true
			existing.UpdatedAt = now
			if err := s.repo.UpdateParticipant(ctx, tx, existing); err != nil {
				return err
			}
			out = existing
			return nil
		}

		p, err := s.buildParticipant(subscriptionID, input, now)
		if err != nil {
			return err
		}
		if err := s.repo.InsertParticipant(ctx, tx, p); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return subscriptiondomain.ErrDuplicateParticipant
			}
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) RemoveParticipant(ctx context.Context, subscriptionID, userID snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.repo.FindParticipant(ctx, tx, subscriptionID, userID)
		if err != nil {
			return err
		}
		if p == nil || !p.IsActive {
			return subscriptiondomain.ErrParticipantNotFound
		}
		p.IsActive = false
		p.UpdatedAt = s.clock.Now()
		return s.repo.UpdateParticipant(ctx, tx, p)
	})
}

func (s *Service) Participants(ctx context.Context, subscriptionID snowflake.ID) ([]subscriptiondomain.Participant, error) {
	sub, err := s.repo.FindByID(ctx, s.db, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	return s.repo.ActiveParticipants(ctx, s.db, subscriptionID)
}

func (s *Service) buildParticipant(subscriptionID snowflake.ID, input *subscriptiondomain.ParticipantInput, now time.Time) (*subscriptiondomain.Participant, error) {
	p := &subscriptiondomain.Participant{
		ID:             s.genID.Generate(),
		SubscriptionID: subscriptionID,
		UserID:         input.UserID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	switch input.ShareType {
	case subscriptiondomain.ShareTypeEqual:
		p.ShareType = subscriptiondomain.ShareTypeEqual
		p.ShareValue = nil
	case subscriptiondomain.ShareTypeCustom:
		if input.ShareValue == nil || !money.IsPositive(*input.ShareValue) {
			return nil, subscriptiondomain.ErrInvalidShareValue
		}
		rounded := money.Round(*input.ShareValue)
		p.ShareType = subscriptiondomain.ShareTypeCustom
		p.ShareValue = &rounded
	default:
		return nil, subscriptiondomain.ErrInvalidShareValue
	}
	return p, nil
}

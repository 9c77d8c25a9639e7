package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	chargedomain "github.com/smallbiznis/patungan/internal/charge/domain"
	chargerepo "github.com/smallbiznis/patungan/internal/charge/repository"
	chargeservice "github.com/smallbiznis/patungan/internal/charge/service"
	"github.com/smallbiznis/patungan/internal/clock"
	"github.com/smallbiznis/patungan/internal/config"
	subscriptiondomain "github.com/smallbiznis/patungan/internal/subscription/domain"
	subscriptionrepo "github.com/smallbiznis/patungan/internal/subscription/repository"
	subscriptionservice "github.com/smallbiznis/patungan/internal/subscription/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupScheduler(t *testing.T, fc *clock.FakeClock) (*Scheduler, subscriptiondomain.Service, chargedomain.Service) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(
		&subscriptiondomain.Subscription{},
		&subscriptiondomain.Participant{},
		&chargedomain.Charge{},
		&chargedomain.ChargeShare{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	billing := config.StaticBillingConfigHolder(config.DefaultBillingConfig())
	subRepo := subscriptionrepo.Provide()

	subSvc := subscriptionservice.NewService(subscriptionservice.Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fc,
		Repo:    subRepo,
		Billing: billing,
	})
	chargeSvc := chargeservice.NewService(chargeservice.Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fc,
		Repo:    chargerepo.Provide(),
		SubRepo: subRepo,
	})

	sched, err := New(Params{
		Log:             zap.NewNop(),
		Clock:           fc,
		SubscriptionSvc: subSvc,
		ChargeSvc:       chargeSvc,
		Billing:         billing,
	})
	require.NoError(t, err)
	return sched, subSvc, chargeSvc
}

func TestRunOnceGeneratesUpcomingCharges(t *testing.T) {
	start := time.Date(2026, time.January, 1, 8, 0, 0, 0, time.UTC)
	fc := clock.NewFakeClock(start)
	sched, subSvc, chargeSvc := setupScheduler(t, fc)

	sub, err := subSvc.Create(context.Background(), &subscriptiondomain.CreateSubscriptionRequest{
		OwnerID:     1,
		Title:       "family streaming",
		TotalAmount: decimal.RequireFromString("120.00"),
		Currency:    "IDR",
		BillingDay:  1,
		StartDate:   start,
		Participants: []subscriptiondomain.ParticipantInput{
			{UserID: 1, ShareType: subscriptiondomain.ShareTypeEqual},
			{UserID: 2, ShareType: subscriptiondomain.ShareTypeEqual},
		},
	})
	require.NoError(t, err)

	require.NoError(t, sched.RunOnce(context.Background()))

	// Default horizon is three months ahead.
	charges, err := chargeSvc.ListBySubscription(context.Background(), sub.ID)
	require.NoError(t, err)
	require.Len(t, charges, 3)

	// A later sweep only appends the newly reachable period.
	fc.Advance(31 * 24 * time.Hour)
	require.NoError(t, sched.RunOnce(context.Background()))

	charges, err = chargeSvc.ListBySubscription(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Len(t, charges, 4)
}

func TestRunOnceSkipsSubscriptionsWithoutParticipants(t *testing.T) {
	start := time.Date(2026, time.January, 1, 8, 0, 0, 0, time.UTC)
	fc := clock.NewFakeClock(start)
	sched, subSvc, chargeSvc := setupScheduler(t, fc)

	empty, err := subSvc.Create(context.Background(), &subscriptiondomain.CreateSubscriptionRequest{
		OwnerID:     1,
		Title:       "orphan subscription",
		TotalAmount: decimal.RequireFromString("10.00"),
		Currency:    "IDR",
		BillingDay:  1,
		StartDate:   start,
	})
	require.NoError(t, err)

	populated, err := subSvc.Create(context.Background(), &subscriptiondomain.CreateSubscriptionRequest{
		OwnerID:     1,
		Title:       "shared storage",
		TotalAmount: decimal.RequireFromString("30.00"),
		Currency:    "IDR",
		BillingDay:  1,
		StartDate:   start,
		Participants: []subscriptiondomain.ParticipantInput{
			{UserID: 3, ShareType: subscriptiondomain.ShareTypeEqual},
		},
	})
	require.NoError(t, err)

	require.NoError(t, sched.RunOnce(context.Background()))

	charges, err := chargeSvc.ListBySubscription(context.Background(), empty.ID)
	require.NoError(t, err)
	assert.Empty(t, charges)

	charges, err = chargeSvc.ListBySubscription(context.Background(), populated.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, charges)
}

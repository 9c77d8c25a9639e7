package service

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
	"github.com/smallbiznis/patungan/internal/clock"
	"github.com/smallbiznis/patungan/internal/config"
	paymentdomain "github.com/smallbiznis/patungan/internal/payment/domain"
	paymentrepo "github.com/smallbiznis/patungan/internal/payment/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc        paymentdomain.Service
	resolver   paymentdomain.ConflictResolver
	db         *gorm.DB
	node       *snowflake.Node
	fc         *clock.FakeClock
	chargeRepo chargedomain.Repository
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func setup(t *testing.T) *fixture {
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
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error

	if err := db.AutoMigrate(
		&chargedomain.Charge{},
		&chargedomain.ChargeShare{},
		&paymentdomain.Payment{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node := mustNode(t)
	fc := clock.NewFakeClock(time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC))
	billing := config.StaticBillingConfigHolder(config.DefaultBillingConfig())
	repo := paymentrepo.Provide()
	cRepo := chargerepo.Provide()

	resolver := NewResolver(ResolverParams{
		DB:      db,
		Log:     zap.NewNop(),
		Repo:    repo,
		Billing: billing,
	})
	svc := NewService(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      fc,
		Repo:       repo,
		ChargeRepo: cRepo,
		Resolver:   resolver,
		Billing:    billing,
	})

	return &fixture{svc: svc, resolver: resolver, db: db, node: node, fc: fc, chargeRepo: cRepo}
}

func (f *fixture) seedShare(t *testing.T, userID snowflake.ID, due string) *chargedomain.ChargeShare {
	t.Helper()

	amount, err := decimal.NewFromString(due)
	require.NoError(t, err)

	now := f.fc.Now()
	charge := &chargedomain.Charge{
		ID:             f.node.Generate(),
		SubscriptionID: f.node.Generate(),
		PeriodStart:    time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:      time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
		AmountTotal:    amount,
		Status:         chargedomain.ChargeStatusGenerated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, f.chargeRepo.Insert(context.Background(), f.db, charge))

	share := chargedomain.ChargeShare{
		ID:         f.node.Generate(),
		ChargeID:   charge.ID,
		UserID:     userID,
		AmountDue:  amount,
		AmountPaid: decimal.Zero,
		Status:     chargedomain.ShareStatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.chargeRepo.InsertShares(context.Background(), f.db, []chargedomain.ChargeShare{share}))
	return &share
}

func (f *fixture) loadShare(t *testing.T, chargeID, userID snowflake.ID) *chargedomain.ChargeShare {
	t.Helper()
	cs, err := f.chargeRepo.FindShare(context.Background(), f.db, chargeID, userID)
	require.NoError(t, err)
	require.NotNil(t, cs)
	return cs
}

func (f *fixture) createPayment(t *testing.T, userID snowflake.ID, chargeID *snowflake.ID, amount, date string) *paymentdomain.Payment {
	t.Helper()

	value, err := decimal.NewFromString(amount)
	require.NoError(t, err)
	scheduled, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)

	payment, err := f.svc.Create(context.Background(), &paymentdomain.CreatePaymentRequest{
		UserID:        userID,
		ChargeID:      chargeID,
		Amount:        value,
		Currency:      "IDR",
		ScheduledDate: scheduled,
		CreatedBy:     userID,
	})
	require.NoError(t, err)
	return payment
}

func TestVerifyAppliesLedgerEffect(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()
	verifierID := f.node.Generate()
	share := f.seedShare(t, userID, "100.00")

	payment := f.createPayment(t, userID, &share.ChargeID, "50.00", "2026-03-10")

	verified, err := f.svc.Verify(context.Background(), payment.ID, verifierID, nil)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.PaymentStatusVerified, verified.Status)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, verifierID, *verified.VerifiedBy)
	require.NotNil(t, verified.VerifiedAt)
	require.NotNil(t, verified.VerificationReference)
	assert.NotEmpty(t, *verified.VerificationReference)

	cs := f.loadShare(t, share.ChargeID, userID)
	assert.True(t, cs.AmountPaid.Equal(decimal.RequireFromString("50.00")))
	assert.Equal(t, chargedomain.ShareStatusOpen, cs.Status)
}

func TestVerifySettlesShare(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()
	share := f.seedShare(t, userID, "100.00")

	first := f.createPayment(t, userID, &share.ChargeID, "60.00", "2026-03-10")
	second := f.createPayment(t, userID, &share.ChargeID, "40.00", "2026-03-11")

	_, err := f.svc.Verify(context.Background(), first.ID, f.node.Generate(), nil)
	require.NoError(t, err)
	_, err = f.svc.Verify(context.Background(), second.ID, f.node.Generate(), nil)
	require.NoError(t, err)

	cs := f.loadShare(t, share.ChargeID, userID)
	assert.True(t, cs.AmountPaid.Equal(cs.AmountDue))
	assert.Equal(t, chargedomain.ShareStatusSettled, cs.Status)
}

func TestDoubleVerifyFails(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()
	share := f.seedShare(t, userID, "100.00")

	payment := f.createPayment(t, userID, &share.ChargeID, "50.00", "2026-03-10")

	_, err := f.svc.Verify(context.Background(), payment.ID, f.node.Generate(), nil)
	require.NoError(t, err)

	_, err = f.svc.Verify(context.Background(), payment.ID, f.node.Generate(), nil)
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidStateTransition)

	// The second attempt must leave the share untouched.
	cs := f.loadShare(t, share.ChargeID, userID)
	assert.True(t, cs.AmountPaid.Equal(decimal.RequireFromString("50.00")))
}

func TestSelfVerificationForbidden(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()
	share := f.seedShare(t, userID, "100.00")

	payment := f.createPayment(t, userID, &share.ChargeID, "50.00", "2026-03-10")

	_, err := f.svc.Verify(context.Background(), payment.ID, userID, nil)
	assert.ErrorIs(t, err, paymentdomain.ErrSelfVerificationForbidden)

	cs := f.loadShare(t, share.ChargeID, userID)
	assert.True(t, cs.AmountPaid.IsZero())
}

func TestVerifyRevertRoundTrip(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()
	share := f.seedShare(t, userID, "100.00")

	payment := f.createPayment(t, userID, &share.ChargeID, "100.00", "2026-03-10")

	_, err := f.svc.Verify(context.Background(), payment.ID, f.node.Generate(), nil)
	require.NoError(t, err)

	cs := f.loadShare(t, share.ChargeID, userID)
	assert.Equal(t, chargedomain.ShareStatusSettled, cs.Status)

	require.NoError(t, f.svc.Revert(context.Background(), payment.ID))

	cs = f.loadShare(t, share.ChargeID, userID)
	assert.True(t, cs.AmountPaid.IsZero())
	assert.Equal(t, chargedomain.ShareStatusOpen, cs.Status)

	reverted, err := f.svc.Get(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.PaymentStatusPending, reverted.Status)
	assert.Nil(t, reverted.VerifiedBy)
	assert.Nil(t, reverted.VerifiedAt)
	assert.Nil(t, reverted.VerificationReference)

	// And the round trip is repeatable.
	_, err = f.svc.Verify(context.Background(), payment.ID, f.node.Generate(), nil)
	require.NoError(t, err)
	cs = f.loadShare(t, share.ChargeID, userID)
	assert.True(t, cs.AmountPaid.Equal(cs.AmountDue))
}

func TestRevertRequiresVerified(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()
	payment := f.createPayment(t, userID, nil, "25.00", "2026-03-10")

	err := f.svc.Revert(context.Background(), payment.ID)
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidStateTransition)
}

func TestRevertClampsAtZero(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()
	share := f.seedShare(t, userID, "100.00")

	payment := f.createPayment(t, userID, &share.ChargeID, "30.00", "2026-03-10")
	_, err := f.svc.Verify(context.Background(), payment.ID, f.node.Generate(), nil)
	require.NoError(t, err)

	// Simulate drift: another actor already pulled the paid amount down.
	cs := f.loadShare(t, share.ChargeID, userID)
	cs.AmountPaid = decimal.RequireFromString("10.00")
	require.NoError(t, f.chargeRepo.UpdateShare(context.Background(), f.db, cs))

	require.NoError(t, f.svc.Revert(context.Background(), payment.ID))

	cs = f.loadShare(t, share.ChargeID, userID)
	assert.True(t, cs.AmountPaid.IsZero())
}

func TestVerifyWithoutChargeHasNoLedgerEffect(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()

	payment := f.createPayment(t, userID, nil, "75.00", "2026-03-10")

	verified, err := f.svc.Verify(context.Background(), payment.ID, f.node.Generate(), nil)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.PaymentStatusVerified, verified.Status)
}

func TestVerifyRejectsOverpayment(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()
	share := f.seedShare(t, userID, "50.00")

	payment := f.createPayment(t, userID, &share.ChargeID, "80.00", "2026-03-10")

	_, err := f.svc.Verify(context.Background(), payment.ID, f.node.Generate(), nil)
	assert.ErrorIs(t, err, paymentdomain.ErrPaymentExceedsAmountDue)

	// Failed verify rolls back both halves.
	cs := f.loadShare(t, share.ChargeID, userID)
	assert.True(t, cs.AmountPaid.IsZero())
	got, err := f.svc.Get(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.PaymentStatusPending, got.Status)
}

func TestCancelPendingPayment(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()
	payment := f.createPayment(t, userID, nil, "20.00", "2026-03-10")

	cancelled, err := f.svc.Cancel(context.Background(), payment.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.PaymentStatusCancelled, cancelled.Status)

	_, err = f.svc.Verify(context.Background(), cancelled.ID, f.node.Generate(), nil)
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidStateTransition)

	_, err = f.svc.Cancel(context.Background(), payment.ID, userID)
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidStateTransition)
}

func TestCreateResolvesScheduleConflict(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()

	first := f.createPayment(t, userID, nil, "10.00", "2026-03-10")
	second := f.createPayment(t, userID, nil, "10.00", "2026-03-10")

	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), first.ScheduledDate)
	assert.Equal(t, time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC), second.ScheduledDate)
}

func TestResolveDateConflictsWindowExhausted(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()

	// Fill every candidate date inside a narrow window.
	narrow := NewResolver(ResolverParams{
		DB:   f.db,
		Log:  zap.NewNop(),
		Repo: paymentrepo.Provide(),
		Billing: config.StaticBillingConfigHolder(config.BillingConfig{
			ConflictWindowDays: 2,
		}),
	})

	for _, date := range []string{"2026-03-10", "2026-03-11", "2026-03-12"} {
		f.createPayment(t, userID, nil, "10.00", date)
	}

	proposed := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	_, err := narrow.ResolveDateConflicts(context.Background(), userID, proposed, nil)
	assert.ErrorIs(t, err, paymentdomain.ErrNoAvailableDateWithinWindow)
}

func TestHasConflictIgnoresNonPending(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()

	payment := f.createPayment(t, userID, nil, "10.00", "2026-03-10")
	date := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	conflict, err := f.resolver.HasConflict(context.Background(), userID, date)
	require.NoError(t, err)
	assert.True(t, conflict)

	_, err = f.svc.Cancel(context.Background(), payment.ID, userID)
	require.NoError(t, err)

	conflict, err = f.resolver.HasConflict(context.Background(), userID, date)
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestRescheduleMovesPendingPayment(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()

	payment := f.createPayment(t, userID, nil, "10.00", "2026-03-10")
	blocker := f.createPayment(t, userID, nil, "10.00", "2026-03-20")
	require.Equal(t, time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC), blocker.ScheduledDate)

	moved, err := f.svc.Reschedule(context.Background(), payment.ID, time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 21, 0, 0, 0, 0, time.UTC), moved.ScheduledDate)
}

func TestCreateRejectsPastAndFarFutureDates(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()

	_, err := f.svc.Create(context.Background(), &paymentdomain.CreatePaymentRequest{
		UserID:        userID,
		Amount:        decimal.RequireFromString("10.00"),
		Currency:      "IDR",
		ScheduledDate: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		CreatedBy:     userID,
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidScheduledDate)

	_, err = f.svc.Create(context.Background(), &paymentdomain.CreatePaymentRequest{
		UserID:        userID,
		Amount:        decimal.RequireFromString("10.00"),
		Currency:      "IDR",
		ScheduledDate: f.fc.Now().AddDate(2, 0, 0),
		CreatedBy:     userID,
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidScheduledDate)
}

func TestCreateRejectsNonPositiveAmount(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()

	_, err := f.svc.Create(context.Background(), &paymentdomain.CreatePaymentRequest{
		UserID:        userID,
		Amount:        decimal.Zero,
		Currency:      "IDR",
		ScheduledDate: time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		CreatedBy:     userID,
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidAmount)
}

package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	balancedomain "github.com/smallbiznis/patungan/internal/balance/domain"
	balancerepo "github.com/smallbiznis/patungan/internal/balance/repository"
	chargedomain "github.com/smallbiznis/patungan/internal/charge/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func setupBalanceService(t *testing.T) (balancedomain.Service, *gorm.DB, *snowflake.Node) {
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

	if err := db.AutoMigrate(&chargedomain.Charge{}, &chargedomain.ChargeShare{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := NewService(Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: balancerepo.Provide(),
	})
	return svc, db, mustNode(t)
}

func seedCharge(
	t *testing.T,
	db *gorm.DB,
	node *snowflake.Node,
	subscriptionID snowflake.ID,
	periodStart time.Time,
	status chargedomain.ChargeStatus,
	shares map[snowflake.ID][2]string,
) {
	t.Helper()

	total := decimal.Zero
	rows := make([]chargedomain.ChargeShare, 0, len(shares))
	chargeID := node.Generate()
	for userID, amounts := range shares {
		due := decimal.RequireFromString(amounts[0])
		paid := decimal.RequireFromString(amounts[1])
		total = total.Add(due)
		shareStatus := chargedomain.ShareStatusOpen
		if paid.GreaterThanOrEqual(due) {
			shareStatus = chargedomain.ShareStatusSettled
		}
		rows = append(rows, chargedomain.ChargeShare{
			ID:         node.Generate(),
			ChargeID:   chargeID,
			UserID:     userID,
			AmountDue:  due,
			AmountPaid: paid,
			Status:     shareStatus,
		})
	}

	charge := chargedomain.Charge{
		ID:             chargeID,
		SubscriptionID: subscriptionID,
		PeriodStart:    periodStart,
		PeriodEnd:      periodStart.AddDate(0, 1, -1),
		AmountTotal:    total,
		Status:         status,
	}
	require.NoError(t, db.Create(&charge).Error)
	require.NoError(t, db.Create(&rows).Error)
}

func TestForUserAggregates(t *testing.T) {
	svc, db, node := setupBalanceService(t)
	userID := node.Generate()
	other := node.Generate()
	subID := node.Generate()

	jan := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	seedCharge(t, db, node, subID, jan, chargedomain.ChargeStatusGenerated, map[snowflake.ID][2]string{
		userID: {"50.00", "50.00"},
		other:  {"50.00", "0"},
	})
	seedCharge(t, db, node, subID, feb, chargedomain.ChargeStatusGenerated, map[snowflake.ID][2]string{
		userID: {"50.00", "20.00"},
		other:  {"50.00", "0"},
	})

	totals, err := svc.ForUser(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.True(t, totals.TotalDue.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, totals.TotalPaid.Equal(decimal.RequireFromString("70.00")))
	assert.True(t, totals.Balance.Equal(totals.TotalDue.Sub(totals.TotalPaid)))
}

func TestForUserAsOfCutoff(t *testing.T) {
	svc, db, node := setupBalanceService(t)
	userID := node.Generate()
	subID := node.Generate()

	jan := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	seedCharge(t, db, node, subID, jan, chargedomain.ChargeStatusGenerated, map[snowflake.ID][2]string{
		userID: {"40.00", "40.00"},
	})
	seedCharge(t, db, node, subID, feb, chargedomain.ChargeStatusGenerated, map[snowflake.ID][2]string{
		userID: {"40.00", "0"},
	})

	asOf := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
	totals, err := svc.ForUser(context.Background(), userID, &asOf)
	require.NoError(t, err)
	assert.True(t, totals.TotalDue.Equal(decimal.RequireFromString("40.00")))
	assert.True(t, totals.Balance.IsZero())
}

func TestForUserExcludesCancelledCharges(t *testing.T) {
	svc, db, node := setupBalanceService(t)
	userID := node.Generate()
	subID := node.Generate()

	jan := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	seedCharge(t, db, node, subID, jan, chargedomain.ChargeStatusCancelled, map[snowflake.ID][2]string{
		userID: {"99.00", "0"},
	})

	totals, err := svc.ForUser(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.True(t, totals.TotalDue.IsZero())
	assert.True(t, totals.TotalPaid.IsZero())
	assert.True(t, totals.Balance.IsZero())
}

func TestForSubscriptionAggregatesAllMembers(t *testing.T) {
	svc, db, node := setupBalanceService(t)
	subID := node.Generate()
	a := node.Generate()
	b := node.Generate()

	jan := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	seedCharge(t, db, node, subID, jan, chargedomain.ChargeStatusGenerated, map[snowflake.ID][2]string{
		a: {"60.00", "60.00"},
		b: {"40.00", "10.00"},
	})

	totals, err := svc.ForSubscription(context.Background(), subID, nil)
	require.NoError(t, err)
	assert.True(t, totals.TotalDue.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, totals.TotalPaid.Equal(decimal.RequireFromString("70.00")))
	assert.True(t, totals.Balance.Equal(decimal.RequireFromString("30.00")))
}

func TestEmptyResultYieldsZeros(t *testing.T) {
	svc, _, node := setupBalanceService(t)

	totals, err := svc.ForUser(context.Background(), node.Generate(), nil)
	require.NoError(t, err)
	assert.True(t, totals.TotalDue.IsZero())
	assert.True(t, totals.TotalPaid.IsZero())
	assert.True(t, totals.Balance.IsZero())
}

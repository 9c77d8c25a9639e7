// Package seed provisions the bootstrap records the service expects on
// first start.
package seed

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	subscriptiondomain "github.com/smallbiznis/patungan/internal/subscription/domain"
	userdomain "github.com/smallbiznis/patungan/internal/user/domain"
	"gorm.io/gorm"
)

const (
	adminEmail = "admin@patungan.local"
	demoTitle  = "Demo: family streaming plan"
)

// EnsureAdminUser creates the operator account when it does not exist yet.
func EnsureAdminUser(db *gorm.DB) error {
	_, err := ensureUser(db, adminEmail, "Administrator")
	return err
}

// EnsureDemoSubscription seeds a small shared subscription so a fresh
// install has data to explore. Safe to call repeatedly.
func EnsureDemoSubscription(db *gorm.DB) error {
	var existing subscriptiondomain.Subscription
	err := db.Where("title = ?", demoTitle).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	owner, err := ensureUser(db, "andi@patungan.local", "Andi")
	if err != nil {
		return err
	}
	friend, err := ensureUser(db, "budi@patungan.local", "Budi")
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return db.Transaction(func(tx *gorm.DB) error {
		sub := subscriptiondomain.Subscription{
			ID:          node.Generate(),
			OwnerID:     owner.ID,
			Title:       demoTitle,
			TotalAmount: decimal.RequireFromString("186000.00"),
			Currency:    "IDR",
			BillingDay:  5,
			Frequency:   subscriptiondomain.FrequencyMonthly,
			StartDate:   now,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}

		participants := []subscriptiondomain.Participant{
			{
				ID:             node.Generate(),
				SubscriptionID: sub.ID,
				UserID:         owner.ID,
				ShareType:      subscriptiondomain.ShareTypeEqual,
				IsActive:       true,
				CreatedAt:      now,
				UpdatedAt:      now,
			},
			{
				ID:             node.Generate(),
				SubscriptionID: sub.ID,
				UserID:         friend.ID,
				ShareType:      subscriptiondomain.ShareTypeEqual,
				IsActive:       true,
				CreatedAt:      now,
				UpdatedAt:      now,
			},
		}
		return tx.Create(&participants).Error
	})
}

func ensureUser(db *gorm.DB, email, displayName string) (*userdomain.User, error) {
	var existing userdomain.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}
	user := userdomain.User{
		ID:          node.Generate(),
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

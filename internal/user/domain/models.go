// Package domain contains the minimal user model the billing engine
// references; account management itself lives outside this service.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type User struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	Email       string       `json:"email" gorm:"type:text;not null;uniqueIndex"`
	DisplayName string       `json:"display_name" gorm:"type:text;not null;default:''"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }

var ErrUserNotFound = errors.New("user_not_found")

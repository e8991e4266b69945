// Package domain contains identity models and the service contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Roles known to the service. A user carries exactly one role; the
// authorization policy maps roles to permitted actions.
const (
	RoleAdmin    = "admin"
	RoleMerchant = "merchant"
	RoleConsumer = "consumer"
)

// User is an authenticated principal.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Email        string       `gorm:"type:text;not null;uniqueIndex"`
	DisplayName  string       `gorm:"type:text;not null"`
	PasswordHash *string      `gorm:"type:text"`
	Role         string       `gorm:"type:text;not null;default:consumer"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }

// Session is a server-side login session addressed by an opaque token.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"not null;index"`
	Token     string       `gorm:"type:text;not null;uniqueIndex"`
	ExpiresAt time.Time    `gorm:"not null"`
	RevokedAt *time.Time
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Session) TableName() string { return "sessions" }

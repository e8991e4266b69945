// Package seed bootstraps the accounts a fresh install needs.
package seed

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ratewise/internal/config"
	identitydomain "github.com/smallbiznis/ratewise/internal/identity/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EnsureDefaultAdmin creates the seed admin account when configured and
// absent. Without SEED_ADMIN_PASSWORD nothing is created; the install
// then has no admin until one is provisioned out of band.
func EnsureDefaultAdmin(db *gorm.DB, cfg config.Config, genID *snowflake.Node) error {
	email := strings.ToLower(strings.TrimSpace(cfg.SeedAdminEmail))
	password := cfg.SeedAdminPassword
	if email == "" || password == "" {
		return nil
	}

	var existing identitydomain.User
	err := db.First(&existing, "email = ?", email).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	hashStr := string(hash)

	now := time.Now().UTC()
	user := identitydomain.User{
		ID:           genID.Generate(),
		Email:        email,
		DisplayName:  "Administrator",
		PasswordHash: &hashStr,
		Role:         identitydomain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return db.Create(&user).Error
}

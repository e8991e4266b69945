package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, policy *MerchantPolicy) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*MerchantPolicy, error)
	FindByMerchant(ctx context.Context, db *gorm.DB, merchantID snowflake.ID) ([]MerchantPolicy, error)
	Update(ctx context.Context, db *gorm.DB, policy *MerchantPolicy) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}

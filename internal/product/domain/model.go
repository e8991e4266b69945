package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Product is a rateable catalog item owned by a merchant.
type Product struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	MerchantID  snowflake.ID      `json:"merchant_id" gorm:"column:merchant_id;not null;index:ux_products_merchant_code,unique,priority:1"`
	Code        string            `json:"code" gorm:"type:text;not null;index:ux_products_merchant_code,unique,priority:2"`
	Name        string            `json:"name" gorm:"type:text;not null"`
	Description *string           `json:"description,omitempty" gorm:"type:text"`
	Active      bool              `json:"active" gorm:"not null;default:true"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }

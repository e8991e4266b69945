package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// MerchantPolicy is a merchant-published store policy (returns,
// shipping, warranty) shown next to the merchant's ratings.
type MerchantPolicy struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	MerchantID    snowflake.ID `json:"merchant_id" gorm:"column:merchant_id;not null;index:idx_merchant_policies_merchant"`
	Subject       string       `json:"subject" gorm:"type:text;not null"`
	Description   string       `json:"description" gorm:"type:text;not null"`
	EffectiveDate time.Time    `json:"effective_date" gorm:"not null"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (MerchantPolicy) TableName() string { return "merchant_policies" }

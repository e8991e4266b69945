package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Rating is one consumer's score for one product. A consumer rates a
// given product at most once; later opinions go through update.
type Rating struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	EntityID   snowflake.ID `json:"entity_id" gorm:"column:entity_id;not null;index:ux_ratings_entity_author,unique,priority:1"`
	AuthorID   snowflake.ID `json:"author_id" gorm:"column:author_id;not null;index:ux_ratings_entity_author,unique,priority:2"`
	Score      int          `json:"score" gorm:"not null"`
	Comment    *string      `json:"comment,omitempty" gorm:"type:text"`
	CreatedBy  snowflake.ID `json:"created_by" gorm:"column:created_by;not null"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	ModifiedBy snowflake.ID `json:"modified_by" gorm:"column:modified_by;not null"`
	ModifiedAt time.Time    `json:"modified_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Rating) TableName() string { return "ratings" }

// AverageProductRating is the computed aggregate for one product.
type AverageProductRating struct {
	EntityID     snowflake.ID `gorm:"column:entity_id"`
	AverageScore float64      `gorm:"column:average_score"`
	RatingCount  int64        `gorm:"column:rating_count"`
}

// AverageMerchantRating is the computed aggregate across all products
// of one merchant.
type AverageMerchantRating struct {
	MerchantID   snowflake.ID `gorm:"column:merchant_id"`
	AverageScore float64      `gorm:"column:average_score"`
	RatingCount  int64        `gorm:"column:rating_count"`
}

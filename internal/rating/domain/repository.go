package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rating *Rating) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Rating, error)
	FindAll(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]Rating, error)
	FindByEntityAuthor(ctx context.Context, db *gorm.DB, entityID, authorID snowflake.ID) (*Rating, error)
	Update(ctx context.Context, db *gorm.DB, rating *Rating) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)

	AvgAllEntities(ctx context.Context, db *gorm.DB) ([]AverageProductRating, error)
	AvgByEntity(ctx context.Context, db *gorm.DB, entityID snowflake.ID) (*AverageProductRating, error)
	AvgEntitiesByMerchant(ctx context.Context, db *gorm.DB, merchantID snowflake.ID) ([]AverageProductRating, error)
	AvgAllMerchants(ctx context.Context, db *gorm.DB) ([]AverageMerchantRating, error)
	AvgByMerchant(ctx context.Context, db *gorm.DB, merchantID snowflake.ID) (*AverageMerchantRating, error)
}

package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ratewise/internal/rating/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rating *domain.Rating) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO ratings (id, entity_id, author_id, score, comment, created_by, created_at, modified_by, modified_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rating.ID,
		rating.EntityID,
		rating.AuthorID,
		rating.Score,
		rating.Comment,
		rating.CreatedBy,
		rating.CreatedAt,
		rating.ModifiedBy,
		rating.ModifiedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Rating, error) {
	var rating domain.Rating
	err := db.WithContext(ctx).Raw(
		`SELECT id, entity_id, author_id, score, comment, created_by, created_at, modified_by, modified_at
		 FROM ratings WHERE id = ?`,
		id,
	).Scan(&rating).Error
	if err != nil {
		return nil, err
	}
	if rating.ID == 0 {
		return nil, nil
	}
	return &rating, nil
}

// FindAll pages through every rating in id order. Callers pass the last
// seen id as afterID; limit+1 rows are fetched so the caller can detect
// a further page.
func (r *repo) FindAll(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]domain.Rating, error) {
	var items []domain.Rating
	stmt := db.WithContext(ctx)

	var err error
	if limit > 0 {
		err = stmt.Raw(
			`SELECT id, entity_id, author_id, score, comment, created_by, created_at, modified_by, modified_at
			 FROM ratings WHERE id > ? ORDER BY id ASC LIMIT ?`,
			afterID,
			limit+1,
		).Scan(&items).Error
	} else {
		err = stmt.Raw(
			`SELECT id, entity_id, author_id, score, comment, created_by, created_at, modified_by, modified_at
			 FROM ratings WHERE id > ? ORDER BY id ASC`,
			afterID,
		).Scan(&items).Error
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByEntityAuthor(ctx context.Context, db *gorm.DB, entityID, authorID snowflake.ID) (*domain.Rating, error) {
	var rating domain.Rating
	err := db.WithContext(ctx).Raw(
		`SELECT id, entity_id, author_id, score, comment, created_by, created_at, modified_by, modified_at
		 FROM ratings WHERE entity_id = ? AND author_id = ?`,
		entityID,
		authorID,
	).Scan(&rating).Error
	if err != nil {
		return nil, err
	}
	if rating.ID == 0 {
		return nil, nil
	}
	return &rating, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, rating *domain.Rating) error {
	return db.WithContext(ctx).Exec(
		`UPDATE ratings
		 SET score = ?, comment = ?, modified_by = ?, modified_at = ?
		 WHERE id = ?`,
		rating.Score,
		rating.Comment,
		rating.ModifiedBy,
		rating.ModifiedAt,
		rating.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(`DELETE FROM ratings WHERE id = ?`, id)
	return result.RowsAffected, result.Error
}

func (r *repo) AvgAllEntities(ctx context.Context, db *gorm.DB) ([]domain.AverageProductRating, error) {
	var items []domain.AverageProductRating
	err := db.WithContext(ctx).Raw(
		`SELECT entity_id, AVG(CAST(score AS REAL)) AS average_score, COUNT(*) AS rating_count
		 FROM ratings GROUP BY entity_id ORDER BY entity_id ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) AvgByEntity(ctx context.Context, db *gorm.DB, entityID snowflake.ID) (*domain.AverageProductRating, error) {
	var item domain.AverageProductRating
	err := db.WithContext(ctx).Raw(
		`SELECT entity_id, AVG(CAST(score AS REAL)) AS average_score, COUNT(*) AS rating_count
		 FROM ratings WHERE entity_id = ? GROUP BY entity_id`,
		entityID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.EntityID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) AvgEntitiesByMerchant(ctx context.Context, db *gorm.DB, merchantID snowflake.ID) ([]domain.AverageProductRating, error) {
	var items []domain.AverageProductRating
	err := db.WithContext(ctx).Raw(
		`SELECT r.entity_id, AVG(CAST(r.score AS REAL)) AS average_score, COUNT(*) AS rating_count
		 FROM ratings r
		 JOIN products p ON p.id = r.entity_id
		 WHERE p.merchant_id = ?
		 GROUP BY r.entity_id ORDER BY r.entity_id ASC`,
		merchantID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) AvgAllMerchants(ctx context.Context, db *gorm.DB) ([]domain.AverageMerchantRating, error) {
	var items []domain.AverageMerchantRating
	err := db.WithContext(ctx).Raw(
		`SELECT p.merchant_id, AVG(CAST(r.score AS REAL)) AS average_score, COUNT(*) AS rating_count
		 FROM ratings r
		 JOIN products p ON p.id = r.entity_id
		 GROUP BY p.merchant_id ORDER BY p.merchant_id ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) AvgByMerchant(ctx context.Context, db *gorm.DB, merchantID snowflake.ID) (*domain.AverageMerchantRating, error) {
	var item domain.AverageMerchantRating
	err := db.WithContext(ctx).Raw(
		`SELECT p.merchant_id, AVG(CAST(r.score AS REAL)) AS average_score, COUNT(*) AS rating_count
		 FROM ratings r
		 JOIN products p ON p.id = r.entity_id
		 WHERE p.merchant_id = ?
		 GROUP BY p.merchant_id`,
		merchantID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.MerchantID == 0 {
		return nil, nil
	}
	return &item, nil
}

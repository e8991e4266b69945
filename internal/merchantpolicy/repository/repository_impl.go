package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ratewise/internal/merchantpolicy/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, policy *domain.MerchantPolicy) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO merchant_policies (id, merchant_id, subject, description, effective_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		policy.ID,
		policy.MerchantID,
		policy.Subject,
		policy.Description,
		policy.EffectiveDate,
		policy.CreatedAt,
		policy.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.MerchantPolicy, error) {
	var p domain.MerchantPolicy
	err := db.WithContext(ctx).Raw(
		`SELECT id, merchant_id, subject, description, effective_date, created_at, updated_at
		 FROM merchant_policies WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindByMerchant(ctx context.Context, db *gorm.DB, merchantID snowflake.ID) ([]domain.MerchantPolicy, error) {
	var items []domain.MerchantPolicy
	err := db.WithContext(ctx).Raw(
		`SELECT id, merchant_id, subject, description, effective_date, created_at, updated_at
		 FROM merchant_policies WHERE merchant_id = ? ORDER BY effective_date DESC, created_at DESC`,
		merchantID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, policy *domain.MerchantPolicy) error {
	return db.WithContext(ctx).Exec(
		`UPDATE merchant_policies
		 SET subject = ?, description = ?, effective_date = ?, updated_at = ?
		 WHERE id = ?`,
		policy.Subject,
		policy.Description,
		policy.EffectiveDate,
		policy.UpdatedAt,
		policy.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(`DELETE FROM merchant_policies WHERE id = ?`, id)
	return result.RowsAffected, result.Error
}

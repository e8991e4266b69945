package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	List(ctx context.Context, merchantID string) ([]Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	Subject       string     `json:"subject"`
	Description   string     `json:"description"`
	EffectiveDate *time.Time `json:"effective_date"`
}

type UpdateRequest struct {
	ID            string     `json:"-"`
	Subject       *string    `json:"subject"`
	Description   *string    `json:"description"`
	EffectiveDate *time.Time `json:"effective_date"`
}

type Response struct {
	ID            string    `json:"id"`
	MerchantID    string    `json:"merchant_id"`
	Subject       string    `json:"subject"`
	Description   string    `json:"description"`
	EffectiveDate time.Time `json:"effective_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

var (
	ErrInvalidMerchant = errors.New("invalid_merchant")
	ErrInvalidSubject  = errors.New("invalid_subject")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
	ErrForbidden       = errors.New("forbidden")
)

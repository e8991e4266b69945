package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/ratewise/pkg/db/pagination"
)

// Service covers rating writes, single reads, the admin listing, and
// the public aggregate queries.
type Service interface {
	Insert(ctx context.Context, req InsertRequest) (*InsertResult, error)
	List(ctx context.Context, req ListRequest) (*ListResult, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error

	AverageAllProducts(ctx context.Context) ([]AverageProductResponse, error)
	AverageProduct(ctx context.Context, entityID string) (*AverageProductResponse, error)
	AverageOwnProducts(ctx context.Context) ([]AverageProductResponse, error)
	AverageAllMerchants(ctx context.Context) ([]AverageMerchantResponse, error)
	AverageMerchant(ctx context.Context, merchantID string) (*AverageMerchantResponse, error)
	AverageCurrentMerchant(ctx context.Context) (*AverageMerchantResponse, error)
}

type InsertRequest struct {
	EntityID string  `json:"entity_id"`
	Score    int     `json:"score"`
	Comment  *string `json:"comment"`
}

type InsertResult struct {
	ID string `json:"id"`
}

type ListRequest struct {
	pagination.Pagination
}

type ListResult struct {
	Items    []Response           `json:"items"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

type UpdateRequest struct {
	ID      string  `json:"-"`
	Score   int     `json:"score"`
	Comment *string `json:"comment"`
}

type Response struct {
	ID         string    `json:"id"`
	EntityID   string    `json:"entity_id"`
	AuthorID   string    `json:"author_id"`
	Score      int       `json:"score"`
	Comment    *string   `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

type AverageProductResponse struct {
	EntityID     string  `json:"entity_id"`
	AverageScore float64 `json:"average_score"`
	RatingCount  int64   `json:"rating_count"`
}

type AverageMerchantResponse struct {
	MerchantID   string  `json:"merchant_id"`
	AverageScore float64 `json:"average_score"`
	RatingCount  int64   `json:"rating_count"`
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidEntity   = errors.New("invalid_entity")
	ErrInvalidScore    = errors.New("invalid_score")
	ErrNotFound        = errors.New("not_found")
	ErrRatingExists    = errors.New("rating_exists")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

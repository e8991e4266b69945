package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ratewise/internal/cache"
	"github.com/smallbiznis/ratewise/internal/clock"
	"github.com/smallbiznis/ratewise/internal/config"
	identitydomain "github.com/smallbiznis/ratewise/internal/identity/domain"
	"github.com/smallbiznis/ratewise/internal/observability/metrics"
	productdomain "github.com/smallbiznis/ratewise/internal/product/domain"
	"github.com/smallbiznis/ratewise/internal/rating/domain"
	"github.com/smallbiznis/ratewise/internal/usercontext"
	"github.com/smallbiznis/ratewise/pkg/db"
	"github.com/smallbiznis/ratewise/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	ProductRepo productdomain.Repository
	Cache       *cache.AggregateCache
	Policy      *config.RatingPolicyHolder
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	productRepo productdomain.Repository
	cache       *cache.AggregateCache
	policy      *config.RatingPolicyHolder
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("rating.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		productRepo: p.ProductRepo,
		cache:       p.Cache,
		policy:      p.Policy,
		metrics:     p.Metrics,
	}
}

func (s *Service) Insert(ctx context.Context, req domain.InsertRequest) (*domain.InsertResult, error) {
	identity, ok := usercontext.IdentityFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	entityID, err := parseID(req.EntityID)
	if err != nil {
		return nil, domain.ErrInvalidEntity
	}
	if err := s.validateScore(req.Score); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, s.db, entityID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrInvalidEntity
	}

	existing, err := s.repo.FindByEntityAuthor(ctx, s.db, entityID, identity.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrRatingExists
	}

	now := s.clock.Now()
	rating := &domain.Rating{
		ID:         s.genID.Generate(),
		EntityID:   entityID,
		AuthorID:   identity.UserID,
		Score:      req.Score,
		Comment:    normalizeComment(req.Comment),
		CreatedBy:  identity.UserID,
		CreatedAt:  now,
		ModifiedBy: identity.UserID,
		ModifiedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, rating); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrRatingExists
		}
		return nil, err
	}

	s.invalidateAggregates(ctx, entityID, product.MerchantID)
	s.metrics.RecordRatingWrite(ctx, "insert")
	s.log.Info("rating inserted",
		zap.String("rating_id", rating.ID.String()),
		zap.String("entity_id", entityID.String()),
	)

	return &domain.InsertResult{ID: rating.ID.String()}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResult, error) {
	limit := req.PageSize
	if limit <= 0 {
		limit = 50
	}
	if limit > 250 {
		limit = 250
	}

	var afterID snowflake.ID
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		parsed, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		afterID = parsed
	}

	items, err := s.repo.FindAll(ctx, s.db, afterID, limit)
	if err != nil {
		return nil, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, limit, func(r domain.Rating) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: r.ID.String()})
		return token
	})

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}

	return &domain.ListResult{Items: resp, PageInfo: pageInfo}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	ratingID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	rating, err := s.repo.FindByID(ctx, s.db, ratingID)
	if err != nil {
		return nil, err
	}
	if rating == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(rating)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	// Score bounds are checked before touching the store.
	if err := s.validateScore(req.Score); err != nil {
		return nil, err
	}

	rating, err := s.loadOwned(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	identity, _ := usercontext.IdentityFromContext(ctx)

	rating.Score = req.Score
	if req.Comment != nil {
		rating.Comment = normalizeComment(req.Comment)
	}
	rating.ModifiedBy = identity.UserID
	rating.ModifiedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, rating); err != nil {
		return nil, err
	}

	s.invalidateAggregates(ctx, rating.EntityID, 0)
	s.metrics.RecordRatingWrite(ctx, "update")

	resp := toResponse(rating)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	rating, err := s.loadOwned(ctx, id)
	if err != nil {
		return err
	}

	rows, err := s.repo.Delete(ctx, s.db, rating.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	s.invalidateAggregates(ctx, rating.EntityID, 0)
	s.metrics.RecordRatingWrite(ctx, "delete")
	return nil
}

func (s *Service) AverageAllProducts(ctx context.Context) ([]domain.AverageProductResponse, error) {
	if cached, ok := s.cache.GetAllProducts(); ok {
		s.metrics.RecordAggregateCacheHit(ctx, "products_all")
		return toProductResponses(cached), nil
	}
	s.metrics.RecordAggregateCacheMiss(ctx, "products_all")

	items, err := s.repo.AvgAllEntities(ctx, s.db)
	if err != nil {
		return nil, err
	}
	s.cache.SetAllProducts(items, s.policy.Get().AggregateCacheTTL())
	return toProductResponses(items), nil
}

func (s *Service) AverageProduct(ctx context.Context, entityID string) (*domain.AverageProductResponse, error) {
	id, err := parseID(entityID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	if cached, ok := s.cache.GetProduct(id); ok {
		s.metrics.RecordAggregateCacheHit(ctx, "product")
		resp := toProductResponse(cached)
		return &resp, nil
	}
	s.metrics.RecordAggregateCacheMiss(ctx, "product")

	item, err := s.repo.AvgByEntity(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	s.cache.SetProduct(id, *item, s.policy.Get().AggregateCacheTTL())
	resp := toProductResponse(*item)
	return &resp, nil
}

func (s *Service) AverageOwnProducts(ctx context.Context) ([]domain.AverageProductResponse, error) {
	identity, ok := usercontext.IdentityFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return s.averageMerchantProducts(ctx, identity.UserID)
}

func (s *Service) AverageAllMerchants(ctx context.Context) ([]domain.AverageMerchantResponse, error) {
	if cached, ok := s.cache.GetAllMerchants(); ok {
		s.metrics.RecordAggregateCacheHit(ctx, "merchants_all")
		return toMerchantResponses(cached), nil
	}
	s.metrics.RecordAggregateCacheMiss(ctx, "merchants_all")

	items, err := s.repo.AvgAllMerchants(ctx, s.db)
	if err != nil {
		return nil, err
	}
	s.cache.SetAllMerchants(items, s.policy.Get().AggregateCacheTTL())
	return toMerchantResponses(items), nil
}

func (s *Service) AverageMerchant(ctx context.Context, merchantID string) (*domain.AverageMerchantResponse, error) {
	id, err := parseID(merchantID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	return s.averageMerchant(ctx, id)
}

func (s *Service) AverageCurrentMerchant(ctx context.Context) (*domain.AverageMerchantResponse, error) {
	identity, ok := usercontext.IdentityFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return s.averageMerchant(ctx, identity.UserID)
}

func (s *Service) averageMerchantProducts(ctx context.Context, merchantID snowflake.ID) ([]domain.AverageProductResponse, error) {
	if cached, ok := s.cache.GetMerchantProducts(merchantID); ok {
		s.metrics.RecordAggregateCacheHit(ctx, "merchant_products")
		return toProductResponses(cached), nil
	}
	s.metrics.RecordAggregateCacheMiss(ctx, "merchant_products")

	items, err := s.repo.AvgEntitiesByMerchant(ctx, s.db, merchantID)
	if err != nil {
		return nil, err
	}
	s.cache.SetMerchantProducts(merchantID, items, s.policy.Get().AggregateCacheTTL())
	return toProductResponses(items), nil
}

func (s *Service) averageMerchant(ctx context.Context, merchantID snowflake.ID) (*domain.AverageMerchantResponse, error) {
	if cached, ok := s.cache.GetMerchant(merchantID); ok {
		s.metrics.RecordAggregateCacheHit(ctx, "merchant")
		resp := toMerchantResponse(cached)
		return &resp, nil
	}
	s.metrics.RecordAggregateCacheMiss(ctx, "merchant")

	item, err := s.repo.AvgByMerchant(ctx, s.db, merchantID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	s.cache.SetMerchant(merchantID, *item, s.policy.Get().AggregateCacheTTL())
	resp := toMerchantResponse(*item)
	return &resp, nil
}

// loadOwned fetches the rating and checks the caller may mutate it.
// Existence is checked before ownership so a 403 never leaks whether an
// id exists.
func (s *Service) loadOwned(ctx context.Context, id string) (*domain.Rating, error) {
	identity, ok := usercontext.IdentityFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	ratingID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	rating, err := s.repo.FindByID(ctx, s.db, ratingID)
	if err != nil {
		return nil, err
	}
	if rating == nil {
		return nil, domain.ErrNotFound
	}
	if rating.AuthorID != identity.UserID && !strings.EqualFold(identity.Role, identitydomain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	return rating, nil
}

func (s *Service) validateScore(score int) error {
	policy := s.policy.Get()
	if score < policy.MinScore || score > policy.MaxScore {
		return domain.ErrInvalidScore
	}
	return nil
}

// invalidateAggregates drops cached averages the write can affect. The
// owning merchant is resolved from the product so merchant scopes can be
// invalidated precisely; lookup failures fall back to a full purge.
func (s *Service) invalidateAggregates(ctx context.Context, entityID snowflake.ID, merchantID snowflake.ID) {
	if merchantID == 0 {
		product, err := s.productRepo.FindByID(ctx, s.db, entityID)
		if err == nil && product != nil {
			merchantID = product.MerchantID
		}
	}
	s.cache.InvalidateEntity(entityID, merchantID)
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toResponse(r *domain.Rating) domain.Response {
	return domain.Response{
		ID:         r.ID.String(),
		EntityID:   r.EntityID.String(),
		AuthorID:   r.AuthorID.String(),
		Score:      r.Score,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
		ModifiedAt: r.ModifiedAt,
	}
}

func toProductResponse(item domain.AverageProductRating) domain.AverageProductResponse {
	return domain.AverageProductResponse{
		EntityID:     item.EntityID.String(),
		AverageScore: item.AverageScore,
		RatingCount:  item.RatingCount,
	}
}

func toProductResponses(items []domain.AverageProductRating) []domain.AverageProductResponse {
	resp := make([]domain.AverageProductResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toProductResponse(item))
	}
	return resp
}

func toMerchantResponse(item domain.AverageMerchantRating) domain.AverageMerchantResponse {
	return domain.AverageMerchantResponse{
		MerchantID:   item.MerchantID.String(),
		AverageScore: item.AverageScore,
		RatingCount:  item.RatingCount,
	}
}

func toMerchantResponses(items []domain.AverageMerchantRating) []domain.AverageMerchantResponse {
	resp := make([]domain.AverageMerchantResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toMerchantResponse(item))
	}
	return resp
}

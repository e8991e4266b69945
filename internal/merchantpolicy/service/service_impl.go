package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ratewise/internal/clock"
	identitydomain "github.com/smallbiznis/ratewise/internal/identity/domain"
	"github.com/smallbiznis/ratewise/internal/merchantpolicy/domain"
	"github.com/smallbiznis/ratewise/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("merchantpolicy.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context, merchantID string) ([]domain.Response, error) {
	var target snowflake.ID
	if strings.TrimSpace(merchantID) == "" {
		identity, ok := usercontext.IdentityFromContext(ctx)
		if !ok {
			return nil, domain.ErrInvalidMerchant
		}
		target = identity.UserID
	} else {
		parsed, err := snowflake.ParseString(strings.TrimSpace(merchantID))
		if err != nil || parsed <= 0 {
			return nil, domain.ErrInvalidID
		}
		target = parsed
	}

	items, err := s.repo.FindByMerchant(ctx, s.db, target)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	identity, ok := usercontext.IdentityFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidMerchant
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, domain.ErrInvalidSubject
	}

	now := s.clock.Now()
	effective := now
	if req.EffectiveDate != nil {
		effective = req.EffectiveDate.UTC()
	}

	policy := &domain.MerchantPolicy{
		ID:            s.genID.Generate(),
		MerchantID:    identity.UserID,
		Subject:       subject,
		Description:   strings.TrimSpace(req.Description),
		EffectiveDate: effective,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, s.db, policy); err != nil {
		return nil, err
	}

	resp := toResponse(policy)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	policy, err := s.loadOwned(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Subject != nil {
		subject := strings.TrimSpace(*req.Subject)
		if subject == "" {
			return nil, domain.ErrInvalidSubject
		}
		policy.Subject = subject
	}
	if req.Description != nil {
		policy.Description = strings.TrimSpace(*req.Description)
	}
	if req.EffectiveDate != nil {
		policy.EffectiveDate = req.EffectiveDate.UTC()
	}

	policy.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, policy); err != nil {
		return nil, err
	}

	resp := toResponse(policy)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	policy, err := s.loadOwned(ctx, id)
	if err != nil {
		return err
	}

	rows, err := s.repo.Delete(ctx, s.db, policy.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// loadOwned fetches the policy and checks the caller may mutate it.
// Existence is checked before ownership so callers cannot probe ids.
func (s *Service) loadOwned(ctx context.Context, id string) (*domain.MerchantPolicy, error) {
	identity, ok := usercontext.IdentityFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidMerchant
	}

	policyID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || policyID <= 0 {
		return nil, domain.ErrInvalidID
	}

	policy, err := s.repo.FindByID(ctx, s.db, policyID)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, domain.ErrNotFound
	}
	if policy.MerchantID != identity.UserID && !strings.EqualFold(identity.Role, identitydomain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	return policy, nil
}

func toResponse(p *domain.MerchantPolicy) domain.Response {
	return domain.Response{
		ID:            p.ID.String(),
		MerchantID:    p.MerchantID.String(),
		Subject:       p.Subject,
		Description:   p.Description,
		EffectiveDate: p.EffectiveDate,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

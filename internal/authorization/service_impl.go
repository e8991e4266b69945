// Package authorization holds the single authoritative access policy.
// Every route guard resolves to one (object, action) pair checked here;
// handlers carry no ad hoc role logic.
package authorization

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	identitydomain "github.com/smallbiznis/ratewise/internal/identity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectRating         = "rating"
	ObjectProduct        = "product"
	ObjectMerchantPolicy = "merchant_policy"
)

const (
	ActionRatingInsert       = "rating.insert"
	ActionRatingListAll      = "rating.list_all"
	ActionRatingView         = "rating.view"
	ActionRatingUpdate       = "rating.update"
	ActionRatingDelete       = "rating.delete"
	ActionRatingMerchantView = "rating.merchant_view"

	ActionProductView   = "product.view"
	ActionProductCreate = "product.create"

	ActionMerchantPolicyView   = "merchant_policy.view"
	ActionMerchantPolicyCreate = "merchant_policy.create"
	ActionMerchantPolicyUpdate = "merchant_policy.update"
	ActionMerchantPolicyDelete = "merchant_policy.delete"
)

var (
	ErrDenied        = errors.New("authorization_denied")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// Service answers "may this role perform this action on this object".
type Service interface {
	Authorize(ctx context.Context, role string, object string, action string) error
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds the casbin enforcer backed by the database and seeds
// the role policies.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role string, object string, action string) error {
	_ = ctx

	role = strings.TrimSpace(role)
	if role == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(roleSubject(role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrDenied
	}
	return nil
}

func roleSubject(role string) string {
	return "role:" + strings.ToLower(role)
}

// seedPolicies installs the access table. Idempotent: AddPolicy is a
// no-op for existing rules.
func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	type rule struct {
		sub, obj, act string
	}

	admin := roleSubject(identitydomain.RoleAdmin)
	merchant := roleSubject(identitydomain.RoleMerchant)
	consumer := roleSubject(identitydomain.RoleConsumer)

	rules := []rule{
		// Any authenticated role may submit, read, and manage its own
		// ratings; ownership on update/delete is enforced by the rating
		// service against the stored row.
		{consumer, ObjectRating, ActionRatingInsert},
		{consumer, ObjectRating, ActionRatingView},
		{consumer, ObjectRating, ActionRatingUpdate},
		{consumer, ObjectRating, ActionRatingDelete},
		{consumer, ObjectProduct, ActionProductView},

		{merchant, ObjectRating, ActionRatingInsert},
		{merchant, ObjectRating, ActionRatingView},
		{merchant, ObjectRating, ActionRatingUpdate},
		{merchant, ObjectRating, ActionRatingDelete},
		{merchant, ObjectRating, ActionRatingMerchantView},
		{merchant, ObjectProduct, ActionProductView},
		{merchant, ObjectProduct, ActionProductCreate},
		{merchant, ObjectMerchantPolicy, ActionMerchantPolicyView},
		{merchant, ObjectMerchantPolicy, ActionMerchantPolicyCreate},
		{merchant, ObjectMerchantPolicy, ActionMerchantPolicyUpdate},
		{merchant, ObjectMerchantPolicy, ActionMerchantPolicyDelete},

		{admin, ObjectRating, ActionRatingInsert},
		{admin, ObjectRating, ActionRatingListAll},
		{admin, ObjectRating, ActionRatingView},
		{admin, ObjectRating, ActionRatingUpdate},
		{admin, ObjectRating, ActionRatingDelete},
		{admin, ObjectRating, ActionRatingMerchantView},
		{admin, ObjectProduct, ActionProductView},
		{admin, ObjectProduct, ActionProductCreate},
		{admin, ObjectMerchantPolicy, ActionMerchantPolicyView},
		{admin, ObjectMerchantPolicy, ActionMerchantPolicyCreate},
		{admin, ObjectMerchantPolicy, ActionMerchantPolicyUpdate},
		{admin, ObjectMerchantPolicy, ActionMerchantPolicyDelete},
	}

	for _, r := range rules {
		if _, err := enforcer.AddPolicy(r.sub, r.obj, r.act); err != nil {
			return err
		}
	}
	return nil
}

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/ratewise/internal/authorization"
	"github.com/smallbiznis/ratewise/internal/config"
	"github.com/smallbiznis/ratewise/internal/identity"
	identitydomain "github.com/smallbiznis/ratewise/internal/identity/domain"
	"github.com/smallbiznis/ratewise/internal/identity/session"
	"github.com/smallbiznis/ratewise/internal/merchantpolicy"
	merchantpolicydomain "github.com/smallbiznis/ratewise/internal/merchantpolicy/domain"
	"github.com/smallbiznis/ratewise/internal/observability"
	obsmiddleware "github.com/smallbiznis/ratewise/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/ratewise/internal/observability/metrics"
	obstracing "github.com/smallbiznis/ratewise/internal/observability/tracing"
	"github.com/smallbiznis/ratewise/internal/product"
	productdomain "github.com/smallbiznis/ratewise/internal/product/domain"
	"github.com/smallbiznis/ratewise/internal/ratelimit"
	"github.com/smallbiznis/ratewise/internal/rating"
	ratingdomain "github.com/smallbiznis/ratewise/internal/rating/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	identity.Module,
	session.Module,
	rating.Module,
	product.Module,
	merchantpolicy.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	genID         *snowflake.Node
	sessions      *session.Manager
	identitySvc   identitydomain.Service
	authzSvc      authorization.Service
	ratingSvc     ratingdomain.Service
	productSvc    productdomain.Service
	policySvc     merchantpolicydomain.Service
	publicLimiter *ratelimit.PublicRateLimiter
	obsMetrics    *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	Sessions      *session.Manager
	IdentitySvc   identitydomain.Service
	AuthzSvc      authorization.Service
	RatingSvc     ratingdomain.Service
	ProductSvc    productdomain.Service
	PolicySvc     merchantpolicydomain.Service
	PublicLimiter *ratelimit.PublicRateLimiter
	ObsMetrics    *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		sessions:      p.Sessions,
		identitySvc:   p.IdentitySvc,
		authzSvc:      p.AuthzSvc,
		ratingSvc:     p.RatingSvc,
		productSvc:    p.ProductSvc,
		policySvc:     p.PolicySvc,
		publicLimiter: p.PublicLimiter,
		obsMetrics:    p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerRatingRoutes()
	svc.registerProductRoutes()
	svc.registerMerchantPolicyRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerRatingRoutes() {
	ratings := s.engine.Group("/ratings")

	// Aggregate scopes are registered before /:id so the static segments
	// win route resolution.
	ratings.GET("/products/consumer", s.PublicRateLimit("ratings_products_consumer"), s.GetAverageProductRatings)
	ratings.GET("/products/consumer/:entityId", s.PublicRateLimit("ratings_product_consumer"), s.GetAverageProductRating)
	ratings.GET("/products/merchant", s.AuthRequired(), s.authorizeAction(authorization.ObjectRating, authorization.ActionRatingMerchantView), s.GetOwnProductRatings)
	ratings.GET("/merchants", s.PublicRateLimit("ratings_merchants"), s.GetAverageMerchantRatings)
	ratings.GET("/merchants/current", s.AuthRequired(), s.authorizeAction(authorization.ObjectRating, authorization.ActionRatingMerchantView), s.GetCurrentMerchantRating)
	ratings.GET("/merchants/:merchantId", s.PublicRateLimit("ratings_merchant"), s.GetAverageMerchantRating)

	ratings.POST("/new", s.AuthRequired(), s.authorizeAction(authorization.ObjectRating, authorization.ActionRatingInsert), s.InsertRating)
	ratings.GET("", s.AuthRequired(), s.authorizeAction(authorization.ObjectRating, authorization.ActionRatingListAll), s.ListRatings)
	ratings.GET("/:id", s.AuthRequired(), s.authorizeAction(authorization.ObjectRating, authorization.ActionRatingView), s.GetRatingByID)
	ratings.PUT("/:id/edit", s.AuthRequired(), s.authorizeAction(authorization.ObjectRating, authorization.ActionRatingUpdate), s.UpdateRating)
	ratings.DELETE("/:id", s.AuthRequired(), s.authorizeAction(authorization.ObjectRating, authorization.ActionRatingDelete), s.DeleteRating)
}

func (s *Server) registerProductRoutes() {
	products := s.engine.Group("/products")

	products.GET("/:id", s.GetProductByID)
	products.GET("", s.AuthRequired(), s.authorizeAction(authorization.ObjectProduct, authorization.ActionProductCreate), s.ListOwnProducts)
	products.POST("", s.AuthRequired(), s.authorizeAction(authorization.ObjectProduct, authorization.ActionProductCreate), s.CreateProduct)
}

func (s *Server) registerMerchantPolicyRoutes() {
	policies := s.engine.Group("/merchant-policies")

	policies.GET("/merchant/:merchantId", s.PublicRateLimit("merchant_policies"), s.ListMerchantPolicies)
	policies.GET("", s.AuthRequired(), s.authorizeAction(authorization.ObjectMerchantPolicy, authorization.ActionMerchantPolicyView), s.ListOwnMerchantPolicies)
	policies.POST("", s.AuthRequired(), s.authorizeAction(authorization.ObjectMerchantPolicy, authorization.ActionMerchantPolicyCreate), s.CreateMerchantPolicy)
	policies.PUT("/:id", s.AuthRequired(), s.authorizeAction(authorization.ObjectMerchantPolicy, authorization.ActionMerchantPolicyUpdate), s.UpdateMerchantPolicy)
	policies.DELETE("/:id", s.AuthRequired(), s.authorizeAction(authorization.ObjectMerchantPolicy, authorization.ActionMerchantPolicyDelete), s.DeleteMerchantPolicy)
}

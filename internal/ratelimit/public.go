package ratelimit

import (
	"context"

	"github.com/smallbiznis/ratewise/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// PublicRateLimiter throttles anonymous aggregate reads per client IP.
// When no redis backend is configured it admits everything, so local
// development does not require a running redis.
type PublicRateLimiter struct {
	bucket *TokenBucket
	policy *config.RatingPolicyHolder
	log    *zap.Logger
}

type PublicParams struct {
	fx.In

	Bucket *TokenBucket `optional:"true"`
	Policy *config.RatingPolicyHolder
	Log    *zap.Logger
}

func NewPublicRateLimiter(p PublicParams) *PublicRateLimiter {
	return &PublicRateLimiter{
		bucket: p.Bucket,
		policy: p.Policy,
		log:    p.Log.Named("ratelimit.public"),
	}
}

// Allow reports whether the caller identified by key may proceed. Redis
// errors fail open: an unavailable limiter must not take the public read
// path down with it.
func (l *PublicRateLimiter) Allow(ctx context.Context, key string) (*Result, bool) {
	if l == nil || l.bucket == nil {
		return nil, true
	}

	policy := l.policy.Get()
	res, err := l.bucket.Allow(ctx, "ratelimit:public:"+key, policy.PublicRatePerSecond, policy.PublicRateBurst)
	if err != nil {
		l.log.Warn("rate limit check failed, admitting request", zap.Error(err))
		return nil, true
	}
	return res, res.Allowed
}

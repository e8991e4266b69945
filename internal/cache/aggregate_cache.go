package cache

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ratewise/internal/clock"
	ratingdomain "github.com/smallbiznis/ratewise/internal/rating/domain"
)

const allKey = "all"

// AggregateCache holds computed rating averages per query scope. Writes
// to the ratings table invalidate every scope the changed row can affect,
// so readers never observe a stale average beyond the configured TTL.
type AggregateCache struct {
	productAll         *TTLCache[string, []ratingdomain.AverageProductRating]
	productByEntity    *TTLCache[snowflake.ID, ratingdomain.AverageProductRating]
	productsByMerchant *TTLCache[snowflake.ID, []ratingdomain.AverageProductRating]
	merchantAll        *TTLCache[string, []ratingdomain.AverageMerchantRating]
	merchantByID       *TTLCache[snowflake.ID, ratingdomain.AverageMerchantRating]
}

func NewAggregateCache(clk clock.Clock) *AggregateCache {
	return &AggregateCache{
		productAll:         NewTTLCache[string, []ratingdomain.AverageProductRating](clk),
		productByEntity:    NewTTLCache[snowflake.ID, ratingdomain.AverageProductRating](clk),
		productsByMerchant: NewTTLCache[snowflake.ID, []ratingdomain.AverageProductRating](clk),
		merchantAll:        NewTTLCache[string, []ratingdomain.AverageMerchantRating](clk),
		merchantByID:       NewTTLCache[snowflake.ID, ratingdomain.AverageMerchantRating](clk),
	}
}

func (c *AggregateCache) GetAllProducts() ([]ratingdomain.AverageProductRating, bool) {
	return c.productAll.Get(allKey)
}

func (c *AggregateCache) SetAllProducts(v []ratingdomain.AverageProductRating, ttl time.Duration) {
	c.productAll.Set(allKey, v, ttl)
}

func (c *AggregateCache) GetProduct(entityID snowflake.ID) (ratingdomain.AverageProductRating, bool) {
	return c.productByEntity.Get(entityID)
}

func (c *AggregateCache) SetProduct(entityID snowflake.ID, v ratingdomain.AverageProductRating, ttl time.Duration) {
	c.productByEntity.Set(entityID, v, ttl)
}

func (c *AggregateCache) GetMerchantProducts(merchantID snowflake.ID) ([]ratingdomain.AverageProductRating, bool) {
	return c.productsByMerchant.Get(merchantID)
}

func (c *AggregateCache) SetMerchantProducts(merchantID snowflake.ID, v []ratingdomain.AverageProductRating, ttl time.Duration) {
	c.productsByMerchant.Set(merchantID, v, ttl)
}

func (c *AggregateCache) GetAllMerchants() ([]ratingdomain.AverageMerchantRating, bool) {
	return c.merchantAll.Get(allKey)
}

func (c *AggregateCache) SetAllMerchants(v []ratingdomain.AverageMerchantRating, ttl time.Duration) {
	c.merchantAll.Set(allKey, v, ttl)
}

func (c *AggregateCache) GetMerchant(merchantID snowflake.ID) (ratingdomain.AverageMerchantRating, bool) {
	return c.merchantByID.Get(merchantID)
}

func (c *AggregateCache) SetMerchant(merchantID snowflake.ID, v ratingdomain.AverageMerchantRating, ttl time.Duration) {
	c.merchantByID.Set(merchantID, v, ttl)
}

// InvalidateEntity drops every scope a write to entityID can change.
// merchantID may be zero when the product owner is unknown; the broad
// scopes are still purged so list readers recompute.
func (c *AggregateCache) InvalidateEntity(entityID snowflake.ID, merchantID snowflake.ID) {
	c.productByEntity.Delete(entityID)
	c.productAll.Purge()
	c.merchantAll.Purge()
	if merchantID != 0 {
		c.productsByMerchant.Delete(merchantID)
		c.merchantByID.Delete(merchantID)
	} else {
		c.productsByMerchant.Purge()
		c.merchantByID.Purge()
	}
}

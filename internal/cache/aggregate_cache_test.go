package cache

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ratewise/internal/clock"
	ratingdomain "github.com/smallbiznis/ratewise/internal/rating/domain"
	"github.com/stretchr/testify/assert"
)

func TestTTLCacheExpiry(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewTTLCache[string, int](clk)

	c.Set("a", 1, time.Minute)
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, got)

	clk.Advance(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCacheZeroTTLNotStored(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewTTLCache[string, int](clk)

	c.Set("a", 1, 0)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestAggregateCacheInvalidateEntity(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewAggregateCache(clk)

	entityID := snowflake.ID(100)
	merchantID := snowflake.ID(200)
	otherMerchantID := snowflake.ID(300)
	ttl := time.Minute

	c.SetProduct(entityID, ratingdomain.AverageProductRating{EntityID: entityID, AverageScore: 4, RatingCount: 1}, ttl)
	c.SetAllProducts([]ratingdomain.AverageProductRating{{EntityID: entityID, AverageScore: 4, RatingCount: 1}}, ttl)
	c.SetMerchantProducts(merchantID, []ratingdomain.AverageProductRating{{EntityID: entityID, AverageScore: 4, RatingCount: 1}}, ttl)
	c.SetMerchantProducts(otherMerchantID, nil, ttl)
	c.SetAllMerchants([]ratingdomain.AverageMerchantRating{{MerchantID: merchantID, AverageScore: 4, RatingCount: 1}}, ttl)
	c.SetMerchant(merchantID, ratingdomain.AverageMerchantRating{MerchantID: merchantID, AverageScore: 4, RatingCount: 1}, ttl)

	c.InvalidateEntity(entityID, merchantID)

	_, ok := c.GetProduct(entityID)
	assert.False(t, ok)
	_, ok = c.GetAllProducts()
	assert.False(t, ok)
	_, ok = c.GetMerchantProducts(merchantID)
	assert.False(t, ok)
	_, ok = c.GetAllMerchants()
	assert.False(t, ok)
	_, ok = c.GetMerchant(merchantID)
	assert.False(t, ok)

	// Scopes for unrelated merchants survive a targeted invalidation.
	_, ok = c.GetMerchantProducts(otherMerchantID)
	assert.True(t, ok)
}

func TestAggregateCacheInvalidateUnknownMerchantPurgesAll(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewAggregateCache(clk)

	entityID := snowflake.ID(100)
	merchantID := snowflake.ID(200)
	ttl := time.Minute

	c.SetMerchantProducts(merchantID, nil, ttl)
	c.SetMerchant(merchantID, ratingdomain.AverageMerchantRating{MerchantID: merchantID}, ttl)

	c.InvalidateEntity(entityID, 0)

	_, ok := c.GetMerchantProducts(merchantID)
	assert.False(t, ok)
	_, ok = c.GetMerchant(merchantID)
	assert.False(t, ok)
}

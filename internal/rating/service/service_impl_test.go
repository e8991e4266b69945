package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/ratewise/internal/cache"
	"github.com/smallbiznis/ratewise/internal/clock"
	"github.com/smallbiznis/ratewise/internal/config"
	identitydomain "github.com/smallbiznis/ratewise/internal/identity/domain"
	productdomain "github.com/smallbiznis/ratewise/internal/product/domain"
	productrepository "github.com/smallbiznis/ratewise/internal/product/repository"
	"github.com/smallbiznis/ratewise/internal/rating/domain"
	"github.com/smallbiznis/ratewise/internal/rating/repository"
	"github.com/smallbiznis/ratewise/internal/usercontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	clock *clock.FakeClock
	genID *snowflake.Node
	cache *cache.AggregateCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&productdomain.Product{}, &domain.Rating{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	aggCache := cache.NewAggregateCache(clk)

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        repository.Provide(),
		ProductRepo: productrepository.Provide(),
		Cache:       aggCache,
		Policy:      config.StaticRatingPolicyHolder(config.DefaultRatingPolicy()),
	})

	return &fixture{svc: svc, db: db, clock: clk, genID: node, cache: aggCache}
}

func (f *fixture) createProduct(t *testing.T, merchantID snowflake.ID) snowflake.ID {
	t.Helper()

	now := f.clock.Now()
	product := productdomain.Product{
		ID:         f.genID.Generate(),
		MerchantID: merchantID,
		Code:       fmt.Sprintf("p-%d", f.genID.Generate()),
		Name:       "test product",
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.db.Create(&product).Error)
	return product.ID
}

func asConsumer(userID snowflake.ID) context.Context {
	return usercontext.WithIdentity(context.Background(), userID, identitydomain.RoleConsumer)
}

func TestInsertAndAverageLifecycle(t *testing.T) {
	f := newFixture(t)
	merchantID := f.genID.Generate()
	entityID := f.createProduct(t, merchantID)
	consumer1 := f.genID.Generate()
	consumer2 := f.genID.Generate()

	res, err := f.svc.Insert(asConsumer(consumer1), domain.InsertRequest{
		EntityID: entityID.String(),
		Score:    4,
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.ID)

	stored, err := f.svc.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, consumer1.String(), stored.AuthorID)
	assert.Equal(t, entityID.String(), stored.EntityID)

	avg, err := f.svc.AverageProduct(context.Background(), entityID.String())
	require.NoError(t, err)
	assert.Equal(t, 4.0, avg.AverageScore)
	assert.Equal(t, int64(1), avg.RatingCount)

	f.clock.Advance(time.Minute)
	_, err = f.svc.Update(asConsumer(consumer1), domain.UpdateRequest{ID: res.ID, Score: 2})
	require.NoError(t, err)

	avg, err = f.svc.AverageProduct(context.Background(), entityID.String())
	require.NoError(t, err)
	assert.Equal(t, 2.0, avg.AverageScore)

	require.NoError(t, f.svc.Delete(asConsumer(consumer1), res.ID))
	_, err = f.svc.Insert(asConsumer(consumer2), domain.InsertRequest{
		EntityID: entityID.String(),
		Score:    1,
	})
	require.NoError(t, err)

	avg, err = f.svc.AverageProduct(context.Background(), entityID.String())
	require.NoError(t, err)
	assert.Equal(t, 1.0, avg.AverageScore)
	assert.Equal(t, int64(1), avg.RatingCount)
}

func TestInsertDuplicateAuthorEntity(t *testing.T) {
	f := newFixture(t)
	entityID := f.createProduct(t, f.genID.Generate())
	consumer := f.genID.Generate()

	_, err := f.svc.Insert(asConsumer(consumer), domain.InsertRequest{EntityID: entityID.String(), Score: 5})
	require.NoError(t, err)

	_, err = f.svc.Insert(asConsumer(consumer), domain.InsertRequest{EntityID: entityID.String(), Score: 3})
	assert.ErrorIs(t, err, domain.ErrRatingExists)
}

func TestInsertValidation(t *testing.T) {
	f := newFixture(t)
	entityID := f.createProduct(t, f.genID.Generate())
	consumer := f.genID.Generate()

	_, err := f.svc.Insert(context.Background(), domain.InsertRequest{EntityID: entityID.String(), Score: 3})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.svc.Insert(asConsumer(consumer), domain.InsertRequest{EntityID: "not-a-number", Score: 3})
	assert.ErrorIs(t, err, domain.ErrInvalidEntity)

	_, err = f.svc.Insert(asConsumer(consumer), domain.InsertRequest{EntityID: f.genID.Generate().String(), Score: 3})
	assert.ErrorIs(t, err, domain.ErrInvalidEntity)

	_, err = f.svc.Insert(asConsumer(consumer), domain.InsertRequest{EntityID: entityID.String(), Score: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidScore)

	_, err = f.svc.Insert(asConsumer(consumer), domain.InsertRequest{EntityID: entityID.String(), Score: 6})
	assert.ErrorIs(t, err, domain.ErrInvalidScore)
}

func TestUpdateOwnership(t *testing.T) {
	f := newFixture(t)
	entityID := f.createProduct(t, f.genID.Generate())
	owner := f.genID.Generate()
	stranger := f.genID.Generate()

	res, err := f.svc.Insert(asConsumer(owner), domain.InsertRequest{EntityID: entityID.String(), Score: 4})
	require.NoError(t, err)

	_, err = f.svc.Update(asConsumer(stranger), domain.UpdateRequest{ID: res.ID, Score: 1})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Admins may edit any rating.
	adminCtx := usercontext.WithIdentity(context.Background(), f.genID.Generate(), identitydomain.RoleAdmin)
	updated, err := f.svc.Update(adminCtx, domain.UpdateRequest{ID: res.ID, Score: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Score)

	_, err = f.svc.Update(asConsumer(owner), domain.UpdateRequest{ID: f.genID.Generate().String(), Score: 3})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Score bounds are rejected before the row is looked up.
	_, err = f.svc.Update(asConsumer(owner), domain.UpdateRequest{ID: f.genID.Generate().String(), Score: 9})
	assert.ErrorIs(t, err, domain.ErrInvalidScore)
}

func TestDeleteIsNotIdempotent(t *testing.T) {
	f := newFixture(t)
	entityID := f.createProduct(t, f.genID.Generate())
	owner := f.genID.Generate()

	res, err := f.svc.Insert(asConsumer(owner), domain.InsertRequest{EntityID: entityID.String(), Score: 4})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(asConsumer(owner), res.ID))
	assert.ErrorIs(t, f.svc.Delete(asConsumer(owner), res.ID), domain.ErrNotFound)
}

func TestAverageProductUnknownEntity(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AverageProduct(context.Background(), f.genID.Generate().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.AverageProduct(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestMerchantAggregates(t *testing.T) {
	f := newFixture(t)
	merchant1 := f.genID.Generate()
	merchant2 := f.genID.Generate()
	p1 := f.createProduct(t, merchant1)
	p2 := f.createProduct(t, merchant1)
	p3 := f.createProduct(t, merchant2)

	c1 := f.genID.Generate()
	c2 := f.genID.Generate()

	for _, in := range []struct {
		author snowflake.ID
		entity snowflake.ID
		score  int
	}{
		{c1, p1, 5},
		{c2, p1, 3},
		{c1, p2, 2},
		{c1, p3, 1},
	} {
		_, err := f.svc.Insert(asConsumer(in.author), domain.InsertRequest{EntityID: in.entity.String(), Score: in.score})
		require.NoError(t, err)
	}

	// merchant1 averages across both products: (5+3+2)/3
	avg, err := f.svc.AverageMerchant(context.Background(), merchant1.String())
	require.NoError(t, err)
	assert.InDelta(t, 10.0/3.0, avg.AverageScore, 1e-9)
	assert.Equal(t, int64(3), avg.RatingCount)

	products, err := f.svc.AverageOwnProducts(usercontext.WithIdentity(context.Background(), merchant1, identitydomain.RoleMerchant))
	require.NoError(t, err)
	require.Len(t, products, 2)

	merchants, err := f.svc.AverageAllMerchants(context.Background())
	require.NoError(t, err)
	assert.Len(t, merchants, 2)

	// Merchant with no rated products lists empty rather than erroring.
	emptyMerchant := f.genID.Generate()
	products, err = f.svc.AverageOwnProducts(usercontext.WithIdentity(context.Background(), emptyMerchant, identitydomain.RoleMerchant))
	require.NoError(t, err)
	assert.Empty(t, products)

	// But the single-merchant scope treats no data as not found.
	_, err = f.svc.AverageMerchant(context.Background(), emptyMerchant.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAverageServedFromCacheUntilInvalidated(t *testing.T) {
	f := newFixture(t)
	entityID := f.createProduct(t, f.genID.Generate())
	c1 := f.genID.Generate()
	c2 := f.genID.Generate()

	_, err := f.svc.Insert(asConsumer(c1), domain.InsertRequest{EntityID: entityID.String(), Score: 4})
	require.NoError(t, err)

	avg, err := f.svc.AverageProduct(context.Background(), entityID.String())
	require.NoError(t, err)
	assert.Equal(t, 4.0, avg.AverageScore)

	// A write through the service invalidates synchronously.
	_, err = f.svc.Insert(asConsumer(c2), domain.InsertRequest{EntityID: entityID.String(), Score: 2})
	require.NoError(t, err)

	avg, err = f.svc.AverageProduct(context.Background(), entityID.String())
	require.NoError(t, err)
	assert.Equal(t, 3.0, avg.AverageScore)
	assert.Equal(t, int64(2), avg.RatingCount)
}

func TestListPagination(t *testing.T) {
	f := newFixture(t)
	entityID := f.createProduct(t, f.genID.Generate())

	for i := 0; i < 5; i++ {
		_, err := f.svc.Insert(asConsumer(f.genID.Generate()), domain.InsertRequest{EntityID: entityID.String(), Score: 3})
		require.NoError(t, err)
	}

	req := domain.ListRequest{}
	req.PageSize = 2
	page1, err := f.svc.List(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, page1.Items, 2)
	assert.True(t, page1.PageInfo.HasMore)

	req.PageToken = page1.PageInfo.NextPageToken
	page2, err := f.svc.List(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, page2.Items, 2)
	assert.True(t, page2.PageInfo.HasMore)
	assert.NotEqual(t, page1.Items[0].ID, page2.Items[0].ID)

	req.PageToken = page2.PageInfo.NextPageToken
	page3, err := f.svc.List(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, page3.Items, 1)
	assert.False(t, page3.PageInfo.HasMore)
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/ratewise/internal/authorization"
	"github.com/smallbiznis/ratewise/internal/config"
	identitydomain "github.com/smallbiznis/ratewise/internal/identity/domain"
	"github.com/smallbiznis/ratewise/internal/identity/session"
	"github.com/smallbiznis/ratewise/internal/observability"
	"github.com/smallbiznis/ratewise/internal/ratelimit"
	ratingdomain "github.com/smallbiznis/ratewise/internal/rating/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeIdentityService struct {
	identities map[string]identitydomain.Identity
}

func (f *fakeIdentityService) Login(ctx context.Context, req identitydomain.LoginRequest) (*identitydomain.LoginResult, error) {
	_ = ctx
	_ = req
	return nil, identitydomain.ErrInvalidCredentials
}

func (f *fakeIdentityService) Logout(ctx context.Context, token string) error {
	_ = ctx
	_ = token
	return nil
}

func (f *fakeIdentityService) Authenticate(ctx context.Context, token string) (*identitydomain.Identity, error) {
	_ = ctx
	identity, ok := f.identities[token]
	if !ok {
		return nil, identitydomain.ErrInvalidSession
	}
	return &identity, nil
}

type fakeAuthzService struct{}

func (f *fakeAuthzService) Authorize(ctx context.Context, role, object, action string) error {
	_ = ctx
	_ = object
	switch strings.ToLower(role) {
	case identitydomain.RoleAdmin:
		return nil
	case identitydomain.RoleMerchant:
		if action == authorization.ActionRatingListAll {
			return ErrForbidden
		}
		return nil
	case identitydomain.RoleConsumer:
		switch action {
		case authorization.ActionRatingListAll,
			authorization.ActionRatingMerchantView,
			authorization.ActionProductCreate:
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

type fakeRatingService struct {
	insertResult *ratingdomain.InsertResult
	insertErr    error
	lastInsert   ratingdomain.InsertRequest

	getResponse *ratingdomain.Response
	getErr      error

	updateErr error
	deleteErr error

	listResult *ratingdomain.ListResult

	productAverages  []ratingdomain.AverageProductResponse
	merchantAverages []ratingdomain.AverageMerchantResponse
	singleProduct    *ratingdomain.AverageProductResponse
	singleMerchant   *ratingdomain.AverageMerchantResponse
	aggregateErr     error
}

func (f *fakeRatingService) Insert(ctx context.Context, req ratingdomain.InsertRequest) (*ratingdomain.InsertResult, error) {
	_ = ctx
	f.lastInsert = req
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	return f.insertResult, nil
}

func (f *fakeRatingService) List(ctx context.Context, req ratingdomain.ListRequest) (*ratingdomain.ListResult, error) {
	_ = ctx
	_ = req
	return f.listResult, nil
}

func (f *fakeRatingService) Get(ctx context.Context, id string) (*ratingdomain.Response, error) {
	_ = ctx
	_ = id
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getResponse, nil
}

func (f *fakeRatingService) Update(ctx context.Context, req ratingdomain.UpdateRequest) (*ratingdomain.Response, error) {
	_ = ctx
	_ = req
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.getResponse, nil
}

func (f *fakeRatingService) Delete(ctx context.Context, id string) error {
	_ = ctx
	_ = id
	return f.deleteErr
}

func (f *fakeRatingService) AverageAllProducts(ctx context.Context) ([]ratingdomain.AverageProductResponse, error) {
	_ = ctx
	return f.productAverages, f.aggregateErr
}

func (f *fakeRatingService) AverageProduct(ctx context.Context, entityID string) (*ratingdomain.AverageProductResponse, error) {
	_ = ctx
	_ = entityID
	if f.aggregateErr != nil {
		return nil, f.aggregateErr
	}
	return f.singleProduct, nil
}

func (f *fakeRatingService) AverageOwnProducts(ctx context.Context) ([]ratingdomain.AverageProductResponse, error) {
	_ = ctx
	return f.productAverages, f.aggregateErr
}

func (f *fakeRatingService) AverageAllMerchants(ctx context.Context) ([]ratingdomain.AverageMerchantResponse, error) {
	_ = ctx
	return f.merchantAverages, f.aggregateErr
}

func (f *fakeRatingService) AverageMerchant(ctx context.Context, merchantID string) (*ratingdomain.AverageMerchantResponse, error) {
	_ = ctx
	_ = merchantID
	if f.aggregateErr != nil {
		return nil, f.aggregateErr
	}
	return f.singleMerchant, nil
}

func (f *fakeRatingService) AverageCurrentMerchant(ctx context.Context) (*ratingdomain.AverageMerchantResponse, error) {
	_ = ctx
	if f.aggregateErr != nil {
		return nil, f.aggregateErr
	}
	return f.singleMerchant, nil
}

const (
	consumerToken = "tok-consumer"
	merchantToken = "tok-merchant"
	adminToken    = "tok-admin"
)

func newTestServer(t *testing.T, ratingSvc ratingdomain.Service) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := NewEngine(observability.Config{}, nil)

	identities := map[string]identitydomain.Identity{
		consumerToken: {UserID: snowflake.ID(11), Role: identitydomain.RoleConsumer},
		merchantToken: {UserID: snowflake.ID(22), Role: identitydomain.RoleMerchant},
		adminToken:    {UserID: snowflake.ID(33), Role: identitydomain.RoleAdmin},
	}

	limiter := ratelimit.NewPublicRateLimiter(ratelimit.PublicParams{
		Policy: config.StaticRatingPolicyHolder(config.DefaultRatingPolicy()),
		Log:    zap.NewNop(),
	})

	return NewServer(ServerParams{
		Gin:           engine,
		Cfg:           config.Config{},
		Sessions:      session.NewManager(config.Config{}),
		IdentitySvc:   &fakeIdentityService{identities: identities},
		AuthzSvc:      &fakeAuthzService{},
		RatingSvc:     ratingSvc,
		PublicLimiter: limiter,
	})
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: token})
	}

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestInsertRatingRequiresSession(t *testing.T) {
	srv := newTestServer(t, &fakeRatingService{})

	rec := doRequest(t, srv, http.MethodPost, "/ratings/new", "", map[string]any{
		"entity_id": "100",
		"score":     4,
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInsertRatingReturnsCreatedID(t *testing.T) {
	fake := &fakeRatingService{insertResult: &ratingdomain.InsertResult{ID: "12345"}}
	srv := newTestServer(t, fake)

	rec := doRequest(t, srv, http.MethodPost, "/ratings/new", consumerToken, map[string]any{
		"entity_id": "100",
		"score":     4,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		Item string `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "12345", body.Item)
	assert.Equal(t, "100", fake.lastInsert.EntityID)
	assert.Equal(t, 4, fake.lastInsert.Score)
}

func TestInsertRatingDuplicateConflicts(t *testing.T) {
	fake := &fakeRatingService{insertErr: ratingdomain.ErrRatingExists}
	srv := newTestServer(t, fake)

	rec := doRequest(t, srv, http.MethodPost, "/ratings/new", consumerToken, map[string]any{
		"entity_id": "100",
		"score":     4,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListRatingsIsAdminOnly(t *testing.T) {
	fake := &fakeRatingService{listResult: &ratingdomain.ListResult{Items: []ratingdomain.Response{}}}
	srv := newTestServer(t, fake)

	rec := doRequest(t, srv, http.MethodGet, "/ratings", consumerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/ratings", merchantToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/ratings", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items []ratingdomain.Response `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Items)
}

func TestGetRatingStatusMapping(t *testing.T) {
	fake := &fakeRatingService{getErr: ratingdomain.ErrNotFound}
	srv := newTestServer(t, fake)

	rec := doRequest(t, srv, http.MethodGet, "/ratings/999", consumerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	fake.getErr = ratingdomain.ErrInvalidID
	rec = doRequest(t, srv, http.MethodGet, "/ratings/abc", consumerToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	fake.getErr = nil
	fake.getResponse = &ratingdomain.Response{ID: "999", EntityID: "100", Score: 4}
	rec = doRequest(t, srv, http.MethodGet, "/ratings/999", consumerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Item ratingdomain.Response `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "999", body.Item.ID)
}

func TestUpdateRatingForbiddenForNonOwner(t *testing.T) {
	fake := &fakeRatingService{updateErr: ratingdomain.ErrForbidden}
	srv := newTestServer(t, fake)

	rec := doRequest(t, srv, http.MethodPut, "/ratings/999/edit", consumerToken, map[string]any{"score": 2})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateRatingAcknowledgesWithEmptyObject(t *testing.T) {
	fake := &fakeRatingService{getResponse: &ratingdomain.Response{ID: "999", Score: 2}}
	srv := newTestServer(t, fake)

	rec := doRequest(t, srv, http.MethodPut, "/ratings/999/edit", consumerToken, map[string]any{"score": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestDeleteRating(t *testing.T) {
	fake := &fakeRatingService{}
	srv := newTestServer(t, fake)

	rec := doRequest(t, srv, http.MethodDelete, "/ratings/999", consumerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	fake.deleteErr = ratingdomain.ErrNotFound
	rec = doRequest(t, srv, http.MethodDelete, "/ratings/999", consumerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicAggregateEndpoints(t *testing.T) {
	fake := &fakeRatingService{
		productAverages: []ratingdomain.AverageProductResponse{
			{EntityID: "100", AverageScore: 4.5, RatingCount: 2},
		},
		merchantAverages: []ratingdomain.AverageMerchantResponse{
			{MerchantID: "200", AverageScore: 4.5, RatingCount: 2},
		},
		singleProduct:  &ratingdomain.AverageProductResponse{EntityID: "100", AverageScore: 4.5, RatingCount: 2},
		singleMerchant: &ratingdomain.AverageMerchantResponse{MerchantID: "200", AverageScore: 4.5, RatingCount: 2},
	}
	srv := newTestServer(t, fake)

	// No session required on consumer-facing aggregate reads.
	rec := doRequest(t, srv, http.MethodGet, "/ratings/products/consumer", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listBody struct {
		Items []ratingdomain.AverageProductResponse `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listBody))
	require.Len(t, listBody.Items, 1)
	assert.Equal(t, 4.5, listBody.Items[0].AverageScore)

	rec = doRequest(t, srv, http.MethodGet, "/ratings/products/consumer/100", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/ratings/merchants", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/ratings/merchants/200", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMerchantScopedAggregatesRequireRole(t *testing.T) {
	fake := &fakeRatingService{
		singleMerchant: &ratingdomain.AverageMerchantResponse{MerchantID: "22", AverageScore: 3, RatingCount: 1},
	}
	srv := newTestServer(t, fake)

	rec := doRequest(t, srv, http.MethodGet, "/ratings/products/merchant", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/ratings/products/merchant", consumerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/ratings/products/merchant", merchantToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/ratings/merchants/current", merchantToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Item ratingdomain.AverageMerchantResponse `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "22", body.Item.MerchantID)
}

package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/ratewise/internal/authorization"
	obscontext "github.com/smallbiznis/ratewise/internal/observability/context"
	"github.com/smallbiznis/ratewise/internal/usercontext"
)

// AuthRequired resolves the session cookie into a caller identity and
// stores it on the request context. Anything behind it can assume an
// authenticated caller.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		identity, err := s.identitySvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := usercontext.WithIdentity(c.Request.Context(), identity.UserID, identity.Role)
		ctx = obscontext.WithActor(ctx, "user", identity.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// authorizeAction gates a route on one entry of the access policy.
// Must run after AuthRequired.
func (s *Server) authorizeAction(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := usercontext.IdentityFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if err := s.authzSvc.Authorize(c.Request.Context(), identity.Role, object, action); err != nil {
			if err == authorization.ErrDenied {
				AbortWithError(c, ErrForbidden)
				return
			}
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// PublicRateLimit throttles an anonymous endpoint per client IP.
func (s *Server) PublicRateLimit(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, allowed := s.publicLimiter.Allow(c.Request.Context(), endpoint+":"+c.ClientIP())
		if allowed {
			s.obsMetrics.RecordRateLimitAllowed(c.Request.Context(), endpoint)
			c.Next()
			return
		}

		s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), endpoint, "token_bucket")
		if res != nil && res.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
		}
		AbortWithError(c, ErrTooManyRequests)
	}
}

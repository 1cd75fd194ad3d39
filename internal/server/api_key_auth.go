package server

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

type contextKey string

const (
	contextAPIKeyID     contextKey = "api_key_id"
	contextAPIKeyScopes contextKey = "api_key_scopes"
)

// APIKeyRequired authenticates the request with a bearer API key and checks
// the scope. Callers are sibling services, not end users.
func (s *Server) APIKeyRequired(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		key, err := s.apiKeySvc.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !key.HasScope(scope) {
			AbortWithError(c, ErrForbidden)
			return
		}

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, contextAPIKeyID, key.ID.String())
		ctx = context.WithValue(ctx, contextAPIKeyScopes, []string(key.Scopes))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// callerID identifies the authenticated API key, for rate limit bucketing.
func callerID(c *gin.Context) string {
	if id, ok := c.Request.Context().Value(contextAPIKeyID).(string); ok {
		return id
	}
	return "anonymous"
}

// rateLimited throttles entitlement lookups per caller.
func (s *Server) rateLimited() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		ok, err := s.limiter.AllowCheck(c.Request.Context(), callerID(c))
		if err != nil {
			// Redis trouble must not take the API down.
			s.log.Warn("rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if !ok {
			s.metrics.RecordRateLimitDenied("check")
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		s.metrics.RecordRateLimitAllowed()
		c.Next()
	}
}

package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	subscriptiondomain "github.com/briarworks/briarkeep/internal/subscription/domain"
)

func (s *Server) listSubscriptionRecords(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	page, err := s.subscriptionSvc.List(c.Request.Context(), subscriptiondomain.ListRequest{
		UserID:    strings.TrimSpace(c.Query("user_id")),
		Email:     strings.TrimSpace(c.Query("email")),
		Provider:  strings.TrimSpace(c.Query("provider")),
		Status:    strings.TrimSpace(c.Query("status")),
		Limit:     limit,
		PageToken: strings.TrimSpace(c.Query("page_token")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// upsertSubscriptionRecord ingests one provider webhook-shaped record. A
// short redis lock serializes concurrent deliveries for the same provider
// subscription; a held lock means another delivery is in flight.
func (s *Server) upsertSubscriptionRecord(c *gin.Context) {
	var req subscriptiondomain.UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	provider := string(req.Provider)
	token, ok, err := s.limiter.TryLockIngest(ctx, provider, req.ProviderSubscriptionID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !ok {
		AbortWithError(c, ErrConflict)
		return
	}
	defer func() {
		if err := s.limiter.ReleaseIngest(ctx, provider, req.ProviderSubscriptionID, token); err != nil {
			s.log.Warn("ingest lock release failed")
		}
	}()

	record, err := s.subscriptionSvc.Upsert(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

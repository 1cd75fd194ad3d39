package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	entitlementdomain "github.com/briarworks/briarkeep/internal/entitlement/domain"
)

func (s *Server) resolveEntitlements(c *gin.Context) {
	var req entitlementdomain.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ents, err := s.entitlementSvc.Resolve(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, entitlementsBody(ents))
}

func entitlementsBody(ents entitlementdomain.Entitlements) gin.H {
	return gin.H{
		"tier":             ents.Tier,
		"limits":           ents.Limits,
		"has_legacy_bonus": ents.HasLegacyBonus,
		"effective_start":  ents.EffectiveStart,
		"match_path":       ents.MatchPath,
		"features":         ents.GrantedFeatures(),
	}
}

func (s *Server) checkFeature(c *gin.Context) {
	var req entitlementdomain.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Feature == "" {
		AbortWithError(c, newValidationError("feature", "missing_feature", "feature is required"))
		return
	}

	resp, err := s.entitlementSvc.Check(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

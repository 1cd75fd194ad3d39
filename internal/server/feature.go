package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	entitlementdomain "github.com/briarworks/briarkeep/internal/entitlement/domain"
)

func (s *Server) listFeatures(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"features": entitlementdomain.Catalog()})
}

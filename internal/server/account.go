package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	accountdomain "github.com/briarworks/briarkeep/internal/account/domain"
	entitlementdomain "github.com/briarworks/briarkeep/internal/entitlement/domain"
)

func (s *Server) listAccounts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	accounts, err := s.accountSvc.List(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (s *Server) createAccount(c *gin.Context) {
	var req accountdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	account, err := s.accountSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (s *Server) getAccount(c *gin.Context) {
	account, err := s.accountSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (s *Server) setAccountGrandfathered(c *gin.Context) {
	var req struct {
		Grandfathered bool `json:"grandfathered"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	account, err := s.accountSvc.SetGrandfathered(c.Request.Context(), c.Param("id"), req.Grandfathered)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// getAccountEntitlements resolves the entitlement set for a known account.
// 404s on an unknown id so callers can tell "no account" from "free tier".
func (s *Server) getAccountEntitlements(c *gin.Context) {
	account, err := s.accountSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ents, err := s.entitlementSvc.Resolve(c.Request.Context(), entitlementdomain.ResolveRequest{
		UserID: account.ID,
		Email:  account.Email,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entitlementsBody(ents))
}

package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	collectiondomain "github.com/briarworks/briarkeep/internal/collection/domain"
)

func (s *Server) listPipes(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	pipes, err := s.collectionSvc.ListPipes(c.Request.Context(), c.Param("accountId"), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pipes": pipes})
}

func (s *Server) addPipe(c *gin.Context) {
	var req collectiondomain.AddPipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.AccountID = c.Param("accountId")

	pipe, err := s.collectionSvc.AddPipe(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pipe)
}

func (s *Server) removePipe(c *gin.Context) {
	if err := s.collectionSvc.RemovePipe(c.Request.Context(), c.Param("accountId"), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listBlends(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	blends, err := s.collectionSvc.ListBlends(c.Request.Context(), c.Param("accountId"), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blends": blends})
}

func (s *Server) addBlend(c *gin.Context) {
	var req collectiondomain.AddBlendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.AccountID = c.Param("accountId")

	blend, err := s.collectionSvc.AddBlend(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, blend)
}

func (s *Server) removeBlend(c *gin.Context) {
	if err := s.collectionSvc.RemoveBlend(c.Request.Context(), c.Param("accountId"), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	postingdomain "github.com/smallbiznis/partita/internal/posting/domain"
)

func (s *Server) CreatePosting(c *gin.Context) {
	var req postingdomain.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.postingSvc.Post(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("posting_category", resp.Category)
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetPosting(c *gin.Context) {
	resp, err := s.postingSvc.GetEntry(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

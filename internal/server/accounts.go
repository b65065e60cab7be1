package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/partita/internal/account/domain"
)

type createAccountRequest struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
	Nature      string `json:"nature"`
}

type updateAccountRequest struct {
	Description string `json:"description"`
}

type moveAccountRequest struct {
	NewParentID string `json:"new_parent_id"`
}

func (s *Server) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.accountSvc.CreateAccount(c.Request.Context(), accountdomain.CreateAccountRequest{
		Kind:        strings.TrimSpace(req.Kind),
		Description: req.Description,
		ParentID:    strings.TrimSpace(req.ParentID),
		Nature:      strings.TrimSpace(req.Nature),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListAccounts(c *gin.Context) {
	var query accountdomain.ListAccountsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.accountSvc.ListAccounts(c.Request.Context(), accountdomain.ListAccountsRequest{
		Kind:       strings.TrimSpace(query.Kind),
		Nature:     strings.TrimSpace(query.Nature),
		CodePrefix: strings.TrimSpace(query.CodePrefix),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAccountTree(c *gin.Context) {
	resp, err := s.accountSvc.ListTree(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAccount(c *gin.Context) {
	resp, err := s.accountSvc.GetAccount(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.accountSvc.UpdateDescription(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Description)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteAccount(c *gin.Context) {
	if err := s.accountSvc.DeleteAccount(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) MoveAccount(c *gin.Context) {
	var req moveAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.accountSvc.MoveAccount(c.Request.Context(), accountdomain.MoveAccountRequest{
		ID:          strings.TrimSpace(c.Param("id")),
		NewParentID: strings.TrimSpace(req.NewParentID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) LockAccount(c *gin.Context) {
	s.setAccountLocked(c, true)
}

func (s *Server) UnlockAccount(c *gin.Context) {
	s.setAccountLocked(c, false)
}

func (s *Server) setAccountLocked(c *gin.Context, locked bool) {
	resp, err := s.accountSvc.SetLocked(c.Request.Context(), strings.TrimSpace(c.Param("id")), locked)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

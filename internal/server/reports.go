package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	reportingdomain "github.com/smallbiznis/partita/internal/reporting/domain"
)

func (s *Server) GetJournal(c *gin.Context) {
	var query reportingdomain.JournalRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reportingSvc.Journal(c.Request.Context(), reportingdomain.JournalRequest{
		From: strings.TrimSpace(query.From),
		To:   strings.TrimSpace(query.To),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAccountCard(c *gin.Context) {
	var query reportingdomain.AccountCardRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reportingSvc.AccountCard(c.Request.Context(), reportingdomain.AccountCardRequest{
		AccountID: strings.TrimSpace(query.AccountID),
		From:      strings.TrimSpace(query.From),
		To:        strings.TrimSpace(query.To),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTrialBalance(c *gin.Context) {
	var query reportingdomain.TrialBalanceRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reportingSvc.TrialBalance(c.Request.Context(), reportingdomain.TrialBalanceRequest{
		AsOf: strings.TrimSpace(query.AsOf),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

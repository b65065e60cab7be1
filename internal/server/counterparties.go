package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	counterpartydomain "github.com/smallbiznis/partita/internal/counterparty/domain"
)

type createCounterpartyRequest struct {
	Name                string `json:"name"`
	VatNumber           string `json:"vat_number"`
	ReceivableAccountID string `json:"receivable_account_id"`
	PayableAccountID    string `json:"payable_account_id"`
}

func (s *Server) CreateCounterparty(c *gin.Context) {
	var req createCounterpartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.counterpartySvc.Create(c.Request.Context(), counterpartydomain.CreateCounterpartyRequest{
		Name:                strings.TrimSpace(req.Name),
		VatNumber:           strings.TrimSpace(req.VatNumber),
		ReceivableAccountID: strings.TrimSpace(req.ReceivableAccountID),
		PayableAccountID:    strings.TrimSpace(req.PayableAccountID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListCounterparties(c *gin.Context) {
	var query counterpartydomain.ListCounterpartyRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.counterpartySvc.List(c.Request.Context(), counterpartydomain.ListCounterpartyRequest{
		Name: strings.TrimSpace(query.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCounterparty(c *gin.Context) {
	resp, err := s.counterpartySvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

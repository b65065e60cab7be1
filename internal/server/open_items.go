package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	openitemdomain "github.com/smallbiznis/partita/internal/openitem/domain"
	vatdomain "github.com/smallbiznis/partita/internal/vatregister/domain"
)

func (s *Server) ListOpenItems(c *gin.Context) {
	var query openitemdomain.ListOpenItemsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.openItemSvc.ListOpenItems(c.Request.Context(), openitemdomain.ListOpenItemsRequest{
		Direction:      strings.TrimSpace(query.Direction),
		CounterpartyID: strings.TrimSpace(query.CounterpartyID),
		DueBefore:      strings.TrimSpace(query.DueBefore),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOpenItem(c *gin.Context) {
	resp, err := s.openItemSvc.GetOpenItem(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCounterpartyHistory(c *gin.Context) {
	resp, err := s.openItemSvc.History(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListVatRegister(c *gin.Context) {
	var query vatdomain.ListRegisterRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.vatRegisterSvc.ListRegister(c.Request.Context(), vatdomain.ListRegisterRequest{
		Register: strings.TrimSpace(query.Register),
		From:     strings.TrimSpace(query.From),
		To:       strings.TrimSpace(query.To),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

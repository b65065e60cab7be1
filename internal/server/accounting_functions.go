package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	fndomain "github.com/smallbiznis/partita/internal/accountingfunction/domain"
)

func (s *Server) CreateFunction(c *gin.Context) {
	var req fndomain.CreateFunctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.functionSvc.CreateFunction(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateFunction(c *gin.Context) {
	var req fndomain.UpdateFunctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.functionSvc.UpdateFunction(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetFunction(c *gin.Context) {
	resp, err := s.functionSvc.GetFunction(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListFunctions(c *gin.Context) {
	var query fndomain.ListFunctionsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	query.Category = strings.TrimSpace(query.Category)

	resp, err := s.functionSvc.ListFunctions(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteFunction(c *gin.Context) {
	if err := s.functionSvc.DeleteFunction(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

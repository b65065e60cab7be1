package server

import (
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorizeWithContext(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeWithContext(c *gin.Context, object string, action string) error {
	if s.authzSvc == nil {
		return ErrForbidden
	}
	role := strings.TrimSpace(c.GetString(contextActorRoleKey))
	if role == "" {
		return ErrForbidden
	}
	return s.authzSvc.Authorize(c.Request.Context(), role, strings.TrimSpace(object), strings.TrimSpace(action))
}

package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/partita/internal/companyctx"
)

const (
	HeaderCompany   = "X-Company-ID"
	HeaderActor     = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"

	contextActorRoleKey = "actor_role"
)

// CompanyContext resolves the company and actor asserted by the upstream
// gateway and stores them on the request context.
func CompanyContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawCompany := strings.TrimSpace(c.GetHeader(HeaderCompany))
		if rawCompany == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		companyID, err := snowflake.ParseString(rawCompany)
		if err != nil || companyID == 0 {
			AbortWithError(c, newValidationError("company_id", "invalid_company", "invalid company id"))
			return
		}

		actorID := strings.TrimSpace(c.GetHeader(HeaderActor))
		if actorID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := companyctx.WithCompanyID(c.Request.Context(), companyID)
		ctx = companyctx.WithActorID(ctx, actorID)
		c.Request = c.Request.WithContext(ctx)

		c.Set("company_id", companyID.String())
		c.Set(contextActorRoleKey, strings.TrimSpace(c.GetHeader(HeaderActorRole)))
		c.Next()
	}
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/azizur-rahaman/skillflow-sub002/pkg/errors"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/logger"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/response"
)

// ContextOwnerKey is the gin context key storing the learner id.
const ContextOwnerKey = "ownerID"

const maxOwnerIDLength = 128

// RequireOwner rejects requests without a usable owner header. Authentication
// happens upstream at the gateway; this only scopes sessions to a learner.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := strings.TrimSpace(c.GetHeader(logger.OwnerHeader))
		if owner == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing "+logger.OwnerHeader+" header"))
			c.Abort()
			return
		}
		if len(owner) > maxOwnerIDLength {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "owner id too long"))
			c.Abort()
			return
		}
		c.Set(ContextOwnerKey, owner)
		c.Next()
	}
}

// Owner returns the learner id set by RequireOwner.
func Owner(c *gin.Context) string {
	if v, exists := c.Get(ContextOwnerKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fluxline/workflow-backend/internal/adapters/transport/http/dto"
	appsvc "github.com/fluxline/workflow-backend/internal/app/auth/service"
	"github.com/fluxline/workflow-backend/internal/domain/auth/model"
)

const userContextKey = "currentUser"

// RequireAuth resolves the Authorization bearer token to a user and
// aborts with 401 otherwise.
func RequireAuth(svc appsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		user, err := svc.Validate(c.Request.Context(), dto.ValidateDTO{AccessToken: token})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the user resolved by RequireAuth, if any.
func CurrentUser(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return model.User{}, false
	}
	user, ok := v.(model.User)
	return user, ok
}

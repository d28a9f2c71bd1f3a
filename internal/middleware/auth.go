// internal/middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/javajoker/agriconnect-backend/internal/apperr"
	"github.com/javajoker/agriconnect-backend/internal/i18n"
	"github.com/javajoker/agriconnect-backend/internal/models"
	"github.com/javajoker/agriconnect-backend/internal/utils"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

const userContextKey = "user"

// bearerToken reads the Authorization header. Websocket upgrades may pass the
// token as the token query parameter instead, since browsers cannot set
// headers on them.
func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if websocket.IsWebSocketUpgrade(c.Request) {
			return c.Query("token"), nil
		}
		return "", nil
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", apperr.Unauthenticated(i18n.KeyAuthInvalidToken)
	}
	return parts[1], nil
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(userContextKey, user)
	c.Set(utils.ContextKeyUserID, user.ID)
	c.Set(utils.ContextKeyRole, string(user.Role))
}

func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			utils.ServiceErrorResponse(c, err)
			c.Abort()
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			utils.ServiceErrorResponse(c, err)
			c.Abort()
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// RoleRequired must run after AuthRequired.
func RoleRequired(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		utils.ServiceErrorResponse(c, apperr.Forbidden(i18n.KeyAuthForbiddenRole))
		c.Abort()
	}
}

func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil || token == "" {
			c.Next()
			return
		}

		if user, err := auth.Authenticate(c.Request.Context(), token); err == nil {
			setUser(c, user)
		}
		c.Next()
	}
}

// CurrentUser returns the user resolved by AuthRequired or OptionalAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

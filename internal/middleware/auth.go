package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/service"
)

const (
	userKey     = "user"
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// TokenResolver maps a bearer token to the user it was issued for.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

func AuthMiddleware(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		user, err := resolver.Resolve(c.Request.Context(), strings.TrimSpace(header[7:]))
		switch {
		case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrUserNotFound):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(userKey, user)
		c.Set(userIDKey, user.ID)
		c.Set(userRoleKey, user.Role)
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserRole(c) != model.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

func GetUser(c *gin.Context) *model.User {
	v, _ := c.Get(userKey)
	u, _ := v.(*model.User)
	return u
}

func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func GetUserRole(c *gin.Context) string {
	return c.GetString(userRoleKey)
}

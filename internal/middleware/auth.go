package middleware

import (
	"net/http"
	"strings"

	"github.com/docflow-io/docflow/backend/internal/utils"
	"github.com/docflow-io/docflow/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

// AuthRequired is a middleware that checks for a valid bearer access token.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized)
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized)
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized)
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUserEmail, claims.Email)

		c.Next()
	}
}

// GetUserID gets the current user ID from context.
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(ContextUserID); exists {
		return id.(string)
	}
	return ""
}

// GetUserEmail gets the current user email from context.
func GetUserEmail(c *gin.Context) string {
	if email, exists := c.Get(ContextUserEmail); exists {
		return email.(string)
	}
	return ""
}

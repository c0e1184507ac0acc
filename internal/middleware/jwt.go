package middleware

import (
	"contract_system/internal/utils" // JWT utility functions
	"net/http"                       // HTTP status codes
	"strings"                        // String manipulation

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by the auth middlewares
const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// bearerToken extracts the token from the Authorization header
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization") // Get Authorization header
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(authHeader, "Bearer "), true
}

// JWTAuthMiddleware validates JWT tokens and extracts user information
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		// Check if the Authorization header is present and properly formatted
		if !ok {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		claims, err := utils.ParseJWT(tokenStr, secret) // Parse the JWT token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(ContextUserID, claims.UserID) // Store userID in context
		c.Set(ContextRole, claims.Role)     // Store role in context
		c.Next()                            // Proceed to the next handler
	}
}

// OptionalJWTMiddleware identifies the caller when a token is sent but lets
// anonymous requests through. A malformed or expired token is still rejected.
func OptionalJWTMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next() // Anonymous caller
			return
		}
		JWTAuthMiddleware(secret)(c)
	}
}

// CurrentUser returns the authenticated user ID and role, if any
func CurrentUser(c *gin.Context) (uint, string, bool) {
	userID := c.GetUint(ContextUserID)
	if userID == 0 {
		return 0, "", false
	}
	return userID, c.GetString(ContextRole), true
}

package middleware

import (
	"contract_system/internal/domain" // Importing domain models
	"net/http"                        // HTTP status codes
	"slices"                          // Role membership

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// RequireRole admits callers whose stored role is one of roles. The role claim
// in the token may be stale, so the user row is the source of truth; the fresh
// role replaces the claim in the context.
func RequireRole(db *gorm.DB, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User
		err := db.WithContext(c.Request.Context()).Select("id", "role").First(&user, userID).Error
		if err != nil || !slices.Contains(roles, user.Role) {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,             // Caller user ID
				"path":    c.Request.URL.Path, // Request path
			}).Warn("Role check failed")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Set(ContextRole, user.Role)
		c.Next()
	}
}

// AdminOnlyMiddleware restricts a route to administrators
func AdminOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return RequireRole(db, domain.RoleAdmin)
}

package api

import (
	"contract_system/internal/domain"  // Importing domain models
	"contract_system/internal/service" // Business logic
	"contract_system/internal/utils"   // Utility functions
	"net/http"                         // HTTP status codes
	"time"                             // Token lifetime

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"` // Email must be provided
	Password string `json:"password" binding:"required"`    // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Token string       `json:"token"` // JWT token
	User  UserResponse `json:"user"`  // Authenticated user
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID    uint   `json:"id"`    // User ID
	Email string `json:"email"` // Email
	Name  string `json:"name"`  // Display name
	Role  string `json:"role"`  // User role
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(users *service.UserService, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c) // If binding fails, return bad request
			return
		}
		user, err := users.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			logrus.WithField("email", req.Email).Info("Auth failed")
			respondError(c, err, "Login failed")
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, user.Role, jwtSecret, ttl)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,   // User ID
			"role":    user.Role, // User role
		}).Info("Auth successful")
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: toUserResponse(user)})
	}
}

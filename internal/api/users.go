package api

import (
	"contract_system/internal/middleware" // Auth context helpers
	"contract_system/internal/service"    // Business logic
	"net/http"                            // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// CreateUserRequest is the body of POST /api/users
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`                     // Email must be provided
	Password string `json:"password" binding:"required,min=8,max=72"`           // bcrypt reads at most 72 bytes
	Name     string `json:"name" binding:"required"`                            // Display name
	Role     string `json:"role" binding:"omitempty,oneof=admin client seeker"` // Defaults to client
}

// CreateUserHandler registers a new user
func CreateUserHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c) // If binding fails, return bad request
			return
		}
		user, err := users.Register(c.Request.Context(), service.RegisterInput{
			Email:    req.Email,
			Password: req.Password,
			Name:     req.Name,
			Role:     req.Role,
		})
		if err != nil {
			respondError(c, err, "User creation failed")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user)})
	}
}

// CurrentUserHandler returns the authenticated user's profile
func CurrentUserHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, _ := middleware.CurrentUser(c) // Set by JWTAuthMiddleware
		user, err := users.Get(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err, "Failed to fetch user")
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
	}
}

// ListUsersHandler returns a page of users (admin only)
func ListUsersHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize, _ := pageParams(c)
		result, err := users.List(c.Request.Context(), page, pageSize)
		if err != nil {
			respondError(c, err, "Failed to fetch users")
			return
		}
		// Map users to response format
		resp := make([]UserResponse, len(result.Users))
		for i := range result.Users {
			resp[i] = toUserResponse(&result.Users[i])
		}
		c.JSON(http.StatusOK, gin.H{
			"users":       resp,              // List of users
			"page":        result.Page,       // Current page
			"page_size":   result.PageSize,   // Page size
			"total":       result.Total,      // Total number of users
			"total_pages": result.TotalPages, // Total pages
		})
	}
}

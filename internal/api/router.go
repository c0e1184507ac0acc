package api

import (
	"contract_system/internal/config"     // Custom package for configuration
	"contract_system/internal/middleware" // Custom package for middleware
	"contract_system/internal/notify"     // Recipient notifications
	"contract_system/internal/service"    // Business logic
	"net/http"                            // HTTP status codes

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/gorm"                 // GORM ORM library
)

// NewRouter wires services and routes into a gin engine. rdb may be nil.
func NewRouter(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	users := service.NewUserService(db, rdb, cfg.CacheTTL)
	contracts := service.NewContractService(db, rdb, notify.NewLogNotifier(logrus.StandardLogger()), cfg.CacheTTL, cfg.MaxSignatureBytes)

	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	apiGroup := r.Group("/api")
	apiGroup.POST("/auth/login", LoginHandler(users, cfg.JWTSecret, cfg.JWTTTL)) // Login endpoint
	apiGroup.POST("/users", CreateUserHandler(users))                            // Registration endpoint

	// Development fixtures are never exposed in production
	if !cfg.IsProd {
		apiGroup.POST("/seed", SeedHandler(service.NewSeeder(db, rdb)))
	}

	authed := apiGroup.Group("")
	authed.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	authed.GET("/users/me", CurrentUserHandler(users))                                // Profile endpoint
	authed.GET("/users", middleware.AdminOnlyMiddleware(db), ListUsersHandler(users)) // List users endpoint
	authed.POST("/contracts", CreateContractHandler(contracts))                       // Create contract endpoint
	authed.GET("/contracts", ListContractsHandler(contracts))                         // List contracts endpoint
	authed.PATCH("/contracts/:id", UpdateContractHandler(contracts))                  // Edit draft endpoint
	authed.DELETE("/contracts/:id", DeleteContractHandler(contracts))                 // Delete contract endpoint
	authed.POST("/contracts/:id/send", SendContractHandler(contracts))                // Send contract endpoint

	// Recipients open the signing link without an account, so these accept anonymous callers
	signing := apiGroup.Group("")
	signing.Use(middleware.OptionalJWTMiddleware(cfg.JWTSecret))
	signing.GET("/contracts/:id", GetContractHandler(contracts))        // Get contract endpoint
	signing.POST("/contracts/:id/sign", SignContractHandler(contracts)) // Sign contract endpoint

	return r
}

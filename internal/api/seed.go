package api

import (
	"contract_system/internal/service" // Business logic
	"net/http"                         // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// SeedHandler loads the development fixtures
func SeedHandler(seeder *service.Seeder) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := seeder.Seed(c.Request.Context())
		if err != nil {
			logrus.WithError(err).Error("Seed execution error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create test users"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,                              // Seeding finished
			"message": "Test users created successfully", // Human readable status
			"result":  result,                            // What was created
		})
	}
}

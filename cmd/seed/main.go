package main

import (
	"context"                          // Context for the seeding run
	"contract_system/internal/config"  // Custom import path (Config)
	"contract_system/internal/db"      // Custom import path (Database)
	"contract_system/internal/service" // Seeder

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main entry point for loading development fixtures
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if cfg.IsProd {
		logrus.Fatal("refusing to seed a production database")
	}
	database, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	// A running server may have cached listings in the shared Redis
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		defer redisClient.Close()
	}
	result, err := service.NewSeeder(database, redisClient).Seed(context.Background())
	if err != nil {
		logrus.Fatalf("seed failed: %v", err)
	}
	logrus.WithField("users", result.Users).Infof("Test credentials: any fixture email / %s", service.SeedPassword)
}

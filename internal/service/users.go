package service

import (
	"context"                         // Request-scoped context
	"contract_system/internal/domain" // Importing domain models
	"contract_system/internal/utils"  // Cache helpers
	"errors"                          // Error comparison
	"fmt"                             // Error wrapping
	"strconv"                         // Cache key formatting
	"strings"                         // String manipulation
	"time"                            // Cache TTL

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"golang.org/x/crypto/bcrypt"   // Password hashing
	"gorm.io/gorm"                 // GORM ORM library
)

const (
	usersListCachePrefix = "users:list:"
	usersGenKey          = "users:gen"
)

func usersListKey(gen int64, page, pageSize int) string {
	return usersListCachePrefix + "g" + strconv.FormatInt(gen, 10) + ":page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
}

// invalidateUserListings retires every cached user listing
func invalidateUserListings(ctx context.Context, rdb *redis.Client) {
	if err := utils.BumpCacheGeneration(ctx, rdb, usersGenKey); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate user list cache")
	}
	if err := utils.DeleteCachePrefix(ctx, rdb, usersListCachePrefix); err != nil {
		logrus.WithError(err).Warn("Failed to drop cached user listings")
	}
}

// UserService manages accounts and credential checks
type UserService struct {
	db       *gorm.DB
	rdb      *redis.Client
	cacheTTL time.Duration
}

// NewUserService builds a UserService; rdb may be nil to disable caching
func NewUserService(db *gorm.DB, rdb *redis.Client, cacheTTL time.Duration) *UserService {
	return &UserService{db: db, rdb: rdb, cacheTTL: cacheTTL}
}

// RegisterInput carries the fields of a new account
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// UserPage is one page of the user listing
type UserPage struct {
	Users      []domain.User `json:"users"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"total_pages"`
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Register creates a user with a hashed password. Duplicate emails fail with ErrUserExists.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleClient // Default role
	}
	if !domain.ValidRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	email := NormalizeEmail(in.Email)
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserExists
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{Email: email, Password: hash, Name: strings.TrimSpace(in.Name), Role: role}
	if err := db.Create(&user).Error; err != nil {
		// Lost a race with a concurrent registration of the same email
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,    // User ID
		"email":   user.Email, // User email
		"role":    user.Role,  // User role
	}).Info("User registered")
	invalidateUserListings(ctx, s.rdb)
	return &user, nil
}

// Authenticate checks credentials and returns the matching user
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}
	// Recipients created on send have no password and cannot log in
	if user.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get returns a user by ID
func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns one page of users ordered by ID
func (s *UserService) List(ctx context.Context, page, pageSize int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	// Read before the database so a fill racing a registration is written under a retired key
	gen, genErr := utils.CacheGeneration(ctx, s.rdb, usersGenKey)
	cacheable := genErr == nil
	cacheKey := usersListKey(gen, page, pageSize)
	var cached UserPage
	if cacheable {
		if found, err := utils.GetCache(ctx, s.rdb, cacheKey, &cached); err == nil && found {
			return &cached, nil
		}
	}

	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	users := make([]domain.User, 0, pageSize)
	if err := db.Order("id asc").Offset(pageOffset(page, pageSize)).Limit(pageSize).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	result := &UserPage{
		Users:      users,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (int(total) + pageSize - 1) / pageSize, // Calculate total pages
	}
	if cacheable {
		_ = utils.SetCache(ctx, s.rdb, cacheKey, result, s.cacheTTL)
	}
	return result, nil
}

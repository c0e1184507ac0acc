package domain

import "time"

// User roles
const (
	RoleAdmin  = "admin"  // Full access
	RoleClient = "client" // Employer, or a recipient created on send
	RoleSeeker = "seeker" // Job seeker
)

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                        // Primary key
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`  // Unique, lower-cased email
	Password  string    `json:"-"`                                           // Hashed password, empty when login is not possible
	Name      string    `gorm:"size:255" json:"name"`                        // Display name
	Role      string    `gorm:"size:16;not null;default:client" json:"role"` // Role: admin, client or seeker
	CreatedAt time.Time `json:"createdAt"`                                   // Creation timestamp
	UpdatedAt time.Time `json:"updatedAt"`                                   // Last update timestamp
}

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleClient, RoleSeeker:
		return true
	}
	return false
}

package domain

import "time"

// Signature Model. Data is the drawn image as submitted, base64 PNG.
type Signature struct {
	ID         uint      `gorm:"primaryKey" json:"id"`             // Primary key
	ContractID uint      `gorm:"not null;index" json:"contractId"` // Foreign key to Contract
	Data       string    `gorm:"not null" json:"data"`             // Base64 image, optionally a data URL
	SignedAt   time.Time `json:"signedAt"`                         // When the signature was captured
}

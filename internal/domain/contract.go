package domain

import "time"

// ContractStatus is the lifecycle state of a contract
type ContractStatus string

const (
	StatusDraft  ContractStatus = "draft"  // Created, not yet sent
	StatusSent   ContractStatus = "sent"   // Sent to a recipient
	StatusSigned ContractStatus = "signed" // Signed, terminal
)

// Contract Model
type Contract struct {
	ID          uint           `gorm:"primaryKey" json:"id"`                                                                  // Primary key
	Title       string         `gorm:"size:255;not null" json:"title"`                                                        // Contract title
	Content     string         `gorm:"not null" json:"content"`                                                               // Contract body
	Status      ContractStatus `gorm:"size:16;not null;default:draft;index" json:"status"`                                    // draft, sent or signed
	CreatedByID uint           `gorm:"not null;index" json:"createdById"`                                                     // Foreign key to the creating User
	CreatedBy   *User          `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"createdBy"` // Creator
	SignedByID  *uint          `gorm:"index" json:"signedById"`                                                               // Foreign key to the recipient/signer
	SignedBy    *User          `gorm:"foreignKey:SignedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"signedBy"`  // Recipient/signer
	SentAt      *time.Time     `json:"sentAt"`                                                                                // When the contract was last sent
	SignedAt    *time.Time     `json:"signedAt"`                                                                              // When the contract was signed
	Signatures  []Signature    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"signatures"`                       // Captured signatures
	CreatedAt   time.Time      `json:"createdAt"`                                                                             // Creation timestamp
	UpdatedAt   time.Time      `json:"updatedAt"`                                                                             // Last update timestamp
}

// Valid reports whether s is a known status
func (s ContractStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusSigned:
		return true
	}
	return false
}

// CanSend reports whether a contract in this state may be (re)sent
func (s ContractStatus) CanSend() bool {
	return s == StatusDraft || s == StatusSent
}

// CanSign reports whether a contract in this state may be signed
func (s ContractStatus) CanSign() bool {
	return s == StatusDraft || s == StatusSent
}

// Editable reports whether title and content may still change
func (s ContractStatus) Editable() bool {
	return s == StatusDraft
}

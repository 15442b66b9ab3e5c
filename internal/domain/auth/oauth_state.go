package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OAuthState is the single-use CSRF state of an authorization-code redirect.
type OAuthState struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Provider  string     `gorm:"not null;column:provider" json:"provider"`
	StateHash string     `gorm:"uniqueIndex;not null;column:state_hash" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index;column:expires_at" json:"expires_at"`
	UsedAt    *time.Time `gorm:"column:used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (OAuthState) TableName() string { return "oauth_state" }

func (s *OAuthState) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConfirmationCode is the single current sign-in credential of a user.
// Only a bcrypt hash of the code is stored; StateHash binds it to the user
// fields it was issued against so that any change to them invalidates it.
type ConfirmationCode struct {
	ID        string     `gorm:"primaryKey;size:36"`
	UserID    string     `gorm:"size:36;not null;uniqueIndex"`
	CodeHash  string     `gorm:"size:72;not null"`
	StateHash string     `gorm:"size:64;not null"`
	IssuedAt  time.Time  `gorm:"not null"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	UsedAt    *time.Time `gorm:"index"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
}

func (c *ConfirmationCode) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

func (ConfirmationCode) TableName() string {
	return "confirmation_codes"
}

// Usable reports whether the code is neither consumed nor expired at now.
func (c *ConfirmationCode) Usable(now time.Time) bool {
	return c.UsedAt == nil && now.Before(c.ExpiresAt)
}

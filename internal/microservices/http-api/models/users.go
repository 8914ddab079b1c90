package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	UsernameMaxLength = 150
	EmailMaxLength    = 254
)

type User struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Username    string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email       string     `gorm:"uniqueIndex;size:254;not null" json:"email"`
	FirstName   string     `gorm:"size:150" json:"first_name"`
	LastName    string     `gorm:"size:150" json:"last_name"`
	Bio         string     `gorm:"type:text" json:"bio"`
	Role        Role       `gorm:"size:16;default:user;not null" json:"role"`
	IsSuperuser bool       `gorm:"not null;default:false" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

// BeforeCreate hook to set UUID and the default role before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	return
}

func (User) TableName() string {
	return "users"
}

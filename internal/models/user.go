package models

import (
	"time"

	"gorm.io/gorm"
)

// Platform roles.
const (
	RoleAdmin    = "admin"
	RoleEducator = "educator"
	RoleCitizen  = "citizen"
)

type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	Username  string         `json:"username" gorm:"uniqueIndex;not null"`
	Email     string         `json:"email" gorm:"not null"`
	Password  string         `json:"-" gorm:"not null"`
	Role      string         `json:"role" gorm:"index;not null;default:citizen"`
	Bio       string         `json:"bio,omitempty"`
}

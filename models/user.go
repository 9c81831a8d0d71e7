package models

import (
	"time"
)

// User model. Email is the login key and the subject of issued tokens.
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Name           string `gorm:"size:255;not null"`
	Lastname       string `gorm:"size:255;not null"`
	Email          string `gorm:"size:255;not null;uniqueIndex"`
	HashedPassword []byte `gorm:"not null"`
	// RefreshToken holds the single active refresh token. Empty after logout.
	RefreshToken *string       `gorm:"size:1024"`
	Transactions []Transaction `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

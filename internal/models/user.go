package models

import "time"

// User represents an identity known to the authentication service
type User struct {
	Base
	Email            string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password         string        `gorm:"type:varchar(255);not null" json:"-"`
	DisplayName      string        `gorm:"type:varchar(100);not null;default:''" json:"display_name"`
	SessionTokenHash string        `gorm:"type:varchar(64);not null;default:''" json:"-"`
	LastLoginAt      *time.Time    `json:"last_login_at,omitempty"`
	Transactions     []Transaction `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Preferences      []Preference  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

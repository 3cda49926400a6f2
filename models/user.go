package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered member. Passwords are stored as bcrypt hashes only.
//
// RegisterNumber is the per-(province, city) sequence assigned at creation and
// UniqueNumber is the human-readable registrant code derived from it; both are
// immutable after creation.
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"size:255;not null" json:"name"`
	Email          string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string         `gorm:"size:255;not null" json:"-"`
	ProvinceCode   string         `gorm:"size:10;not null" json:"province_code"`
	CityCode       string         `gorm:"size:10;not null" json:"city_code"`
	RegisterNumber uint           `gorm:"not null" json:"register_number"`
	UniqueNumber   string         `gorm:"size:32;uniqueIndex;not null" json:"unique_number"`
	ProfilePhoto   string         `gorm:"size:512" json:"profile_photo"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	Posts          []Post         `json:"-"`
	Comments       []Comment      `json:"-"`
}

// PublicUser is the author summary embedded in post and comment payloads.
type PublicUser struct {
	Name         string `json:"name"`
	ProfilePhoto string `json:"profile_photo"`
	UniqueNumber string `json:"unique_number,omitempty"`
}

// Public returns the fields of a user safe to embed in other payloads.
func (u User) Public() PublicUser {
	return PublicUser{
		Name:         u.Name,
		ProfilePhoto: u.ProfilePhoto,
		UniqueNumber: u.UniqueNumber,
	}
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

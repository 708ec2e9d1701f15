package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultImageFile is the placeholder avatar assigned at registration.
const DefaultImageFile = "index.png"

// User represents a blog user. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Username     string        `gorm:"size:20;uniqueIndex;not null" json:"username"`
	// Email reaches clients only through the account payload builders,
	// never from author rows embedded in posts and comments.
	Email        string        `gorm:"size:120;uniqueIndex;not null" json:"-"`
	ImageFile    string        `gorm:"size:64;not null" json:"image_file"`
	PasswordHash string        `gorm:"size:100;not null" json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Posts        []Post        `json:"-"`
	Likes        []PostLike    `json:"-"`
	Comments     []PostComment `json:"-"`
}

// BeforeCreate fills the placeholder avatar and timestamps when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ImageFile == "" {
		u.ImageFile = DefaultImageFile
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate refreshes the UpdatedAt timestamp.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

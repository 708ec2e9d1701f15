package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a blog post created by a user.
type Post struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UserID    uint          `gorm:"index;not null" json:"user_id"`
	Title     string        `gorm:"size:20;not null" json:"title"`
	Content   string        `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	User      User          `json:"author"`
	Comments  []PostComment `json:"comments,omitempty"`
	Likes     []PostLike    `json:"-"`
}

// BeforeCreate stamps the creation time in UTC.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.CreatedAt
	return nil
}

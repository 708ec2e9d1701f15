package models

import "time"

// MaxCommentRunes bounds comment length, measured in runes.
const MaxCommentRunes = 30

// PostComment represents a short reply attached to a post.
type PostComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Content   string    `gorm:"size:30;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `json:"author"`
}

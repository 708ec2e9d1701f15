package models

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostLike records a single user's like of a single post. The composite
// unique index makes at-most-one row per (user, post) a database invariant
// rather than an application-level check.
type PostLike struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index;not null;uniqueIndex:idx_post_like_user_post" json:"user_id"`
	PostID uint `gorm:"not null;uniqueIndex:idx_post_like_user_post" json:"post_id"`
}

// LikePost records a like. Concurrent or repeated calls for the same
// (user, post) pair collapse into one row via the conflict clause, so the
// operation is idempotent without a separate existence check.
func LikePost(db *gorm.DB, userID, postID uint) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoNothing: true,
	}).Create(&PostLike{UserID: userID, PostID: postID}).Error
}

// UnlikePost removes a like by exact (user, post) match. Removing a like
// that does not exist is a no-op.
func UnlikePost(db *gorm.DB, userID, postID uint) error {
	return db.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&PostLike{}).Error
}

// CountLikes returns the post's aggregate like count.
func CountLikes(db *gorm.DB, postID uint) (int64, error) {
	var count int64
	err := db.Model(&PostLike{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

// HasLiked reports whether the user currently likes the post.
func HasLiked(db *gorm.DB, userID, postID uint) (bool, error) {
	var count int64
	err := db.Model(&PostLike{}).Where("user_id = ? AND post_id = ?", userID, postID).Count(&count).Error
	return count > 0, err
}

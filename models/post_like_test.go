package models_test

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quillhq/quill/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.PostLike{}, &models.PostComment{}))
	return db
}

func seedUserAndPost(t *testing.T, db *gorm.DB) (models.User, models.Post) {
	t.Helper()
	user := models.User{Username: "alice", Email: "a@x.com", PasswordHash: "h"}
	require.NoError(t, db.Create(&user).Error)
	post := models.Post{UserID: user.ID, Title: "Hello", Content: "World"}
	require.NoError(t, db.Create(&post).Error)
	return user, post
}

func TestLikePostIdempotent(t *testing.T) {
	db := setupDB(t)
	user, post := seedUserAndPost(t, db)

	for i := 0; i < 3; i++ {
		require.NoError(t, models.LikePost(db, user.ID, post.ID))
	}

	var rows int64
	require.NoError(t, db.Model(&models.PostLike{}).Where("user_id = ? AND post_id = ?", user.ID, post.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	count, err := models.CountLikes(db, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUnlikePostIdempotent(t *testing.T) {
	db := setupDB(t)
	user, post := seedUserAndPost(t, db)

	// unliking a never-liked post is a no-op
	require.NoError(t, models.UnlikePost(db, user.ID, post.ID))

	require.NoError(t, models.LikePost(db, user.ID, post.ID))
	for i := 0; i < 2; i++ {
		require.NoError(t, models.UnlikePost(db, user.ID, post.ID))
	}

	count, err := models.CountLikes(db, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestHasLiked(t *testing.T) {
	db := setupDB(t)
	user, post := seedUserAndPost(t, db)

	liked, err := models.HasLiked(db, user.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	require.NoError(t, models.LikePost(db, user.ID, post.ID))
	liked, err = models.HasLiked(db, user.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestLikesAreIndependentPerUser(t *testing.T) {
	db := setupDB(t)
	user, post := seedUserAndPost(t, db)
	other := models.User{Username: "bob", Email: "b@x.com", PasswordHash: "h"}
	require.NoError(t, db.Create(&other).Error)

	require.NoError(t, models.LikePost(db, user.ID, post.ID))
	require.NoError(t, models.LikePost(db, other.ID, post.ID))

	count, err := models.CountLikes(db, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, models.UnlikePost(db, user.ID, post.ID))
	count, err = models.CountLikes(db, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserDefaults(t *testing.T) {
	db := setupDB(t)
	user := models.User{Username: "carol", Email: "c@x.com", PasswordHash: "h"}
	require.NoError(t, db.Create(&user).Error)
	assert.Equal(t, models.DefaultImageFile, user.ImageFile)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUniqueUsernameAndEmail(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Create(&models.User{Username: "dup", Email: "dup@x.com", PasswordHash: "h"}).Error)

	assert.Error(t, db.Create(&models.User{Username: "dup", Email: "other@x.com", PasswordHash: "h"}).Error)
	assert.Error(t, db.Create(&models.User{Username: "other", Email: "dup@x.com", PasswordHash: "h"}).Error)
}

package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/quill/models"
)

func (e *testEnv) addComment(t *testing.T, token string, postID uint, content string) (int, uint) {
	t.Helper()
	w, env := e.doJSON(t, http.MethodPost, fmt.Sprintf("/comment/%d", postID), token, gin.H{"content": content})
	if w.Code != http.StatusOK {
		return w.Code, 0
	}
	var data struct {
		Comment models.PostComment `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return w.Code, data.Comment.ID
}

func TestCommentCreateAndList(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")
	env.register(t, "bob", "b@x.com", "password1")
	aliceToken := env.login(t, "a@x.com", "password1")
	bobToken := env.login(t, "b@x.com", "password1")

	postID := env.createPost(t, aliceToken, "Hello", "World")

	code, _ := env.addComment(t, bobToken, postID, "great post")
	require.Equal(t, http.StatusOK, code)

	w, data := env.doJSON(t, http.MethodGet, fmt.Sprintf("/comment/%d", postID), bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Comments []models.PostComment `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(data.Data, &payload))
	require.Len(t, payload.Comments, 1)
	assert.Equal(t, "great post", payload.Comments[0].Content)
	assert.Equal(t, "bob", payload.Comments[0].User.Username)
}

func TestCommentLengthBoundary(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")
	token := env.login(t, "a@x.com", "password1")
	postID := env.createPost(t, token, "Hello", "World")

	code, _ := env.addComment(t, token, postID, strings.Repeat("a", 30))
	assert.Equal(t, http.StatusOK, code)

	code, _ = env.addComment(t, token, postID, strings.Repeat("a", 31))
	assert.Equal(t, http.StatusBadRequest, code)

	var rows int64
	require.NoError(t, env.db.Model(&models.PostComment{}).Where("post_id = ?", postID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestCommentOnUnknownPost(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")
	token := env.login(t, "a@x.com", "password1")

	code, _ := env.addComment(t, token, 9999, "hello")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCommentDeleteRequiresAuth(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")
	token := env.login(t, "a@x.com", "password1")
	postID := env.createPost(t, token, "Hello", "World")
	_, commentID := env.addComment(t, token, postID, "mine")

	aliceID := env.userID(t, "alice")
	w, _ := env.doJSON(t, http.MethodGet, fmt.Sprintf("/comment/delete/%d/%d", commentID, aliceID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// The session identity is authoritative: a user supplying someone else's id
// in the path must not be able to delete that user's comment.
func TestCommentDeleteOwnerOnly(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")
	env.register(t, "bob", "b@x.com", "password1")
	aliceToken := env.login(t, "a@x.com", "password1")
	bobToken := env.login(t, "b@x.com", "password1")

	postID := env.createPost(t, aliceToken, "Hello", "World")
	_, commentID := env.addComment(t, aliceToken, postID, "alice says")

	aliceID := env.userID(t, "alice")

	// bob authenticated, claiming alice's id in the path
	w, _ := env.doJSON(t, http.MethodGet, fmt.Sprintf("/comment/delete/%d/%d", commentID, aliceID), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var rows int64
	require.NoError(t, env.db.Model(&models.PostComment{}).Where("id = ?", commentID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	// the owner may delete
	w, _ = env.doJSON(t, http.MethodGet, fmt.Sprintf("/comment/delete/%d/%d", commentID, aliceID), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, env.db.Model(&models.PostComment{}).Where("id = ?", commentID).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestCommentDeleteNotFound(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")
	token := env.login(t, "a@x.com", "password1")
	aliceID := env.userID(t, "alice")

	w, _ := env.doJSON(t, http.MethodGet, fmt.Sprintf("/comment/delete/%d/%d", 9999, aliceID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

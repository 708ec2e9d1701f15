package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quillhq/quill/models"
	"github.com/quillhq/quill/utils"
)

// CommentController manages comments attached to posts.
type CommentController struct {
	db *gorm.DB
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

// List answers GET /comment/:postID with the post's comments.
func (c *CommentController) List(ctx *gin.Context) {
	postID, ok := parseID(ctx, "postID")
	if !ok {
		return
	}
	var comments []models.PostComment
	if err := c.db.Preload("User").Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to list comments")
		return
	}
	utils.Success(ctx, gin.H{"comments": comments})
}

// Create attaches a comment of at most 30 characters to a post, storing the
// session user's identity.
func (c *CommentController) Create(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	content := utils.SanitizeStrict(req.Content)
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40041, "comment cannot be empty")
		return
	}
	if len([]rune(content)) > models.MaxCommentRunes {
		utils.Error(ctx, http.StatusBadRequest, 40042, "comment must be at most 30 characters")
		return
	}

	postID, ok := parseID(ctx, "postID")
	if !ok {
		return
	}
	var post models.Post
	if err := c.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load post")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	comment := models.PostComment{
		PostID:  post.ID,
		UserID:  userID,
		Content: content,
	}
	if err := c.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to create comment")
		return
	}
	if err := c.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load comment")
		return
	}

	utils.InvalidateByPrefix(postDetailCachePrefix(strconv.Itoa(int(post.ID))))
	utils.Success(ctx, gin.H{"comment": comment})
}

// Delete removes a comment. The session identity is authoritative: the path's
// user id is accepted for route compatibility but must match both the session
// user and the comment's owner.
func (c *CommentController) Delete(ctx *gin.Context) {
	commentID, ok := parseID(ctx, "commentID")
	if !ok {
		return
	}
	pathUserID, ok := parseID(ctx, "userID")
	if !ok {
		return
	}

	var comment models.PostComment
	if err := c.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to load comment")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}
	if comment.UserID != userID || pathUserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40320, "you can only delete your own comment")
		return
	}

	if err := c.db.Delete(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to delete comment")
		return
	}

	utils.InvalidateByPrefix(postDetailCachePrefix(strconv.Itoa(int(comment.PostID))))
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

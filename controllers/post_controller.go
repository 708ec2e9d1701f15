package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quillhq/quill/middleware"
	"github.com/quillhq/quill/models"
	"github.com/quillhq/quill/utils"
)

const maxTitleRunes = 20

// postDetailCachePrefix keys the per-user detail cache. The trailing colon
// keeps prefix invalidation for post 1 from touching post 12.
func postDetailCachePrefix(id string) string {
	return "cache:post:detail:" + id + ":"
}

// PostController manages the post lifecycle and likes.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// Home lists all posts, newest first.
func (p *PostController) Home(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes("cache:posts:list"); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var posts []models.Post
	if err := p.db.Preload("User").Order("created_at DESC").Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to list posts")
		return
	}

	payload := gin.H{"posts": posts}
	utils.CacheSetJSON("cache:posts:list", utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// NewPostForm answers GET /post/new with the empty form contract.
func (p *PostController) NewPostForm(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"title": "", "content": ""})
}

// CreatePost persists a new post authored by the session user, stamping the
// creation time in UTC.
func (p *PostController) CreatePost(ctx *gin.Context) {
	title, content, ok := p.bindPostInput(ctx)
	if !ok {
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post := models.Post{
		UserID:  userID,
		Title:   title,
		Content: content,
	}
	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list")
	utils.Success(ctx, gin.H{"post": post})
}

// GetPost returns a single post with its comments, like count, and whether
// the session user has liked it. The payload carries per-user state, so the
// cache key includes the session user.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, ok := postIDFromPath(ctx)
	if !ok {
		return
	}

	userID, hasUser := getUserID(ctx)

	var cacheKey string
	if hasUser {
		cacheKey = postDetailCachePrefix(strconv.Itoa(int(postID))) + "user:" + strconv.Itoa(int(userID))
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	post, ok := p.loadPostByID(ctx, postID)
	if !ok {
		return
	}

	var comments []models.PostComment
	if err := p.db.Preload("User").Where("post_id = ?", post.ID).Order("created_at ASC").Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load comments")
		return
	}
	post.Comments = comments

	likes, err := models.CountLikes(p.db, post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to count likes")
		return
	}

	liked := false
	if hasUser {
		liked, _ = models.HasLiked(p.db, userID, post.ID)
	}

	payload := gin.H{
		"post":  post,
		"likes": likes,
		"liked": liked,
	}
	if cacheKey != "" {
		utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, 10*time.Minute)
	}
	utils.Success(ctx, payload)
}

// UpdatePostForm answers GET /post/:id/update with the current values.
// Only the author may see the edit form.
func (p *PostController) UpdatePostForm(ctx *gin.Context) {
	post, ok := p.loadOwnPost(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, gin.H{"title": post.Title, "content": post.Content})
}

// UpdatePost modifies a post; only the author may do so.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	post, ok := p.loadOwnPost(ctx)
	if !ok {
		return
	}

	title, content, ok := p.bindPostInput(ctx)
	if !ok {
		return
	}

	post.Title = title
	post.Content = content
	if err := p.db.Save(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to update post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list")
	utils.InvalidateByPrefix(postDetailCachePrefix(strconv.Itoa(int(post.ID))))
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a post along with its likes and comments in one
// transaction; only the author may do so.
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, ok := p.loadOwnPost(ctx)
	if !ok {
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list")
	utils.InvalidateByPrefix(postDetailCachePrefix(strconv.Itoa(int(post.ID))))
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// Like handles /like/:postID/:action with action "like" or "unlike". Both
// directions are idempotent; the response carries the fresh count.
func (p *PostController) Like(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	postID, ok := parseID(ctx, "postID")
	if !ok {
		return
	}
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load post")
		return
	}

	var err error
	switch ctx.Param("action") {
	case "like":
		err = models.LikePost(p.db, userID, post.ID)
	case "unlike":
		err = models.UnlikePost(p.db, userID, post.ID)
	default:
		utils.Error(ctx, http.StatusBadRequest, 40030, "action must be like or unlike")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to apply like action")
		return
	}

	likes, err := models.CountLikes(p.db, post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to count likes")
		return
	}

	utils.InvalidateByPrefix(postDetailCachePrefix(strconv.Itoa(int(post.ID))))
	utils.Success(ctx, gin.H{"post_id": post.ID, "likes": likes})
}

// bindPostInput validates the shared create/update payload.
func (p *PostController) bindPostInput(ctx *gin.Context) (string, string, bool) {
	var req struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return "", "", false
	}

	title := utils.SanitizeStrict(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return "", "", false
	}
	if len([]rune(title)) > maxTitleRunes {
		utils.Error(ctx, http.StatusBadRequest, 40022, "title must be at most 20 characters")
		return "", "", false
	}

	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "content cannot be empty")
		return "", "", false
	}
	return title, content, true
}

// postIDFromPath parses the :id segment. Only parsed numbers ever reach a
// query; anything else cannot address a post and answers 404.
func postIDFromPath(ctx *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
		return 0, false
	}
	return uint(n), true
}

// loadPost fetches the path's post; answers 404/500 itself on failure.
func (p *PostController) loadPost(ctx *gin.Context) (models.Post, bool) {
	postID, ok := postIDFromPath(ctx)
	if !ok {
		return models.Post{}, false
	}
	return p.loadPostByID(ctx, postID)
}

func (p *PostController) loadPostByID(ctx *gin.Context, postID uint) (models.Post, bool) {
	var post models.Post
	if err := p.db.Preload("User").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return post, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to load post")
		return post, false
	}
	return post, true
}

// loadOwnPost fetches the path's post and enforces that the session user is
// the author.
func (p *PostController) loadOwnPost(ctx *gin.Context) (models.Post, bool) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return post, false
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return post, false
	}
	if post.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only modify your own posts")
		return post, false
	}
	return post, true
}

func parseID(ctx *gin.Context, param string) (uint, bool) {
	n, err := strconv.ParseUint(ctx.Param(param), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid id")
		return 0, false
	}
	return uint(n), true
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

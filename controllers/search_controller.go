package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quillhq/quill/models"
	"github.com/quillhq/quill/utils"
)

// SearchController answers free-text substring search over users and posts.
type SearchController struct {
	db *gorm.DB
}

// NewSearchController creates a new SearchController instance.
func NewSearchController(db *gorm.DB) *SearchController {
	return &SearchController{db: db}
}

// Search matches the query case-insensitively as a substring against
// usernames and post titles, returning both unranked result sets.
func (s *SearchController) Search(ctx *gin.Context) {
	query := strings.TrimSpace(ctx.Query("search"))
	if query == "" {
		var req struct {
			Search string `json:"search"`
		}
		if err := ctx.ShouldBindJSON(&req); err == nil {
			query = strings.TrimSpace(req.Search)
		}
	}
	if query == "" {
		utils.Error(ctx, http.StatusBadRequest, 40050, "search term is required")
		return
	}

	pattern := "%" + strings.ToLower(query) + "%"

	var users []models.User
	if err := s.db.Where("LOWER(username) LIKE ?", pattern).Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to search users")
		return
	}

	var posts []models.Post
	if err := s.db.Preload("User").Where("LOWER(title) LIKE ?", pattern).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to search posts")
		return
	}

	userResults := make([]gin.H, 0, len(users))
	for _, u := range users {
		userResults = append(userResults, sanitizeUserResponse(u))
	}

	utils.Success(ctx, gin.H{
		"users": userResults,
		"posts": posts,
	})
}

package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quillhq/quill/config"
	"github.com/quillhq/quill/middleware"
	"github.com/quillhq/quill/models"
	"github.com/quillhq/quill/utils"
)

// AuthController handles registration, login and account management.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register creates a local account with a bcrypt-hashed password.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=2,max=10"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Confirm  string `json:"confirm" binding:"required,eqfield=Password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	username := utils.SanitizeStrict(strings.TrimSpace(req.Username))
	email := strings.TrimSpace(req.Email)
	if l := len([]rune(username)); l < 2 || l > 10 {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username must be 2-10 characters")
		return
	}

	var count int64
	if err := a.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to check username")
		return
	}
	if count > 0 {
		utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
		return
	}
	if err := a.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to check email")
		return
	}
	if count > 0 {
		utils.Error(ctx, http.StatusConflict, 40902, "email already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to hash password")
		return
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := a.db.Create(&user).Error; err != nil {
		// unique indexes on username and email still win a lost race
		utils.Error(ctx, http.StatusConflict, 40903, "username or email already exists")
		return
	}

	utils.Success(ctx, gin.H{"user": sanitizeUserResponse(user)})
}

// LoginForm answers GET /login; clients already holding a valid session are
// told where to go next.
func (a *AuthController) LoginForm(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"next": sanitizeNext(ctx.Query("next"))})
}

// Login verifies email+password credentials and issues a JWT. The remember
// flag extends the token lifetime; next echoes the originally requested
// destination captured before the login redirect.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Remember bool   `json:"remember"`
		Next     string `json:"next"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("email = ?", strings.TrimSpace(req.Email)).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	cfg := config.Get()
	ttl := time.Duration(cfg.TokenTTLHours) * time.Hour
	if req.Remember {
		ttl = time.Duration(cfg.RememberTTLHours) * time.Hour
	}
	token, err := utils.GenerateToken(user.ID, user.Username, ttl)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	// cookie mirrors the token for browser flows and the websocket handshake
	ctx.SetCookie(middleware.AuthCookieName, token, int(ttl.Seconds()), "/", "", false, true)

	next := sanitizeNext(req.Next)
	if next == "" {
		next = sanitizeNext(ctx.Query("next"))
	}
	if next == "" {
		next = "/home"
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  sanitizeUserResponse(user),
		"next":  next,
	})
}

// Logout revokes the session token until its natural expiry.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := middleware.TokenFromRequest(ctx)
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(time.Duration(config.Get().TokenTTLHours) * time.Hour)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, expiresAt)
	ctx.SetCookie(middleware.AuthCookieName, "", -1, "/", "", false, true)

	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's profile.
func (a *AuthController) Me(ctx *gin.Context) {
	user, ok := a.currentUser(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, sanitizeUserResponse(user))
}

// GetUser returns a user's public profile together with their posts. The
// path id is parsed before it touches a query; garbage answers 404.
func (a *AuthController) GetUser(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	var user models.User
	if err := a.db.First(&user, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to get user")
		return
	}

	var posts []models.Post
	if err := a.db.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to list user posts")
		return
	}

	utils.Success(ctx, gin.H{
		"user":  sanitizeUserResponse(user),
		"posts": posts,
	})
}

// AccountForm answers GET /accounts with the values the update form renders.
func (a *AuthController) AccountForm(ctx *gin.Context) {
	user, ok := a.currentUser(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, sanitizeUserResponse(user))
}

// UpdateAccount changes username/email and optionally replaces the profile
// image. Uniqueness is re-checked only when the value actually changed.
func (a *AuthController) UpdateAccount(ctx *gin.Context) {
	user, ok := a.currentUser(ctx)
	if !ok {
		return
	}

	var req struct {
		Username string `form:"username" binding:"required,min=2,max=10"`
		Email    string `form:"email" binding:"required,email"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	username := utils.SanitizeStrict(strings.TrimSpace(req.Username))
	email := strings.TrimSpace(req.Email)

	if username != user.Username {
		var count int64
		if err := a.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to check username")
			return
		}
		if count > 0 {
			utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
			return
		}
	}
	if email != user.Email {
		var count int64
		if err := a.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to check email")
			return
		}
		if count > 0 {
			utils.Error(ctx, http.StatusConflict, 40902, "email already exists")
			return
		}
	}

	if fh, err := ctx.FormFile("picture"); err == nil && fh != nil {
		src, err := fh.Open()
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40011, "failed to read uploaded image")
			return
		}
		defer src.Close()

		name, err := utils.SaveProfileImage(src, fh.Filename, config.Get().ProfilePicsDir)
		if err != nil {
			if errors.Is(err, utils.ErrUnsupportedImageType) {
				utils.Error(ctx, http.StatusBadRequest, 40012, err.Error())
				return
			}
			utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to save profile image")
			return
		}
		user.ImageFile = name
	}

	user.Username = username
	user.Email = email
	if err := a.db.Save(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to update account")
		return
	}

	utils.Success(ctx, sanitizeUserResponse(user))
}

// currentUser loads the session's user row; answers the request itself on failure.
func (a *AuthController) currentUser(ctx *gin.Context) (models.User, bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return models.User{}, false
	}
	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return models.User{}, false
	}
	return user, true
}

// sanitizeNext keeps redirect targets on-site. Anything that is not a local
// absolute path is discarded.
func sanitizeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}

func sanitizeUserResponse(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"image_file": "/static/profile_pics/" + user.ImageFile,
		"created_at": user.CreatedAt,
	}
}

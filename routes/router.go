package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quillhq/quill/config"
	"github.com/quillhq/quill/controllers"
	"github.com/quillhq/quill/middleware"
	"github.com/quillhq/quill/utils"
	"github.com/quillhq/quill/ws"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, hub *ws.Hub) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(utils.Ginzap(utils.Logger))
	r.Use(utils.RecoveryWithZap(utils.Logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Static("/static", "./static")

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	postController := controllers.NewPostController(db)
	commentController := controllers.NewCommentController(db)
	searchController := controllers.NewSearchController(db)
	voteHandler := ws.NewVoteHandler(db, hub)

	// public routes, rate limited
	public := r.Group("")
	public.Use(middleware.RateLimitMiddleware())
	public.GET("/login", authController.LoginForm)
	public.POST("/login", authController.Login)
	public.GET("/registration", func(ctx *gin.Context) { utils.Success(ctx, nil) })
	public.POST("/registration", authController.Register)

	// everything below requires a session
	auth := r.Group("")
	auth.Use(middleware.AuthRequired())

	auth.GET("/", postController.Home)
	auth.GET("/home", postController.Home)
	auth.GET("/logout", authController.Logout)
	auth.GET("/me", authController.Me)

	auth.GET("/accounts", authController.AccountForm)
	auth.POST("/accounts", authController.UpdateAccount)
	auth.GET("/user/:id", authController.GetUser)

	auth.GET("/post/new", postController.NewPostForm)
	auth.POST("/post/new", postController.CreatePost)
	auth.GET("/post/:id", postController.GetPost)
	auth.POST("/post/:id", postController.GetPost)
	auth.GET("/post/:id/update", postController.UpdatePostForm)
	auth.POST("/post/:id/update", postController.UpdatePost)
	auth.GET("/post/:id/delete", postController.DeletePost)
	auth.POST("/post/:id/delete", postController.DeletePost)
	auth.GET("/like/:postID/:action", postController.Like)

	auth.GET("/comment/:postID", commentController.List)
	auth.POST("/comment/:postID", commentController.Create)
	auth.GET("/comment/delete/:commentID/:userID", commentController.Delete)
	auth.POST("/comment/delete/:commentID/:userID", commentController.Delete)

	auth.GET("/search", searchController.Search)
	auth.POST("/search", searchController.Search)

	auth.GET("/ws", voteHandler.Serve)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}

package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sosmed/config"
	"sosmed/controllers"
	"sosmed/middleware"
	"sosmed/storage"
	"sosmed/utils"
)

// SetupRouter wires middleware and the full route table onto a gin engine.
func SetupRouter(db *gorm.DB, blobs storage.BlobStore) *gin.Engine {
	cfg := config.Get()
	gin.SetMode(cfg.GinMode)

	r := gin.New()

	if accessLogger, err := utils.NewRollingFileLogger(
		cfg.GinPath, cfg.LogLevel,
		cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress,
	); err == nil {
		r.Use(utils.Ginzap(accessLogger, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(accessLogger, true))
	} else {
		r.Use(gin.Logger(), gin.Recovery())
	}

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	// Uploaded photos are served directly from local storage.
	r.Static(cfg.StorageBaseURL, cfg.StorageDir)

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := controllers.NewAuthController(db, blobs)
	profile := controllers.NewProfileController(db, blobs)
	posts := controllers.NewPostController(db, blobs)
	comments := controllers.NewCommentController(db)

	limited := r.Group("/", middleware.RateLimitMiddleware())
	{
		limited.POST("/register", auth.Register)
		limited.POST("/login", auth.Login)
	}

	protected := r.Group("/", middleware.AuthRequired())
	{
		protected.POST("/logout", auth.Logout)

		protected.GET("/profile", profile.Show)
		protected.POST("/update-profile", profile.Update)

		protected.POST("/posts", posts.Create)
		protected.GET("/posts", posts.List)
		protected.POST("/posts/:id", posts.Update)
		protected.DELETE("/posts/:id", posts.Delete)
		protected.POST("/posts/:id/like", posts.ToggleLike)

		protected.POST("/posts/:id/comment", comments.Add)
		protected.GET("/posts/:id/comments", comments.List)
		protected.POST("/comments/:id/reply", comments.Reply)
		protected.DELETE("/comments/:id", comments.Delete)
	}

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, "route not found")
	})

	return r
}

// Package core 组装 gin 路由与 HTTP 服务器。
package core

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vioaki/prompt-manager/api/common"
	"github.com/vioaki/prompt-manager/api/handler/admin"
	"github.com/vioaki/prompt-manager/api/handler/public"
	"github.com/vioaki/prompt-manager/api/middleware"
	"github.com/vioaki/prompt-manager/config"
	dbconfig "github.com/vioaki/prompt-manager/config/db"
	"github.com/vioaki/prompt-manager/database/repo/assets"
	assetSvc "github.com/vioaki/prompt-manager/internal/services/asset"
	tagSvc "github.com/vioaki/prompt-manager/internal/services/tag"
	"github.com/vioaki/prompt-manager/storage"
)

var startTime = time.Now()

// ServerDependencies 服务器依赖项
type ServerDependencies struct {
	Config     *config.Config
	Settings   *dbconfig.Manager
	Assets     *assetSvc.Service
	Tags       *tagSvc.Service
	AssetsRepo *assets.Repository
	Backend    storage.Backend
}

// 启动gin
func setupRouter(deps *ServerDependencies) (*gin.Engine, func()) {
	cfg := deps.Config
	router := gin.New()

	// 全局中间件
	// 仅在开发版本时启用 gin 日志
	if config.IsDevelopment() {
		router.Use(gin.Logger())
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.BaseURL()},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	_ = router.SetTrustedProxies(nil)

	// 限制上传文件大小
	router.MaxMultipartMemory = int64(cfg.UploadMaxSizeMB) << 20

	// 投稿限流，速率跟随热更新配置
	uploadRateLimiter := middleware.NewIPRateLimiter(func() float64 {
		return deps.Settings.GetUploadRateRPS(context.Background())
	}, cfg.UploadRateBurst, 10*time.Minute)
	cleanup := func() {
		uploadRateLimiter.StopCleanup()
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(startTime).Round(time.Second).String(),
			"version": config.Version,
			"storage": deps.Backend.Name(),
		})
	})
	router.GET("/version", func(c *gin.Context) {
		common.RespondSuccess(c, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})

	// 本地存储模式下直接伺服上传目录
	if cfg.StorageType == "local" {
		prefix := "/" + strings.Trim(cfg.UploadFolder, "/")
		router.Static(prefix, cfg.UploadFolder)
	}

	publicHandler := public.NewHandler(deps.Assets, deps.Tags, deps.Settings)
	adminHandler := admin.NewHandler(deps.Assets, deps.Tags, deps.Settings, deps.AssetsRepo)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/gallery", publicHandler.ListGallery)     // GET /api/gallery
		apiGroup.GET("/templates", publicHandler.ListTemplates) // GET /api/templates
		apiGroup.GET("/assets/:id", publicHandler.GetAsset)     // GET /api/assets/{id}
		apiGroup.GET("/tags", publicHandler.ListTags)           // GET /api/tags

		uploadGroup := apiGroup.Group("")
		uploadGroup.Use(uploadRateLimiter.Middleware())
		{
			uploadGroup.POST("/assets", publicHandler.CreateAsset) // POST /api/assets
		}

		statsGroup := apiGroup.Group("/stats")
		{
			statsGroup.POST("/view/:id", publicHandler.BumpView) // POST /api/stats/view/{id}
			statsGroup.POST("/copy/:id", publicHandler.BumpCopy) // POST /api/stats/copy/{id}
		}

		adminGroup := apiGroup.Group("/admin")
		adminGroup.Use(middleware.AdminAuth(cfg.AdminToken))
		{
			adminGroup.GET("/assets", adminHandler.List)                    // GET /api/admin/assets
			adminGroup.GET("/assets/:id", adminHandler.Get)                 // GET /api/admin/assets/{id}
			adminGroup.PUT("/assets/:id", adminHandler.Update)              // PUT /api/admin/assets/{id}
			adminGroup.DELETE("/assets/:id", adminHandler.Delete)           // DELETE /api/admin/assets/{id}
			adminGroup.POST("/assets/:id/approve", adminHandler.Approve)    // POST /api/admin/assets/{id}/approve
			adminGroup.POST("/assets/approve-all", adminHandler.ApproveAll) // POST /api/admin/assets/approve-all

			adminGroup.GET("/tags", adminHandler.ListTags)      // GET /api/admin/tags
			adminGroup.PUT("/tags/:id", adminHandler.UpdateTag) // PUT /api/admin/tags/{id}

			adminGroup.GET("/settings", adminHandler.GetSettings)     // GET /api/admin/settings
			adminGroup.POST("/settings", adminHandler.UpdateSettings) // POST /api/admin/settings

			adminGroup.GET("/dashboard", adminHandler.Dashboard) // GET /api/admin/dashboard
		}
	}

	return router, cleanup
}

// StartServer 创建 http.Server
func StartServer(deps *ServerDependencies) (*http.Server, func()) {
	cfg := deps.Config
	router, clean := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}

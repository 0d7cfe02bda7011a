// Package app 依赖注入容器，集中装配服务生命周期。
package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/vioaki/prompt-manager/config"
	dbconfig "github.com/vioaki/prompt-manager/config/db"
	"github.com/vioaki/prompt-manager/database/dbcore"
	"github.com/vioaki/prompt-manager/database/repo/assets"
	"github.com/vioaki/prompt-manager/database/repo/settings"
	"github.com/vioaki/prompt-manager/database/repo/tags"
	assetSvc "github.com/vioaki/prompt-manager/internal/services/asset"
	imageSvc "github.com/vioaki/prompt-manager/internal/services/image"
	"github.com/vioaki/prompt-manager/internal/services/imaging"
	tagSvc "github.com/vioaki/prompt-manager/internal/services/tag"
	"github.com/vioaki/prompt-manager/storage"
)

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config *config.Config
	db     *gorm.DB

	SettingsRepo *settings.Repository
	AssetsRepo   *assets.Repository
	TagsRepo     *tags.Repository

	ConfigManager *dbconfig.Manager
	Backend       storage.Backend
	AssetService  *assetSvc.Service
	TagService    *tagSvc.Service
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{config: cfg}
}

// InitDatabase 初始化数据库连接与仓库
func (c *Container) InitDatabase() error {
	c.db = dbcore.GetDBInstance()
	if c.db == nil {
		return fmt.Errorf("failed to open database connection")
	}

	c.SettingsRepo = settings.NewRepository(c.db)
	c.AssetsRepo = assets.NewRepository(c.db)
	c.TagsRepo = tags.NewRepository(c.db)
	return nil
}

// InitServices 初始化配置管理器、存储后端与业务服务
func (c *Container) InitServices() error {
	c.ConfigManager = dbconfig.NewManager(c.SettingsRepo, c.config)

	transcoder := imaging.NewTranscoder()
	backend, err := storage.NewBackend(c.config, c.ConfigManager, transcoder)
	if err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	c.Backend = backend

	ingest := imageSvc.NewIngestService(backend, c.ConfigManager, c.config.UploadMaxSizeMB)
	c.AssetService = assetSvc.NewService(
		c.AssetsRepo, c.TagsRepo, c.ConfigManager, ingest, backend, c.config.BaseURL(),
	)
	c.TagService = tagSvc.NewService(c.db, c.TagsRepo)
	return nil
}

// DB 返回底层数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Close 关闭容器持有的资源
func (c *Container) Close() error {
	return dbcore.CloseDB()
}

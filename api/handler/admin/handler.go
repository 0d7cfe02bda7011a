// Package admin 后台接口：审核、编辑、标签管理、运行时配置与统计。
package admin

import (
	dbconfig "github.com/vioaki/prompt-manager/config/db"
	"github.com/vioaki/prompt-manager/database/repo/assets"
	assetSvc "github.com/vioaki/prompt-manager/internal/services/asset"
	tagSvc "github.com/vioaki/prompt-manager/internal/services/tag"
)

// Handler 后台接口处理器
type Handler struct {
	assets     *assetSvc.Service
	tags       *tagSvc.Service
	settings   *dbconfig.Manager
	assetsRepo *assets.Repository
}

// NewHandler 创建后台接口处理器
func NewHandler(assets *assetSvc.Service, tags *tagSvc.Service, settings *dbconfig.Manager, assetsRepo *assets.Repository) *Handler {
	return &Handler{assets: assets, tags: tags, settings: settings, assetsRepo: assetsRepo}
}

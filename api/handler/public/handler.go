// Package public 匿名访客接口：作品浏览、标签、投稿与计数上报。
package public

import (
	dbconfig "github.com/vioaki/prompt-manager/config/db"
	assetSvc "github.com/vioaki/prompt-manager/internal/services/asset"
	tagSvc "github.com/vioaki/prompt-manager/internal/services/tag"
)

// Handler 公开接口处理器
type Handler struct {
	assets   *assetSvc.Service
	tags     *tagSvc.Service
	settings *dbconfig.Manager
}

// NewHandler 创建公开接口处理器
func NewHandler(assets *assetSvc.Service, tags *tagSvc.Service, settings *dbconfig.Manager) *Handler {
	return &Handler{assets: assets, tags: tags, settings: settings}
}

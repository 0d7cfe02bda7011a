// Package config 提供热更新配置：优先读数据库 SystemSetting，
// 回退到静态 .env 配置。整数 0 / 空字符串视为"未设置"。
package config

import (
	"context"
	"log"
	"strconv"

	staticcfg "github.com/vioaki/prompt-manager/config"
	"github.com/vioaki/prompt-manager/database/models"
	"github.com/vioaki/prompt-manager/database/repo/settings"
)

// 热更新配置键
const (
	KeyImgMaxDimension       = "img_max_dimension"
	KeyImgQuality            = "img_quality"
	KeyEnableImgCompress     = "enable_img_compress"
	KeyMaxRefImages          = "max_ref_images"
	KeyItemsPerPage          = "items_per_page"
	KeyAdminPerPage          = "admin_per_page"
	KeyUseThumbnailInPreview = "use_thumbnail_in_preview"
	KeyUploadRateRPS         = "upload_rate_rps"
	KeyApprovalGallery       = "approval_gallery"
	KeyApprovalTemplate      = "approval_template"
	KeyAllowSensitiveToggle  = "allow_sensitive_toggle"
)

// Manager 配置管理器。读取不做进程内缓存，保证同进程内写后读一致。
type Manager struct {
	repo   *settings.Repository
	static *staticcfg.Config
}

// NewManager 创建配置管理器
func NewManager(repo *settings.Repository, static *staticcfg.Config) *Manager {
	return &Manager{repo: repo, static: static}
}

// getInt 读取整数设置；缺失、非法或 0 都回退到默认值。
// 0 表示"未设置"而不是数值零，调用方不要用 0 表示启用的数值配置。
func (m *Manager) getInt(ctx context.Context, key string, def int) int {
	raw, err := m.repo.Get(ctx, key)
	if err != nil {
		log.Printf("[Config] Failed to read setting %s: %v", key, err)
		return def
	}
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return def
	}
	return val
}

// getBool 读取布尔设置；空字符串回退到默认值，否则 "1" 为真
func (m *Manager) getBool(ctx context.Context, key string, def bool) bool {
	raw, err := m.repo.Get(ctx, key)
	if err != nil {
		log.Printf("[Config] Failed to read setting %s: %v", key, err)
		return def
	}
	if raw == "" {
		return def
	}
	return raw == "1"
}

// getFloat 读取浮点设置；缺失、非法或 <=0 回退到默认值
func (m *Manager) getFloat(ctx context.Context, key string, def float64) float64 {
	raw, err := m.repo.Get(ctx, key)
	if err != nil {
		log.Printf("[Config] Failed to read setting %s: %v", key, err)
		return def
	}
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val <= 0 {
		return def
	}
	return val
}

func (m *Manager) setInt(ctx context.Context, key string, value int) error {
	return m.repo.Set(ctx, key, strconv.Itoa(value))
}

func (m *Manager) setBool(ctx context.Context, key string, value bool) error {
	if value {
		return m.repo.Set(ctx, key, "1")
	}
	return m.repo.Set(ctx, key, "0")
}

// ==================== 图片处理 ====================

// GetImgMaxDimension 图片最大边长
func (m *Manager) GetImgMaxDimension(ctx context.Context) int {
	return m.getInt(ctx, KeyImgMaxDimension, m.static.ImgMaxDimension)
}

func (m *Manager) SetImgMaxDimension(ctx context.Context, value int) error {
	if value < 1 {
		value = 1
	}
	return m.setInt(ctx, KeyImgMaxDimension, value)
}

// GetImgQuality 图片压缩质量 (1-100)
func (m *Manager) GetImgQuality(ctx context.Context) int {
	return m.getInt(ctx, KeyImgQuality, m.static.ImgQuality)
}

func (m *Manager) SetImgQuality(ctx context.Context, value int) error {
	if value < 1 {
		value = 1
	}
	if value > 100 {
		value = 100
	}
	return m.setInt(ctx, KeyImgQuality, value)
}

// GetEnableImgCompress 是否压缩主图
func (m *Manager) GetEnableImgCompress(ctx context.Context) bool {
	return m.getBool(ctx, KeyEnableImgCompress, m.static.EnableImgCompress)
}

func (m *Manager) SetEnableImgCompress(ctx context.Context, value bool) error {
	return m.setBool(ctx, KeyEnableImgCompress, value)
}

// GetMaxRefImages 单作品最大参考图数量
func (m *Manager) GetMaxRefImages(ctx context.Context) int {
	return m.getInt(ctx, KeyMaxRefImages, m.static.MaxRefImages)
}

func (m *Manager) SetMaxRefImages(ctx context.Context, value int) error {
	if value < 1 {
		value = 1
	}
	return m.setInt(ctx, KeyMaxRefImages, value)
}

// ==================== 显示 ====================

func (m *Manager) GetItemsPerPage(ctx context.Context) int {
	return m.getInt(ctx, KeyItemsPerPage, m.static.ItemsPerPage)
}

func (m *Manager) SetItemsPerPage(ctx context.Context, value int) error {
	if value < 1 {
		value = 1
	}
	return m.setInt(ctx, KeyItemsPerPage, value)
}

func (m *Manager) GetAdminPerPage(ctx context.Context) int {
	return m.getInt(ctx, KeyAdminPerPage, m.static.AdminPerPage)
}

func (m *Manager) SetAdminPerPage(ctx context.Context, value int) error {
	if value < 1 {
		value = 1
	}
	return m.setInt(ctx, KeyAdminPerPage, value)
}

func (m *Manager) GetUseThumbnailInPreview(ctx context.Context) bool {
	return m.getBool(ctx, KeyUseThumbnailInPreview, m.static.UseThumbnailInPreview)
}

func (m *Manager) SetUseThumbnailInPreview(ctx context.Context, value bool) error {
	return m.setBool(ctx, KeyUseThumbnailInPreview, value)
}

// ==================== 审核与权限 ====================

// GetApprovalRequired 指定分类是否需要审核
func (m *Manager) GetApprovalRequired(ctx context.Context, category string) bool {
	key := KeyApprovalGallery
	if category == models.CategoryTemplate {
		key = KeyApprovalTemplate
	}
	return m.getBool(ctx, key, true)
}

func (m *Manager) SetApprovalRequired(ctx context.Context, category string, value bool) error {
	key := KeyApprovalGallery
	if category == models.CategoryTemplate {
		key = KeyApprovalTemplate
	}
	return m.setBool(ctx, key, value)
}

// GetAllowSensitiveToggle 是否允许匿名访客自行开启敏感内容
func (m *Manager) GetAllowSensitiveToggle(ctx context.Context) bool {
	return m.getBool(ctx, KeyAllowSensitiveToggle, true)
}

func (m *Manager) SetAllowSensitiveToggle(ctx context.Context, value bool) error {
	return m.setBool(ctx, KeyAllowSensitiveToggle, value)
}

// ==================== 限流 ====================

// GetUploadRateRPS 上传限流（每秒请求数）
func (m *Manager) GetUploadRateRPS(ctx context.Context) float64 {
	return m.getFloat(ctx, KeyUploadRateRPS, m.static.UploadRateRPS)
}

func (m *Manager) SetUploadRateRPS(ctx context.Context, value float64) error {
	return m.repo.Set(ctx, KeyUploadRateRPS, strconv.FormatFloat(value, 'f', -1, 64))
}

// ==================== 批量读取 ====================

// GetUploadSettings 获取所有上传相关配置
func (m *Manager) GetUploadSettings(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"img_max_dimension":   m.GetImgMaxDimension(ctx),
		"img_quality":         m.GetImgQuality(ctx),
		"enable_img_compress": m.GetEnableImgCompress(ctx),
		"max_ref_images":      m.GetMaxRefImages(ctx),
	}
}

// GetDisplaySettings 获取所有显示相关配置
func (m *Manager) GetDisplaySettings(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"items_per_page":           m.GetItemsPerPage(ctx),
		"admin_per_page":           m.GetAdminPerPage(ctx),
		"use_thumbnail_in_preview": m.GetUseThumbnailInPreview(ctx),
	}
}

// GetReadonlySettings 需要重启才能生效的配置（只读展示）
func (m *Manager) GetReadonlySettings() map[string]interface{} {
	return map[string]interface{}{
		"storage_type":  m.static.StorageType,
		"db_type":       m.static.DBType,
		"upload_folder": m.static.UploadFolder,
	}
}

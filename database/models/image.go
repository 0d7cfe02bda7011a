package models

import (
	"sort"
	"strings"
	"time"
)

// 作品生命周期状态：pending -> approved，单向。拒绝即删除，没有 rejected 状态。
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// 作品分类
const (
	CategoryGallery  = "gallery"
	CategoryTemplate = "template"
)

// PlaceholderMarker 占位参考图在序列化时输出的字面标记，
// 客户端据此提示使用者在套用模板时提供自己的图片/文本。
const PlaceholderMarker = "{{userText}}"

// Image 核心作品模型
type Image struct {
	ID            uint   `gorm:"primarykey"`
	Title         string `gorm:"size:255;not null"`
	Author        string `gorm:"size:50;default:anonymous"`
	FilePath      string `gorm:"size:255;not null"`
	ThumbnailPath string `gorm:"size:255"`
	Prompt        string `gorm:"type:text"`
	Description   string `gorm:"type:text"`
	Type          string `gorm:"size:50"` // txt2img / img2img 等自由分类
	Status        string `gorm:"size:20;default:pending;index"`
	Category      string `gorm:"size:20;default:gallery;index"`

	// 统计数据
	ViewsCount  int `gorm:"default:0;not null"`
	CopiesCount int `gorm:"default:0;not null"`
	HeatScore   int `gorm:"default:0;not null;index"`

	CreatedAt time.Time

	// 关联
	Tags []*Tag           `gorm:"many2many:image_tags;"`
	Refs []ReferenceImage `gorm:"foreignKey:ImageID"`
}

// ReferenceImage 参考图模型，从属于单个作品
type ReferenceImage struct {
	ID            uint   `gorm:"primarykey"`
	ImageID       uint   `gorm:"not null;index"`
	FilePath      string `gorm:"size:255"`
	Position      int    `gorm:"default:0;not null"`
	IsPlaceholder bool   `gorm:"default:false;not null"`
}

// ComputeHeat 热度公式：浏览 x1 + 复制 x10
func ComputeHeat(views, copies int) int {
	return views + copies*10
}

// RefView 参考图序列化结构
type RefView struct {
	ID            uint   `json:"id"`
	FilePath      string `json:"file_path"`
	IsPlaceholder bool   `json:"is_placeholder"`
	Position      int    `json:"position"`
}

// ImageView 作品序列化结构，对外 API 的稳定契约
type ImageView struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Prompt        string    `json:"prompt"`
	Description   string    `json:"description"`
	Type          string    `json:"type"`
	Category      string    `json:"category"`
	FilePath      string    `json:"file_path"`
	ThumbnailPath *string   `json:"thumbnail_path"`
	Tags          []string  `json:"tags"`
	Refs          []RefView `json:"refs"`
	ViewsCount    int       `json:"views_count"`
	CopiesCount   int       `json:"copies_count"`
	HeatScore     int       `json:"heat_score"`
	CreatedAt     string    `json:"created_at"`
}

// ResolveURL 把本地相对路径拼接为完整 URL；已经是完整 URL 的原样返回
func ResolveURL(base, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + path
}

// ToView 序列化为 API 视图。base 为当前服务的外部基础 URL。
func (img *Image) ToView(base string) *ImageView {
	tagNames := make([]string, 0, len(img.Tags))
	for _, t := range img.Tags {
		tagNames = append(tagNames, t.Name)
	}
	sort.Strings(tagNames)

	refs := make([]RefView, 0, len(img.Refs))
	for i := range img.Refs {
		r := &img.Refs[i]
		path := PlaceholderMarker
		if !r.IsPlaceholder {
			path = ResolveURL(base, r.FilePath)
		}
		refs = append(refs, RefView{
			ID:            r.ID,
			FilePath:      path,
			IsPlaceholder: r.IsPlaceholder,
			Position:      r.Position,
		})
	}
	// 位置升序，相同位置按插入顺序
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Position < refs[j].Position })

	var thumb *string
	if img.ThumbnailPath != "" {
		resolved := ResolveURL(base, img.ThumbnailPath)
		thumb = &resolved
	}

	return &ImageView{
		ID:            img.ID,
		Title:         img.Title,
		Author:        img.Author,
		Prompt:        img.Prompt,
		Description:   img.Description,
		Type:          img.Type,
		Category:      img.Category,
		FilePath:      ResolveURL(base, img.FilePath),
		ThumbnailPath: thumb,
		Tags:          tagNames,
		Refs:          refs,
		ViewsCount:    img.ViewsCount,
		CopiesCount:   img.CopiesCount,
		HeatScore:     img.HeatScore,
		CreatedAt:     img.CreatedAt.Format(time.RFC3339),
	}
}

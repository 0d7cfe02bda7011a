// Package asset 作品记录装配：入库管线产物 + 元数据 + 标签 + 参考图
// 在一个数据库事务里落成完整记录。
package asset

import (
	"context"
	"errors"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	dbconfig "github.com/vioaki/prompt-manager/config/db"
	"github.com/vioaki/prompt-manager/database/models"
	"github.com/vioaki/prompt-manager/database/repo/assets"
	"github.com/vioaki/prompt-manager/database/repo/tags"
	"github.com/vioaki/prompt-manager/internal/apperr"
	imageSvc "github.com/vioaki/prompt-manager/internal/services/image"
	"github.com/vioaki/prompt-manager/storage"
	"github.com/vioaki/prompt-manager/utils"
)

// RefSlot 提交时的参考图槽位：要么带文件，要么是文本占位
type RefSlot struct {
	File        *imageSvc.File
	Placeholder bool
}

// CreateInput 新作品提交
type CreateInput struct {
	Title       string
	Author      string
	Prompt      string
	Description string
	Type        string
	Category    string
	Tags        []string
	Main        *imageSvc.File
	RefSlots    []RefSlot
}

// UpdateInput 后台编辑。NewMain 为 nil 表示保留原图；
// RemoveRefIDs 删除既有参考图；NewRefSlots 追加到现有位置之后。
type UpdateInput struct {
	Title        string
	Author       string
	Prompt       string
	Description  string
	Type         string
	Tags         []string
	NewMain      *imageSvc.File
	RemoveRefIDs []uint
	NewRefSlots  []RefSlot
}

// Service 作品服务
type Service struct {
	assets   *assets.Repository
	tags     *tags.Repository
	settings *dbconfig.Manager
	ingest   *imageSvc.IngestService
	backend  storage.Backend
	baseURL  string
}

// NewService 创建作品服务
func NewService(
	assetsRepo *assets.Repository,
	tagsRepo *tags.Repository,
	settings *dbconfig.Manager,
	ingest *imageSvc.IngestService,
	backend storage.Backend,
	baseURL string,
) *Service {
	return &Service{
		assets:   assetsRepo,
		tags:     tagsRepo,
		settings: settings,
		ingest:   ingest,
		backend:  backend,
		baseURL:  baseURL,
	}
}

// Create 提交新作品。物理文件先全部落盘，之后一个事务写齐
// 作品行、参考图行和标签关联；记录可见时定位符必然可解析。
func (s *Service) Create(ctx context.Context, in *CreateInput) (*models.ImageView, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validationf("title is required")
	}

	category := in.Category
	if category != models.CategoryTemplate {
		category = models.CategoryGallery
	}

	maxRefs := s.settings.GetMaxRefImages(ctx)
	if len(in.RefSlots) > maxRefs {
		return nil, apperr.Validationf("too many reference slots: %d > %d", len(in.RefSlots), maxRefs)
	}

	refFiles := make([]*imageSvc.File, 0, len(in.RefSlots))
	for _, slot := range in.RefSlots {
		if !slot.Placeholder {
			if slot.File == nil || len(slot.File.Data) == 0 {
				return nil, apperr.Validationf("reference slot without file")
			}
			refFiles = append(refFiles, slot.File)
		}
	}

	ingested, err := s.ingest.Ingest(ctx, in.Main, refFiles)
	if err != nil {
		return nil, err
	}

	status := models.StatusApproved
	if s.settings.GetApprovalRequired(ctx, category) {
		status = models.StatusPending
	}

	img := &models.Image{
		Title:         title,
		Author:        strings.TrimSpace(in.Author),
		Prompt:        in.Prompt,
		Description:   in.Description,
		Type:          in.Type,
		Status:        status,
		Category:      category,
		FilePath:      ingested.Locator,
		ThumbnailPath: ingested.ThumbLocator,
	}
	if img.Author == "" {
		img.Author = "anonymous"
	}

	err = s.assets.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.assets.CreateWithTx(tx, img); err != nil {
			return err
		}

		refs := make([]models.ReferenceImage, 0, len(in.RefSlots))
		fileIdx := 0
		for pos, slot := range in.RefSlots {
			ref := models.ReferenceImage{
				ImageID:  img.ID,
				Position: pos,
			}
			if slot.Placeholder {
				ref.IsPlaceholder = true
			} else {
				ref.FilePath = ingested.RefLocators[fileIdx]
				fileIdx++
			}
			refs = append(refs, ref)
		}
		if err := s.assets.AddRefsWithTx(tx, refs); err != nil {
			return err
		}

		tagRows, err := s.tags.FindOrCreateWithTx(tx, in.Tags)
		if err != nil {
			return err
		}
		return s.assets.ReplaceTagsWithTx(tx, img, tagRows)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Asset] Created asset %d (%s), status=%s",
		img.ID, utils.SanitizeLogTitle(title), status)
	return s.Get(ctx, img.ID)
}

// Update 后台编辑作品。新主图先入库再更新记录，旧物理文件在事务
// 提交后删除；参考图行在事务内删除，物理文件同样延后清理。
func (s *Service) Update(ctx context.Context, id uint, in *UpdateInput) (*models.ImageView, error) {
	img, err := s.getModel(ctx, id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validationf("title is required")
	}

	removeSet := make(map[uint]struct{}, len(in.RemoveRefIDs))
	for _, refID := range in.RemoveRefIDs {
		removeSet[refID] = struct{}{}
	}
	kept := 0
	for _, ref := range img.Refs {
		if _, gone := removeSet[ref.ID]; !gone {
			kept++
		}
	}
	maxRefs := s.settings.GetMaxRefImages(ctx)
	if kept+len(in.NewRefSlots) > maxRefs {
		return nil, apperr.Validationf("too many reference slots: %d > %d", kept+len(in.NewRefSlots), maxRefs)
	}

	// 新文件先全部落盘，失败则记录保持原样
	var oldMain, oldThumb string
	if in.NewMain != nil {
		put, err := s.ingest.IngestOne(ctx, in.NewMain)
		if err != nil {
			return nil, err
		}
		oldMain, oldThumb = img.FilePath, img.ThumbnailPath
		img.FilePath = put.Locator
		img.ThumbnailPath = put.ThumbLocator
	}

	newRefLocators := make([]string, 0, len(in.NewRefSlots))
	for _, slot := range in.NewRefSlots {
		if slot.Placeholder {
			newRefLocators = append(newRefLocators, "")
			continue
		}
		put, err := s.ingest.IngestOne(ctx, slot.File)
		if err != nil {
			return nil, err
		}
		newRefLocators = append(newRefLocators, put.Locator)
	}

	img.Title = title
	img.Author = strings.TrimSpace(in.Author)
	if img.Author == "" {
		img.Author = "anonymous"
	}
	img.Prompt = in.Prompt
	img.Description = in.Description
	img.Type = in.Type

	var removedRefs []models.ReferenceImage
	err = s.assets.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.assets.SaveWithTx(tx, img); err != nil {
			return err
		}

		removed, err := s.assets.DeleteRefsWithTx(tx, img.ID, in.RemoveRefIDs)
		if err != nil {
			return err
		}
		removedRefs = removed

		maxPos, err := s.assets.MaxRefPositionWithTx(tx, img.ID)
		if err != nil {
			return err
		}
		refs := make([]models.ReferenceImage, 0, len(in.NewRefSlots))
		for i, slot := range in.NewRefSlots {
			refs = append(refs, models.ReferenceImage{
				ImageID:       img.ID,
				FilePath:      newRefLocators[i],
				Position:      maxPos + 1 + i,
				IsPlaceholder: slot.Placeholder,
			})
		}
		if err := s.assets.AddRefsWithTx(tx, refs); err != nil {
			return err
		}

		tagRows, err := s.tags.FindOrCreateWithTx(tx, in.Tags)
		if err != nil {
			return err
		}
		return s.assets.ReplaceTagsWithTx(tx, img, tagRows)
	})
	if err != nil {
		return nil, err
	}

	// 事务已提交，旧文件尽力删除，失败只记日志
	var stale []string
	if oldMain != "" {
		stale = append(stale, oldMain)
		if oldThumb != "" && oldThumb != oldMain {
			stale = append(stale, oldThumb)
		}
	}
	for _, ref := range removedRefs {
		if !ref.IsPlaceholder && ref.FilePath != "" {
			stale = append(stale, ref.FilePath)
		}
	}
	s.deletePhysical(ctx, stale)

	if _, err := s.tags.PurgeOrphans(ctx); err != nil {
		log.Printf("[Asset] Orphan tag purge failed after update of %d: %v", id, err)
	}

	return s.Get(ctx, id)
}

// Delete 删除作品：显式级联（参考图行、标签关联、作品行）一个事务，
// 提交后并发尽力删除物理文件，最后清理孤儿标签。
func (s *Service) Delete(ctx context.Context, id uint) error {
	img, err := s.getModel(ctx, id)
	if err != nil {
		return err
	}

	err = s.assets.Transaction(ctx, func(tx *gorm.DB) error {
		return s.assets.DeleteWithTx(tx, img)
	})
	if err != nil {
		return err
	}

	paths := []string{img.FilePath}
	if img.ThumbnailPath != "" && img.ThumbnailPath != img.FilePath {
		paths = append(paths, img.ThumbnailPath)
	}
	for _, ref := range img.Refs {
		if !ref.IsPlaceholder && ref.FilePath != "" {
			paths = append(paths, ref.FilePath)
		}
	}
	s.deletePhysical(ctx, paths)

	if _, err := s.tags.PurgeOrphans(ctx); err != nil {
		log.Printf("[Asset] Orphan tag purge failed after delete of %d: %v", id, err)
	}

	log.Printf("[Asset] Deleted asset %d", id)
	return nil
}

// deletePhysical 并发尽力删除物理文件；失败记日志不上抛
func (s *Service) deletePhysical(ctx context.Context, locators []string) {
	if len(locators) == 0 {
		return
	}
	var g errgroup.Group
	for _, locator := range locators {
		locator := locator
		g.Go(func() error {
			if err := s.backend.Delete(ctx, locator); err != nil {
				log.Printf("[Asset] Failed to delete physical file %s: %v", locator, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Approve 审核通过；重复审核为幂等空操作
func (s *Service) Approve(ctx context.Context, id uint) error {
	if _, err := s.getModel(ctx, id); err != nil {
		return err
	}
	_, err := s.assets.UpdateStatus(ctx, id, models.StatusApproved)
	return err
}

// ApproveAll 批量通过全部待审核作品，返回通过数量
func (s *Service) ApproveAll(ctx context.Context) (int64, error) {
	return s.assets.ApproveAll(ctx)
}

// View 浏览计数 +1
func (s *Service) View(ctx context.Context, id uint) error {
	err := s.assets.IncrementViews(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf("asset %d not found", id)
	}
	return err
}

// Copy 复制计数 +1
func (s *Service) Copy(ctx context.Context, id uint) error {
	err := s.assets.IncrementCopies(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf("asset %d not found", id)
	}
	return err
}

// Get 获取序列化后的作品视图
func (s *Service) Get(ctx context.Context, id uint) (*models.ImageView, error) {
	img, err := s.getModel(ctx, id)
	if err != nil {
		return nil, err
	}
	return img.ToView(s.baseURL), nil
}

// GetApproved 获取已发布作品视图；未发布作品对外等同不存在
func (s *Service) GetApproved(ctx context.Context, id uint) (*models.ImageView, error) {
	img, err := s.getModel(ctx, id)
	if err != nil {
		return nil, err
	}
	if img.Status != models.StatusApproved {
		return nil, apperr.NotFoundf("asset %d not found", id)
	}
	return img.ToView(s.baseURL), nil
}

// List 按条件分页查询并序列化
func (s *Service) List(ctx context.Context, opts assets.ListOptions) ([]*models.ImageView, int64, error) {
	items, total, err := s.assets.List(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	views := make([]*models.ImageView, 0, len(items))
	for _, item := range items {
		views = append(views, item.ToView(s.baseURL))
	}
	return views, total, nil
}

func (s *Service) getModel(ctx context.Context, id uint) (*models.Image, error) {
	img, err := s.assets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("asset %d not found", id)
		}
		return nil, err
	}
	return img, nil
}

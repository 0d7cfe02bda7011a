// Package tag 标签管理：改名合并、敏感标记、孤儿清理。
package tag

import (
	"context"
	"errors"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/vioaki/prompt-manager/database/models"
	"github.com/vioaki/prompt-manager/database/repo/tags"
	"github.com/vioaki/prompt-manager/internal/apperr"
	"github.com/vioaki/prompt-manager/utils"
)

// Service 标签服务
type Service struct {
	db   *gorm.DB
	tags *tags.Repository
}

// NewService 创建标签服务
func NewService(db *gorm.DB, tagsRepo *tags.Repository) *Service {
	return &Service{db: db, tags: tagsRepo}
}

// Rename 重命名标签。目标名已被占用时合并进既有标签：
// 关联迁移为幂等并集，落败标签删除。整个改名在一个事务内完成，
// 随后清理孤儿标签。返回是否发生了合并。
func (s *Service) Rename(ctx context.Context, id uint, newName string) (bool, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return false, apperr.Validationf("tag name is required")
	}

	tag, err := s.get(ctx, id)
	if err != nil {
		return false, err
	}

	var merged bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		merged, txErr = s.tags.RenameWithTx(tx, tag, newName)
		return txErr
	})
	if err != nil {
		return false, err
	}

	if merged {
		log.Printf("[Tag] Merged tag %d into %s", id, utils.SanitizeLogMessage(newName))
		if _, err := s.tags.PurgeOrphans(ctx); err != nil {
			log.Printf("[Tag] Orphan purge failed after merge: %v", err)
		}
	}
	return merged, nil
}

// SetSensitive 更新敏感标记；敏感标签对匿名访客隐藏其关联作品
func (s *Service) SetSensitive(ctx context.Context, id uint, sensitive bool) error {
	err := s.tags.SetSensitive(ctx, id, sensitive)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf("tag %d not found", id)
	}
	return err
}

// ListVisible 已发布作品引用到的标签，匿名访客过滤敏感标签
func (s *Service) ListVisible(ctx context.Context, category string, includeSensitive bool) ([]*models.Tag, error) {
	return s.tags.ListVisible(ctx, category, includeSensitive)
}

// ListAll 全部标签（后台）
func (s *Service) ListAll(ctx context.Context) ([]*models.Tag, error) {
	return s.tags.ListAll(ctx)
}

func (s *Service) get(ctx context.Context, id uint) (*models.Tag, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("tag %d not found", id)
		}
		return nil, err
	}
	return tag, nil
}

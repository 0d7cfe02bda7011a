package tags

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/vioaki/prompt-manager/database/models"
)

// Repository 标签仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建标签仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// NormalizeNames 去空格、去空串、保序去重
func NormalizeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// FindOrCreateWithTx 按名称解析标签，不存在的创建
func (r *Repository) FindOrCreateWithTx(tx *gorm.DB, names []string) ([]*models.Tag, error) {
	names = NormalizeNames(names)
	tags := make([]*models.Tag, 0, len(names))
	for _, name := range names {
		var tag models.Tag
		if err := tx.Where("name = ?", name).FirstOrCreate(&tag, models.Tag{Name: name}).Error; err != nil {
			return nil, err
		}
		tags = append(tags, &tag)
	}
	return tags, nil
}

// GetByID 按 id 获取标签
func (r *Repository) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.WithContext(ctx).First(&tag, id).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetByName 按名称获取标签
func (r *Repository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// SetSensitive 更新敏感标记
func (r *Repository) SetSensitive(ctx context.Context, id uint, sensitive bool) error {
	result := r.db.WithContext(ctx).Model(&models.Tag{}).
		Where("id = ?", id).
		Update("is_sensitive", sensitive)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RenameWithTx 重命名标签。目标名已存在时执行合并：
// 关联做幂等并集、删除落败标签及其关联。并发安全依赖数据库自身的
// 行锁与事务隔离（写语句按主键顺序加锁），不引入应用层锁。
// 返回是否发生了合并。
func (r *Repository) RenameWithTx(tx *gorm.DB, tag *models.Tag, newName string) (bool, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == tag.Name {
		return false, nil
	}

	var winner models.Tag
	err := tx.Where("name = ?", newName).First(&winner).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return false, err
		}
		// 无同名标签，单纯改名
		return false, tx.Model(tag).Update("name", newName).Error
	}

	// 幂等并集：只迁移赢家尚未关联的作品
	if err := tx.Exec(
		`INSERT INTO image_tags (image_id, tag_id)
		 SELECT it.image_id, ? FROM image_tags it
		 WHERE it.tag_id = ?
		   AND NOT EXISTS (SELECT 1 FROM image_tags w WHERE w.image_id = it.image_id AND w.tag_id = ?)`,
		winner.ID, tag.ID, winner.ID,
	).Error; err != nil {
		return false, err
	}

	if err := tx.Exec(`DELETE FROM image_tags WHERE tag_id = ?`, tag.ID).Error; err != nil {
		return false, err
	}
	if err := tx.Delete(&models.Tag{}, tag.ID).Error; err != nil {
		return false, err
	}
	return true, nil
}

// PurgeOrphans 清理没有关联作品的僵尸标签，返回清理数量
func (r *Repository) PurgeOrphans(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id NOT IN (SELECT DISTINCT tag_id FROM image_tags)").
		Delete(&models.Tag{})
	return result.RowsAffected, result.Error
}

// ListVisible 列出已发布作品引用到的标签，按名称排序。
// includeSensitive 为 false 时过滤敏感标签（匿名访客）。
func (r *Repository) ListVisible(ctx context.Context, category string, includeSensitive bool) ([]*models.Tag, error) {
	query := r.db.WithContext(ctx).Model(&models.Tag{}).
		Joins("JOIN image_tags it ON it.tag_id = tags.id").
		Joins("JOIN images ON images.id = it.image_id").
		Where("images.status = ?", models.StatusApproved)

	if category != "" {
		query = query.Where("images.category = ?", category)
	}
	if !includeSensitive {
		query = query.Where("tags.is_sensitive = ?", false)
	}

	var tags []*models.Tag
	err := query.Group("tags.id").Order("tags.name asc").Find(&tags).Error
	return tags, err
}

// ListAll 列出全部标签（后台）
func (r *Repository) ListAll(ctx context.Context) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := r.db.WithContext(ctx).Order("name asc").Find(&tags).Error
	return tags, err
}

// Count 标签总数
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tag{}).Count(&count).Error
	return count, err
}

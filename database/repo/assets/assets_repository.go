package assets

import (
	"context"

	"gorm.io/gorm"

	"github.com/vioaki/prompt-manager/database/models"
)

// 列表排序方式
const (
	SortByDate   = "date"
	SortByHot    = "hot"
	SortByRandom = "random"
)

// ListOptions 作品列表查询条件
type ListOptions struct {
	Status           string
	Category         string
	Tag              string
	Query            string
	Sort             string
	Page             int
	PerPage          int
	ExcludeSensitive bool // 过滤带敏感标签的作品（匿名访客）
}

// Repository 作品仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建作品仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB 返回底层数据库连接
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Transaction 执行事务
func (r *Repository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// CreateWithTx 在事务中创建作品记录（不含关联，关联由调用方显式写入）
func (r *Repository) CreateWithTx(tx *gorm.DB, img *models.Image) error {
	return tx.Omit("Tags", "Refs").Create(img).Error
}

// SaveWithTx 在事务中保存作品基础字段
func (r *Repository) SaveWithTx(tx *gorm.DB, img *models.Image) error {
	return tx.Omit("Tags", "Refs").Save(img).Error
}

// GetByID 获取作品及其关联（参考图按 position 升序）
func (r *Repository) GetByID(ctx context.Context, id uint) (*models.Image, error) {
	var img models.Image
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Preload("Refs", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc, id asc")
		}).
		First(&img, id).Error
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// ReplaceTagsWithTx 替换作品的标签集合
func (r *Repository) ReplaceTagsWithTx(tx *gorm.DB, img *models.Image, tags []*models.Tag) error {
	return tx.Model(img).Association("Tags").Replace(tags)
}

// ClearTagsWithTx 清空作品的标签关联
func (r *Repository) ClearTagsWithTx(tx *gorm.DB, img *models.Image) error {
	return tx.Model(img).Association("Tags").Clear()
}

// AddRefsWithTx 写入参考图记录
func (r *Repository) AddRefsWithTx(tx *gorm.DB, refs []models.ReferenceImage) error {
	if len(refs) == 0 {
		return nil
	}
	return tx.Create(&refs).Error
}

// MaxRefPositionWithTx 当前最大参考图位置，无参考图时返回 -1
func (r *Repository) MaxRefPositionWithTx(tx *gorm.DB, imageID uint) (int, error) {
	var max *int
	err := tx.Model(&models.ReferenceImage{}).
		Where("image_id = ?", imageID).
		Select("MAX(position)").
		Scan(&max).Error
	if err != nil {
		return -1, err
	}
	if max == nil {
		return -1, nil
	}
	return *max, nil
}

// DeleteRefsWithTx 按 id 删除属于指定作品的参考图，返回被删除的行用于物理清理
func (r *Repository) DeleteRefsWithTx(tx *gorm.DB, imageID uint, refIDs []uint) ([]models.ReferenceImage, error) {
	if len(refIDs) == 0 {
		return nil, nil
	}

	var refs []models.ReferenceImage
	if err := tx.Where("image_id = ? AND id IN ?", imageID, refIDs).Find(&refs).Error; err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.ReferenceImage{}).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

// DeleteWithTx 显式级联删除：参考图行、标签关联、作品行
func (r *Repository) DeleteWithTx(tx *gorm.DB, img *models.Image) error {
	if err := tx.Where("image_id = ?", img.ID).Delete(&models.ReferenceImage{}).Error; err != nil {
		return err
	}
	if err := r.ClearTagsWithTx(tx, img); err != nil {
		return err
	}
	return tx.Delete(&models.Image{}, img.ID).Error
}

// UpdateStatus 更新作品状态；对已处于目标状态的作品为幂等空操作
func (r *Repository) UpdateStatus(ctx context.Context, id uint, status string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Image{}).
		Where("id = ?", id).
		Update("status", status)
	return result.RowsAffected > 0, result.Error
}

// ApproveAll 批量通过所有待审核作品
func (r *Repository) ApproveAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Image{}).
		Where("status = ?", models.StatusPending).
		Update("status", models.StatusApproved)
	return result.RowsAffected, result.Error
}

// IncrementViews 浏览计数 +1，热度随同一条 UPDATE 原子重算
func (r *Repository) IncrementViews(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Image{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"views_count": gorm.Expr("views_count + 1"),
			"heat_score":  gorm.Expr("(views_count + 1) + copies_count * 10"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementCopies 复制计数 +1，热度随同一条 UPDATE 原子重算
func (r *Repository) IncrementCopies(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Image{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"copies_count": gorm.Expr("copies_count + 1"),
			"heat_score":   gorm.Expr("views_count + (copies_count + 1) * 10"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List 按条件分页查询作品
func (r *Repository) List(ctx context.Context, opts ListOptions) ([]*models.Image, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Image{})

	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	if opts.Category != "" {
		query = query.Where("category = ?", opts.Category)
	}
	if opts.ExcludeSensitive {
		query = query.Where(
			"NOT EXISTS (SELECT 1 FROM image_tags it JOIN tags t ON t.id = it.tag_id WHERE it.image_id = images.id AND t.is_sensitive = ?)",
			true,
		)
	}
	if opts.Tag != "" {
		query = query.Where(
			"EXISTS (SELECT 1 FROM image_tags it JOIN tags t ON t.id = it.tag_id WHERE it.image_id = images.id AND t.name = ?)",
			opts.Tag,
		)
	}
	if opts.Query != "" {
		pattern := "%" + opts.Query + "%"
		query = query.Where("title LIKE ? OR author LIKE ? OR prompt LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch opts.Sort {
	case SortByHot:
		query = query.Order("heat_score desc, created_at desc")
	case SortByRandom:
		query = query.Order("RANDOM()")
	default:
		query = query.Order("created_at desc")
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage < 1 {
		perPage = 1
	}

	var items []*models.Image
	err := query.
		Preload("Tags").
		Preload("Refs", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc, id asc")
		}).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&items).Error
	return items, total, err
}

// CountByStatus 按状态统计作品数
func (r *Repository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Image{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}

package settings

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vioaki/prompt-manager/database/models"
)

// Repository 系统配置仓库，单键读写即为原子操作
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建配置仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get 读取配置值；不存在返回空字符串
func (r *Repository) Get(ctx context.Context, key string) (string, error) {
	var setting models.SystemSetting
	err := r.db.WithContext(ctx).First(&setting, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return setting.Value, nil
}

// Set 写入配置值（upsert）
func (r *Repository) Set(ctx context.Context, key, value string) error {
	setting := models.SystemSetting{Key: key, Value: value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&setting).Error
}

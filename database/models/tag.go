package models

// Tag 标签模型，与作品多对多
type Tag struct {
	ID          uint     `gorm:"primarykey"`
	Name        string   `gorm:"size:50;uniqueIndex;not null"`
	IsSensitive bool     `gorm:"default:false;not null"`
	Images      []*Image `gorm:"many2many:image_tags;"`
}

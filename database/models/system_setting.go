package models

// SystemSetting 系统配置表 (Key-Value 存储)
// 布尔值存 "1"/"0"，整数存十进制字符串；缺失/空值表示"未设置"，
// 由 config/db 回退到静态默认值。
type SystemSetting struct {
	Key   string `gorm:"primaryKey;size:50"`
	Value string `gorm:"size:255"`
}

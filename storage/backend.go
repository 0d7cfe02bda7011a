// Package storage 物理存储后端抽象：本地磁盘与 S3 兼容对象存储。
// 进程启动时选定唯一后端，定位符格式由各后端自行定义。
package storage

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Object 待存储的图片内容
type Object struct {
	Data        []byte
	ContentType string
}

// PutResult 存储产物的定位符。无独立缩略图时两者相等。
type PutResult struct {
	Locator      string
	ThumbLocator string
}

// Backend 存储后端接口
type Backend interface {
	// Put 存储一张图片及其派生缩略图
	Put(ctx context.Context, obj *Object) (*PutResult, error)
	// Delete 删除定位符指向的物理文件；不属于本后端的定位符直接忽略，
	// 文件不存在不算错误
	Delete(ctx context.Context, locator string) error
	// Owns 判断定位符是否由本后端签发
	Owns(locator string) bool
	// Name 后端名称
	Name() string
}

// newObjectKey 生成 uuid4 十六进制存储键（32 位无连字符）
func newObjectKey() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// IsValidStoragePath 校验存储相对路径
func IsValidStoragePath(path string) bool {
	if path == "" {
		return false
	}

	// 不允许绝对路径
	if filepath.IsAbs(path) {
		return false
	}

	// 防止目录遍历
	if strings.Contains(path, "..") {
		return false
	}

	// 只允许安全字符
	for _, r := range path {
		if (r < 'a' || r > 'z') &&
			(r < 'A' || r > 'Z') &&
			(r < '0' || r > '9') &&
			r != '-' && r != '_' && r != '.' && r != '/' {
			return false
		}
	}
	return true
}

// Package mime 基于文件内容的 MIME 探测与扩展名映射
package mime

import "net/http"

// 允许的图片类型到规范扩展名的映射
var extByMime = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// SniffBytes 嗅探字节内容的 MIME 类型（只看前 512 字节）
func SniffBytes(data []byte) string {
	if len(data) > 512 {
		data = data[:512]
	}
	return http.DetectContentType(data)
}

// ExtensionFor 返回 MIME 类型对应的规范扩展名；未知类型返回空串
func ExtensionFor(mimeType string) string {
	return extByMime[mimeType]
}

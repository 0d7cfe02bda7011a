package validator

import (
	"github.com/vioaki/prompt-manager/utils/mime"
)

// allowedImageMimeTypes Allowed image types
var allowedImageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// IsImageBytes 校验字节内容是否为允许的图片类型，返回嗅探到的 MIME 类型
func IsImageBytes(data []byte) (bool, string) {
	mimeType := mime.SniffBytes(data)
	return allowedImageMimeTypes[mimeType], mimeType
}

package utils

import (
	"strings"
	"unicode"
)

// SanitizeLogMessage 过滤日志中的控制字符，防止日志注入
func SanitizeLogMessage(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		if r == '\n' || r == '\t' {
			sb.WriteRune(r)
		} else if unicode.IsPrint(r) || unicode.IsGraphic(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SanitizeLogTitle 截断并清洗用户提交的标题，用于日志输出
func SanitizeLogTitle(title string) string {
	if len(title) > 100 {
		title = title[:100] + "..."
	}
	return SanitizeLogMessage(title)
}

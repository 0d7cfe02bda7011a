package public

import (
	"github.com/gin-gonic/gin"

	"github.com/vioaki/prompt-manager/api/common"
)

// ListTags GET /api/tags 已发布作品引用到的标签，按名称排序。
// 敏感标签只有在站点允许且访客显式请求时返回。
func (h *Handler) ListTags(c *gin.Context) {
	ctx := c.Request.Context()

	includeSensitive := c.Query("show_sensitive") == "1" && h.settings.GetAllowSensitiveToggle(ctx)

	tags, err := h.tags.ListVisible(ctx, c.Query("category"), includeSensitive)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	common.RespondSuccess(c, gin.H{"tags": names})
}

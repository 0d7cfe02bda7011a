package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vioaki/prompt-manager/api/common"
)

type tagUpdateRequest struct {
	Name        *string `json:"name"`
	IsSensitive *bool   `json:"is_sensitive"`
}

// ListTags GET /api/admin/tags 全部标签
func (h *Handler) ListTags(c *gin.Context) {
	tags, err := h.tags.ListAll(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, gin.H{"tags": tags})
}

// UpdateTag PUT /api/admin/tags/:id 改名（可能合并）与敏感标记
func (h *Handler) UpdateTag(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid tag id")
		return
	}

	var req tagUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	merged := false

	if req.Name != nil {
		merged, err = h.tags.Rename(ctx, uint(id), *req.Name)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
	}

	// 改名合并后原标签已不存在，敏感标记更新只对未合并的情况有意义
	if req.IsSensitive != nil && !merged {
		if err := h.tags.SetSensitive(ctx, uint(id), *req.IsSensitive); err != nil {
			common.RespondAppError(c, err)
			return
		}
	}

	common.RespondSuccessMessage(c, "updated", gin.H{"merged": merged})
}

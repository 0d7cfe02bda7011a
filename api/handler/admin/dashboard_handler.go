package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/vioaki/prompt-manager/api/common"
	"github.com/vioaki/prompt-manager/database/models"
)

// Dashboard GET /api/admin/dashboard 后台统计概览
func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.assetsRepo.CountByStatus(ctx, "")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	pending, err := h.assetsRepo.CountByStatus(ctx, models.StatusPending)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	approved, err := h.assetsRepo.CountByStatus(ctx, models.StatusApproved)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, gin.H{
		"assets": gin.H{
			"total":    total,
			"pending":  pending,
			"approved": approved,
		},
	})
}

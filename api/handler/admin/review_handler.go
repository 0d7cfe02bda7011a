package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vioaki/prompt-manager/api/common"
)

// Approve POST /api/admin/assets/:id/approve 审核通过，幂等
func (h *Handler) Approve(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid asset id")
		return
	}

	if err := h.assets.Approve(c.Request.Context(), uint(id)); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "approved", nil)
}

// ApproveAll POST /api/admin/assets/approve-all 批量通过全部待审核
func (h *Handler) ApproveAll(c *gin.Context) {
	count, err := h.assets.ApproveAll(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "approved", gin.H{"approved": count})
}

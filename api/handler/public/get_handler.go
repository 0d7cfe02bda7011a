package public

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vioaki/prompt-manager/api/common"
)

// GetAsset GET /api/assets/:id，未发布作品等同不存在
func (h *Handler) GetAsset(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid asset id")
		return
	}

	view, err := h.assets.GetApproved(c.Request.Context(), uint(id))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, view)
}

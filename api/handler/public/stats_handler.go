package public

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vioaki/prompt-manager/api/common"
)

// BumpView POST /api/stats/view/:id 浏览计数
func (h *Handler) BumpView(c *gin.Context) {
	h.bump(c, h.assets.View)
}

// BumpCopy POST /api/stats/copy/:id 复制计数
func (h *Handler) BumpCopy(c *gin.Context) {
	h.bump(c, h.assets.Copy)
}

func (h *Handler) bump(c *gin.Context, fn func(ctx context.Context, id uint) error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid asset id")
		return
	}

	if err := fn(c.Request.Context(), uint(id)); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "counted", nil)
}

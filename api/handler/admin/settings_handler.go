package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vioaki/prompt-manager/api/common"
	"github.com/vioaki/prompt-manager/database/models"
)

// GetSettings GET /api/admin/settings 按组返回运行时配置
func (h *Handler) GetSettings(c *gin.Context) {
	ctx := c.Request.Context()
	common.RespondSuccess(c, gin.H{
		"upload":  h.settings.GetUploadSettings(ctx),
		"display": h.settings.GetDisplaySettings(ctx),
		"permissions": gin.H{
			"approval_gallery":       h.settings.GetApprovalRequired(ctx, models.CategoryGallery),
			"approval_template":      h.settings.GetApprovalRequired(ctx, models.CategoryTemplate),
			"allow_sensitive_toggle": h.settings.GetAllowSensitiveToggle(ctx),
		},
		"ratelimit": gin.H{
			"upload_rate_rps": h.settings.GetUploadRateRPS(ctx),
		},
		"readonly": h.settings.GetReadonlySettings(),
	})
}

type settingsUpdateRequest struct {
	ImgMaxDimension       *int     `json:"img_max_dimension"`
	ImgQuality            *int     `json:"img_quality"`
	EnableImgCompress     *bool    `json:"enable_img_compress"`
	MaxRefImages          *int     `json:"max_ref_images"`
	ItemsPerPage          *int     `json:"items_per_page"`
	AdminPerPage          *int     `json:"admin_per_page"`
	UseThumbnailInPreview *bool    `json:"use_thumbnail_in_preview"`
	ApprovalGallery       *bool    `json:"approval_gallery"`
	ApprovalTemplate      *bool    `json:"approval_template"`
	AllowSensitiveToggle  *bool    `json:"allow_sensitive_toggle"`
	UploadRateRPS         *float64 `json:"upload_rate_rps"`
}

// UpdateSettings POST /api/admin/settings 只更新请求中出现的键，
// 新值即刻对后续请求生效，无需重启。
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req settingsUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	apply := func(err error) bool {
		if err != nil {
			common.RespondAppError(c, err)
			return false
		}
		return true
	}

	if req.ImgMaxDimension != nil && !apply(h.settings.SetImgMaxDimension(ctx, *req.ImgMaxDimension)) {
		return
	}
	if req.ImgQuality != nil && !apply(h.settings.SetImgQuality(ctx, *req.ImgQuality)) {
		return
	}
	if req.EnableImgCompress != nil && !apply(h.settings.SetEnableImgCompress(ctx, *req.EnableImgCompress)) {
		return
	}
	if req.MaxRefImages != nil && !apply(h.settings.SetMaxRefImages(ctx, *req.MaxRefImages)) {
		return
	}
	if req.ItemsPerPage != nil && !apply(h.settings.SetItemsPerPage(ctx, *req.ItemsPerPage)) {
		return
	}
	if req.AdminPerPage != nil && !apply(h.settings.SetAdminPerPage(ctx, *req.AdminPerPage)) {
		return
	}
	if req.UseThumbnailInPreview != nil && !apply(h.settings.SetUseThumbnailInPreview(ctx, *req.UseThumbnailInPreview)) {
		return
	}
	if req.ApprovalGallery != nil && !apply(h.settings.SetApprovalRequired(ctx, models.CategoryGallery, *req.ApprovalGallery)) {
		return
	}
	if req.ApprovalTemplate != nil && !apply(h.settings.SetApprovalRequired(ctx, models.CategoryTemplate, *req.ApprovalTemplate)) {
		return
	}
	if req.AllowSensitiveToggle != nil && !apply(h.settings.SetAllowSensitiveToggle(ctx, *req.AllowSensitiveToggle)) {
		return
	}
	if req.UploadRateRPS != nil && !apply(h.settings.SetUploadRateRPS(ctx, *req.UploadRateRPS)) {
		return
	}

	common.RespondSuccessMessage(c, "settings updated", nil)
}

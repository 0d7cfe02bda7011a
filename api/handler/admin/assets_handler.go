package admin

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vioaki/prompt-manager/api/common"
	"github.com/vioaki/prompt-manager/database/repo/assets"
	assetSvc "github.com/vioaki/prompt-manager/internal/services/asset"
	imageSvc "github.com/vioaki/prompt-manager/internal/services/image"
)

// List GET /api/admin/assets 全量列表（含待审核、敏感内容）
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(c.Query("per_page"))
	if err != nil || perPage < 1 {
		perPage = h.settings.GetAdminPerPage(ctx)
	}

	views, total, err := h.assets.List(ctx, assets.ListOptions{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Query:    c.Query("q"),
		Sort:     c.DefaultQuery("sort", assets.SortByDate),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, gin.H{
		"items": views,
		"meta": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// Get GET /api/admin/assets/:id 不区分状态
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid asset id")
		return
	}

	view, err := h.assets.Get(c.Request.Context(), uint(id))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, view)
}

// Update PUT /api/admin/assets/:id 编辑作品。
// multipart 字段同投稿接口，另支持 remove_ref_ids（逗号分隔）。
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid asset id")
		return
	}

	in := &assetSvc.UpdateInput{
		Title:       c.PostForm("title"),
		Author:      c.PostForm("author"),
		Prompt:      c.PostForm("prompt"),
		Description: c.PostForm("description"),
		Type:        c.PostForm("type"),
	}

	if raw := c.PostForm("tags"); strings.TrimSpace(raw) != "" {
		in.Tags = strings.Split(raw, ",")
	}

	for _, part := range strings.Split(c.PostForm("remove_ref_ids"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		refID, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			common.RespondError(c, http.StatusBadRequest, "invalid remove_ref_ids")
			return
		}
		in.RemoveRefIDs = append(in.RemoveRefIDs, uint(refID))
	}

	if header, err := c.FormFile("image"); err == nil {
		f, err := readFormFile(header)
		if err != nil {
			common.RespondError(c, http.StatusBadRequest, "failed to read main image")
			return
		}
		in.NewMain = f
	}

	if form, err := c.MultipartForm(); err == nil {
		for _, header := range form.File["ref_images"] {
			f, err := readFormFile(header)
			if err != nil {
				common.RespondError(c, http.StatusBadRequest, "failed to read reference image")
				return
			}
			in.NewRefSlots = append(in.NewRefSlots, assetSvc.RefSlot{File: f})
		}
	}
	if raw := strings.TrimSpace(c.PostForm("add_placeholders")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			common.RespondError(c, http.StatusBadRequest, "invalid add_placeholders")
			return
		}
		for i := 0; i < n; i++ {
			in.NewRefSlots = append(in.NewRefSlots, assetSvc.RefSlot{Placeholder: true})
		}
	}

	view, err := h.assets.Update(c.Request.Context(), uint(id), in)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "updated", view)
}

// Delete DELETE /api/admin/assets/:id 删除即拒绝，不可恢复
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid asset id")
		return
	}

	if err := h.assets.Delete(c.Request.Context(), uint(id)); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "deleted", nil)
}

func readFormFile(header *multipart.FileHeader) (*imageSvc.File, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &imageSvc.File{Name: header.Filename, Data: data}, nil
}

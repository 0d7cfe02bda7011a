package public

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vioaki/prompt-manager/api/common"
	"github.com/vioaki/prompt-manager/database/models"
	"github.com/vioaki/prompt-manager/database/repo/assets"
)

// 列表分页：缺省每页 500，-1 表示"全部"但封顶 10000
const (
	defaultPerPage = 500
	maxPerPage     = 10000
)

// ListGallery GET /api/gallery
func (h *Handler) ListGallery(c *gin.Context) {
	h.list(c, models.CategoryGallery)
}

// ListTemplates GET /api/templates
func (h *Handler) ListTemplates(c *gin.Context) {
	h.list(c, models.CategoryTemplate)
}

// list 已发布作品列表。响应带 MD5 ETag，命中 If-None-Match 时返回 304。
func (h *Handler) list(c *gin.Context, category string) {
	ctx := c.Request.Context()

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if err != nil || perPage == 0 {
		perPage = defaultPerPage
	}
	if perPage < 0 || perPage > maxPerPage {
		perPage = maxPerPage
	}

	sort := c.DefaultQuery("sort", assets.SortByDate)
	switch sort {
	case assets.SortByDate, assets.SortByHot, assets.SortByRandom:
	default:
		sort = assets.SortByDate
	}

	// 敏感内容开关：需要站点允许且访客显式请求
	showSensitive := c.Query("show_sensitive") == "1" && h.settings.GetAllowSensitiveToggle(ctx)

	opts := assets.ListOptions{
		Status:           models.StatusApproved,
		Category:         category,
		Tag:              c.Query("tag"),
		Query:            c.Query("q"),
		Sort:             sort,
		Page:             page,
		PerPage:          perPage,
		ExcludeSensitive: !showSensitive,
	}

	views, total, err := h.assets.List(ctx, opts)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	var nextURL string
	if page < totalPages {
		q := c.Request.URL.Query()
		q.Set("page", strconv.Itoa(page+1))
		nextURL = c.Request.URL.Path + "?" + q.Encode()
	}

	payload := gin.H{
		"items": views,
		"meta": gin.H{
			"page":        page,
			"per_page":    perPage,
			"total":       total,
			"total_pages": totalPages,
			"next_url":    nextURL,
			"server_time": time.Now().UTC().Format(time.RFC3339),
		},
	}

	// 随机排序的响应天然不稳定，不做条件请求
	if sort != assets.SortByRandom {
		body, err := json.Marshal(views)
		if err == nil {
			sum := md5.Sum(body)
			etag := fmt.Sprintf(`"%s"`, hex.EncodeToString(sum[:]))
			c.Header("ETag", etag)
			c.Header("Cache-Control", "public, max-age=60")
			if c.GetHeader("If-None-Match") == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	common.RespondSuccess(c, payload)
}

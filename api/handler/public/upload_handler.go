package public

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vioaki/prompt-manager/api/common"
	assetSvc "github.com/vioaki/prompt-manager/internal/services/asset"
	imageSvc "github.com/vioaki/prompt-manager/internal/services/image"
)

// CreateAsset POST /api/assets 匿名投稿。
// multipart 字段：image（主图）、ref_images（参考图，可多个）、
// ref_slots（逗号分隔的 file/placeholder 槽位声明，缺省为全部 file）、
// title、author、prompt、description、type、category、tags（逗号分隔）。
func (h *Handler) CreateAsset(c *gin.Context) {
	mainHeader, err := c.FormFile("image")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "main image file is required")
		return
	}
	mainFile, err := readFormFile(mainHeader)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "failed to read main image")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid multipart form")
		return
	}

	refHeaders := form.File["ref_images"]
	refFiles := make([]*imageSvc.File, 0, len(refHeaders))
	for _, header := range refHeaders {
		f, err := readFormFile(header)
		if err != nil {
			common.RespondError(c, http.StatusBadRequest, "failed to read reference image")
			return
		}
		refFiles = append(refFiles, f)
	}

	slots, err := parseRefSlots(c.PostForm("ref_slots"), refFiles)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.assets.Create(c.Request.Context(), &assetSvc.CreateInput{
		Title:       c.PostForm("title"),
		Author:      c.PostForm("author"),
		Prompt:      c.PostForm("prompt"),
		Description: c.PostForm("description"),
		Type:        c.PostForm("type"),
		Category:    c.PostForm("category"),
		Tags:        splitTags(c.PostForm("tags")),
		Main:        mainFile,
		RefSlots:    slots,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "submitted", view)
}

// parseRefSlots 把槽位声明与上传的参考图按顺序配对。
// 声明缺省时所有参考图都是 file 槽位。
func parseRefSlots(raw string, files []*imageSvc.File) ([]assetSvc.RefSlot, error) {
	if strings.TrimSpace(raw) == "" {
		slots := make([]assetSvc.RefSlot, 0, len(files))
		for _, f := range files {
			slots = append(slots, assetSvc.RefSlot{File: f})
		}
		return slots, nil
	}

	tokens := strings.Split(raw, ",")
	slots := make([]assetSvc.RefSlot, 0, len(tokens))
	fileIdx := 0
	for _, token := range tokens {
		switch strings.TrimSpace(token) {
		case "file":
			if fileIdx >= len(files) {
				return nil, errMissingRefFile
			}
			slots = append(slots, assetSvc.RefSlot{File: files[fileIdx]})
			fileIdx++
		case "placeholder":
			slots = append(slots, assetSvc.RefSlot{Placeholder: true})
		default:
			return nil, errBadSlotToken
		}
	}
	if fileIdx != len(files) {
		return nil, errExtraRefFile
	}
	return slots, nil
}

var (
	errMissingRefFile = &slotError{"ref_slots declares more files than uploaded"}
	errExtraRefFile   = &slotError{"uploaded reference images exceed declared file slots"}
	errBadSlotToken   = &slotError{"ref_slots tokens must be 'file' or 'placeholder'"}
)

type slotError struct{ msg string }

func (e *slotError) Error() string { return e.msg }

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
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

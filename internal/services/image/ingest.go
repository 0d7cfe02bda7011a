// Package image 图片入库管线：校验、嗅探、探测尺寸、写入存储后端。
package image

import (
	"bytes"
	"context"
	"fmt"
	stdimage "image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	dbconfig "github.com/vioaki/prompt-manager/config/db"
	"github.com/vioaki/prompt-manager/internal/apperr"
	"github.com/vioaki/prompt-manager/storage"
	"github.com/vioaki/prompt-manager/utils"
	"github.com/vioaki/prompt-manager/utils/validator"
)

// File 一个待入库的上传文件
type File struct {
	Name string
	Data []byte
}

// Result 入库产物定位符。RefLocators 与传入参考图顺序一一对应。
type Result struct {
	Locator      string
	ThumbLocator string
	RefLocators  []string
}

// IngestService 多文件入库管线。
// 文件按 主图、参考图1..N 顺序逐个写入；任一文件失败即中止，
// 已写入的文件不做补偿删除。
type IngestService struct {
	backend      storage.Backend
	settings     *dbconfig.Manager
	maxSizeBytes int64
}

// NewIngestService 创建入库管线
func NewIngestService(backend storage.Backend, settings *dbconfig.Manager, maxSizeMB int) *IngestService {
	return &IngestService{
		backend:      backend,
		settings:     settings,
		maxSizeBytes: int64(maxSizeMB) * 1024 * 1024,
	}
}

// Ingest 校验并存储主图与参考图。
// 所有校验（数量上限、大小、内容嗅探、尺寸探测）在第一次写入之前完成。
func (s *IngestService) Ingest(ctx context.Context, main *File, refs []*File) (*Result, error) {
	if main == nil || len(main.Data) == 0 {
		return nil, apperr.Validationf("main image file is required")
	}

	maxRefs := s.settings.GetMaxRefImages(ctx)
	if len(refs) > maxRefs {
		return nil, apperr.Validationf("too many reference images: %d > %d", len(refs), maxRefs)
	}

	objects := make([]*storage.Object, 0, len(refs)+1)
	files := append([]*File{main}, refs...)
	for _, f := range files {
		obj, err := s.validate(f)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}

	result := &Result{RefLocators: make([]string, 0, len(refs))}
	for i, obj := range objects {
		put, err := s.backend.Put(ctx, obj)
		if err != nil {
			log.Printf("[Ingest] Store failed for file %d (%s): %v",
				i, utils.SanitizeLogMessage(files[i].Name), err)
			return nil, fmt.Errorf("store file %d: %w", i, err)
		}
		if i == 0 {
			result.Locator = put.Locator
			result.ThumbLocator = put.ThumbLocator
		} else {
			result.RefLocators = append(result.RefLocators, put.Locator)
		}
	}

	return result, nil
}

// IngestOne 校验并存储单个文件（编辑场景：替换主图、追加参考图）
func (s *IngestService) IngestOne(ctx context.Context, f *File) (*storage.PutResult, error) {
	if f == nil || len(f.Data) == 0 {
		return nil, apperr.Validationf("image file is required")
	}
	obj, err := s.validate(f)
	if err != nil {
		return nil, err
	}
	put, err := s.backend.Put(ctx, obj)
	if err != nil {
		log.Printf("[Ingest] Store failed for file %s: %v", utils.SanitizeLogMessage(f.Name), err)
		return nil, fmt.Errorf("store file: %w", err)
	}
	return put, nil
}

// validate 大小限制、内容嗅探与尺寸探测，全部基于文件内容而非文件名
func (s *IngestService) validate(f *File) (*storage.Object, error) {
	if len(f.Data) == 0 {
		return nil, apperr.Validationf("empty file: %s", utils.SanitizeLogMessage(f.Name))
	}
	if s.maxSizeBytes > 0 && int64(len(f.Data)) > s.maxSizeBytes {
		return nil, apperr.Validationf("file too large: %s (%d bytes)",
			utils.SanitizeLogMessage(f.Name), len(f.Data))
	}

	ok, mimeType := validator.IsImageBytes(f.Data)
	if !ok {
		return nil, apperr.Decodef("unsupported content type %s for file %s",
			mimeType, utils.SanitizeLogMessage(f.Name))
	}

	// 解出真实尺寸，损坏的文件在这里被拒绝
	if _, _, err := stdimage.DecodeConfig(bytes.NewReader(f.Data)); err != nil {
		return nil, apperr.Wrap(apperr.KindDecode, "undecodable image content", err)
	}

	return &storage.Object{Data: f.Data, ContentType: mimeType}, nil
}

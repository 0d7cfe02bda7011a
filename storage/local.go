package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	dbconfig "github.com/vioaki/prompt-manager/config/db"
	"github.com/vioaki/prompt-manager/internal/apperr"
	"github.com/vioaki/prompt-manager/internal/services/imaging"
)

// LocalBackend 本地磁盘存储。主图在写盘前经过转码器归一化，
// 定位符为站点根相对路径 /<upload_folder>/<key><ext>。
type LocalBackend struct {
	absBasePath string
	urlPrefix   string
	transcoder  *imaging.Transcoder
	settings    *dbconfig.Manager
}

// NewLocalBackend 创建本地存储后端并确认目录可写
func NewLocalBackend(uploadFolder string, transcoder *imaging.Transcoder, settings *dbconfig.Manager) (*LocalBackend, error) {
	absPath, err := filepath.Abs(uploadFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", uploadFolder, err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory '%s': %w", absPath, err)
	}

	testFile := filepath.Join(absPath, ".write_test_"+strconv.FormatInt(time.Now().UnixNano(), 10))
	f, err := os.Create(testFile)
	if err != nil {
		return nil, fmt.Errorf("local storage directory '%s' is not writable: %w", absPath, err)
	}
	_ = f.Close()
	_ = os.Remove(testFile)

	return &LocalBackend{
		absBasePath: absPath + string(os.PathSeparator),
		urlPrefix:   "/" + strings.Trim(uploadFolder, "/") + "/",
		transcoder:  transcoder,
		settings:    settings,
	}, nil
}

func (b *LocalBackend) Name() string {
	return "local"
}

// Put 转码后写盘。动图不生成独立缩略图，缩略图定位符等于主图定位符。
// 主图已写而缩略图写失败时不回收主图文件。
func (b *LocalBackend) Put(ctx context.Context, obj *Object) (*PutResult, error) {
	opts := imaging.Options{
		MaxDimension: b.settings.GetImgMaxDimension(ctx),
		Quality:      b.settings.GetImgQuality(ctx),
		Compress:     b.settings.GetEnableImgCompress(ctx),
	}

	res, err := b.transcoder.Process(obj.Data, opts)
	if err != nil {
		return nil, err
	}

	key := newObjectKey()
	mainName := key + res.Ext

	if err := b.writeFile(mainName, res.Main); err != nil {
		return nil, err
	}
	mainLocator := b.urlPrefix + mainName

	if res.Thumb == nil {
		return &PutResult{Locator: mainLocator, ThumbLocator: mainLocator}, nil
	}

	thumbName := key + "_thumb.jpg"
	if err := b.writeFile(thumbName, res.Thumb); err != nil {
		return nil, err
	}

	return &PutResult{
		Locator:      mainLocator,
		ThumbLocator: b.urlPrefix + thumbName,
	}, nil
}

func (b *LocalBackend) writeFile(name string, data []byte) error {
	if !IsValidStoragePath(name) {
		return apperr.New(apperr.KindStorage, "invalid storage path: "+name)
	}

	dstPath := filepath.Join(b.absBasePath, name)

	// 防止目录遍历攻击
	if !strings.HasPrefix(dstPath, b.absBasePath) {
		return apperr.New(apperr.KindStorage, "invalid file path, potential directory traversal: "+name)
	}

	if err := os.WriteFile(dstPath, data, 0644); err != nil {
		return apperr.Wrap(apperr.KindStorage, "failed to write file "+name, err)
	}
	return nil
}

// Owns 本地定位符以上传目录前缀开头
func (b *LocalBackend) Owns(locator string) bool {
	return strings.HasPrefix(locator, b.urlPrefix)
}

// Delete 删除本地文件；外部定位符与不存在的文件均忽略
func (b *LocalBackend) Delete(ctx context.Context, locator string) error {
	if !b.Owns(locator) {
		log.Printf("[Storage] Skipping delete of foreign locator: %s", locator)
		return nil
	}

	name := strings.TrimPrefix(locator, b.urlPrefix)
	if !IsValidStoragePath(name) {
		return apperr.New(apperr.KindStorage, "invalid storage path: "+name)
	}

	fullPath := filepath.Join(b.absBasePath, name)
	if !strings.HasPrefix(fullPath, b.absBasePath) {
		return apperr.New(apperr.KindStorage, "invalid file path, potential directory traversal: "+name)
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperr.Wrap(apperr.KindStorage, "failed to delete file "+name, err)
	}
	return nil
}

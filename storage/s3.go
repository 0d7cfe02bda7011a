package storage

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vioaki/prompt-manager/config"
	"github.com/vioaki/prompt-manager/internal/apperr"
	"github.com/vioaki/prompt-manager/utils/mime"
)

// S3Backend S3 兼容对象存储。原始字节原样上传，不做转码；
// 缩略图定位符为主图 URL 加上配置的后缀（依赖图床侧的缩略图参数）。
type S3Backend struct {
	client      *minio.Client
	bucket      string
	domain      string
	thumbSuffix string
	timeout     time.Duration
}

// NewS3Backend 创建 S3 后端并确认 bucket 存在
func NewS3Backend(cfg *config.Config) (*S3Backend, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       time.Minute,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 10 * time.Second,
		DisableCompression:    true,
	}
	if cfg.S3UseSSL {
		transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure:    cfg.S3UseSSL,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket '%s' exists: %w", cfg.S3Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.S3Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket '%s': %w", cfg.S3Bucket, err)
		}
		log.Printf("Successfully created bucket: %s", cfg.S3Bucket)
	}

	timeout := cfg.S3Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &S3Backend{
		client:      client,
		bucket:      cfg.S3Bucket,
		domain:      strings.TrimRight(cfg.S3Domain, "/"),
		thumbSuffix: cfg.S3ThumbSuffix,
		timeout:     timeout,
	}, nil
}

func (b *S3Backend) Name() string {
	return "s3"
}

// Put 上传原始字节，扩展名取自嗅探到的内容类型
func (b *S3Backend) Put(ctx context.Context, obj *Object) (*PutResult, error) {
	ext := mime.ExtensionFor(obj.ContentType)
	if ext == "" {
		return nil, apperr.New(apperr.KindStorage, "unsupported content type for object storage: "+obj.ContentType)
	}
	objectName := newObjectKey() + ext

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	_, err := b.client.PutObject(ctx, b.bucket, objectName,
		bytes.NewReader(obj.Data), int64(len(obj.Data)),
		minio.PutObjectOptions{ContentType: obj.ContentType})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "failed to upload object "+objectName, err)
	}

	url := b.domain + "/" + objectName
	return &PutResult{
		Locator:      url,
		ThumbLocator: url + b.thumbSuffix,
	}, nil
}

// Owns 对象存储定位符以配置域名开头
func (b *S3Backend) Owns(locator string) bool {
	return b.domain != "" && strings.HasPrefix(locator, b.domain+"/")
}

// Delete 删除对象；外部定位符忽略，NoSuchKey 不算错误
func (b *S3Backend) Delete(ctx context.Context, locator string) error {
	if !b.Owns(locator) {
		log.Printf("[Storage] Skipping delete of foreign locator: %s", locator)
		return nil
	}

	objectName := b.objectNameFromLocator(locator)
	if objectName == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	err := b.client.RemoveObject(ctx, b.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return apperr.Wrap(apperr.KindStorage, "failed to delete object "+objectName, err)
	}
	return nil
}

// objectNameFromLocator 从 URL 提取对象键，剥离查询参数（缩略图后缀）
func (b *S3Backend) objectNameFromLocator(locator string) string {
	name := strings.TrimPrefix(locator, b.domain+"/")
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return name
}

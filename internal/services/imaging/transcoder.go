// Package imaging 图片转码：归一化、压缩、缩略图。
// 纯函数式处理字节，配置由调用方在每次调用时传入。
package imaging

import (
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"

	"github.com/vioaki/prompt-manager/internal/apperr"
)

// 缩略图固定 400x400 内等比缩放，JPEG q90
const (
	ThumbMaxWidth  = 400
	ThumbMaxHeight = 400
	thumbQuality   = 90
)

// Options 单次转码参数，由热更新配置在调用时取值
type Options struct {
	MaxDimension int
	Quality      int
	Compress     bool
}

// Result 转码产物。动图（GIF）原样透传且不生成缩略图。
type Result struct {
	Main     []byte
	Ext      string
	Thumb    []byte
	Animated bool
	Width    int
	Height   int
}

// Transcoder 基于 libvips 的图片转码器
type Transcoder struct{}

func NewTranscoder() *Transcoder {
	return &Transcoder{}
}

// Process 解码并转码一张图片。
// 解码失败返回 Decode 错误且无任何副作用；输出扩展名来自解码出的
// 真实格式，与上传文件名无关。
func (t *Transcoder) Process(data []byte, opts Options) (*Result, error) {
	img, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDecode, "undecodable image content", err)
	}
	defer img.Close()

	format := img.Format()
	width := img.Width()
	height := img.Height()

	// GIF 可能含动画帧，任何重编码都会丢帧，整体透传
	if format == vips.ImageTypeGIF {
		return &Result{
			Main:     data,
			Ext:      ".gif",
			Animated: true,
			Width:    width,
			Height:   height,
		}, nil
	}

	thumb, err := t.renderThumbnail(data)
	if err != nil {
		return nil, err
	}

	main, ext, err := t.renderMain(data, img, opts)
	if err != nil {
		return nil, err
	}

	return &Result{
		Main:   main,
		Ext:    ext,
		Thumb:  thumb,
		Width:  width,
		Height: height,
	}, nil
}

// renderThumbnail 生成 400x400 内等比缩略图，不放大小图
func (t *Transcoder) renderThumbnail(data []byte) ([]byte, error) {
	thumbImg, err := vips.NewThumbnailWithSizeFromBuffer(
		data,
		ThumbMaxWidth,
		ThumbMaxHeight,
		vips.InterestingNone,
		vips.SizeDown,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDecode, "thumbnail from buffer", err)
	}
	defer thumbImg.Close()

	if err := normalize(thumbImg); err != nil {
		return nil, err
	}

	buf, _, err := thumbImg.ExportJpeg(&vips.JpegExportParams{
		Quality:       thumbQuality,
		StripMetadata: true,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDecode, "export thumbnail jpeg", err)
	}
	return buf, nil
}

// renderMain 重编码主图。压缩开启且超出最大边长时等比降采样；
// 压缩关闭时按 q100 重编码但不缩放。
func (t *Transcoder) renderMain(data []byte, img *vips.ImageRef, opts Options) ([]byte, string, error) {
	main := img
	if opts.Compress && opts.MaxDimension > 0 &&
		(img.Width() > opts.MaxDimension || img.Height() > opts.MaxDimension) {
		scaled, err := vips.NewThumbnailWithSizeFromBuffer(
			data,
			opts.MaxDimension,
			opts.MaxDimension,
			vips.InterestingNone,
			vips.SizeDown,
		)
		if err != nil {
			return nil, "", apperr.Wrap(apperr.KindDecode, "downscale image", err)
		}
		defer scaled.Close()
		main = scaled
	}

	if err := normalize(main); err != nil {
		return nil, "", err
	}

	quality := opts.Quality
	if !opts.Compress {
		quality = 100
	}

	switch img.Format() {
	case vips.ImageTypePNG:
		buf, _, err := main.ExportPng(&vips.PngExportParams{
			Compression:   6,
			StripMetadata: true,
		})
		if err != nil {
			return nil, "", apperr.Wrap(apperr.KindDecode, "export png", err)
		}
		return buf, ".png", nil
	case vips.ImageTypeWEBP:
		buf, _, err := main.ExportWebp(&vips.WebpExportParams{
			Quality:       quality,
			StripMetadata: true,
		})
		if err != nil {
			return nil, "", apperr.Wrap(apperr.KindDecode, "export webp", err)
		}
		return buf, ".webp", nil
	default:
		// jpeg、bmp 及其他静态格式统一落成 jpeg
		buf, _, err := main.ExportJpeg(&vips.JpegExportParams{
			Quality:       quality,
			StripMetadata: true,
		})
		if err != nil {
			return nil, "", apperr.Wrap(apperr.KindDecode, "export jpeg", err)
		}
		return buf, ".jpg", nil
	}
}

// normalize 拍平透明通道到白底并统一到 sRGB，JPEG 不支持 alpha
func normalize(img *vips.ImageRef) error {
	if img.HasAlpha() {
		if err := img.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
			return fmt.Errorf("flatten alpha: %w", err)
		}
	}
	if img.Interpretation() != vips.InterpretationSRGB {
		if err := img.ToColorSpace(vips.InterpretationSRGB); err != nil {
			return fmt.Errorf("convert to srgb: %w", err)
		}
	}
	return nil
}

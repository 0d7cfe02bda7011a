package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vioaki/prompt-manager/internal/apperr"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func encodeGIF(t *testing.T) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 8, 8), []color.Color{color.White, color.Black})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestProcessRejectsUndecodable(t *testing.T) {
	tr := NewTranscoder()
	_, err := tr.Process([]byte("definitely not an image"), Options{MaxDimension: 1600, Quality: 85, Compress: true})
	require.Error(t, err)
	assert.True(t, apperr.IsDecode(err))
}

func TestProcessGifPassthrough(t *testing.T) {
	tr := NewTranscoder()
	data := encodeGIF(t)

	res, err := tr.Process(data, Options{MaxDimension: 1600, Quality: 85, Compress: true})
	require.NoError(t, err)
	assert.True(t, res.Animated)
	assert.Equal(t, ".gif", res.Ext)
	assert.Equal(t, data, res.Main, "gif bytes must pass through untouched")
	assert.Nil(t, res.Thumb)
}

func TestProcessKeepsNativeFormat(t *testing.T) {
	tr := NewTranscoder()

	res, err := tr.Process(encodePNG(t, 100, 60), Options{MaxDimension: 1600, Quality: 85, Compress: true})
	require.NoError(t, err)
	assert.Equal(t, ".png", res.Ext)
	assert.Equal(t, 100, res.Width)
	assert.Equal(t, 60, res.Height)
	assert.NotEmpty(t, res.Thumb)

	res, err = tr.Process(encodeJPEG(t, 100, 60), Options{MaxDimension: 1600, Quality: 85, Compress: true})
	require.NoError(t, err)
	assert.Equal(t, ".jpg", res.Ext)
}

func TestProcessDownscalesOverMaxDimension(t *testing.T) {
	tr := NewTranscoder()

	res, err := tr.Process(encodeJPEG(t, 800, 200), Options{MaxDimension: 400, Quality: 85, Compress: true})
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Main))
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 100, cfg.Height)
}

func TestProcessNoCompressKeepsDimensions(t *testing.T) {
	tr := NewTranscoder()

	res, err := tr.Process(encodeJPEG(t, 800, 200), Options{MaxDimension: 400, Quality: 85, Compress: false})
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Main))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestThumbnailNeverUpscales(t *testing.T) {
	tr := NewTranscoder()

	res, err := tr.Process(encodeJPEG(t, 50, 50), Options{MaxDimension: 1600, Quality: 85, Compress: true})
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Thumb))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

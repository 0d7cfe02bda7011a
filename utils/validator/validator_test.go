package validator

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageBytes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	ok, mimeType := IsImageBytes(buf.Bytes())
	assert.True(t, ok)
	assert.Equal(t, "image/png", mimeType)
}

func TestIsImageBytesRejectsNonImage(t *testing.T) {
	ok, mimeType := IsImageBytes([]byte("%PDF-1.4 not an image"))
	assert.False(t, ok)
	assert.NotEqual(t, "image/png", mimeType)

	ok, _ = IsImageBytes(nil)
	assert.False(t, ok)
}

func TestIsImageBytesGifHeader(t *testing.T) {
	ok, mimeType := IsImageBytes([]byte("GIF87a\x01\x00\x01\x00"))
	assert.True(t, ok)
	assert.Equal(t, "image/gif", mimeType)
}

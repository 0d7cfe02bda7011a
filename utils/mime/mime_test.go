package mime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniffBytes(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	assert.Equal(t, "image/png", SniffBytes(png))

	gif := []byte("GIF89a\x01\x00\x01\x00")
	assert.Equal(t, "image/gif", SniffBytes(gif))

	assert.Equal(t, "text/plain; charset=utf-8", SniffBytes([]byte("hello")))
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".jpg", ExtensionFor("image/jpeg"))
	assert.Equal(t, ".webp", ExtensionFor("image/webp"))
	assert.Equal(t, "", ExtensionFor("application/pdf"))
}

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestS3Owns(t *testing.T) {
	b := &S3Backend{domain: "https://cdn.example.com"}

	assert.True(t, b.Owns("https://cdn.example.com/abc.jpg"))
	assert.False(t, b.Owns("https://other.example.com/abc.jpg"))
	assert.False(t, b.Owns("/static/uploads/abc.jpg"))

	empty := &S3Backend{}
	assert.False(t, empty.Owns("https://cdn.example.com/abc.jpg"))
}

func TestS3ObjectNameFromLocator(t *testing.T) {
	b := &S3Backend{domain: "https://cdn.example.com", thumbSuffix: "?x-oss-process=style/thumb"}

	assert.Equal(t, "abc.jpg", b.objectNameFromLocator("https://cdn.example.com/abc.jpg"))
	assert.Equal(t, "abc.jpg", b.objectNameFromLocator("https://cdn.example.com/abc.jpg?x-oss-process=style/thumb"))
}

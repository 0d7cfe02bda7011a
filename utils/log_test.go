package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLogMessage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello world", "hello world"},
		{"keeps newline and tab", "a\n\tb", "a\n\tb"},
		{"strips carriage return", "a\rb", "ab"},
		{"strips escape", "a\x1b[31mb", "a[31mb"},
		{"unicode kept", "标题 🎨", "标题 🎨"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeLogMessage(tt.input))
		})
	}
}

func TestSanitizeLogTitle(t *testing.T) {
	long := make([]byte, 150)
	for i := range long {
		long[i] = 'x'
	}
	got := SanitizeLogTitle(string(long))
	assert.Len(t, got, 103)
	assert.Equal(t, "...", got[100:])
}

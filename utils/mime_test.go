package utils

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	gifMagic  = []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61}
)

func TestSniffContentType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", jpegMagic, "image/jpeg"},
		{"png", pngMagic, "image/png"},
		{"gif", gifMagic, "image/gif"},
		{"text", []byte("hello world"), "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := bytes.NewReader(tt.data)
			contentType, err := SniffContentType(reader)
			require.NoError(t, err)
			assert.Equal(t, tt.want, contentType)

			pos, _ := reader.Seek(0, io.SeekCurrent)
			assert.Equal(t, int64(0), pos, "stream should be rewound")
		})
	}
}

func TestGetSafeExtension(t *testing.T) {
	assert.Equal(t, ".jpg", GetSafeExtension("image/jpeg"))
	assert.Equal(t, ".png", GetSafeExtension("image/png; charset=binary"))
	assert.Equal(t, "", GetSafeExtension("text/html"))
	assert.Equal(t, "", GetSafeExtension("image/svg+xml"))
}

func TestContentTypeForFilename(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentTypeForFilename("a.JPG"))
	assert.Equal(t, "image/jpeg", ContentTypeForFilename("a.jpeg"))
	assert.Equal(t, "image/webp", ContentTypeForFilename("x.webp"))
	assert.Equal(t, "application/octet-stream", ContentTypeForFilename("x.exe"))
}

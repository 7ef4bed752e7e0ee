package generator

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// PathGenerator builds storage keys for user files.
type PathGenerator struct{}

// NewPathGenerator 创建路径生成器
func NewPathGenerator() *PathGenerator {
	return &PathGenerator{}
}

// StorageIdentifiers filename stored on the row plus its storage key
type StorageIdentifiers struct {
	Filename    string // e.g. 3f2a...c1.jpg
	StoragePath string // e.g. 42/3f2a...c1.jpg
}

// GenerateFilename returns a random UUID filename with ext (".jpg").
func (pg *PathGenerator) GenerateFilename(ext string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}

// GenerateIdentifiers creates a new filename for owner and its key.
func (pg *PathGenerator) GenerateIdentifiers(ownerID uint, ext string) StorageIdentifiers {
	filename := pg.GenerateFilename(ext)
	return StorageIdentifiers{
		Filename:    filename,
		StoragePath: pg.StoragePath(ownerID, filename),
	}
}

// StoragePath derives the key of an existing file.
func (pg *PathGenerator) StoragePath(ownerID uint, filename string) string {
	return fmt.Sprintf("%d/%s", ownerID, filename)
}

// ParseStoragePath splits "<owner>/<filename>". ok is false for keys that
// were not produced by StoragePath.
func (pg *PathGenerator) ParseStoragePath(storagePath string) (ownerID uint, filename string, ok bool) {
	dir, file := path.Split(strings.TrimPrefix(storagePath, "/"))
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" || file == "" || strings.Contains(dir, "/") {
		return 0, "", false
	}
	id, err := strconv.ParseUint(dir, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return uint(id), file, true
}

// thumbnailDir sub directory holding generated thumbnails
const thumbnailDir = "thumbs"

// ThumbnailPath key of the JPEG thumbnail for a stored photo,
// e.g. 42/thumbs/3f2a...c1.jpg
func (pg *PathGenerator) ThumbnailPath(ownerID uint, filename string) string {
	stem := strings.TrimSuffix(filename, path.Ext(filename))
	return fmt.Sprintf("%d/%s/%s.jpg", ownerID, thumbnailDir, stem)
}

// IsThumbnailPath reports whether key has the layout ThumbnailPath produces.
func (pg *PathGenerator) IsThumbnailPath(key string) bool {
	parts := strings.Split(strings.TrimPrefix(key, "/"), "/")
	if len(parts) != 3 || parts[1] != thumbnailDir || parts[2] == "" {
		return false
	}
	_, err := strconv.ParseUint(parts[0], 10, 64)
	return err == nil
}

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

// WebDAVConfig WebDAV 配置结构
type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	RootPath string
	Timeout  time.Duration
}

// WebDAVStorage WebDAV 存储实现
type WebDAVStorage struct {
	client   *gowebdav.Client
	baseURL  string
	rootPath string
}

// NewWebDAVStorage 创建 WebDAV 存储提供者
func NewWebDAVStorage(ctx context.Context, cfg WebDAVConfig) (*WebDAVStorage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	rootPath := strings.Trim(cfg.RootPath, "/")
	if rootPath != "" {
		rootPath = "/" + rootPath
	}

	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	s := &WebDAVStorage{
		client:   client,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		rootPath: rootPath,
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if rootPath != "" {
		if err := withContext(ctx, func() error { return client.MkdirAll(rootPath, 0o755) }); err != nil {
			return nil, fmt.Errorf("webdav connection test failed: %w", err)
		}
	}
	if err := s.Health(ctx); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}
	return s, nil
}

// withContext runs fn on its own goroutine; gowebdav has no context support.
func withContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAVStorage) fullPath(storagePath string) string {
	return s.rootPath + "/" + strings.TrimLeft(storagePath, "/")
}

// SaveWithContext 保存文件到 WebDAV
func (s *WebDAVStorage) SaveWithContext(ctx context.Context, storagePath string, file io.Reader) error {
	if !IsValidStoragePath(storagePath) {
		return fmt.Errorf("invalid storage path: %s", storagePath)
	}
	fullPath := s.fullPath(storagePath)

	if dir := path.Dir(fullPath); dir != "/" && dir != "." {
		if err := withContext(ctx, func() error { return s.client.MkdirAll(dir, 0o755) }); err != nil {
			return fmt.Errorf("failed to ensure parent directory for %s: %w", storagePath, err)
		}
	}

	err := withContext(ctx, func() error {
		return s.client.WriteStream(fullPath, file, 0o644)
	})
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", storagePath, err)
	}
	return nil
}

// GetWithContext 从 WebDAV 获取文件
func (s *WebDAVStorage) GetWithContext(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	fullPath := s.fullPath(storagePath)

	var rc io.ReadCloser
	err := withContext(ctx, func() error {
		var err error
		rc, err = s.client.ReadStream(fullPath)
		return err
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, storagePath)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", storagePath, err)
	}
	return rc, nil
}

// DeleteWithContext 从 WebDAV 删除文件
func (s *WebDAVStorage) DeleteWithContext(ctx context.Context, storagePath string) error {
	exists, err := s.Exists(ctx, storagePath)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, storagePath)
	}

	fullPath := s.fullPath(storagePath)
	if err := withContext(ctx, func() error { return s.client.Remove(fullPath) }); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", storagePath, err)
	}
	return nil
}

// Exists 检查文件是否存在
func (s *WebDAVStorage) Exists(ctx context.Context, storagePath string) (bool, error) {
	fullPath := s.fullPath(storagePath)

	err := withContext(ctx, func() error {
		_, err := s.client.Stat(fullPath)
		return err
	})
	if err == nil {
		return true, nil
	}
	if gowebdav.IsErrNotFound(err) {
		return false, nil
	}
	return false, err
}

// List walks the collection tree below the root path.
func (s *WebDAVStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	var walk func(rel string) error
	walk = func(rel string) error {
		var entries []os.FileInfo
		err := withContext(ctx, func() error {
			var err error
			entries, err = s.client.ReadDir(s.fullPath(rel))
			return err
		})
		if err != nil {
			return err
		}

		for _, entry := range entries {
			key := entry.Name()
			if rel != "" {
				key = rel + "/" + key
			}
			if entry.IsDir() {
				if err := walk(key); err != nil {
					return err
				}
				continue
			}
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}
		return nil
	}

	if err := walk(""); err != nil {
		return nil, fmt.Errorf("failed to list webdav files: %w", err)
	}
	return keys, nil
}

// Health 检查存储健康状态
func (s *WebDAVStorage) Health(ctx context.Context) error {
	return withContext(ctx, func() error {
		_, err := s.client.ReadDir(s.fullPath(""))
		return err
	})
}

// Name 返回存储名称
func (s *WebDAVStorage) Name() string {
	return "webdav"
}

// BaseURL 返回服务地址
func (s *WebDAVStorage) BaseURL() string {
	return s.baseURL + s.rootPath
}

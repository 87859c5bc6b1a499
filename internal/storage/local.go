package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local 本地目录存储
type Local struct {
	root    string
	baseURL string
}

// NewLocal 创建本地存储，baseURL 为空表示私有
func NewLocal(root, baseURL string) (*Local, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("local storage root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: root, baseURL: baseURL}, nil
}

// Put 写入文件
func (l *Local) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, r); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// Get 打开文件
func (l *Local) Get(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, ErrObjectNotFound
	}
	return f, err
}

// Delete 删除文件，不存在视为成功
func (l *Local) Delete(_ context.Context, key string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// PublicURL 公开地址
func (l *Local) PublicURL(key string) string {
	return joinURL(l.baseURL, key)
}

func (l *Local) resolve(key string) (string, error) {
	cleaned := filepath.Clean("/" + strings.TrimSpace(key))
	if cleaned == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(l.root, filepath.FromSlash(cleaned)), nil
}

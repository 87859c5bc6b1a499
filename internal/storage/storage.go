package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
)

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("object not found")

// Bucket 单个存储桶的对象操作
type Bucket interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// PublicURL 对象的公开访问地址，私有桶返回空串
	PublicURL(key string) string
}

// KeyFromURL 从公开地址还原对象 key，不属于该前缀时返回 false
func KeyFromURL(publicBaseURL, rawURL string) (string, bool) {
	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	target := strings.TrimSpace(rawURL)
	if base == "" || target == "" {
		return "", false
	}
	if !strings.HasPrefix(target, base+"/") {
		return "", false
	}
	key := strings.TrimPrefix(target, base+"/")
	if idx := strings.IndexAny(key, "?#"); idx >= 0 {
		key = key[:idx]
	}
	decoded, err := url.PathUnescape(key)
	if err != nil || decoded == "" {
		return "", false
	}
	return decoded, true
}

func joinURL(base, key string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	parts := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return base + "/" + strings.Join(parts, "/")
}

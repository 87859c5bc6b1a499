package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shopvd/backoffice/internal/config"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/storage"
)

const (
	lowerAlphaNum    = "abcdefghijklmnopqrstuvwxyz0123456789"
	uploadKeyPrefix  = "products"
	uploadRandLength = 6
)

var (
	uploadInvalidChars = regexp.MustCompile(`[^a-z0-9_-]`)
	uploadDashes       = regexp.MustCompile(`-+`)
	uploadSpaces       = regexp.MustCompile(`\s+`)
)

// UploadService 商品图片上传
type UploadService struct {
	cfg    config.UploadConfig
	bucket storage.Bucket
	now    func() time.Time
}

// NewUploadService 创建文件上传服务实例
func NewUploadService(cfg config.UploadConfig, bucket storage.Bucket) *UploadService {
	return &UploadService{cfg: cfg, bucket: bucket, now: time.Now}
}

// UploadResult 上传结果
type UploadResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// SaveFile 校验并保存图片，返回公开地址与对象 key
func (s *UploadService) SaveFile(ctx context.Context, file *multipart.FileHeader) (*UploadResult, error) {
	if file == nil || file.Size == 0 {
		return nil, ErrUploadFileRequired
	}
	if s.cfg.MaxSize > 0 && file.Size > s.cfg.MaxSize {
		return nil, ErrUploadTooLarge
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if len(s.cfg.AllowedExtensions) > 0 {
		if ext == "" || !isAllowedExtension(ext, s.cfg.AllowedExtensions) {
			return nil, ErrUploadTypeInvalid
		}
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	// 读取文件头部识别 MIME 类型
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		return nil, err
	}
	contentType := http.DetectContentType(buffer[:n])
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrUploadTypeInvalid
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	key, err := s.objectKey(file.Filename)
	if err != nil {
		return nil, err
	}
	if err := s.bucket.Put(ctx, key, src, file.Size, contentType); err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	logger.FromContext(ctx).Infow("image_uploaded", "key", key, "size", file.Size, "content_type", contentType)
	return &UploadResult{URL: s.bucket.PublicURL(key), Filename: key}, nil
}

// objectKey products/{毫秒}-{清洗后的文件名}-{随机串}.{扩展名}
func (s *UploadService) objectKey(original string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(original)), ".")
	base := sanitizeUploadName(strings.TrimSuffix(original, filepath.Ext(original)))
	suffix, err := randomString(lowerAlphaNum, uploadRandLength)
	if err != nil {
		return "", err
	}
	parts := []string{fmt.Sprintf("%d", s.now().UnixMilli())}
	if base != "" {
		parts = append(parts, base)
	}
	parts = append(parts, suffix)
	key := uploadKeyPrefix + "/" + strings.Join(parts, "-")
	if ext != "" {
		key += "." + ext
	}
	return key, nil
}

// sanitizeUploadName 去声调、空白转连字符、只保留 [a-z0-9_-]
func sanitizeUploadName(name string) string {
	value := foldVietnamese(name)
	value = uploadSpaces.ReplaceAllString(value, "-")
	value = uploadInvalidChars.ReplaceAllString(value, "")
	value = uploadDashes.ReplaceAllString(value, "-")
	return strings.Trim(value, "-")
}

func isAllowedExtension(ext string, allowed []string) bool {
	for _, allowedExt := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(allowedExt))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if strings.EqualFold(ext, normalized) {
			return true
		}
	}
	return false
}

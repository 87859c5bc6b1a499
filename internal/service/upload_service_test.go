package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/shopvd/backoffice/internal/config"
	"github.com/shopvd/backoffice/internal/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file failed: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer failed: %v", err)
	}
	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form failed: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestSanitizeUploadName(t *testing.T) {
	cases := map[string]string{
		"Vòng Dâu Tằm (1)": "vong-dau-tam-1",
		"  IMG__2024  ":    "img__2024",
		"ảnh---đẹp!!":      "anh-dep",
		"@@@":              "",
	}
	for input, want := range cases {
		if got := sanitizeUploadName(input); got != want {
			t.Fatalf("sanitize(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestUploadSaveFile(t *testing.T) {
	root := t.TempDir()
	bucket, err := storage.NewLocal(root, "https://img.example.com")
	if err != nil {
		t.Fatalf("local bucket failed: %v", err)
	}
	svc := NewUploadService(config.UploadConfig{
		MaxSize:           1024,
		AllowedExtensions: []string{".png", "jpg"},
	}, bucket)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	ctx := context.Background()

	if _, err := svc.SaveFile(ctx, nil); !errors.Is(err, ErrUploadFileRequired) {
		t.Fatalf("expected file required, got %v", err)
	}
	if _, err := svc.SaveFile(ctx, buildFileHeader(t, "a.gif", pngHeader)); !errors.Is(err, ErrUploadTypeInvalid) {
		t.Fatalf("expected extension rejected, got %v", err)
	}
	if _, err := svc.SaveFile(ctx, buildFileHeader(t, "fake.png", []byte("plain text body"))); !errors.Is(err, ErrUploadTypeInvalid) {
		t.Fatalf("expected content type rejected, got %v", err)
	}
	if _, err := svc.SaveFile(ctx, buildFileHeader(t, "big.png", bytes.Repeat(pngHeader, 100))); !errors.Is(err, ErrUploadTooLarge) {
		t.Fatalf("expected too large, got %v", err)
	}

	result, err := svc.SaveFile(ctx, buildFileHeader(t, "Vòng Dâu.PNG", pngHeader))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if !regexp.MustCompile(`^products/1700000000000-vong-dau-[a-z0-9]{6}\.png$`).MatchString(result.Filename) {
		t.Fatalf("unexpected key %s", result.Filename)
	}
	if result.URL != "https://img.example.com/"+result.Filename {
		t.Fatalf("unexpected url %s", result.URL)
	}
	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(result.Filename)))
	if err != nil || !bytes.Equal(stored, pngHeader) {
		t.Fatalf("stored file mismatch: err=%v", err)
	}
}

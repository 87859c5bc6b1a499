package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopvd/backoffice/internal/config"
)

// ErrSheetsDisabled Sheets 同步未配置
var ErrSheetsDisabled = errors.New("sheets sync disabled")

// SheetsSyncer 表格同步通道
type SheetsSyncer interface {
	Sync(ctx context.Context, action string, data json.RawMessage) error
}

// Sheets Google Apps Script webhook 客户端
type Sheets struct {
	endpoint string
	secret   string
	client   *http.Client
}

// NewSheets 创建 Sheets 客户端；未启用时返回 ErrSheetsDisabled
func NewSheets(cfg config.SheetsConfig) (*Sheets, error) {
	endpoint := strings.TrimSpace(cfg.WebhookURL)
	if !cfg.Enabled || endpoint == "" {
		return nil, ErrSheetsDisabled
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid sheets webhook url: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sheets{
		endpoint: endpoint,
		secret:   cfg.Secret,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Sync 以 ?action=X 投递 JSON 载荷
func (s *Sheets) Sync(ctx context.Context, action string, data json.RawMessage) error {
	if s == nil {
		return ErrSheetsDisabled
	}
	target, err := url.Parse(s.endpoint)
	if err != nil {
		return err
	}
	query := target.Query()
	query.Set("action", action)
	target.RawQuery = query.Encode()

	body := data
	if s.secret != "" {
		body, err = withSecret(data, s.secret)
		if err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sheets webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

func withSecret(data json.RawMessage, secret string) (json.RawMessage, error) {
	payload := map[string]interface{}{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("sheets payload must be an object: %w", err)
		}
	}
	payload["secret"] = secret
	return json.Marshal(payload)
}

package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopvd/backoffice/internal/config"
)

func TestTelegramSendHTML(t *testing.T) {
	var mu sync.Mutex
	var sent map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"shop","username":"shop_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			_ = r.ParseForm()
			mu.Lock()
			sent = map[string]string{
				"chat_id":    r.PostForm.Get("chat_id"),
				"text":       r.PostForm.Get("text"),
				"parse_mode": r.PostForm.Get("parse_mode"),
			}
			mu.Unlock()
			_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":-100,"type":"group"}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	tg, err := NewTelegram(config.TelegramConfig{
		Enabled:     true,
		BotToken:    "123:abc",
		ChatID:      -100,
		APIEndpoint: server.URL + "/bot%s/%s",
	})
	if err != nil {
		t.Fatalf("new telegram failed: %v", err)
	}
	if err := tg.SendHTML(context.Background(), "<b>ĐƠN HÀNG MỚI</b>"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if sent["chat_id"] != "-100" || sent["parse_mode"] != "HTML" || sent["text"] != "<b>ĐƠN HÀNG MỚI</b>" {
		t.Fatalf("unexpected sendMessage params: %+v", sent)
	}
}

func TestTelegramDisabledWithoutToken(t *testing.T) {
	if _, err := NewTelegram(config.TelegramConfig{Enabled: true, ChatID: 1}); err != ErrTelegramDisabled {
		t.Fatalf("want ErrTelegramDisabled got %v", err)
	}
}

func TestSheetsSyncAddsActionAndSecret(t *testing.T) {
	var gotAction string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.URL.Query().Get("action")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sheets, err := NewSheets(config.SheetsConfig{Enabled: true, WebhookURL: server.URL + "/exec", Secret: "s3"})
	if err != nil {
		t.Fatalf("new sheets failed: %v", err)
	}
	err = sheets.Sync(context.Background(), "updateCommission", json.RawMessage(`{"referralCode":"CTV001","commissionRate":0.15}`))
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if gotAction != "updateCommission" {
		t.Fatalf("action want updateCommission got %q", gotAction)
	}
	if gotBody["referralCode"] != "CTV001" || gotBody["secret"] != "s3" {
		t.Fatalf("unexpected body: %+v", gotBody)
	}
}

func TestSheetsSyncReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	sheets, err := NewSheets(config.SheetsConfig{Enabled: true, WebhookURL: server.URL})
	if err != nil {
		t.Fatalf("new sheets failed: %v", err)
	}
	err = sheets.Sync(context.Background(), "createOrder", json.RawMessage(`{}`))
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected 429 error, got %v", err)
	}
}

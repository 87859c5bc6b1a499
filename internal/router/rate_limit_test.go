package router

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(`{"username":" Admin.VN "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "1.2.3.4:5678"

	key := KeyByIPAndJSONField("username")(c)
	if key != "admin.vn|1.2.3.4" {
		t.Fatalf("key want admin.vn|1.2.3.4 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), "Admin.VN") {
		t.Fatalf("request body should be restored after reading field")
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", input: int64(10), want: 10, ok: true},
		{name: "int", input: int(11), want: 11, ok: true},
		{name: "uint8", input: uint8(12), want: 12, ok: true},
		{name: "float64", input: float64(13.9), want: 13, ok: true},
		{name: "string", input: "bad", want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok want %v got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("value want %d got %d", tc.want, got)
			}
		})
	}
}

func TestRateLimitMiddlewareBlocksAgainstServer(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("skip redis test: TEST_REDIS_ADDR is empty")
	}
	gin.SetMode(gin.TestMode)
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	prefix := fmt.Sprintf("svdtest:rate:%d", time.Now().UnixNano())
	rule := RateLimitRule{Prefix: prefix, WindowSeconds: 60, MaxRequests: 2, BlockSeconds: 300, Message: loginTooMany}
	r := gin.New()
	r.Use(RateLimitMiddleware(client, rule, KeyByIP))
	r.POST("/api", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("attempt %d want 200 got %d", i+1, w.Code)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third attempt want 429 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Quá nhiều lần đăng nhập") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	ttl, err := client.TTL(context.Background(), prefix+":192.0.2.1").Result()
	if err != nil {
		t.Fatalf("ttl failed: %v", err)
	}
	if ttl <= 60*time.Second {
		t.Fatalf("block window should extend ttl beyond the rate window, got %v", ttl)
	}
}

func TestRateLimitRuleRetryAfterAndKey(t *testing.T) {
	rule := RateLimitRule{Prefix: "svd:rate:login", WindowSeconds: 60}
	if got := rule.retryAfter(42); got != 42 {
		t.Fatalf("expected ttl 42, got %d", got)
	}
	if got := rule.retryAfter(-1); got != 60 {
		t.Fatalf("expected window fallback 60, got %d", got)
	}
	if got := (RateLimitRule{}).retryAfter(0); got != 1 {
		t.Fatalf("expected minimum 1, got %d", got)
	}

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Request.RemoteAddr = "5.6.7.8:1234"
	if got := rule.key(c, nil); got != "svd:rate:login:5.6.7.8" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := rule.key(c, func(*gin.Context) string { return "x|y" }); got != "svd:rate:login:x|y" {
		t.Fatalf("unexpected custom key %s", got)
	}
}

package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopvd/backoffice/internal/config"
	"github.com/shopvd/backoffice/internal/provider"

	"github.com/gin-gonic/gin"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Server: config.ServerConfig{Mode: "debug"}}
	return SetupRouter(cfg, &provider.Container{Config: cfg})
}

func TestSetupRouterEnvelope(t *testing.T) {
	r := newTestEngine(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{name: "preflight", method: http.MethodOptions, path: "/api", status: http.StatusOK},
		{name: "health", method: http.MethodGet, path: "/health", status: http.StatusOK, want: `"status":"ok"`},
		{name: "method not allowed", method: http.MethodPut, path: "/api", status: http.StatusMethodNotAllowed, want: `"success":false`},
		{name: "unknown action", method: http.MethodGet, path: "/api?action=nope", status: http.StatusBadRequest, want: "Unknown action: nope"},
		{name: "post without action", method: http.MethodPost, path: "/api", body: `{}`, status: http.StatusNotFound, want: "Unknown endpoint"},
		{name: "unknown path", method: http.MethodGet, path: "/api/missing", status: http.StatusNotFound, want: "Unknown endpoint"},
		{name: "protected action", method: http.MethodGet, path: "/api?action=getOrders", status: http.StatusUnauthorized, want: `"success":false`},
		{name: "protected path route", method: http.MethodPost, path: "/api/ctv/update", body: `{}`, status: http.StatusUnauthorized},
		{name: "root entry", method: http.MethodGet, path: "/?action=getAllCTV", status: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			req.Header.Set("Origin", "https://shop.example.vn")
			r.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("status want %d got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if tc.want != "" && !strings.Contains(w.Body.String(), tc.want) {
				t.Fatalf("body should contain %q, got %s", tc.want, w.Body.String())
			}
			if w.Header().Get("Access-Control-Allow-Origin") == "" {
				t.Fatalf("cors header missing")
			}
		})
	}
}

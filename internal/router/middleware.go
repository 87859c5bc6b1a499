package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopvd/backoffice/internal/authz"
	"github.com/shopvd/backoffice/internal/config"
	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = handlershared.ContextKeyRequest
const requestIDHeader = "X-Request-ID"

// CORSMiddleware 跨域中间件，OPTIONS 预检直接返回 200
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"action", handlershared.Action(c),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// ActionMiddleware 解析 action：优先 query，其次 POST JSON 请求体（读取后还原）
func ActionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		action := strings.TrimSpace(c.Query("action"))
		if action == "" && c.Request.Method == http.MethodPost && !strings.HasPrefix(c.ContentType(), "multipart/") {
			action = readJSONField(c, "action")
		}
		c.Set(handlershared.ContextKeyAction, action)
		c.Next()
	}
}

// FixedAction 路径路由绑定固定 action
func FixedAction(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(handlershared.ContextKeyAction, action)
		c.Next()
	}
}

// SessionAuthMiddleware 非公开 action 需要 Bearer 会话，并按角色做 RBAC 判定
// 未登记的 action 直接放行，由分发器返回 Unknown action
func SessionAuthMiddleware(authService *service.AuthService, authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		action := handlershared.Action(c)
		perm, known := authz.Lookup(action)
		if !known || perm.Public {
			c.Next()
			return
		}

		token := handlershared.BearerToken(c)
		if token == "" || authService == nil {
			handlershared.RespondError(c, service.ErrUnauthorized)
			c.Abort()
			return
		}
		user, err := authService.VerifySession(c.Request.Context(), token)
		if err != nil {
			handlershared.RespondError(c, err)
			c.Abort()
			return
		}

		if authzService == nil {
			logger.Errorw("rbac_service_unavailable", "action", action)
			handlershared.RespondError(c, service.ErrForbidden)
			c.Abort()
			return
		}
		allowed, err := authzService.EnforceRole(user.Role, action)
		if err != nil {
			logger.Errorw("rbac_enforce_failed",
				"user_id", user.ID,
				"role", user.Role,
				"action", action,
				"error", err,
			)
			handlershared.RespondError(c, service.ErrForbidden)
			c.Abort()
			return
		}
		if !allowed {
			logger.Warnw("rbac_permission_denied",
				"user_id", user.ID,
				"role", user.Role,
				"action", action,
				"resource", perm.Resource,
				"kind", perm.Kind,
			)
			handlershared.RespondError(c, service.ErrForbidden)
			c.Abort()
			return
		}

		c.Set(handlershared.ContextKeyUser, user)
		c.Set(handlershared.ContextKeyToken, token)
		c.Next()
	}
}

// ForAction 仅对指定 action 执行中间件
func ForAction(action string, middleware gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handlershared.Action(c) != action {
			c.Next()
			return
		}
		middleware(c)
	}
}

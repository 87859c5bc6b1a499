package shared

import (
	"net/http"
	"strings"

	"github.com/shopvd/backoffice/internal/http/response"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 上下文键
const (
	ContextKeyAction  = "action"
	ContextKeyUser    = "session_user"
	ContextKeyToken   = "session_token"
	ContextKeyRequest = "request_id"
)

// RequestLog 提供携带 request_id 与 action 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	kv := make([]interface{}, 0, 4)
	if id := c.GetString(ContextKeyRequest); id != "" {
		kv = append(kv, "request_id", id)
	}
	if action := c.GetString(ContextKeyAction); action != "" {
		kv = append(kv, "action", action)
	}
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// StatusForError 业务错误分类对应的 HTTP 状态码
func StatusForError(err error) int {
	switch service.KindOf(err) {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindAuth:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondError 按错误分类返回响应，未分类错误记录日志并透传消息。
func RespondError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		RequestLog(c).Errorw("handler_error", "error", err)
	}
	response.Error(c, status, err.Error())
}

// BearerToken 读取 Authorization: Bearer <token>
func BearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// CurrentUser 会话中间件写入的当前用户
func CurrentUser(c *gin.Context) (*service.UserInfo, bool) {
	value, ok := c.Get(ContextKeyUser)
	if !ok {
		return nil, false
	}
	user, ok := value.(*service.UserInfo)
	return user, ok && user != nil
}

// Action 当前请求解析出的 action
func Action(c *gin.Context) string {
	return c.GetString(ContextKeyAction)
}

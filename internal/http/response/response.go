package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success 成功响应，fields 平铺到 {success:true} 中
func Success(c *gin.Context, fields gin.H) {
	body := gin.H{"success": true}
	for key, value := range fields {
		body[key] = value
	}
	c.JSON(http.StatusOK, body)
}

// SuccessWithMsg 成功响应（带提示消息）
func SuccessWithMsg(c *gin.Context, msg string, fields gin.H) {
	if fields == nil {
		fields = gin.H{}
	}
	fields["message"] = msg
	Success(c, fields)
}

// Error 错误响应 {success:false, error}
func Error(c *gin.Context, status int, msg string) {
	body := gin.H{
		"success": false,
		"error":   msg,
	}
	if requestID := requestIDOf(c); requestID != "" {
		body["request_id"] = requestID
	}
	c.JSON(status, body)
}

// BadRequest 400响应
func BadRequest(c *gin.Context, msg string) {
	Error(c, http.StatusBadRequest, msg)
}

// Unauthorized 401响应
func Unauthorized(c *gin.Context, msg string) {
	Error(c, http.StatusUnauthorized, msg)
}

// NotFound 404响应
func NotFound(c *gin.Context, msg string) {
	Error(c, http.StatusNotFound, msg)
}

// MethodNotAllowed 405响应
func MethodNotAllowed(c *gin.Context) {
	Error(c, http.StatusMethodNotAllowed, "Method not allowed")
}

func requestIDOf(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

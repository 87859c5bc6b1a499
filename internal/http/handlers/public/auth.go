package public

import (
	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	"github.com/shopvd/backoffice/internal/http/response"
	"github.com/shopvd/backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 账号密码登录，签发会话令牌
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.AuthService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	requestLog(c).Infow("auth_login_success", "username", result.User.Username)
	response.Success(c, gin.H{
		"sessionToken": result.SessionToken,
		"expiresAt":    result.ExpiresAt,
		"user":         result.User,
	})
}

// Logout 注销当前会话
func (h *Handler) Logout(c *gin.Context) {
	token := handlershared.BearerToken(c)
	if token == "" {
		respondError(c, service.ErrUnauthorized)
		return
	}
	if err := h.AuthService.Logout(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Đăng xuất thành công", nil)
}

// VerifySession 校验会话令牌
func (h *Handler) VerifySession(c *gin.Context) {
	token := handlershared.BearerToken(c)
	if token == "" {
		respondError(c, service.ErrSessionInvalid)
		return
	}
	user, err := h.AuthService.VerifySession(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	fields := gin.H{"user": user}
	if h.AuthzService != nil {
		if actions, err := h.AuthzService.AllowedActions(user.Role); err == nil {
			fields["permissions"] = actions
		}
	}
	response.Success(c, fields)
}

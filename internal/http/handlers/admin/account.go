package admin

import (
	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	"github.com/shopvd/backoffice/internal/http/response"

	"github.com/gin-gonic/gin"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword 修改当前账号密码，其它会话失效
func (h *Handler) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	token := handlershared.BearerToken(c)
	if err := h.AuthService.ChangePassword(c.Request.Context(), token, user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Đổi mật khẩu thành công", nil)
}

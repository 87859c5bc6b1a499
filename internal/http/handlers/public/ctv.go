package public

import (
	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	"github.com/shopvd/backoffice/internal/http/response"

	"github.com/gin-gonic/gin"
)

// RegisterCTV CTV 自助注册
func (h *Handler) RegisterCTV(c *gin.Context) {
	var req handlershared.CTVRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.CTVService.Register(c.Request.Context(), req.Normalize())
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Đăng ký thành công", gin.H{
		"referralCode":  result.ReferralCode,
		"referralUrl":   result.ReferralURL,
		"orderCheckUrl": result.OrderCheckURL,
	})
}

// VerifyCTV 校验推荐码
func (h *Handler) VerifyCTV(c *gin.Context) {
	result, err := h.CTVService.Verify(c.Query("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"verified": result.Verified,
		"name":     result.Name,
		"rate":     result.Rate,
		"phone":    result.Phone,
		"status":   result.Status,
	})
}

// GetCollaboratorInfo CTV 详情与最近订单
func (h *Handler) GetCollaboratorInfo(c *gin.Context) {
	info, err := h.CTVService.Info(c.Query("referralCode"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"collaborator": info.Collaborator,
		"stats":        info.Stats,
		"recentOrders": info.RecentOrders,
	})
}

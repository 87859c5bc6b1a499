package admin

import (
	"fmt"
	"strings"

	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	"github.com/shopvd/backoffice/internal/http/response"
	"github.com/shopvd/backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAllCTV CTV 列表与汇总
func (h *Handler) GetAllCTV(c *gin.Context) {
	items, summary, err := h.CTVService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"ctvList": items,
		"stats":   summary,
	})
}

// UpdateCTV 修改 CTV 资料
func (h *Handler) UpdateCTV(c *gin.Context) {
	var req handlershared.CTVRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.CTVService.Update(c.Request.Context(), req.Normalize()); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Đã cập nhật thông tin CTV", nil)
}

type commissionRequest struct {
	ReferralCode   string                    `json:"referralCode"`
	CommissionRate *handlershared.FlexNumber `json:"commissionRate"`
}

// UpdateCommission 修改单个 CTV 佣金比例
func (h *Handler) UpdateCommission(c *gin.Context) {
	var req commissionRequest
	if !bindJSON(c, &req) {
		return
	}
	rate, err := h.CTVService.UpdateCommission(c.Request.Context(), req.ReferralCode, handlershared.FloatPtr(req.CommissionRate))
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Đã cập nhật commission rate", gin.H{"commissionRate": rate})
}

type bulkCTVRequest struct {
	ReferralCodes  []handlershared.FlexString `json:"referralCodes"`
	CommissionRate *handlershared.FlexNumber  `json:"commissionRate"`
}

// BulkUpdateCommission 批量修改佣金比例
func (h *Handler) BulkUpdateCommission(c *gin.Context) {
	var req bulkCTVRequest
	if !bindJSON(c, &req) {
		return
	}
	codes := handlershared.FlexStrings(req.ReferralCodes)
	rate := handlershared.FloatPtr(req.CommissionRate)
	updated, err := h.CTVService.BulkUpdateCommission(c.Request.Context(), codes, rate)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, fmt.Sprintf("Đã cập nhật commission rate cho %d CTV", updated), gin.H{
		"updatedCount":   updated,
		"totalRequested": len(codes),
		"commissionRate": *rate,
	})
}

// BulkDeleteCTV 批量删除 CTV
func (h *Handler) BulkDeleteCTV(c *gin.Context) {
	var req bulkCTVRequest
	if !bindJSON(c, &req) {
		return
	}
	codes := handlershared.FlexStrings(req.ReferralCodes)
	deleted, err := h.CTVService.BulkDelete(c.Request.Context(), codes)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, fmt.Sprintf("Đã xóa %d CTV", deleted), gin.H{
		"deletedCount":   deleted,
		"totalRequested": len(codes),
	})
}

// GetUnpaidOrders 未结算佣金订单，referralCode 可选
func (h *Handler) GetUnpaidOrders(c *gin.Context) {
	code := strings.TrimSpace(c.Query("referralCode"))
	result, err := h.CTVService.UnpaidOrders(code)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"referralCode": code,
		"orders":       result.Orders,
		"summary": gin.H{
			"total_orders":     result.OrderCount,
			"total_commission": result.TotalCommission,
		},
	})
}

type payoutRequest struct {
	ReferralCode  string                     `json:"referralCode"`
	OrderIDs      []handlershared.FlexString `json:"orderIds"`
	PaymentDate   string                     `json:"paymentDate"`
	PaymentMethod string                     `json:"paymentMethod"`
	Note          string                     `json:"note"`
}

// PaySelectedOrders 结算选中的订单
func (h *Handler) PaySelectedOrders(c *gin.Context) {
	var req payoutRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.CTVService.PaySelected(c.Request.Context(), service.PayoutInput{
		ReferralCode:  req.ReferralCode,
		OrderCodes:    handlershared.FlexStrings(req.OrderIDs),
		PaymentDate:   req.PaymentDate,
		PaymentMethod: req.PaymentMethod,
		Note:          req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	msg := fmt.Sprintf("Đã thanh toán %d đơn hàng cho %s", result.OrderCount, result.CTVName)
	response.SuccessWithMsg(c, msg, gin.H{"payment": result})
}

// GetPaymentHistory 结算记录
func (h *Handler) GetPaymentHistory(c *gin.Context) {
	code := strings.TrimSpace(c.Query("referralCode"))
	history, err := h.CTVService.PaymentHistory(code)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"referralCode": code,
		"history":      history,
	})
}

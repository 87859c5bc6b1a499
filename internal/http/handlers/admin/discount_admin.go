package admin

import (
	"fmt"
	"strings"

	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	"github.com/shopvd/backoffice/internal/http/response"
	"github.com/shopvd/backoffice/internal/repository"
	"github.com/shopvd/backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAllDiscounts 优惠码列表
func (h *Handler) GetAllDiscounts(c *gin.Context) {
	discounts, err := h.DiscountService.List(repository.DiscountListFilter{
		Search:     strings.TrimSpace(c.Query("search")),
		Type:       strings.TrimSpace(c.Query("type")),
		OnlyActive: c.Query("active") == "1" || c.Query("active") == "true",
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"discounts": discounts})
}

// GetDiscount 优惠码详情
func (h *Handler) GetDiscount(c *gin.Context) {
	discount, err := h.DiscountService.Get(handlershared.QueryUint(c, "id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"discount": discount})
}

// GetDiscountUsageHistory 使用记录，discountId 可选
func (h *Handler) GetDiscountUsageHistory(c *gin.Context) {
	id := handlershared.QueryUint(c, "discountId", "discount_id")
	rows, err := h.DiscountService.UsageHistory(id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"usageHistory": rows})
}

type discountRequest struct {
	ID                    handlershared.FlexString   `json:"id"`
	Code                  string                     `json:"code"`
	Title                 string                     `json:"title"`
	Description           string                     `json:"description"`
	Type                  string                     `json:"type"`
	DiscountValue         handlershared.FlexNumber   `json:"discount_value"`
	MaxDiscountAmount     handlershared.FlexNumber   `json:"max_discount_amount"`
	GiftProductID         handlershared.FlexString   `json:"gift_product_id"`
	GiftProductName       string                     `json:"gift_product_name"`
	GiftQuantity          handlershared.FlexNumber   `json:"gift_quantity"`
	MinOrderAmount        handlershared.FlexNumber   `json:"min_order_amount"`
	MinItems              handlershared.FlexNumber   `json:"min_items"`
	MaxTotalUses          handlershared.FlexNumber   `json:"max_total_uses"`
	MaxUsesPerCustomer    handlershared.FlexNumber   `json:"max_uses_per_customer"`
	CustomerType          string                     `json:"customer_type"`
	AllowedCustomerPhones []handlershared.FlexString `json:"allowed_customer_phones"`
	Combinable            handlershared.FlexBool     `json:"combinable_with_other_discounts"`
	Active                *handlershared.FlexBool    `json:"active"`
	Visible               *handlershared.FlexBool    `json:"visible"`
	StartDate             string                     `json:"start_date"`
	ExpiryDate            string                     `json:"expiry_date"`
	SpecialEvent          string                     `json:"special_event"`
	EventIcon             string                     `json:"event_icon"`
	EventDate             string                     `json:"event_date"`
}

func (r discountRequest) normalize() service.DiscountInput {
	return service.DiscountInput{
		Code:                  strings.ToUpper(strings.TrimSpace(r.Code)),
		Title:                 strings.TrimSpace(r.Title),
		Description:           strings.TrimSpace(r.Description),
		Type:                  strings.TrimSpace(r.Type),
		DiscountValue:         r.DiscountValue.Int64(),
		MaxDiscountAmount:     r.MaxDiscountAmount.Int64(),
		GiftProductID:         r.GiftProductID.String(),
		GiftProductName:       strings.TrimSpace(r.GiftProductName),
		GiftQuantity:          r.GiftQuantity.Int(),
		MinOrderAmount:        r.MinOrderAmount.Int64(),
		MinItems:              r.MinItems.Int(),
		MaxTotalUses:          r.MaxTotalUses.Int(),
		MaxUsesPerCustomer:    r.MaxUsesPerCustomer.Int(),
		CustomerType:          strings.TrimSpace(r.CustomerType),
		AllowedCustomerPhones: handlershared.FlexStrings(r.AllowedCustomerPhones),
		Combinable:            bool(r.Combinable),
		Active:                handlershared.BoolPtr(r.Active),
		Visible:               handlershared.BoolPtr(r.Visible),
		StartDate:             strings.TrimSpace(r.StartDate),
		ExpiryDate:            strings.TrimSpace(r.ExpiryDate),
		SpecialEvent:          strings.TrimSpace(r.SpecialEvent),
		EventIcon:             strings.TrimSpace(r.EventIcon),
		EventDate:             strings.TrimSpace(r.EventDate),
	}
}

// CreateDiscount 创建优惠码
func (h *Handler) CreateDiscount(c *gin.Context) {
	var req discountRequest
	if !bindJSON(c, &req) {
		return
	}
	discount, err := h.DiscountService.Create(c.Request.Context(), req.normalize())
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Tạo mã giảm giá thành công", gin.H{"id": discount.ID})
}

// UpdateDiscount 更新优惠码
func (h *Handler) UpdateDiscount(c *gin.Context) {
	var req discountRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := h.DiscountService.Update(c.Request.Context(), req.ID.Uint(), req.normalize()); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Cập nhật mã giảm giá thành công", nil)
}

type discountIDRequest struct {
	ID     handlershared.FlexString `json:"id"`
	Active handlershared.FlexBool   `json:"active"`
}

// DeleteDiscount 删除未使用过的优惠码
func (h *Handler) DeleteDiscount(c *gin.Context) {
	var req discountIDRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.DiscountService.Delete(c.Request.Context(), req.ID.Uint()); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Xóa mã giảm giá thành công", nil)
}

// ToggleDiscountStatus 启用 / 停用优惠码
func (h *Handler) ToggleDiscountStatus(c *gin.Context) {
	var req discountIDRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.DiscountService.SetActive(c.Request.Context(), req.ID.Uint(), bool(req.Active)); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Cập nhật trạng thái thành công", nil)
}

type quickDiscountRequest struct {
	CustomerPhone     string                   `json:"customerPhone"`
	Type              string                   `json:"type"`
	DiscountValue     handlershared.FlexNumber `json:"discountValue"`
	MaxDiscountAmount handlershared.FlexNumber `json:"maxDiscountAmount"`
	MinOrderAmount    handlershared.FlexNumber `json:"minOrderAmount"`
	Code              string                   `json:"code"`
	CustomCode        string                   `json:"customCode"`
	ExpiryDays        handlershared.FlexNumber `json:"expiryDays"`
}

// CreateQuickDiscount 为单个客户生成专属码
func (h *Handler) CreateQuickDiscount(c *gin.Context) {
	var req quickDiscountRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.DiscountService.CreateQuick(c.Request.Context(), service.QuickDiscountInput{
		CustomerPhone:     req.CustomerPhone,
		Type:              req.Type,
		DiscountValue:     req.DiscountValue.Int64(),
		MaxDiscountAmount: req.MaxDiscountAmount.Int64(),
		MinOrderAmount:    req.MinOrderAmount.Int64(),
		Code:              handlershared.FirstString(req.Code, req.CustomCode),
		ExpiryDays:        req.ExpiryDays.Int(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Tạo mã giảm giá thành công", gin.H{"discount": result})
}

type bulkExtendRequest struct {
	DiscountIDs   []handlershared.FlexString `json:"discountIds"`
	NewExpiryDate string                     `json:"newExpiryDate"`
}

// BulkExtendDiscounts 批量延期
func (h *Handler) BulkExtendDiscounts(c *gin.Context) {
	var req bulkExtendRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.DiscountService.BulkExtend(c.Request.Context(), handlershared.FlexUints(req.DiscountIDs), req.NewExpiryDate)
	if err != nil {
		respondError(c, err)
		return
	}
	if result.UpdatedCount == 0 {
		response.BadRequest(c, "Không gia hạn được mã giảm giá nào")
		return
	}
	response.SuccessWithMsg(c, fmt.Sprintf("Đã gia hạn %d mã giảm giá", result.UpdatedCount), gin.H{
		"updatedCount":   result.UpdatedCount,
		"newExpiryDate":  result.NewExpiryDate,
		"failedIds":      result.FailedIDs,
		"totalRequested": result.TotalRequested,
	})
}

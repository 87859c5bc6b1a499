package admin

import (
	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	"github.com/shopvd/backoffice/internal/http/response"
	"github.com/shopvd/backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// GetPackagingConfig 成本价目表
func (h *Handler) GetPackagingConfig(c *gin.Context) {
	config, err := h.CostService.GetPackagingConfig()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"config": config})
}

type packagingItemRequest struct {
	ItemName    string                    `json:"item_name"`
	ItemCost    *handlershared.FlexNumber `json:"item_cost"`
	DisplayName string                    `json:"display_name"`
	IsDefault   *handlershared.FlexBool   `json:"is_default"`
}

type packagingConfigRequest struct {
	Config []packagingItemRequest `json:"config"`
}

// UpdatePackagingConfig 批量更新价目
func (h *Handler) UpdatePackagingConfig(c *gin.Context) {
	var req packagingConfigRequest
	if !bindJSON(c, &req) {
		return
	}
	items := make([]service.PackagingItemInput, 0, len(req.Config))
	for _, item := range req.Config {
		items = append(items, service.PackagingItemInput{
			ItemName:    item.ItemName,
			ItemCost:    handlershared.FloatPtr(item.ItemCost),
			DisplayName: item.DisplayName,
			IsDefault:   handlershared.BoolPtr(item.IsDefault),
		})
	}
	if err := h.CostService.UpdatePackagingConfig(c.Request.Context(), items); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Đã cập nhật cấu hình đóng gói", nil)
}

// GetCurrentTaxRate 当前税率
func (h *Handler) GetCurrentTaxRate(c *gin.Context) {
	info, err := h.CostService.GetCurrentTaxRate()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"taxRate":       info.TaxRate,
		"effectiveFrom": info.EffectiveFrom,
		"description":   info.Description,
	})
}

type taxRateRequest struct {
	TaxRate     handlershared.FlexNumber `json:"taxRate"`
	Description string                   `json:"description"`
}

// UpdateTaxRate 更新税率
func (h *Handler) UpdateTaxRate(c *gin.Context) {
	var req taxRateRequest
	if !bindJSON(c, &req) {
		return
	}
	info, err := h.CostService.UpdateTaxRate(c.Request.Context(), req.TaxRate.Float64(), req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Tax rate updated successfully", gin.H{
		"taxRate":       info.TaxRate,
		"effectiveFrom": info.EffectiveFrom,
	})
}

// GetShippingFee 默认运费
func (h *Handler) GetShippingFee(c *gin.Context) {
	fee, err := h.CostService.ShippingFee()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"shippingFee": fee})
}

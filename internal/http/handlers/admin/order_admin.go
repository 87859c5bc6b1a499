package admin

import (
	"strings"

	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	"github.com/shopvd/backoffice/internal/http/response"
	"github.com/shopvd/backoffice/internal/repository"
	"github.com/shopvd/backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// GetOrders 订单列表；带 referralCode 时返回该 CTV 的全部订单
func (h *Handler) GetOrders(c *gin.Context) {
	if code := strings.TrimSpace(c.Query("referralCode")); code != "" {
		result, err := h.OrderService.ListByReferral(code)
		if err != nil {
			respondError(c, err)
			return
		}
		response.Success(c, gin.H{
			"orders":       result.Orders,
			"referralCode": result.ReferralCode,
			"ctvInfo":      result.CTVInfo,
			"total":        len(result.Orders),
		})
		return
	}

	page, pageSize := handlershared.NormalizePagination(
		handlershared.QueryInt(c, "page", 1),
		handlershared.QueryInt(c, "limit", 0),
	)
	orders, total, err := h.OrderService.ListOrders(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  pageSize,
	})
}

// GetRecentOrders 最近订单
func (h *Handler) GetRecentOrders(c *gin.Context) {
	orders, err := h.OrderService.ListRecent(handlershared.QueryInt(c, "limit", 10))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"orders": orders})
}

// GetOrder 订单详情（含订单项）
func (h *Handler) GetOrder(c *gin.Context) {
	ref := handlershared.FirstString(c.Query("orderId"), c.Query("id"))
	order, err := h.OrderService.GetOrder(ref)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"order": order})
}

type orderRefRequest struct {
	OrderID handlershared.FlexString `json:"orderId"`
}

type updateNotesRequest struct {
	orderRefRequest
	Notes string `json:"notes"`
}

// UpdateOrderNotes 更新订单备注
func (h *Handler) UpdateOrderNotes(c *gin.Context) {
	var req updateNotesRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.OrderService.UpdateNotes(c.Request.Context(), req.OrderID.String(), req.Notes); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Đã cập nhật ghi chú", nil)
}

type updateCustomerRequest struct {
	orderRefRequest
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone" binding:"omitempty,vnphone"`
}

// UpdateCustomerInfo 更新客户姓名与手机号
func (h *Handler) UpdateCustomerInfo(c *gin.Context) {
	var req updateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.OrderService.UpdateCustomerInfo(c.Request.Context(), req.OrderID.String(), req.CustomerName, req.CustomerPhone)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Đã cập nhật thông tin khách hàng", nil)
}

type updateAddressRequest struct {
	orderRefRequest
	Address       string                   `json:"address"`
	ProvinceID    handlershared.FlexString `json:"province_id"`
	ProvinceName  string                   `json:"province_name"`
	DistrictID    handlershared.FlexString `json:"district_id"`
	DistrictName  string                   `json:"district_name"`
	WardID        handlershared.FlexString `json:"ward_id"`
	WardName      string                   `json:"ward_name"`
	StreetAddress string                   `json:"street_address"`
}

func (r updateAddressRequest) normalize() service.AddressInput {
	return service.AddressInput{
		Address:       strings.TrimSpace(r.Address),
		ProvinceID:    r.ProvinceID.String(),
		ProvinceName:  strings.TrimSpace(r.ProvinceName),
		DistrictID:    r.DistrictID.String(),
		DistrictName:  strings.TrimSpace(r.DistrictName),
		WardID:        r.WardID.String(),
		WardName:      strings.TrimSpace(r.WardName),
		StreetAddress: strings.TrimSpace(r.StreetAddress),
	}
}

// UpdateAddress 更新收货地址
func (h *Handler) UpdateAddress(c *gin.Context) {
	var req updateAddressRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.OrderService.UpdateAddress(c.Request.Context(), req.OrderID.String(), req.normalize()); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Đã cập nhật địa chỉ", nil)
}

type updateAmountRequest struct {
	orderRefRequest
	TotalAmount *handlershared.FlexNumber `json:"totalAmount"`
	Commission  *handlershared.FlexNumber `json:"commission"`
}

// UpdateAmount 手工修改订单金额与佣金
func (h *Handler) UpdateAmount(c *gin.Context) {
	var req updateAmountRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.OrderService.UpdateAmount(c.Request.Context(), req.OrderID.String(),
		handlershared.Int64Ptr(req.TotalAmount), handlershared.Int64Ptr(req.Commission))
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Đã cập nhật giá trị đơn hàng", nil)
}

type updateStatusRequest struct {
	orderRefRequest
	Status string `json:"status"`
}

// UpdateOrderStatus 更新订单状态
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.OrderService.UpdateStatus(c.Request.Context(), req.OrderID.String(), req.Status); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Đã cập nhật trạng thái đơn hàng", nil)
}

type togglePriorityRequest struct {
	orderRefRequest
	IsPriority      *handlershared.FlexBool `json:"isPriority"`
	IsPrioritySnake *handlershared.FlexBool `json:"is_priority"`
}

// ToggleOrderPriority 标记或取消优先订单
func (h *Handler) ToggleOrderPriority(c *gin.Context) {
	var req togglePriorityRequest
	if !bindJSON(c, &req) {
		return
	}
	explicit := handlershared.BoolPtr(handlershared.FirstBool(req.IsPriority, req.IsPrioritySnake))
	priority, err := h.OrderService.TogglePriority(c.Request.Context(), req.OrderID.String(), explicit)
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "Đã bỏ đánh dấu ưu tiên"
	if priority {
		msg = "Đã đánh dấu ưu tiên"
	}
	response.SuccessWithMsg(c, msg, gin.H{"is_priority": priority})
}

// DeleteOrder 删除订单及订单项
func (h *Handler) DeleteOrder(c *gin.Context) {
	var req orderRefRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.OrderService.DeleteOrder(c.Request.Context(), req.OrderID.String()); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Đã xóa đơn hàng", nil)
}

type productLineRequest struct {
	ProductID    handlershared.FlexString  `json:"product_id"`
	ID           handlershared.FlexString  `json:"id"`
	Name         string                    `json:"name"`
	ProductName  string                    `json:"product_name"`
	Price        *handlershared.FlexNumber `json:"price"`
	ProductPrice *handlershared.FlexNumber `json:"product_price"`
	CostPrice    *handlershared.FlexNumber `json:"cost_price"`
	Cost         *handlershared.FlexNumber `json:"cost"`
	ProductCost  *handlershared.FlexNumber `json:"product_cost"`
	Quantity     handlershared.FlexNumber  `json:"quantity"`
	Size         handlershared.FlexString  `json:"size"`
	Weight       handlershared.FlexString  `json:"weight"`
	Notes        string                    `json:"notes"`
}

func (r productLineRequest) normalize() service.ProductLineInput {
	return service.ProductLineInput{
		ProductID: handlershared.FirstFlex(r.ProductID, r.ID).UintPtr(),
		Name:      handlershared.FirstString(r.Name, r.ProductName),
		Price:     handlershared.FirstNonZero(r.Price, r.ProductPrice).Int64(),
		CostPrice: handlershared.FirstNonZero(r.CostPrice, r.Cost, r.ProductCost).Int64(),
		Quantity:  r.Quantity.Int(),
		Size:      handlershared.FirstString(r.Size.String(), r.Weight.String()),
		Notes:     strings.TrimSpace(r.Notes),
	}
}

// updateProductsRequest products 可为数组，也可为后台页面提交的 JSON 字符串
type updateProductsRequest struct {
	orderRefRequest
	Products handlershared.FlexList[productLineRequest] `json:"products"`
}

// UpdateOrderProducts 替换订单商品并重算金额、成本与佣金
func (h *Handler) UpdateOrderProducts(c *gin.Context) {
	var req updateProductsRequest
	if !bindJSON(c, &req) {
		return
	}
	if !req.Products.Present {
		respondError(c, service.ErrOrderProductsMissing)
		return
	}
	lines := make([]service.ProductLineInput, 0, len(req.Products.Items))
	for _, line := range req.Products.Items {
		lines = append(lines, line.normalize())
	}
	result, err := h.OrderService.UpdateProducts(c.Request.Context(), req.OrderID.String(), lines)
	if err != nil {
		respondError(c, err)
		return
	}
	fields := gin.H{
		"total_amount": result.TotalAmount,
		"product_cost": result.ProductCost,
	}
	if result.Commission != nil {
		fields["commission"] = *result.Commission
	}
	response.SuccessWithMsg(c, "Đã cập nhật sản phẩm", fields)
}

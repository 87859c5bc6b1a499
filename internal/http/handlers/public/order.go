package public

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	"github.com/shopvd/backoffice/internal/http/response"
	"github.com/shopvd/backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

type cartLineRequest struct {
	ID             handlershared.FlexString  `json:"id"`
	ProductID      handlershared.FlexString  `json:"product_id"`
	Name           string                    `json:"name"`
	ProductName    string                    `json:"product_name"`
	Price          handlershared.FlexNumber  `json:"price"`
	Quantity       handlershared.FlexNumber  `json:"quantity"`
	CostPrice      *handlershared.FlexNumber `json:"cost_price"`
	CostPriceCamel *handlershared.FlexNumber `json:"costPrice"`
	Weight         handlershared.FlexString  `json:"weight"`
	Size           handlershared.FlexString  `json:"size"`
	Notes          string                    `json:"notes"`
}

func (r cartLineRequest) normalize() service.CartLine {
	return service.CartLine{
		ProductID: handlershared.FirstFlex(r.ID, r.ProductID).UintPtr(),
		Name:      handlershared.FirstString(r.Name, r.ProductName),
		Price:     r.Price.Int64(),
		Quantity:  r.Quantity.Int(),
		CostPrice: handlershared.Int64Ptr(handlershared.FirstNumber(r.CostPrice, r.CostPriceCamel)),
		Size:      handlershared.FirstString(r.Size.String(), r.Weight.String()),
		Notes:     strings.TrimSpace(r.Notes),
	}
}

type customerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// createOrderRequest 下单请求，兼容 camelCase 与 snake_case 两种写法
type createOrderRequest struct {
	Action              string                    `json:"action"`
	OrderID             handlershared.FlexString  `json:"orderId"`
	OrderIDSnake        handlershared.FlexString  `json:"order_id"`
	Customer            customerRequest           `json:"customer"`
	Address             string                    `json:"address"`
	Cart                []cartLineRequest         `json:"cart"`
	Products            []cartLineRequest         `json:"products"`
	Total               *handlershared.FlexNumber `json:"total"`
	TotalAmount         *handlershared.FlexNumber `json:"totalAmount"`
	TotalAmountSnake    *handlershared.FlexNumber `json:"total_amount"`
	PaymentMethod       string                    `json:"paymentMethod"`
	PaymentMethodSnake  string                    `json:"payment_method"`
	Status              string                    `json:"status"`
	ReferralCode        string                    `json:"referralCode"`
	ReferralCodeSnake   string                    `json:"referral_code"`
	ReferralPartner     string                    `json:"referralPartner"`
	DiscountCode        string                    `json:"discountCode"`
	DiscountCodeSnake   string                    `json:"discount_code"`
	DiscountAmount      *handlershared.FlexNumber `json:"discountAmount"`
	DiscountAmountSnake *handlershared.FlexNumber `json:"discount_amount"`
	DiscountID          handlershared.FlexString  `json:"discountId"`
	DiscountIDSnake     handlershared.FlexString  `json:"discount_id"`
	Commission          *handlershared.FlexNumber `json:"commission"`
	CommissionRate      *handlershared.FlexNumber `json:"commission_rate"`
	CommissionRateCamel *handlershared.FlexNumber `json:"commissionRate"`
	ShippingFee         *handlershared.FlexNumber `json:"shippingFee"`
	ShippingFeeSnake    *handlershared.FlexNumber `json:"shipping_fee"`
	ShippingCost        *handlershared.FlexNumber `json:"shippingCost"`
	ShippingCostSnake   *handlershared.FlexNumber `json:"shipping_cost"`
	IsPriority          *handlershared.FlexBool   `json:"is_priority"`
	IsPriorityCamel     *handlershared.FlexBool   `json:"isPriority"`
	OrderDate           handlershared.FlexString  `json:"orderDate"`
	Notes               string                    `json:"notes"`
	ProvinceID          handlershared.FlexString  `json:"province_id"`
	ProvinceName        string                    `json:"province_name"`
	DistrictID          handlershared.FlexString  `json:"district_id"`
	DistrictName        string                    `json:"district_name"`
	WardID              handlershared.FlexString  `json:"ward_id"`
	WardName            string                    `json:"ward_name"`
	StreetAddress       string                    `json:"street_address"`
}

func numberOrZero(values ...*handlershared.FlexNumber) int64 {
	if value := handlershared.FirstNumber(values...); value != nil {
		return value.Int64()
	}
	return 0
}

// parseOrderDate 接受毫秒时间戳或 RFC3339 文本，无法解析时返回 0
func parseOrderDate(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ms
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, service.VNLocation); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

func (r createOrderRequest) normalize() service.CreateOrderInput {
	lines := r.Cart
	if len(lines) == 0 {
		lines = r.Products
	}
	cart := make([]service.CartLine, 0, len(lines))
	for _, line := range lines {
		cart = append(cart, line.normalize())
	}
	return service.CreateOrderInput{
		OrderCode: handlershared.FirstFlex(r.OrderID, r.OrderIDSnake).String(),
		Customer: service.CustomerInput{
			Name:    strings.TrimSpace(r.Customer.Name),
			Phone:   strings.TrimSpace(r.Customer.Phone),
			Address: handlershared.FirstString(r.Customer.Address, r.Address),
			Notes:   strings.TrimSpace(r.Customer.Notes),
		},
		Cart:            cart,
		TotalAmount:     numberOrZero(r.Total, r.TotalAmount, r.TotalAmountSnake),
		PaymentMethod:   handlershared.FirstString(r.PaymentMethod, r.PaymentMethodSnake),
		Status:          strings.TrimSpace(r.Status),
		ReferralCode:    handlershared.FirstString(r.ReferralCode, r.ReferralCodeSnake),
		ReferralPartner: strings.TrimSpace(r.ReferralPartner),
		DiscountCode:    handlershared.FirstString(r.DiscountCode, r.DiscountCodeSnake),
		DiscountID:      handlershared.FirstFlex(r.DiscountID, r.DiscountIDSnake).UintPtr(),
		DiscountAmount:  numberOrZero(r.DiscountAmount, r.DiscountAmountSnake),
		Commission:      handlershared.Int64Ptr(r.Commission),
		CommissionRate:  handlershared.FloatPtr(handlershared.FirstNumber(r.CommissionRate, r.CommissionRateCamel)),
		ShippingFee:     numberOrZero(r.ShippingFee, r.ShippingFeeSnake),
		ShippingCost:    numberOrZero(r.ShippingCost, r.ShippingCostSnake),
		IsPriority:      boolValue(handlershared.FirstBool(r.IsPriority, r.IsPriorityCamel)),
		OrderDate:       parseOrderDate(r.OrderDate.String()),
		Notes:           strings.TrimSpace(r.Notes),
		ProvinceID:      r.ProvinceID.String(),
		ProvinceName:    strings.TrimSpace(r.ProvinceName),
		DistrictID:      r.DistrictID.String(),
		DistrictName:    strings.TrimSpace(r.DistrictName),
		WardID:          r.WardID.String(),
		WardName:        strings.TrimSpace(r.WardName),
		StreetAddress:   strings.TrimSpace(r.StreetAddress),
	}
}

func boolValue(value *handlershared.FlexBool) bool {
	return value != nil && bool(*value)
}

// CreateOrder 结账下单（/api/order/create，请求体自带 orderId）
func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	h.createOrder(c, req.normalize())
}

// CreateOrderAction 后台手工建单（action=createOrder），订单号由服务端生成
func (h *Handler) CreateOrderAction(c *gin.Context) {
	var req createOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	input := req.normalize()
	if input.OrderCode == "" {
		input.OrderCode = "DH" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	h.createOrder(c, input)
}

func (h *Handler) createOrder(c *gin.Context, input service.CreateOrderInput) {
	result, err := h.OrderService.CreateOrder(c.Request.Context(), input)
	if err != nil {
		if handlershared.StatusForError(err) >= 500 {
			requestLog(c).Errorw("order_create_failed", "order_id", input.OrderCode, "error", err)
		}
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Đơn hàng đã được tạo thành công", gin.H{
		"orderId":    result.OrderCode,
		"commission": result.Commission,
		"timestamp":  result.Timestamp,
	})
}

// GetOrdersByPhone 按 CTV 手机号查询推荐订单
func (h *Handler) GetOrdersByPhone(c *gin.Context) {
	result, err := h.OrderService.ListByCTVPhone(c.Query("phone"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"orders":       result.Orders,
		"referralCode": result.ReferralCode,
		"phone":        result.Phone,
		"ctvInfo":      result.CTVInfo,
		"total":        len(result.Orders),
	})
}

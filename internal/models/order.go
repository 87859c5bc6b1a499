package models

import (
	"time"
)

// Order 订单表
type Order struct {
	ID                  uint              `gorm:"primarykey" json:"id"`                                         // 主键
	OrderCode           string            `gorm:"column:order_id;uniqueIndex;size:64;not null" json:"order_id"` // 对外订单号
	OrderDate           int64             `gorm:"index" json:"order_date"`                                      // 下单时间（毫秒）
	CustomerName        string            `gorm:"size:255;not null" json:"customer_name"`                       // 客户姓名
	CustomerPhone       string            `gorm:"size:32;index;not null" json:"customer_phone"`                 // 客户手机号
	Address             string            `gorm:"type:text" json:"address"`                                     // 完整地址
	ProvinceID          string            `gorm:"size:32" json:"province_id"`                                   // 省
	ProvinceName        string            `gorm:"size:255" json:"province_name"`                                // 省名称
	DistrictID          string            `gorm:"size:32" json:"district_id"`                                   // 区
	DistrictName        string            `gorm:"size:255" json:"district_name"`                                // 区名称
	WardID              string            `gorm:"size:32" json:"ward_id"`                                       // 坊
	WardName            string            `gorm:"size:255" json:"ward_name"`                                    // 坊名称
	StreetAddress       string            `gorm:"type:text" json:"street_address"`                              // 街道门牌
	TotalAmount         int64             `gorm:"not null;default:0" json:"total_amount"`                       // 订单总额 = 商品合计 + 运费 - 优惠
	ProductCost         int64             `gorm:"not null;default:0" json:"product_cost"`                       // 商品成本合计
	PaymentMethod       string            `gorm:"size:32;not null;default:'cod'" json:"payment_method"`         // 支付方式
	Status              string            `gorm:"size:32;index;not null;default:'pending'" json:"status"`       // 订单状态
	ReferralCode        string            `gorm:"size:64;index" json:"referral_code"`                           // CTV 推荐码
	CTVPhone            string            `gorm:"column:ctv_phone;size:32" json:"ctv_phone"`                    // CTV 手机号
	Commission          int64             `gorm:"not null;default:0" json:"commission"`                         // 佣金
	CommissionRate      Decimal           `gorm:"type:decimal(8,4);not null;default:0" json:"commission_rate"`  // 佣金比例快照
	ShippingFee         int64             `gorm:"not null;default:0" json:"shipping_fee"`                       // 向客户收取的运费
	ShippingCost        int64             `gorm:"not null;default:0" json:"shipping_cost"`                      // 实际运费成本
	PackagingCost       int64             `gorm:"not null;default:0" json:"packaging_cost"`                     // 包装成本
	PackagingDetails    PackagingSnapshot `gorm:"type:text" json:"packaging_details"`                           // 包装成本快照
	TaxAmount           int64             `gorm:"not null;default:0" json:"tax_amount"`                         // 税额
	TaxRate             Decimal           `gorm:"type:decimal(8,4);not null;default:0" json:"tax_rate"`         // 税率快照
	DiscountCode        string            `gorm:"size:64;index" json:"discount_code"`                           // 优惠码
	DiscountAmount      int64             `gorm:"not null;default:0" json:"discount_amount"`                    // 优惠金额
	IsPriority          bool              `gorm:"not null;default:false" json:"is_priority"`                    // 优先处理
	Notes               string            `gorm:"type:text" json:"notes"`                                       // 备注
	CommissionPaymentID *uint             `gorm:"index" json:"commission_payment_id,omitempty"`                 // 佣金结算单
	CreatedAtUnix       int64             `gorm:"index" json:"created_at_unix"`                                 // 创建时间（毫秒）
	UpdatedAtUnix       int64             `json:"updated_at_unix"`                                              // 更新时间（毫秒）
	CreatedAt           time.Time         `json:"created_at"`                                                   // 创建时间
	UpdatedAt           time.Time         `json:"updated_at"`                                                   // 更新时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// ProductRevenue 商品合计（单价 × 数量）
func (o *Order) ProductRevenue() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.LineTotal()
	}
	return total
}

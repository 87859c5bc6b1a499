package models

import "time"

// Discount 优惠码表
type Discount struct {
	ID                    uint        `gorm:"primarykey" json:"id"`                            // 主键
	Code                  string      `gorm:"size:64;uniqueIndex;not null" json:"code"`        // 优惠码（大写）
	Title                 string      `gorm:"size:255" json:"title"`                           // 标题
	Description           string      `gorm:"type:text" json:"description"`                    // 描述
	Type                  string      `gorm:"size:32;not null" json:"type"`                    // fixed / percentage / freeship / gift
	DiscountValue         int64       `gorm:"not null;default:0" json:"discount_value"`        // 面额或百分比
	MaxDiscountAmount     int64       `gorm:"not null;default:0" json:"max_discount_amount"`   // 百分比优惠封顶，0 不限
	GiftProductID         string      `gorm:"size:64" json:"gift_product_id"`                  // 赠品
	GiftProductName       string      `gorm:"size:255" json:"gift_product_name"`               // 赠品名称
	GiftQuantity          int         `gorm:"not null;default:0" json:"gift_quantity"`         // 赠品数量
	MinOrderAmount        int64       `gorm:"not null;default:0" json:"min_order_amount"`      // 最低订单金额
	MinItems              int         `gorm:"not null;default:0" json:"min_items"`             // 最少件数
	MaxTotalUses          int         `gorm:"not null;default:0" json:"max_total_uses"`        // 总使用上限，0 不限
	MaxUsesPerCustomer    int         `gorm:"not null;default:0" json:"max_uses_per_customer"` // 每个手机号上限，0 不限
	CustomerType          string      `gorm:"size:32" json:"customer_type"`                    // all / new / existing
	AllowedCustomerPhones StringArray `gorm:"type:text" json:"allowed_customer_phones"`        // 手机号白名单，空为不限
	Combinable            bool        `gorm:"not null;default:false" json:"combinable"`        // 可叠加
	Active                bool        `gorm:"index;not null;default:false" json:"active"`      // 启用
	Visible               bool        `gorm:"not null;default:false" json:"visible"`           // 前台可见
	StartDate             *time.Time  `gorm:"index" json:"start_date"`                         // 生效时间
	ExpiryDate            *time.Time  `gorm:"index" json:"expiry_date"`                        // 过期时间
	SpecialEvent          string      `gorm:"size:255" json:"special_event"`                   // 活动名称
	EventIcon             string      `gorm:"size:64" json:"event_icon"`                       // 活动图标
	EventDate             string      `gorm:"size:32" json:"event_date"`                       // 活动日期
	UsageCount            int         `gorm:"not null;default:0" json:"usage_count"`           // 已使用次数
	TotalDiscountAmount   int64       `gorm:"not null;default:0" json:"total_discount_amount"` // 累计优惠金额
	CreatedAtUnix         int64       `json:"created_at_unix"`                                 // 创建时间（毫秒）
	UpdatedAtUnix         int64       `json:"updated_at_unix"`                                 // 更新时间（毫秒）
	CreatedAt             time.Time   `json:"created_at"`                                      // 创建时间
	UpdatedAt             time.Time   `json:"updated_at"`                                      // 更新时间
}

// TableName 指定表名
func (Discount) TableName() string {
	return "discounts"
}

// DiscountUsage 优惠码使用记录，写入后不再修改
type DiscountUsage struct {
	ID             uint      `gorm:"primarykey" json:"id"`                          // 主键
	DiscountID     uint      `gorm:"index;not null" json:"discount_id"`             // 优惠码ID
	DiscountCode   string    `gorm:"size:64;index;not null" json:"discount_code"`   // 优惠码
	OrderCode      string    `gorm:"column:order_id;size:64;index" json:"order_id"` // 订单号
	CustomerName   string    `gorm:"size:255" json:"customer_name"`                 // 客户姓名
	CustomerPhone  string    `gorm:"size:32;index" json:"customer_phone"`           // 客户手机号
	OrderAmount    int64     `gorm:"not null;default:0" json:"order_amount"`        // 订单金额
	DiscountAmount int64     `gorm:"not null;default:0" json:"discount_amount"`     // 优惠金额
	UsedAtUnix     int64     `gorm:"index" json:"used_at_unix"`                     // 使用时间（毫秒）
	UsedAt         time.Time `json:"used_at"`                                       // 使用时间
}

// TableName 指定表名
func (DiscountUsage) TableName() string {
	return "discount_usage"
}

package models

import "time"

// OrderItem 订单项表，价格与成本为下单时快照
type OrderItem struct {
	ID            uint      `gorm:"primarykey" json:"id"`                    // 主键
	OrderID       uint      `gorm:"index;not null" json:"order_id"`          // orders.id
	ProductID     *uint     `gorm:"index" json:"product_id"`                 // 商品ID，自定义商品为空
	ProductName   string    `gorm:"size:255;not null" json:"product_name"`   // 商品名称快照
	ProductPrice  int64     `gorm:"not null;default:0" json:"product_price"` // 单价快照
	ProductCost   int64     `gorm:"not null;default:0" json:"product_cost"`  // 成本快照
	Quantity      int       `gorm:"not null;default:1" json:"quantity"`      // 数量
	Size          string    `gorm:"size:255" json:"size"`                    // 尺寸 / 重量
	Notes         string    `gorm:"type:text" json:"notes"`                  // 备注
	CreatedAtUnix int64     `json:"created_at_unix"`                         // 创建时间（毫秒）
	CreatedAt     time.Time `json:"created_at"`                              // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal 行合计
func (i OrderItem) LineTotal() int64 {
	return i.ProductPrice * int64(i.Quantity)
}

// LineCost 行成本
func (i OrderItem) LineCost() int64 {
	return i.ProductCost * int64(i.Quantity)
}

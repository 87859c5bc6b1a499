package models

import "time"

// Product 商品表
type Product struct {
	ID            uint      `gorm:"primarykey" json:"id"`                          // 主键
	Name          string    `gorm:"size:255;index;not null" json:"name"`           // 名称
	Price         int64     `gorm:"not null;default:0" json:"price"`               // 售价
	OriginalPrice int64     `gorm:"not null;default:0" json:"original_price"`      // 原价
	CostPrice     int64     `gorm:"not null;default:0" json:"cost_price"`          // 成本价（由物料计算）
	CategoryID    *uint     `gorm:"index" json:"category_id"`                      // 主分类
	StockQuantity int       `gorm:"not null;default:0" json:"stock_quantity"`      // 库存
	Rating        float64   `gorm:"not null;default:0" json:"rating"`              // 评分
	Purchases     int       `gorm:"not null;default:0" json:"purchases"`           // 销量
	SKU           *string   `gorm:"column:sku;size:64;uniqueIndex" json:"sku"`     // SKU
	Description   string    `gorm:"type:text" json:"description"`                  // 描述
	ImageURL      string    `gorm:"size:1024" json:"image_url"`                    // 图片地址
	IsActive      bool      `gorm:"index;not null;default:false" json:"is_active"` // 上架状态，删除即下架
	CreatedAtUnix int64     `json:"created_at_unix"`                               // 创建时间（毫秒）
	UpdatedAtUnix int64     `json:"updated_at_unix"`                               // 更新时间（毫秒）
	CreatedAt     time.Time `json:"created_at"`                                    // 创建时间
	UpdatedAt     time.Time `json:"updated_at"`                                    // 更新时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

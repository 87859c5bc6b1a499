package models

import "time"

// Category 商品分类表
type Category struct {
	ID           uint      `gorm:"primarykey" json:"id"`                          // 主键
	Name         string    `gorm:"size:255;uniqueIndex;not null" json:"name"`     // 名称
	Description  string    `gorm:"type:text" json:"description"`                  // 描述
	Icon         string    `gorm:"size:255" json:"icon"`                          // 图标
	Color        string    `gorm:"size:32" json:"color"`                          // 颜色
	DisplayOrder int       `gorm:"index;not null;default:0" json:"display_order"` // 排序
	IsActive     bool      `gorm:"not null;default:false" json:"is_active"`       // 启用
	CreatedAt    time.Time `json:"created_at"`                                    // 创建时间
	UpdatedAt    time.Time `json:"updated_at"`                                    // 更新时间
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}

// ProductCategory 商品与分类关联
type ProductCategory struct {
	ProductID    uint      `gorm:"primaryKey" json:"product_id"`             // 商品ID
	CategoryID   uint      `gorm:"primaryKey" json:"category_id"`            // 分类ID
	IsPrimary    bool      `gorm:"not null;default:false" json:"is_primary"` // 主分类
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`  // 排序
	CreatedAt    time.Time `json:"created_at"`                               // 创建时间
}

// TableName 指定表名
func (ProductCategory) TableName() string {
	return "product_categories"
}

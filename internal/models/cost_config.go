package models

import "time"

// CostConfig 成本价目表：物料单价、包装项以及税率 / 运费等键值行
type CostConfig struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                   // 主键
	ItemName    string    `gorm:"size:100;uniqueIndex;not null" json:"item_name"`         // 键
	DisplayName string    `gorm:"size:255" json:"display_name"`                           // 显示名称
	ItemCost    Decimal   `gorm:"type:decimal(14,4);not null;default:0" json:"item_cost"` // 单价或数值
	CategoryID  *uint     `gorm:"index" json:"category_id"`                               // 物料分类
	IsDefault   bool      `gorm:"not null;default:false" json:"is_default"`               // 默认项
	CreatedAt   time.Time `json:"created_at"`                                             // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                             // 更新时间
}

// TableName 指定表名
func (CostConfig) TableName() string {
	return "cost_config"
}

// MaterialCategory 物料分类
type MaterialCategory struct {
	ID          uint      `gorm:"primarykey" json:"id"`                       // 主键
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`  // 名称
	DisplayName string    `gorm:"size:255" json:"display_name"`               // 显示名称
	Icon        string    `gorm:"size:64" json:"icon"`                        // 图标
	Description string    `gorm:"type:text" json:"description"`               // 描述
	SortOrder   int       `gorm:"index;not null;default:0" json:"sort_order"` // 排序
	CreatedAt   time.Time `json:"created_at"`                                 // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                 // 更新时间
}

// TableName 指定表名
func (MaterialCategory) TableName() string {
	return "material_categories"
}

// ProductMaterial 商品物料用量
type ProductMaterial struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                  // 主键
	ProductID    uint      `gorm:"index;not null" json:"product_id"`                      // 商品ID
	MaterialName string    `gorm:"size:100;index;not null" json:"material_name"`          // cost_config.item_name
	Quantity     Decimal   `gorm:"type:decimal(12,4);not null;default:0" json:"quantity"` // 用量
	Unit         string    `gorm:"size:32" json:"unit"`                                   // 单位
	Notes        string    `gorm:"type:text" json:"notes"`                                // 备注
	CreatedAt    time.Time `json:"created_at"`                                            // 创建时间
}

// TableName 指定表名
func (ProductMaterial) TableName() string {
	return "product_materials"
}

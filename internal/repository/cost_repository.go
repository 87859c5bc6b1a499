package repository

import (
	"errors"

	"github.com/shopvd/backoffice/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CostRepository 成本价目、物料分类与商品物料数据访问接口
type CostRepository interface {
	ListConfig() ([]models.CostConfig, error)
	ListByCategory(categoryID uint) ([]models.CostConfig, error)
	GetByItemName(name string) (*models.CostConfig, error)
	UpsertItem(item *models.CostConfig) error
	CreateItem(item *models.CostConfig) error
	UpdateItem(oldName string, columns map[string]interface{}) error
	DeleteItem(name string) error
	ListMaterials() ([]MaterialRow, error)
	RenameMaterialRefs(oldName, newName string) (int64, error)
	CountProductsUsing(name string) (int64, error)
	ProductIDsUsing(name string) ([]uint, error)
	ListMaterialCategories() ([]MaterialCategoryRow, error)
	GetMaterialCategory(id uint) (*models.MaterialCategory, error)
	CountMaterialCategoryName(name string, excludeID uint) (int64, error)
	MaxMaterialCategorySort() (int, error)
	CreateMaterialCategory(category *models.MaterialCategory) error
	UpdateMaterialCategory(id uint, columns map[string]interface{}) error
	DeleteMaterialCategory(id uint) (int64, error)
	NeighbourMaterialCategory(sortOrder int, up bool) (*models.MaterialCategory, error)
	ListProductMaterials(productID uint) ([]ProductMaterialRow, error)
	ReplaceProductMaterials(productID uint, materials []models.ProductMaterial) error
	SumProductMaterialCost(productID uint) (float64, error)
	WithTx(tx *gorm.DB) *GormCostRepository
}

// MaterialRow 物料（带分类与使用商品数）
type MaterialRow struct {
	models.CostConfig
	CategoryName        *string `json:"category_name"`
	CategoryDisplayName *string `json:"category_display_name"`
	CategoryIcon        *string `json:"category_icon"`
	CategorySortOrder   *int    `json:"category_sort_order"`
	ProductCount        int64   `json:"product_count"`
}

// MaterialCategoryRow 物料分类（带物料数）
type MaterialCategoryRow struct {
	models.MaterialCategory
	MaterialCount int64 `json:"material_count"`
}

// ProductMaterialRow 商品物料（带单价与小计）
type ProductMaterialRow struct {
	models.ProductMaterial
	ItemCost    float64 `json:"item_cost"`
	DisplayName string  `json:"display_name"`
	Subtotal    float64 `json:"subtotal"`
}

// GormCostRepository GORM 实现
type GormCostRepository struct {
	db *gorm.DB
}

// NewCostRepository 创建成本仓库
func NewCostRepository(db *gorm.DB) *GormCostRepository {
	return &GormCostRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCostRepository) WithTx(tx *gorm.DB) *GormCostRepository {
	if tx == nil {
		return r
	}
	return &GormCostRepository{db: tx}
}

// ListConfig 全部价目行
func (r *GormCostRepository) ListConfig() ([]models.CostConfig, error) {
	var items []models.CostConfig
	err := r.db.Order("id asc").Find(&items).Error
	return items, err
}

// ListByCategory 某物料分类下的价目行
func (r *GormCostRepository) ListByCategory(categoryID uint) ([]models.CostConfig, error) {
	var items []models.CostConfig
	err := r.db.Where("category_id = ?", categoryID).Order("id asc").Find(&items).Error
	return items, err
}

// GetByItemName 按键取价目行
func (r *GormCostRepository) GetByItemName(name string) (*models.CostConfig, error) {
	var item models.CostConfig
	if err := r.db.Where("item_name = ?", name).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// UpsertItem 按 item_name 写入或更新单价
func (r *GormCostRepository) UpsertItem(item *models.CostConfig) error {
	updates := []string{"item_cost", "is_default", "updated_at"}
	if item.DisplayName != "" {
		updates = append(updates, "display_name")
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_name"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(item).Error
}

// CreateItem 新增价目行
func (r *GormCostRepository) CreateItem(item *models.CostConfig) error {
	return r.db.Create(item).Error
}

// UpdateItem 按旧名称更新价目行
func (r *GormCostRepository) UpdateItem(oldName string, columns map[string]interface{}) error {
	return r.db.Model(&models.CostConfig{}).Where("item_name = ?", oldName).Updates(columns).Error
}

// DeleteItem 删除价目行
func (r *GormCostRepository) DeleteItem(name string) error {
	return r.db.Where("item_name = ?", name).Delete(&models.CostConfig{}).Error
}

// ListMaterials 物料列表
func (r *GormCostRepository) ListMaterials() ([]MaterialRow, error) {
	var rows []MaterialRow
	err := r.db.Table("cost_config AS cc").
		Select(`cc.*, mc.name AS category_name, mc.display_name AS category_display_name,
			mc.icon AS category_icon, mc.sort_order AS category_sort_order,
			COUNT(DISTINCT pm.product_id) AS product_count`).
		Joins("LEFT JOIN material_categories mc ON cc.category_id = mc.id").
		Joins("LEFT JOIN product_materials pm ON cc.item_name = pm.material_name").
		Group("cc.id, mc.id").
		Order("mc.sort_order asc, cc.item_name asc").
		Scan(&rows).Error
	return rows, err
}

// RenameMaterialRefs 物料改名后同步商品物料引用
func (r *GormCostRepository) RenameMaterialRefs(oldName, newName string) (int64, error) {
	if err := r.db.Model(&models.ProductMaterial{}).
		Where("material_name = ?", oldName).
		Update("material_name", newName).Error; err != nil {
		return 0, err
	}
	return r.CountProductsUsing(newName)
}

// CountProductsUsing 使用该物料的商品数
func (r *GormCostRepository) CountProductsUsing(name string) (int64, error) {
	var count int64
	err := r.db.Model(&models.ProductMaterial{}).
		Where("material_name = ?", name).
		Distinct("product_id").
		Count(&count).Error
	return count, err
}

// ProductIDsUsing 使用该物料的商品 ID
func (r *GormCostRepository) ProductIDsUsing(name string) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ProductMaterial{}).
		Where("material_name = ?", name).
		Distinct().
		Pluck("product_id", &ids).Error
	return ids, err
}

// ListMaterialCategories 物料分类列表
func (r *GormCostRepository) ListMaterialCategories() ([]MaterialCategoryRow, error) {
	var rows []MaterialCategoryRow
	err := r.db.Table("material_categories AS mc").
		Select("mc.*, COUNT(cc.id) AS material_count").
		Joins("LEFT JOIN cost_config cc ON mc.id = cc.category_id").
		Group("mc.id").
		Order("mc.sort_order asc").
		Scan(&rows).Error
	return rows, err
}

// GetMaterialCategory 根据 ID 获取物料分类
func (r *GormCostRepository) GetMaterialCategory(id uint) (*models.MaterialCategory, error) {
	var category models.MaterialCategory
	if err := r.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// CountMaterialCategoryName 统计同名物料分类
func (r *GormCostRepository) CountMaterialCategoryName(name string, excludeID uint) (int64, error) {
	query := r.db.Model(&models.MaterialCategory{}).Where("name = ?", name)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// MaxMaterialCategorySort 当前最大排序值
func (r *GormCostRepository) MaxMaterialCategorySort() (int, error) {
	var maxOrder int
	err := r.db.Model(&models.MaterialCategory{}).Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder).Error
	return maxOrder, err
}

// CreateMaterialCategory 创建物料分类
func (r *GormCostRepository) CreateMaterialCategory(category *models.MaterialCategory) error {
	return r.db.Create(category).Error
}

// UpdateMaterialCategory 更新物料分类
func (r *GormCostRepository) UpdateMaterialCategory(id uint, columns map[string]interface{}) error {
	return r.db.Model(&models.MaterialCategory{}).Where("id = ?", id).Updates(columns).Error
}

// DeleteMaterialCategory 删除物料分类，其下物料移到未分类，返回移动数量
func (r *GormCostRepository) DeleteMaterialCategory(id uint) (int64, error) {
	moved := r.db.Model(&models.CostConfig{}).Where("category_id = ?", id).Update("category_id", nil)
	if moved.Error != nil {
		return 0, moved.Error
	}
	if err := r.db.Delete(&models.MaterialCategory{}, id).Error; err != nil {
		return 0, err
	}
	return moved.RowsAffected, nil
}

// NeighbourMaterialCategory 相邻排序的物料分类
func (r *GormCostRepository) NeighbourMaterialCategory(sortOrder int, up bool) (*models.MaterialCategory, error) {
	query := r.db.Model(&models.MaterialCategory{})
	if up {
		query = query.Where("sort_order < ?", sortOrder).Order("sort_order desc")
	} else {
		query = query.Where("sort_order > ?", sortOrder).Order("sort_order asc")
	}
	var category models.MaterialCategory
	if err := query.First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// ListProductMaterials 商品物料明细
func (r *GormCostRepository) ListProductMaterials(productID uint) ([]ProductMaterialRow, error) {
	var rows []ProductMaterialRow
	err := r.db.Table("product_materials AS pm").
		Select("pm.*, cc.item_cost, cc.display_name, (pm.quantity * cc.item_cost) AS subtotal").
		Joins("JOIN cost_config cc ON pm.material_name = cc.item_name").
		Where("pm.product_id = ?", productID).
		Order("pm.id asc").
		Scan(&rows).Error
	return rows, err
}

// ReplaceProductMaterials 重建商品物料
func (r *GormCostRepository) ReplaceProductMaterials(productID uint, materials []models.ProductMaterial) error {
	if err := r.db.Where("product_id = ?", productID).Delete(&models.ProductMaterial{}).Error; err != nil {
		return err
	}
	if len(materials) == 0 {
		return nil
	}
	for i := range materials {
		materials[i].ID = 0
		materials[i].ProductID = productID
	}
	return r.db.Create(&materials).Error
}

// SumProductMaterialCost 物料成本合计 Σ quantity × item_cost
func (r *GormCostRepository) SumProductMaterialCost(productID uint) (float64, error) {
	var total float64
	err := r.db.Table("product_materials AS pm").
		Select("COALESCE(SUM(pm.quantity * cc.item_cost), 0)").
		Joins("JOIN cost_config cc ON pm.material_name = cc.item_name").
		Where("pm.product_id = ?", productID).
		Scan(&total).Error
	return total, err
}

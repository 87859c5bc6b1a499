package repository

import (
	"errors"
	"strings"

	"github.com/shopvd/backoffice/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	Search(keyword string, limit int) ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	UpdateColumns(id uint, columns map[string]interface{}) error
	SoftDelete(id uint) error
	ExistsSKU(sku string, excludeID uint) (bool, error)
	FindCosts(ids []uint, names []string) ([]ProductCostRow, error)
	UpdateCostPrice(id uint, cost int64) error
	ListCategoryLinks(productIDs []uint) ([]ProductCategoryRow, error)
	ExistsCategoryLink(productID, categoryID uint) (bool, error)
	AddCategoryLink(link *models.ProductCategory) error
	RemoveCategoryLink(productID, categoryID uint) error
	SetPrimaryCategory(productID, categoryID uint) error
	ReplaceCategoryLinks(productID uint, categoryIDs []uint) error
	WithTx(tx *gorm.DB) *GormProductRepository
}

// ProductCostRow 商品成本查询结果
type ProductCostRow struct {
	ID        uint
	Name      string
	CostPrice int64
}

// ProductCategoryRow 商品分类关联（带分类信息）
type ProductCategoryRow struct {
	ProductID    uint   `json:"-"`
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Icon         string `json:"icon"`
	Color        string `json:"color"`
	IsPrimary    bool   `json:"is_primary"`
	DisplayOrder int    `json:"display_order"`
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// List 商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.CategoryID > 0 {
		query = query.Where("category_id = ? OR id IN (?)", filter.CategoryID,
			r.db.Model(&models.ProductCategory{}).Select("product_id").Where("category_id = ?", filter.CategoryID))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, args := buildLikeCondition(r.db, search, "name", "sku", "description")
		query = query.Where(condition, args...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var products []models.Product
	if err := query.Order("name asc").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Search 按名称或 SKU 搜索在售商品
func (r *GormProductRepository) Search(keyword string, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	condition, args := buildLikeCondition(r.db, strings.TrimSpace(keyword), "name", "sku")
	var products []models.Product
	err := r.db.Where("is_active = ?", true).
		Where(condition, args...).
		Order("name asc").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// GetByID 根据 ID 获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	now := models.NowMillis()
	product.CreatedAtUnix = now
	product.UpdatedAtUnix = now
	return r.db.Create(product).Error
}

// UpdateColumns 更新指定字段
func (r *GormProductRepository) UpdateColumns(id uint, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return nil
	}
	columns["updated_at_unix"] = models.NowMillis()
	return r.db.Model(&models.Product{}).Where("id = ?", id).Updates(columns).Error
}

// SoftDelete 下架商品
func (r *GormProductRepository) SoftDelete(id uint) error {
	return r.UpdateColumns(id, map[string]interface{}{"is_active": false})
}

// ExistsSKU SKU 是否被其他商品占用
func (r *GormProductRepository) ExistsSKU(sku string, excludeID uint) (bool, error) {
	query := r.db.Model(&models.Product{}).Where("sku = ?", sku)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindCosts 一次查询按 ID 或名称取成本价
func (r *GormProductRepository) FindCosts(ids []uint, names []string) ([]ProductCostRow, error) {
	if len(ids) == 0 && len(names) == 0 {
		return nil, nil
	}
	query := r.db.Model(&models.Product{}).Select("id, name, cost_price")
	switch {
	case len(ids) > 0 && len(names) > 0:
		query = query.Where("id IN ? OR name IN ?", ids, names)
	case len(ids) > 0:
		query = query.Where("id IN ?", ids)
	default:
		query = query.Where("name IN ?", names)
	}
	var rows []ProductCostRow
	err := query.Scan(&rows).Error
	return rows, err
}

// UpdateCostPrice 写入物料核算后的成本价
func (r *GormProductRepository) UpdateCostPrice(id uint, cost int64) error {
	return r.UpdateColumns(id, map[string]interface{}{"cost_price": cost})
}

// ListCategoryLinks 批量取商品分类，主分类在前
func (r *GormProductRepository) ListCategoryLinks(productIDs []uint) ([]ProductCategoryRow, error) {
	query := r.db.Table("product_categories AS pc").
		Select("pc.product_id, c.id, c.name, c.icon, c.color, pc.is_primary, pc.display_order").
		Joins("JOIN categories c ON pc.category_id = c.id")
	if len(productIDs) > 0 {
		query = query.Where("pc.product_id IN ?", productIDs)
	}
	var rows []ProductCategoryRow
	err := query.Order("pc.product_id asc, pc.is_primary desc, pc.display_order asc, c.name asc").Scan(&rows).Error
	return rows, err
}

// ExistsCategoryLink 关联是否存在
func (r *GormProductRepository) ExistsCategoryLink(productID, categoryID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.ProductCategory{}).
		Where("product_id = ? AND category_id = ?", productID, categoryID).
		Count(&count).Error
	return count > 0, err
}

// AddCategoryLink 新增关联
func (r *GormProductRepository) AddCategoryLink(link *models.ProductCategory) error {
	return r.db.Create(link).Error
}

// RemoveCategoryLink 删除关联
func (r *GormProductRepository) RemoveCategoryLink(productID, categoryID uint) error {
	return r.db.Where("product_id = ? AND category_id = ?", productID, categoryID).
		Delete(&models.ProductCategory{}).Error
}

// SetPrimaryCategory 设置主分类，同时回写 products.category_id
func (r *GormProductRepository) SetPrimaryCategory(productID, categoryID uint) error {
	if err := r.db.Model(&models.ProductCategory{}).
		Where("product_id = ?", productID).
		Update("is_primary", gorm.Expr("CASE WHEN category_id = ? THEN ? ELSE ? END", categoryID, true, false)).Error; err != nil {
		return err
	}
	return r.UpdateColumns(productID, map[string]interface{}{"category_id": categoryID})
}

// ReplaceCategoryLinks 重建关联，第一个为主分类
func (r *GormProductRepository) ReplaceCategoryLinks(productID uint, categoryIDs []uint) error {
	if err := r.db.Where("product_id = ?", productID).Delete(&models.ProductCategory{}).Error; err != nil {
		return err
	}
	if len(categoryIDs) == 0 {
		return nil
	}
	links := make([]models.ProductCategory, 0, len(categoryIDs))
	for i, categoryID := range categoryIDs {
		links = append(links, models.ProductCategory{
			ProductID:    productID,
			CategoryID:   categoryID,
			IsPrimary:    i == 0,
			DisplayOrder: i,
		})
	}
	if err := r.db.Create(&links).Error; err != nil {
		return err
	}
	return r.UpdateColumns(productID, map[string]interface{}{"category_id": categoryIDs[0]})
}

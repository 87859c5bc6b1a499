package service

import (
	"context"
	"math"
	"strings"

	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"

	"gorm.io/gorm"
)

// MaterialService 物料、物料分类与商品物料用量
type MaterialService struct {
	transactor  *repository.Transactor
	repo        repository.CostRepository
	productRepo repository.ProductRepository
	costs       *CostService
}

// NewMaterialService 创建物料服务
func NewMaterialService(
	transactor *repository.Transactor,
	repo repository.CostRepository,
	productRepo repository.ProductRepository,
	costs *CostService,
) *MaterialService {
	return &MaterialService{
		transactor:  transactor,
		repo:        repo,
		productRepo: productRepo,
		costs:       costs,
	}
}

// MaterialInput 物料输入，OldItemName 为空表示不改名
type MaterialInput struct {
	ItemName    string
	OldItemName string
	DisplayName string
	ItemCost    *float64
	CategoryID  *uint
}

// MaterialUpdateResult 物料更新结果
type MaterialUpdateResult struct {
	AffectedProducts int64 `json:"affected_products"`
	ItemNameChanged  bool  `json:"item_name_changed"`
}

// MaterialCategoryInput 物料分类输入
type MaterialCategoryInput struct {
	ID          uint
	Name        string
	DisplayName string
	Icon        string
	Description string
	SortOrder   *int
}

// ProductMaterialInput 商品物料用量
type ProductMaterialInput struct {
	MaterialName string
	Quantity     *float64
	Unit         string
	Notes        string
}

func (s *MaterialService) invalidateCosts(ctx context.Context) {
	if s.costs != nil {
		s.costs.invalidate(ctx, packagingCacheKey)
	}
}

func categoryIDOrNil(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}

// ListMaterials 物料列表
func (s *MaterialService) ListMaterials() ([]repository.MaterialRow, error) {
	rows, err := s.repo.ListMaterials()
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []repository.MaterialRow{}
	}
	return rows, nil
}

// CreateMaterial 新增物料
func (s *MaterialService) CreateMaterial(ctx context.Context, input MaterialInput) (*models.CostConfig, error) {
	name := strings.TrimSpace(input.ItemName)
	if name == "" || input.ItemCost == nil {
		return nil, ErrMaterialFieldsRequired
	}
	if math.IsNaN(*input.ItemCost) || *input.ItemCost < 0 {
		return nil, ErrMaterialCostInvalid
	}
	existing, err := s.repo.GetByItemName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrMaterialExists
	}
	item := &models.CostConfig{
		ItemName:    name,
		DisplayName: orDefault(strings.TrimSpace(input.DisplayName), name),
		ItemCost:    models.NewDecimal(*input.ItemCost),
		CategoryID:  categoryIDOrNil(input.CategoryID),
	}
	if err := s.repo.CreateItem(item); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrMaterialExists
		}
		return nil, err
	}
	s.invalidateCosts(ctx)
	logger.FromContext(ctx).Infow("material_created", "item_name", name)
	return item, nil
}

// UpdateMaterial 更新物料；改名时同步商品物料引用，并重算受影响商品的成本价
func (s *MaterialService) UpdateMaterial(ctx context.Context, input MaterialInput) (*MaterialUpdateResult, error) {
	newName := strings.TrimSpace(input.ItemName)
	if newName == "" || input.ItemCost == nil {
		return nil, ErrMaterialFieldsRequired
	}
	if math.IsNaN(*input.ItemCost) || *input.ItemCost < 0 {
		return nil, ErrMaterialCostInvalid
	}
	oldName := orDefault(strings.TrimSpace(input.OldItemName), newName)
	existing, err := s.repo.GetByItemName(oldName)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrMaterialNotFound
	}
	renamed := oldName != newName
	if renamed {
		duplicate, err := s.repo.GetByItemName(newName)
		if err != nil {
			return nil, err
		}
		if duplicate != nil {
			return nil, ConflictError("Material with this item_name already exists")
		}
	}

	result := &MaterialUpdateResult{ItemNameChanged: renamed}
	err = s.transactor.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateItem(oldName, map[string]interface{}{
			"item_name":    newName,
			"display_name": orDefault(strings.TrimSpace(input.DisplayName), newName),
			"item_cost":    models.NewDecimal(*input.ItemCost),
			"category_id":  categoryIDOrNil(input.CategoryID),
		}); err != nil {
			return err
		}
		if renamed {
			affected, err := repo.RenameMaterialRefs(oldName, newName)
			if err != nil {
				return err
			}
			result.AffectedProducts = affected
		}
		productIDs, err := repo.ProductIDsUsing(newName)
		if err != nil {
			return err
		}
		for _, productID := range productIDs {
			if _, err := recomputeProductCost(repo, s.productRepo.WithTx(tx), productID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateCosts(ctx)
	logger.FromContext(ctx).Infow("material_updated", "item_name", newName, "renamed", renamed, "affected_products", result.AffectedProducts)
	return result, nil
}

// DeleteMaterial 删除物料，被商品使用时拒绝
func (s *MaterialService) DeleteMaterial(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrMaterialNameRequired
	}
	count, err := s.repo.CountProductsUsing(name)
	if err != nil {
		return err
	}
	if count > 0 {
		return ValidationError("Cannot delete material that is being used by products")
	}
	if err := s.repo.DeleteItem(name); err != nil {
		return err
	}
	s.invalidateCosts(ctx)
	logger.FromContext(ctx).Infow("material_deleted", "item_name", name)
	return nil
}

// ListCategories 物料分类列表
func (s *MaterialService) ListCategories() ([]repository.MaterialCategoryRow, error) {
	rows, err := s.repo.ListMaterialCategories()
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []repository.MaterialCategoryRow{}
	}
	return rows, nil
}

// CreateCategory 创建物料分类，未指定排序时排在末尾
func (s *MaterialService) CreateCategory(input MaterialCategoryInput) (*models.MaterialCategory, error) {
	name := strings.TrimSpace(input.Name)
	displayName := strings.TrimSpace(input.DisplayName)
	if name == "" || displayName == "" {
		return nil, ErrMaterialCategoryFields
	}
	count, err := s.repo.CountMaterialCategoryName(name, 0)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrMaterialCategoryExists
	}
	sortOrder := 0
	if input.SortOrder != nil {
		sortOrder = *input.SortOrder
	} else {
		maxOrder, err := s.repo.MaxMaterialCategorySort()
		if err != nil {
			return nil, err
		}
		sortOrder = maxOrder + 1
	}
	category := &models.MaterialCategory{
		Name:        name,
		DisplayName: displayName,
		Icon:        orDefault(strings.TrimSpace(input.Icon), "📦"),
		Description: strings.TrimSpace(input.Description),
		SortOrder:   sortOrder,
	}
	if err := s.repo.CreateMaterialCategory(category); err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory 更新物料分类
func (s *MaterialService) UpdateCategory(input MaterialCategoryInput) error {
	name := strings.TrimSpace(input.Name)
	if input.ID == 0 || name == "" {
		return ErrMaterialCategoryUpdate
	}
	existing, err := s.repo.GetMaterialCategory(input.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return NotFoundError("Category not found")
	}
	count, err := s.repo.CountMaterialCategoryName(name, input.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrMaterialCategoryDup
	}
	columns := map[string]interface{}{
		"name":         name,
		"display_name": orDefault(strings.TrimSpace(input.DisplayName), name),
		"icon":         orDefault(strings.TrimSpace(input.Icon), existing.Icon),
		"description":  strings.TrimSpace(input.Description),
	}
	if input.SortOrder != nil {
		columns["sort_order"] = *input.SortOrder
	}
	return s.repo.UpdateMaterialCategory(input.ID, columns)
}

// DeleteCategory 删除物料分类，其下物料转为未分类，返回移动数量
func (s *MaterialService) DeleteCategory(ctx context.Context, id uint) (int64, error) {
	if id == 0 {
		return 0, ValidationError("id is required")
	}
	var moved int64
	err := s.transactor.Transaction(func(tx *gorm.DB) error {
		var err error
		moved, err = s.repo.WithTx(tx).DeleteMaterialCategory(id)
		return err
	})
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Infow("material_category_deleted", "category_id", id, "moved_materials", moved)
	return moved, nil
}

// ReorderCategory 与相邻分类交换排序，direction 为 up 或 down
func (s *MaterialService) ReorderCategory(id uint, direction string) error {
	direction = strings.ToLower(strings.TrimSpace(direction))
	if id == 0 || (direction != "up" && direction != "down") {
		return ErrMaterialCategoryMove
	}
	current, err := s.repo.GetMaterialCategory(id)
	if err != nil {
		return err
	}
	if current == nil {
		return NotFoundError("Category not found")
	}
	neighbour, err := s.repo.NeighbourMaterialCategory(current.SortOrder, direction == "up")
	if err != nil {
		return err
	}
	if neighbour == nil {
		return ErrMaterialCategoryEdge
	}
	return s.transactor.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateMaterialCategory(current.ID, map[string]interface{}{"sort_order": neighbour.SortOrder}); err != nil {
			return err
		}
		return repo.UpdateMaterialCategory(neighbour.ID, map[string]interface{}{"sort_order": current.SortOrder})
	})
}

// ProductMaterials 商品物料明细
func (s *MaterialService) ProductMaterials(productID uint) ([]repository.ProductMaterialRow, error) {
	if productID == 0 {
		return nil, ErrProductMaterialsRequired
	}
	rows, err := s.repo.ListProductMaterials(productID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []repository.ProductMaterialRow{}
	}
	return rows, nil
}

// SaveProductMaterials 重建商品物料并重算成本价，返回新的成本价
func (s *MaterialService) SaveProductMaterials(ctx context.Context, productID uint, materials []ProductMaterialInput) (int64, error) {
	if productID == 0 {
		return 0, ErrProductMaterialsRequired
	}
	if materials == nil {
		return 0, ErrProductMaterialsInvalid
	}
	rows := make([]models.ProductMaterial, 0, len(materials))
	for _, material := range materials {
		name := strings.TrimSpace(material.MaterialName)
		if name == "" || material.Quantity == nil {
			logger.FromContext(ctx).Warnw("product_material_skipped", "product_id", productID, "material_name", name)
			continue
		}
		rows = append(rows, models.ProductMaterial{
			MaterialName: name,
			Quantity:     models.NewDecimal(*material.Quantity),
			Unit:         strings.TrimSpace(material.Unit),
			Notes:        strings.TrimSpace(material.Notes),
		})
	}

	var costPrice int64
	err := s.transactor.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.ReplaceProductMaterials(productID, rows); err != nil {
			return err
		}
		var err error
		costPrice, err = recomputeProductCost(repo, s.productRepo.WithTx(tx), productID)
		return err
	})
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Infow("product_materials_saved", "product_id", productID, "materials", len(rows), "cost_price", costPrice)
	return costPrice, nil
}

// recomputeProductCost cost_price = round(Σ quantity × item_cost)
func recomputeProductCost(costRepo repository.CostRepository, productRepo repository.ProductRepository, productID uint) (int64, error) {
	total, err := costRepo.SumProductMaterialCost(productID)
	if err != nil {
		return 0, err
	}
	cost := int64(math.Round(total))
	if err := productRepo.UpdateCostPrice(productID, cost); err != nil {
		return 0, err
	}
	return cost, nil
}

package service

import (
	"context"
	"math"
	"strings"

	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"
	"github.com/shopvd/backoffice/internal/storage"

	"gorm.io/gorm"
)

const productSearchLimit = 50

// ProductService 商品业务服务
type ProductService struct {
	transactor   *repository.Transactor
	repo         repository.ProductRepository
	images       storage.Bucket
	imageBaseURL string
}

// NewProductService 创建商品服务，images 为空时删除商品不清理图片
func NewProductService(transactor *repository.Transactor, repo repository.ProductRepository, images storage.Bucket, imageBaseURL string) *ProductService {
	return &ProductService{
		transactor:   transactor,
		repo:         repo,
		images:       images,
		imageBaseURL: imageBaseURL,
	}
}

// ProductView 商品及其分类
type ProductView struct {
	models.Product
	Categories  []repository.ProductCategoryRow `json:"categories"`
	CategoryIDs []uint                          `json:"category_ids"`
}

// ProductInput 创建/更新商品输入，nil 字段表示不修改
type ProductInput struct {
	ID            uint
	Name          *string
	Price         *float64
	OriginalPrice *float64
	CostPrice     *float64
	CategoryID    *uint
	StockQuantity *int
	Rating        *float64
	Purchases     *int
	SKU           *string
	Description   *string
	ImageURL      *string
	IsActive      *bool
	CategoryIDs   []uint
	// CategoriesSet 为 true 时按 CategoryIDs 重建分类
	CategoriesSet bool
}

func (s *ProductService) attachCategories(products []models.Product) ([]ProductView, error) {
	views := make([]ProductView, 0, len(products))
	if len(products) == 0 {
		return views, nil
	}
	ids := make([]uint, 0, len(products))
	for _, product := range products {
		ids = append(ids, product.ID)
	}
	links, err := s.repo.ListCategoryLinks(ids)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[uint][]repository.ProductCategoryRow, len(products))
	for _, link := range links {
		byProduct[link.ProductID] = append(byProduct[link.ProductID], link)
	}
	for _, product := range products {
		view := ProductView{
			Product:     product,
			Categories:  byProduct[product.ID],
			CategoryIDs: []uint{},
		}
		if view.Categories == nil {
			view.Categories = []repository.ProductCategoryRow{}
		}
		for _, category := range view.Categories {
			view.CategoryIDs = append(view.CategoryIDs, category.ID)
		}
		views = append(views, view)
	}
	return views, nil
}

// List 在售商品列表，分类一次批量加载
func (s *ProductService) List(filter repository.ProductListFilter) ([]ProductView, int64, error) {
	products, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.attachCategories(products)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// Get 商品详情
func (s *ProductService) Get(id uint) (*ProductView, error) {
	if id == 0 {
		return nil, ErrProductIDRequired
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	views, err := s.attachCategories([]models.Product{*product})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Search 关键字为空时返回全部在售商品
func (s *ProductService) Search(keyword string) ([]ProductView, error) {
	if strings.TrimSpace(keyword) == "" {
		views, _, err := s.List(repository.ProductListFilter{OnlyActive: true})
		return views, err
	}
	products, err := s.repo.Search(keyword, productSearchLimit)
	if err != nil {
		return nil, err
	}
	return s.attachCategories(products)
}

func validPrice(value *float64) bool {
	return value == nil || (!math.IsNaN(*value) && *value >= 0)
}

func roundAmount(value float64) int64 {
	return int64(math.Round(value))
}

func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*sku)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Create 创建商品，CategoryIDs 第一个为主分类
func (s *ProductService) Create(ctx context.Context, input ProductInput) (uint, error) {
	name := ""
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
	}
	if name == "" || input.Price == nil || *input.Price == 0 {
		return 0, ErrProductNameAndPrice
	}
	if !validPrice(input.Price) || !validPrice(input.CostPrice) || !validPrice(input.OriginalPrice) {
		return 0, ErrProductPriceInvalid
	}
	sku := normalizeSKU(input.SKU)
	if sku != nil {
		exists, err := s.repo.ExistsSKU(*sku, 0)
		if err != nil {
			return 0, err
		}
		if exists {
			return 0, ErrProductSKUExists
		}
	}

	product := &models.Product{
		Name:     name,
		Price:    roundAmount(*input.Price),
		SKU:      sku,
		IsActive: true,
	}
	if input.OriginalPrice != nil {
		product.OriginalPrice = roundAmount(*input.OriginalPrice)
	}
	if input.CostPrice != nil {
		product.CostPrice = roundAmount(*input.CostPrice)
	}
	if input.StockQuantity != nil {
		product.StockQuantity = *input.StockQuantity
	}
	if input.Rating != nil {
		product.Rating = *input.Rating
	}
	if input.Purchases != nil {
		product.Purchases = *input.Purchases
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	categoryIDs := input.CategoryIDs
	if len(categoryIDs) == 0 && input.CategoryID != nil && *input.CategoryID > 0 {
		categoryIDs = []uint{*input.CategoryID}
	}
	if len(categoryIDs) > 0 {
		primary := categoryIDs[0]
		product.CategoryID = &primary
	}

	err := s.transactor.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(product); err != nil {
			if isUniqueViolation(err) {
				return ErrProductSKUExists
			}
			return err
		}
		if len(categoryIDs) == 0 {
			return nil
		}
		return repo.ReplaceCategoryLinks(product.ID, categoryIDs)
	})
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Infow("product_created", "product_id", product.ID, "name", product.Name)
	return product.ID, nil
}

// Update 按字段更新商品
func (s *ProductService) Update(ctx context.Context, input ProductInput) error {
	if input.ID == 0 {
		return ErrProductIDRequired
	}
	existing, err := s.repo.GetByID(input.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrProductNotFound
	}
	if !validPrice(input.Price) {
		return ErrProductPriceInvalid
	}
	sku := normalizeSKU(input.SKU)
	if sku != nil {
		exists, err := s.repo.ExistsSKU(*sku, input.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrProductSKUExists
		}
	}

	columns := map[string]interface{}{}
	if input.Name != nil {
		columns["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Price != nil {
		columns["price"] = roundAmount(*input.Price)
	}
	if input.OriginalPrice != nil {
		columns["original_price"] = roundAmount(*input.OriginalPrice)
	}
	if input.CostPrice != nil {
		columns["cost_price"] = roundAmount(math.Max(*input.CostPrice, 0))
	}
	if input.CategoryID != nil {
		if *input.CategoryID > 0 {
			columns["category_id"] = *input.CategoryID
		} else {
			columns["category_id"] = nil
		}
	}
	if input.StockQuantity != nil {
		columns["stock_quantity"] = *input.StockQuantity
	}
	if input.Rating != nil {
		columns["rating"] = *input.Rating
	}
	if input.Purchases != nil {
		columns["purchases"] = *input.Purchases
	}
	if input.SKU != nil {
		columns["sku"] = sku
	}
	if input.Description != nil {
		columns["description"] = strings.TrimSpace(*input.Description)
	}
	if input.ImageURL != nil {
		columns["image_url"] = strings.TrimSpace(*input.ImageURL)
	}
	if input.IsActive != nil {
		columns["is_active"] = *input.IsActive
	}
	if len(columns) == 0 && !input.CategoriesSet {
		return ErrProductNoFields
	}

	err = s.transactor.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateColumns(input.ID, columns); err != nil {
			return err
		}
		if !input.CategoriesSet {
			return nil
		}
		return repo.ReplaceCategoryLinks(input.ID, input.CategoryIDs)
	})
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("product_updated", "product_id", input.ID, "fields", len(columns))
	return nil
}

// Delete 清理对象存储中的图片后下架商品
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return ErrProductIDRequired
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	s.removeImage(ctx, product.ImageURL)
	if err := s.repo.SoftDelete(id); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("product_deleted", "product_id", id)
	return nil
}

func (s *ProductService) removeImage(ctx context.Context, imageURL string) {
	if s.images == nil || strings.TrimSpace(imageURL) == "" {
		return
	}
	key, ok := storage.KeyFromURL(s.imageBaseURL, imageURL)
	if !ok {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		logger.FromContext(ctx).Warnw("product_image_delete_failed", "key", key, "error", err)
	}
}

// ProductCategories 商品分类列表
func (s *ProductService) ProductCategories(productID uint) ([]repository.ProductCategoryRow, error) {
	if productID == 0 {
		return nil, ErrProductIDRequired
	}
	links, err := s.repo.ListCategoryLinks([]uint{productID})
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []repository.ProductCategoryRow{}
	}
	return links, nil
}

// AddCategory 追加分类
func (s *ProductService) AddCategory(productID, categoryID uint, isPrimary bool) error {
	if productID == 0 || categoryID == 0 {
		return ErrProductCategoryIDs
	}
	exists, err := s.repo.ExistsCategoryLink(productID, categoryID)
	if err != nil {
		return err
	}
	if exists {
		return ErrProductCategoryExists
	}
	return s.transactor.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.AddCategoryLink(&models.ProductCategory{
			ProductID:  productID,
			CategoryID: categoryID,
		}); err != nil {
			return err
		}
		if !isPrimary {
			return nil
		}
		return repo.SetPrimaryCategory(productID, categoryID)
	})
}

// RemoveCategory 移除分类
func (s *ProductService) RemoveCategory(productID, categoryID uint) error {
	if productID == 0 || categoryID == 0 {
		return ErrProductCategoryIDs
	}
	return s.repo.RemoveCategoryLink(productID, categoryID)
}

// SetPrimaryCategory 设置主分类
func (s *ProductService) SetPrimaryCategory(productID, categoryID uint) error {
	if productID == 0 || categoryID == 0 {
		return ErrProductCategoryIDs
	}
	return s.transactor.Transaction(func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).SetPrimaryCategory(productID, categoryID)
	})
}

// ReplaceCategories 整体替换分类
func (s *ProductService) ReplaceCategories(productID uint, categoryIDs []uint) error {
	if productID == 0 || categoryIDs == nil {
		return ErrProductCategoryListIDs
	}
	return s.transactor.Transaction(func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).ReplaceCategoryLinks(productID, categoryIDs)
	})
}

package admin

import (
	"strings"

	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	"github.com/shopvd/backoffice/internal/http/response"
	"github.com/shopvd/backoffice/internal/repository"
	"github.com/shopvd/backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAllProducts 商品列表；不带 limit 时返回全部在售商品
func (h *Handler) GetAllProducts(c *gin.Context) {
	filter := repository.ProductListFilter{
		CategoryID:   handlershared.QueryUint(c, "categoryId", "category_id"),
		Search:       strings.TrimSpace(c.Query("search")),
		OnlyActive:   c.Query("includeInactive") != "1",
		WithCategory: true,
	}
	if c.Query("limit") != "" {
		filter.Page, filter.PageSize = handlershared.NormalizePagination(
			handlershared.QueryInt(c, "page", 1),
			handlershared.QueryInt(c, "limit", 0),
		)
	}
	products, total, err := h.ProductService.List(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"products": products,
		"total":    total,
	})
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.ProductService.Get(handlershared.QueryUint(c, "id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"product": product})
}

// SearchProducts 按名称 / SKU 搜索
func (h *Handler) SearchProducts(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	products, err := h.ProductService.Search(query)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"products": products,
		"query":    query,
	})
}

type productRequest struct {
	ID            handlershared.FlexString   `json:"id"`
	Name          *string                    `json:"name"`
	Price         *handlershared.FlexNumber  `json:"price"`
	OriginalPrice *handlershared.FlexNumber  `json:"original_price"`
	CostPrice     *handlershared.FlexNumber  `json:"cost_price"`
	CategoryID    *handlershared.FlexString  `json:"category_id"`
	CategoryIDs   []handlershared.FlexString `json:"category_ids"`
	StockQuantity *handlershared.FlexNumber  `json:"stock_quantity"`
	Rating        *handlershared.FlexNumber  `json:"rating"`
	Purchases     *handlershared.FlexNumber  `json:"purchases"`
	SKU           *string                    `json:"sku"`
	Description   *string                    `json:"description"`
	ImageURL      *string                    `json:"image_url"`
	IsActive      *handlershared.FlexBool    `json:"is_active"`
}

func (r productRequest) normalize() service.ProductInput {
	input := service.ProductInput{
		ID:            r.ID.Uint(),
		Name:          handlershared.StringPtr(r.Name),
		Price:         handlershared.FloatPtr(r.Price),
		OriginalPrice: handlershared.FloatPtr(r.OriginalPrice),
		CostPrice:     handlershared.FloatPtr(r.CostPrice),
		StockQuantity: handlershared.IntPtr(r.StockQuantity),
		Rating:        handlershared.FloatPtr(r.Rating),
		Purchases:     handlershared.IntPtr(r.Purchases),
		SKU:           handlershared.StringPtr(r.SKU),
		Description:   handlershared.StringPtr(r.Description),
		ImageURL:      handlershared.StringPtr(r.ImageURL),
		IsActive:      handlershared.BoolPtr(r.IsActive),
	}
	if r.CategoryID != nil {
		id := r.CategoryID.Uint()
		input.CategoryID = &id
	}
	if r.CategoryIDs != nil {
		input.CategoryIDs = handlershared.FlexUints(r.CategoryIDs)
		input.CategoriesSet = true
	}
	return input
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req productRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.ProductService.Create(c.Request.Context(), req.normalize())
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Product created successfully", gin.H{"productId": id})
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	var req productRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.ProductService.Update(c.Request.Context(), req.normalize()); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Product updated successfully", nil)
}

// DeleteProduct 下架商品并清理图片
func (h *Handler) DeleteProduct(c *gin.Context) {
	var req productRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.ProductService.Delete(c.Request.Context(), req.ID.Uint()); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Product deleted successfully", nil)
}

// GetProductCategories 商品所属分类
func (h *Handler) GetProductCategories(c *gin.Context) {
	categories, err := h.ProductService.ProductCategories(handlershared.QueryUint(c, "productId", "product_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"categories": categories})
}

type productCategoryRequest struct {
	ProductID   handlershared.FlexString   `json:"productId"`
	CategoryID  handlershared.FlexString   `json:"categoryId"`
	CategoryIDs []handlershared.FlexString `json:"categoryIds"`
	IsPrimary   handlershared.FlexBool     `json:"isPrimary"`
}

// AddProductCategory 为商品添加分类
func (h *Handler) AddProductCategory(c *gin.Context) {
	var req productCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.ProductService.AddCategory(req.ProductID.Uint(), req.CategoryID.Uint(), bool(req.IsPrimary))
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Category added successfully", nil)
}

// RemoveProductCategory 移除商品分类
func (h *Handler) RemoveProductCategory(c *gin.Context) {
	var req productCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.ProductService.RemoveCategory(req.ProductID.Uint(), req.CategoryID.Uint()); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Category removed successfully", nil)
}

// SetPrimaryCategory 设置主分类
func (h *Handler) SetPrimaryCategory(c *gin.Context) {
	var req productCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.ProductService.SetPrimaryCategory(req.ProductID.Uint(), req.CategoryID.Uint()); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Primary category set successfully", nil)
}

// UpdateProductCategories 整体替换商品分类，第一个为主分类
func (h *Handler) UpdateProductCategories(c *gin.Context) {
	var req productCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.ProductService.ReplaceCategories(req.ProductID.Uint(), handlershared.FlexUints(req.CategoryIDs))
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Product categories updated successfully", nil)
}

package admin

import (
	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	"github.com/shopvd/backoffice/internal/http/response"
	"github.com/shopvd/backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAllMaterials 物料列表（含分类）
func (h *Handler) GetAllMaterials(c *gin.Context) {
	materials, err := h.MaterialService.ListMaterials()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"materials": materials})
}

type materialRequest struct {
	ItemName    string                    `json:"item_name"`
	OldItemName string                    `json:"old_item_name"`
	DisplayName string                    `json:"display_name"`
	ItemCost    *handlershared.FlexNumber `json:"item_cost"`
	CategoryID  *handlershared.FlexString `json:"category_id"`
}

func (r materialRequest) normalize() service.MaterialInput {
	input := service.MaterialInput{
		ItemName:    r.ItemName,
		OldItemName: r.OldItemName,
		DisplayName: r.DisplayName,
		ItemCost:    handlershared.FloatPtr(r.ItemCost),
	}
	if r.CategoryID != nil {
		id := r.CategoryID.Uint()
		input.CategoryID = &id
	}
	return input
}

// CreateMaterial 新增物料
func (h *Handler) CreateMaterial(c *gin.Context) {
	var req materialRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := h.MaterialService.CreateMaterial(c.Request.Context(), req.normalize()); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Material created successfully", nil)
}

// UpdateMaterial 更新物料，改名同步到商品物料
func (h *Handler) UpdateMaterial(c *gin.Context) {
	var req materialRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.MaterialService.UpdateMaterial(c.Request.Context(), req.normalize())
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Material updated successfully", gin.H{
		"affected_products": result.AffectedProducts,
		"item_name_changed": result.ItemNameChanged,
	})
}

// DeleteMaterial 删除未被商品使用的物料
func (h *Handler) DeleteMaterial(c *gin.Context) {
	var req materialRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.MaterialService.DeleteMaterial(c.Request.Context(), req.ItemName); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Material deleted successfully", nil)
}

// GetAllMaterialCategories 物料分类
func (h *Handler) GetAllMaterialCategories(c *gin.Context) {
	categories, err := h.MaterialService.ListCategories()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"categories": categories})
}

type materialCategoryRequest struct {
	ID          handlershared.FlexString  `json:"id"`
	Name        string                    `json:"name"`
	DisplayName string                    `json:"display_name"`
	Icon        string                    `json:"icon"`
	Description string                    `json:"description"`
	SortOrder   *handlershared.FlexNumber `json:"sort_order"`
	Direction   string                    `json:"direction"`
}

func (r materialCategoryRequest) normalize() service.MaterialCategoryInput {
	return service.MaterialCategoryInput{
		ID:          r.ID.Uint(),
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Icon:        r.Icon,
		Description: r.Description,
		SortOrder:   handlershared.IntPtr(r.SortOrder),
	}
}

// CreateMaterialCategory 新增物料分类
func (h *Handler) CreateMaterialCategory(c *gin.Context) {
	var req materialCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.MaterialService.CreateCategory(req.normalize())
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Category created successfully", gin.H{"id": category.ID})
}

// UpdateMaterialCategory 更新物料分类
func (h *Handler) UpdateMaterialCategory(c *gin.Context) {
	var req materialCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.MaterialService.UpdateCategory(req.normalize()); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Category updated successfully", nil)
}

// DeleteMaterialCategory 删除物料分类
func (h *Handler) DeleteMaterialCategory(c *gin.Context) {
	var req materialCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	moved, err := h.MaterialService.DeleteCategory(c.Request.Context(), req.ID.Uint())
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Category deleted successfully", gin.H{"moved_materials": moved})
}

// ReorderMaterialCategories 上移 / 下移物料分类
func (h *Handler) ReorderMaterialCategories(c *gin.Context) {
	var req materialCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.MaterialService.ReorderCategory(req.ID.Uint(), req.Direction); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Category reordered successfully", nil)
}

// GetProductMaterials 商品物料明细
func (h *Handler) GetProductMaterials(c *gin.Context) {
	materials, err := h.MaterialService.ProductMaterials(handlershared.QueryUint(c, "product_id", "productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"materials": materials})
}

type productMaterialRequest struct {
	MaterialName string                    `json:"material_name"`
	Quantity     *handlershared.FlexNumber `json:"quantity"`
	Unit         string                    `json:"unit"`
	Notes        string                    `json:"notes"`
}

type saveProductMaterialsRequest struct {
	ProductID handlershared.FlexString `json:"product_id"`
	Materials []productMaterialRequest `json:"materials"`
}

// SaveProductMaterials 覆盖商品物料并重算成本价
func (h *Handler) SaveProductMaterials(c *gin.Context) {
	var req saveProductMaterialsRequest
	if !bindJSON(c, &req) {
		return
	}
	var materials []service.ProductMaterialInput
	if req.Materials != nil {
		materials = make([]service.ProductMaterialInput, 0, len(req.Materials))
	}
	for _, item := range req.Materials {
		materials = append(materials, service.ProductMaterialInput{
			MaterialName: item.MaterialName,
			Quantity:     handlershared.FloatPtr(item.Quantity),
			Unit:         item.Unit,
			Notes:        item.Notes,
		})
	}
	cost, err := h.MaterialService.SaveProductMaterials(c.Request.Context(), req.ProductID.Uint(), materials)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Product materials saved successfully", gin.H{"cost_price": cost})
}

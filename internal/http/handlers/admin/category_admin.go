package admin

import (
	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	"github.com/shopvd/backoffice/internal/http/response"
	"github.com/shopvd/backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAllCategories 商品分类列表
func (h *Handler) GetAllCategories(c *gin.Context) {
	categories, err := h.CategoryService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"categories": categories})
}

// GetCategory 分类详情
func (h *Handler) GetCategory(c *gin.Context) {
	category, err := h.CategoryService.Get(handlershared.QueryUint(c, "id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"category": category})
}

type categoryRequest struct {
	ID           handlershared.FlexString  `json:"id"`
	Name         *string                   `json:"name"`
	Description  *string                   `json:"description"`
	Icon         *string                   `json:"icon"`
	Color        *string                   `json:"color"`
	DisplayOrder *handlershared.FlexNumber `json:"display_order"`
	IsActive     *handlershared.FlexBool   `json:"is_active"`
}

func (r categoryRequest) normalize() service.CategoryInput {
	return service.CategoryInput{
		ID:           r.ID.Uint(),
		Name:         handlershared.StringPtr(r.Name),
		Description:  handlershared.StringPtr(r.Description),
		Icon:         handlershared.StringPtr(r.Icon),
		Color:        handlershared.StringPtr(r.Color),
		DisplayOrder: handlershared.IntPtr(r.DisplayOrder),
		IsActive:     handlershared.BoolPtr(r.IsActive),
	}
}

// CreateCategory 创建分类
func (h *Handler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.CategoryService.Create(req.normalize())
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Category created successfully", gin.H{"categoryId": category.ID})
}

// UpdateCategory 更新分类
func (h *Handler) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := h.CategoryService.Update(req.normalize()); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Category updated successfully", nil)
}

// DeleteCategory 删除分类
func (h *Handler) DeleteCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.CategoryService.Delete(req.ID.Uint()); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Category deleted successfully", nil)
}

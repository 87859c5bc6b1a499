package service

import (
	"fmt"
	"strings"

	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"
)

// CategoryService 分类业务服务
type CategoryService struct {
	repo repository.CategoryRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// CategoryInput 创建/更新分类输入
type CategoryInput struct {
	ID           uint
	Name         *string
	Description  *string
	Icon         *string
	Color        *string
	DisplayOrder *int
	IsActive     *bool
}

func trimmedOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

// List 获取启用的分类
func (s *CategoryService) List() ([]models.Category, error) {
	categories, err := s.repo.List(true)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

// Get 分类详情
func (s *CategoryService) Get(id uint) (*models.Category, error) {
	if id == 0 {
		return nil, ErrCategoryIDRequired
	}
	category, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// Create 创建分类
func (s *CategoryService) Create(input CategoryInput) (*models.Category, error) {
	name := trimmedOrEmpty(input.Name)
	if name == "" {
		return nil, ErrCategoryNameRequired
	}
	count, err := s.repo.CountByName(name, 0)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrCategoryNameExists
	}

	category := models.Category{
		Name:        name,
		Description: trimmedOrEmpty(input.Description),
		Icon:        trimmedOrEmpty(input.Icon),
		Color:       trimmedOrEmpty(input.Color),
		IsActive:    true,
	}
	if input.DisplayOrder != nil {
		category.DisplayOrder = *input.DisplayOrder
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if err := s.repo.Create(&category); err != nil {
		return nil, err
	}
	return &category, nil
}

// Update 更新分类
func (s *CategoryService) Update(input CategoryInput) (*models.Category, error) {
	category, err := s.Get(input.ID)
	if err != nil {
		return nil, err
	}
	if name := trimmedOrEmpty(input.Name); name != "" {
		count, err := s.repo.CountByName(name, input.ID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrCategoryNameExists
		}
	}

	changed := false
	if input.Name != nil {
		category.Name = trimmedOrEmpty(input.Name)
		changed = true
	}
	if input.Description != nil {
		category.Description = trimmedOrEmpty(input.Description)
		changed = true
	}
	if input.Icon != nil {
		category.Icon = trimmedOrEmpty(input.Icon)
		changed = true
	}
	if input.Color != nil {
		category.Color = trimmedOrEmpty(input.Color)
		changed = true
	}
	if input.DisplayOrder != nil {
		category.DisplayOrder = *input.DisplayOrder
		changed = true
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
		changed = true
	}
	if !changed {
		return nil, ErrProductNoFields
	}
	if category.Name == "" {
		return nil, ErrCategoryNameRequired
	}
	if err := s.repo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete 停用分类，仍有在售商品时拒绝
func (s *CategoryService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	count, err := s.repo.CountActiveProducts(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ValidationError(fmt.Sprintf("Cannot delete category with %d active products", count))
	}
	return s.repo.SoftDelete(id)
}

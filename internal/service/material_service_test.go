package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"

	"gorm.io/gorm"
)

func setupMaterialServiceTest(t *testing.T) (*MaterialService, *gorm.DB) {
	t.Helper()
	db := setupServiceTestDB(t)
	svc := NewMaterialService(
		repository.NewTransactor(db),
		repository.NewCostRepository(db),
		repository.NewProductRepository(db),
		newTestCostService(db),
	)
	return svc, db
}

func seedProduct(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	product := &models.Product{Name: name, Price: 100000, IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product.ID
}

func TestSaveProductMaterialsRecomputesCost(t *testing.T) {
	svc, db := setupMaterialServiceTest(t)
	ctx := context.Background()
	productID := seedProduct(t, db, "Vòng dâu")

	if _, err := svc.CreateMaterial(ctx, MaterialInput{ItemName: "bead_wood", ItemCost: floatPtr(1500)}); err != nil {
		t.Fatalf("create material failed: %v", err)
	}
	if _, err := svc.CreateMaterial(ctx, MaterialInput{ItemName: "string_red", ItemCost: floatPtr(2000)}); err != nil {
		t.Fatalf("create material failed: %v", err)
	}
	if _, err := svc.CreateMaterial(ctx, MaterialInput{ItemName: "bead_wood", ItemCost: floatPtr(1)}); !errors.Is(err, ErrMaterialExists) {
		t.Fatalf("expected material exists, got %v", err)
	}

	cost, err := svc.SaveProductMaterials(ctx, productID, []ProductMaterialInput{
		{MaterialName: "bead_wood", Quantity: floatPtr(12)},
		{MaterialName: "string_red", Quantity: floatPtr(0.5)},
		{MaterialName: "", Quantity: floatPtr(3)},
	})
	if err != nil {
		t.Fatalf("save materials failed: %v", err)
	}
	if cost != 19000 {
		t.Fatalf("expected cost 19000, got %d", cost)
	}
	var product models.Product
	db.First(&product, productID)
	if product.CostPrice != 19000 {
		t.Fatalf("expected stored cost 19000, got %d", product.CostPrice)
	}

	rows, err := svc.ProductMaterials(productID)
	if err != nil || len(rows) != 2 {
		t.Fatalf("expected 2 material rows, got %d err=%v", len(rows), err)
	}
	if _, err := svc.SaveProductMaterials(ctx, productID, nil); !errors.Is(err, ErrProductMaterialsInvalid) {
		t.Fatalf("expected invalid materials, got %v", err)
	}
}

func TestUpdateMaterialRenameCascades(t *testing.T) {
	svc, db := setupMaterialServiceTest(t)
	ctx := context.Background()
	productID := seedProduct(t, db, "Vòng")

	if _, err := svc.CreateMaterial(ctx, MaterialInput{ItemName: "bead", ItemCost: floatPtr(1000)}); err != nil {
		t.Fatalf("create material failed: %v", err)
	}
	if _, err := svc.SaveProductMaterials(ctx, productID, []ProductMaterialInput{{MaterialName: "bead", Quantity: floatPtr(10)}}); err != nil {
		t.Fatalf("save materials failed: %v", err)
	}

	result, err := svc.UpdateMaterial(ctx, MaterialInput{OldItemName: "bead", ItemName: "bead_gold", ItemCost: floatPtr(1200)})
	if err != nil {
		t.Fatalf("update material failed: %v", err)
	}
	if !result.ItemNameChanged || result.AffectedProducts != 1 {
		t.Fatalf("unexpected update result: %+v", result)
	}
	var refs int64
	db.Model(&models.ProductMaterial{}).Where("material_name = ?", "bead_gold").Count(&refs)
	if refs != 1 {
		t.Fatalf("expected renamed reference, got %d", refs)
	}
	var product models.Product
	db.First(&product, productID)
	if product.CostPrice != 12000 {
		t.Fatalf("expected recomputed cost 12000, got %d", product.CostPrice)
	}

	if err := svc.DeleteMaterial(ctx, "bead_gold"); err == nil {
		t.Fatalf("expected delete blocked while used")
	}
	if _, err := svc.UpdateMaterial(ctx, MaterialInput{OldItemName: "missing", ItemName: "x", ItemCost: floatPtr(1)}); !errors.Is(err, ErrMaterialNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMaterialCategoryReorder(t *testing.T) {
	svc, _ := setupMaterialServiceTest(t)
	ctx := context.Background()

	first, err := svc.CreateCategory(MaterialCategoryInput{Name: "beads", DisplayName: "Hạt"})
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	second, err := svc.CreateCategory(MaterialCategoryInput{Name: "strings", DisplayName: "Dây"})
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	if second.SortOrder <= first.SortOrder {
		t.Fatalf("expected new category appended, got %d <= %d", second.SortOrder, first.SortOrder)
	}
	if _, err := svc.CreateCategory(MaterialCategoryInput{Name: "beads", DisplayName: "x"}); !errors.Is(err, ErrMaterialCategoryExists) {
		t.Fatalf("expected duplicate category, got %v", err)
	}
	if err := svc.ReorderCategory(first.ID, "up"); !errors.Is(err, ErrMaterialCategoryEdge) {
		t.Fatalf("expected edge error, got %v", err)
	}
	if err := svc.ReorderCategory(second.ID, "up"); err != nil {
		t.Fatalf("reorder failed: %v", err)
	}
	rows, _ := svc.ListCategories()
	if len(rows) != 2 || rows[0].ID != second.ID {
		t.Fatalf("expected %d first after reorder, got %+v", second.ID, rows)
	}

	categoryID := second.ID
	if _, err := svc.CreateMaterial(ctx, MaterialInput{ItemName: "string_red", ItemCost: floatPtr(2000), CategoryID: &categoryID}); err != nil {
		t.Fatalf("create material failed: %v", err)
	}
	moved, err := svc.DeleteCategory(ctx, second.ID)
	if err != nil || moved != 1 {
		t.Fatalf("expected 1 moved material, got %d err=%v", moved, err)
	}
}

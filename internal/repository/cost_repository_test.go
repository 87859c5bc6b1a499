package repository

import (
	"math"
	"testing"

	"github.com/shopvd/backoffice/internal/models"
)

func uintPtr(v uint) *uint {
	return &v
}

func TestCostRepositoryProductMaterialCost(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewCostRepository(db)
	products := NewProductRepository(db)

	product := &models.Product{Name: "Vòng dâu tằm", Price: 150000, IsActive: true}
	if err := products.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	for _, item := range []models.CostConfig{
		{ItemName: "hat_dau_tam", ItemCost: models.NewDecimal(2000)},
		{ItemName: "day_do", ItemCost: models.NewDecimal(1500)},
	} {
		item := item
		if err := repo.CreateItem(&item); err != nil {
			t.Fatalf("create cost item failed: %v", err)
		}
	}

	materials := []models.ProductMaterial{
		{MaterialName: "hat_dau_tam", Quantity: models.NewDecimal(10)},
		{MaterialName: "day_do", Quantity: models.NewDecimal(2)},
	}
	if err := repo.ReplaceProductMaterials(product.ID, materials); err != nil {
		t.Fatalf("save materials failed: %v", err)
	}
	total, err := repo.SumProductMaterialCost(product.ID)
	if err != nil {
		t.Fatalf("sum cost failed: %v", err)
	}
	if math.Abs(total-23000) > 0.001 {
		t.Fatalf("material cost want 23000 got %v", total)
	}

	rows, err := repo.ListProductMaterials(product.ID)
	if err != nil || len(rows) != 2 {
		t.Fatalf("list product materials want 2 got %d err=%v", len(rows), err)
	}
	if math.Abs(rows[0].Subtotal-20000) > 0.001 {
		t.Fatalf("first subtotal want 20000 got %v", rows[0].Subtotal)
	}
}

func TestCostRepositoryRenameCascades(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewCostRepository(db)
	if err := repo.CreateItem(&models.CostConfig{ItemName: "chi_do", ItemCost: models.NewDecimal(500)}); err != nil {
		t.Fatalf("create item failed: %v", err)
	}
	if err := repo.ReplaceProductMaterials(1, []models.ProductMaterial{{MaterialName: "chi_do", Quantity: models.NewDecimal(1)}}); err != nil {
		t.Fatalf("save materials failed: %v", err)
	}
	if err := repo.ReplaceProductMaterials(2, []models.ProductMaterial{{MaterialName: "chi_do", Quantity: models.NewDecimal(3)}}); err != nil {
		t.Fatalf("save materials failed: %v", err)
	}

	if err := repo.UpdateItem("chi_do", map[string]interface{}{"item_name": "chi_do_moi"}); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	affected, err := repo.RenameMaterialRefs("chi_do", "chi_do_moi")
	if err != nil {
		t.Fatalf("rename refs failed: %v", err)
	}
	if affected != 2 {
		t.Fatalf("affected products want 2 got %d", affected)
	}
	ids, err := repo.ProductIDsUsing("chi_do_moi")
	if err != nil || len(ids) != 2 {
		t.Fatalf("product ids want 2 got %v err=%v", ids, err)
	}
}

func TestCostRepositoryDeleteMaterialCategoryMovesItems(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewCostRepository(db)
	category := &models.MaterialCategory{Name: "packaging", DisplayName: "Đóng gói", SortOrder: 1}
	if err := repo.CreateMaterialCategory(category); err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	if err := repo.CreateItem(&models.CostConfig{ItemName: "hop_qua", ItemCost: models.NewDecimal(3000), CategoryID: uintPtr(category.ID)}); err != nil {
		t.Fatalf("create item failed: %v", err)
	}

	rows, err := repo.ListMaterialCategories()
	if err != nil || len(rows) != 1 || rows[0].MaterialCount != 1 {
		t.Fatalf("material count want 1 got %+v err=%v", rows, err)
	}

	moved, err := repo.DeleteMaterialCategory(category.ID)
	if err != nil {
		t.Fatalf("delete category failed: %v", err)
	}
	if moved != 1 {
		t.Fatalf("moved want 1 got %d", moved)
	}
	item, _ := repo.GetByItemName("hop_qua")
	if item == nil || item.CategoryID != nil {
		t.Fatalf("item should be uncategorised: %+v", item)
	}
}

func TestCostRepositoryUpsertItem(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewCostRepository(db)
	if err := repo.UpsertItem(&models.CostConfig{ItemName: "tax_rate", ItemCost: models.NewDecimal(0.015), IsDefault: true}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := repo.UpsertItem(&models.CostConfig{ItemName: "tax_rate", ItemCost: models.NewDecimal(0.02), IsDefault: true}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	items, err := repo.ListConfig()
	if err != nil || len(items) != 1 {
		t.Fatalf("config rows want 1 got %d err=%v", len(items), err)
	}
	if items[0].ItemCost.InexactFloat64() != 0.02 {
		t.Fatalf("tax rate want 0.02 got %s", items[0].ItemCost.String())
	}
}

func TestCostRepositoryNeighbourCategory(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewCostRepository(db)
	for i, name := range []string{"a", "b", "c"} {
		if err := repo.CreateMaterialCategory(&models.MaterialCategory{Name: name, DisplayName: name, SortOrder: i + 1}); err != nil {
			t.Fatalf("create category failed: %v", err)
		}
	}
	up, err := repo.NeighbourMaterialCategory(2, true)
	if err != nil || up == nil || up.Name != "a" {
		t.Fatalf("up neighbour want a got %+v err=%v", up, err)
	}
	down, err := repo.NeighbourMaterialCategory(3, false)
	if err != nil || down != nil {
		t.Fatalf("last category has no lower neighbour, got %+v", down)
	}
}

package repository

import (
	"testing"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/models"
)

func TestDiscountRepositoryIncrementUsageRespectsCap(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewDiscountRepository(db)
	discount := &models.Discount{
		Code:          "SALE10",
		Type:          constants.DiscountTypeFixed,
		DiscountValue: 10000,
		MaxTotalUses:  2,
		Active:        true,
	}
	if err := repo.Create(discount); err != nil {
		t.Fatalf("create discount failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		affected, err := repo.IncrementUsage(discount.ID, 10000)
		if err != nil || affected != 1 {
			t.Fatalf("increment %d want 1 row got %d err=%v", i, affected, err)
		}
	}
	affected, err := repo.IncrementUsage(discount.ID, 10000)
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("capped discount must not be incremented, affected=%d", affected)
	}

	got, _ := repo.GetByCode("sale10")
	if got.UsageCount != 2 || got.TotalDiscountAmount != 20000 {
		t.Fatalf("usage want 2/20000 got %d/%d", got.UsageCount, got.TotalDiscountAmount)
	}
}

func TestDiscountRepositoryUnlimitedUsage(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewDiscountRepository(db)
	discount := &models.Discount{Code: "FREESHIP", Type: constants.DiscountTypeFreeship, Active: true}
	if err := repo.Create(discount); err != nil {
		t.Fatalf("create discount failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if affected, err := repo.IncrementUsage(discount.ID, 0); err != nil || affected != 1 {
			t.Fatalf("unlimited increment should always succeed: %d %v", affected, err)
		}
	}
}

func TestDiscountRepositoryUsageHistoryJoinsOrders(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewDiscountRepository(db)
	orders := NewOrderRepository(db)
	discount := &models.Discount{Code: "VIP4567-12", Title: "Mã cá nhân", Type: constants.DiscountTypeFixed, Active: true}
	if err := repo.Create(discount); err != nil {
		t.Fatalf("create discount failed: %v", err)
	}
	createTestOrder(t, orders, "DH100", "", 0)
	usage := &models.DiscountUsage{
		DiscountID:     discount.ID,
		DiscountCode:   discount.Code,
		OrderCode:      "DH100",
		CustomerPhone:  "0901234567",
		OrderAmount:    220000,
		DiscountAmount: 10000,
	}
	if err := repo.CreateUsage(usage); err != nil {
		t.Fatalf("create usage failed: %v", err)
	}

	count, err := repo.CountUsageByPhone("vip4567-12", "0901234567")
	if err != nil || count != 1 {
		t.Fatalf("usage by phone want 1 got %d err=%v", count, err)
	}
	rows, err := repo.ListUsageHistory(0)
	if err != nil {
		t.Fatalf("list usage failed: %v", err)
	}
	if len(rows) != 1 || rows[0].DiscountTitle != "Mã cá nhân" {
		t.Fatalf("unexpected usage rows: %+v", rows)
	}
	if rows[0].OrderTotalAmount == nil || *rows[0].OrderTotalAmount != 220000 {
		t.Fatalf("order total should be joined from orders: %+v", rows[0])
	}

	taken, err := repo.ExistsCode("VIP4567-12", discount.ID)
	if err != nil || taken {
		t.Fatalf("own code should not count as taken")
	}
}

package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createTestOrder(t *testing.T, repo *GormOrderRepository, code, referral string, commission int64) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderCode:     code,
		CustomerName:  "Nguyễn Văn A",
		CustomerPhone: "0901234567",
		Address:       "12 Lê Lợi, Quận 1",
		TotalAmount:   220000,
		PaymentMethod: constants.PaymentMethodCOD,
		Status:        constants.OrderStatusPending,
		ReferralCode:  referral,
		Commission:    commission,
		ShippingFee:   20000,
		Items: []models.OrderItem{
			{ProductName: "Vòng dâu tằm", ProductPrice: 100000, ProductCost: 40000, Quantity: 2},
		},
	}
	if err := repo.Create(order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestOrderRepositoryCreateAndLoadItems(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrderRepository(db)
	created := createTestOrder(t, repo, "DH001", "", 0)

	if created.CreatedAtUnix == 0 || created.Items[0].CreatedAtUnix == 0 {
		t.Fatalf("expected unix timestamps to be filled")
	}
	got, err := repo.GetByCodeWithItems("DH001")
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got == nil || len(got.Items) != 1 {
		t.Fatalf("expected order with one item, got %+v", got)
	}
	if got.ProductRevenue() != 200000 {
		t.Fatalf("product revenue want 200000 got %d", got.ProductRevenue())
	}

	missing, err := repo.GetByCode("NOPE")
	if err != nil || missing != nil {
		t.Fatalf("missing order should return nil,nil got %v %v", missing, err)
	}
}

func TestOrderRepositoryReplaceItems(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrderRepository(db)
	order := createTestOrder(t, repo, "DH002", "", 0)

	items := []models.OrderItem{
		{ProductName: "Vòng bạc", ProductPrice: 150000, Quantity: 1},
		{ProductName: "Túi gấm", ProductPrice: 10000, Quantity: 3},
	}
	if err := repo.ReplaceItems(order.ID, items); err != nil {
		t.Fatalf("replace items failed: %v", err)
	}
	got, err := repo.GetByCodeWithItems("DH002")
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items want 2 got %d", len(got.Items))
	}
	if got.ProductRevenue() != 180000 {
		t.Fatalf("product revenue want 180000 got %d", got.ProductRevenue())
	}
	var count int64
	db.Model(&models.OrderItem{}).Count(&count)
	if count != 2 {
		t.Fatalf("old items should be removed, total rows %d", count)
	}
}

func TestOrderRepositoryListFiltersAndPriority(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrderRepository(db)
	createTestOrder(t, repo, "DH010", "", 0)
	priority := createTestOrder(t, repo, "DH011", "", 0)
	if err := repo.UpdateColumns(priority.ID, map[string]interface{}{"is_priority": true}); err != nil {
		t.Fatalf("update priority failed: %v", err)
	}
	shipped := createTestOrder(t, repo, "DH012", "", 0)
	if err := repo.UpdateColumns(shipped.ID, map[string]interface{}{"status": constants.OrderStatusShipped}); err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	orders, total, err := repo.List(OrderListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || orders[0].OrderCode != "DH011" {
		t.Fatalf("priority order should come first, total=%d first=%s", total, orders[0].OrderCode)
	}

	_, total, err = repo.List(OrderListFilter{Status: constants.OrderStatusShipped})
	if err != nil || total != 1 {
		t.Fatalf("status filter want 1 got %d err=%v", total, err)
	}
	_, total, err = repo.List(OrderListFilter{Search: "DH01"})
	if err != nil || total != 3 {
		t.Fatalf("search want 3 got %d err=%v", total, err)
	}
}

func TestOrderRepositoryMarkCommissionPaidOnlyOnce(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrderRepository(db)
	createTestOrder(t, repo, "DH020", "CTV001", 20000)
	createTestOrder(t, repo, "DH021", "CTV001", 20000)
	createTestOrder(t, repo, "DH022", "CTV002", 5000)

	unpaid, err := repo.ListUnpaidCommission("CTV001")
	if err != nil || len(unpaid) != 2 {
		t.Fatalf("unpaid want 2 got %d err=%v", len(unpaid), err)
	}
	affected, err := repo.MarkCommissionPaid("CTV001", []string{"DH020", "DH022"}, 7)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("only the CTV001 order should be stamped, affected=%d", affected)
	}
	affected, err = repo.MarkCommissionPaid("CTV001", []string{"DH020"}, 8)
	if err != nil || affected != 0 {
		t.Fatalf("paid order must not be stamped twice, affected=%d err=%v", affected, err)
	}
	unpaid, _ = repo.ListUnpaidCommission("")
	if len(unpaid) != 2 {
		t.Fatalf("unpaid across all CTV want 2 got %d", len(unpaid))
	}
}

func TestOrderRepositoryMarkExportedShipped(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrderRepository(db)
	pending := createTestOrder(t, repo, "DH030", "", 0)
	delivered := createTestOrder(t, repo, "DH031", "", 0)
	_ = repo.UpdateColumns(pending.ID, map[string]interface{}{"is_priority": true})
	_ = repo.UpdateColumns(delivered.ID, map[string]interface{}{"status": constants.OrderStatusDelivered, "is_priority": true})

	updated, err := repo.MarkExportedShipped([]string{"DH030", "DH031"})
	if err != nil {
		t.Fatalf("mark exported failed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("updated want 1 got %d", updated)
	}
	got, _ := repo.GetByCode("DH031")
	if got.Status != constants.OrderStatusDelivered || got.IsPriority {
		t.Fatalf("delivered order should keep status and drop priority: %+v", got)
	}
	got, _ = repo.GetByCode("DH030")
	if got.Status != constants.OrderStatusShipped || got.IsPriority {
		t.Fatalf("pending order should be shipped without priority: %+v", got)
	}
}

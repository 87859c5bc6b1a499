//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.DiscountUsage{},
		&models.Discount{},
		&models.OrderItem{},
		&models.Order{},
		&models.AddressLearning{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(cleanupModels...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresOrderSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewOrderRepository(db)
	order := &models.Order{
		OrderCode:     "DH-PG-001",
		CustomerName:  "Nguyễn Thị Hoa",
		CustomerPhone: "0901234567",
		TotalAmount:   120000,
		Status:        constants.OrderStatusPending,
		Items:         []models.OrderItem{{ProductName: "Vòng", ProductPrice: 100000, Quantity: 1}},
	}
	if err := repo.Create(order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	rows, total, err := repo.List(OrderListFilter{Page: 1, PageSize: 10, Search: "nguyễn thị"})
	if err != nil {
		t.Fatalf("order search failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("ILIKE search want 1 got total=%d len=%d", total, len(rows))
	}
}

func TestPostgresDiscountCapUnderTransactions(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewDiscountRepository(db)
	discount := &models.Discount{Code: "PGCAP", Type: constants.DiscountTypeFixed, MaxTotalUses: 1, Active: true}
	if err := repo.Create(discount); err != nil {
		t.Fatalf("create discount failed: %v", err)
	}

	results := make(chan int64, 4)
	for i := 0; i < 4; i++ {
		go func() {
			var affected int64
			_ = db.Transaction(func(tx *gorm.DB) error {
				n, err := repo.WithTx(tx).IncrementUsage(discount.ID, 1000)
				affected = n
				return err
			})
			results <- affected
		}()
	}
	var total int64
	timeout := time.After(10 * time.Second)
	for i := 0; i < 4; i++ {
		select {
		case n := <-results:
			total += n
		case <-timeout:
			t.Fatalf("timeout waiting for concurrent increments")
		}
	}
	if total != 1 {
		t.Fatalf("only one redemption may win, got %d", total)
	}
}

func TestPostgresAddressUpsert(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewAddressLearningRepository(db)
	for i := 0; i < 3; i++ {
		if err := repo.Upsert("xom dong", "D9", "W9", "Phường 9"); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}
	got, err := repo.FindExact("xom dong", "D9")
	if err != nil || got == nil || got.MatchCount != 3 {
		t.Fatalf("match count want 3 got %+v err=%v", got, err)
	}
}

package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopvd/backoffice/internal/cache"
	"github.com/shopvd/backoffice/internal/config"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newTestCostService(db *gorm.DB) *CostService {
	return NewCostService(repository.NewCostRepository(db), cache.Null{}, config.CostingConfig{
		PackagingCategoryID: 5,
		DefaultTaxRate:      0.015,
	})
}

// recordingDispatcher 记录派发调用，供断言
type recordingDispatcher struct {
	mu            sync.Mutex
	created       []string
	statusChanges []string
	sheets        []string
}

func (d *recordingDispatcher) OrderCreated(_ context.Context, orderCode string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.created = append(d.created, orderCode)
}

func (d *recordingDispatcher) OrderStatusChanged(_ context.Context, orderCode, oldStatus, newStatus string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statusChanges = append(d.statusChanges, orderCode+":"+oldStatus+"->"+newStatus)
}

func (d *recordingDispatcher) SheetsSync(_ context.Context, action string, _ interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sheets = append(d.sheets, action)
}

func seedTestCTV(t *testing.T, db *gorm.DB, code, phone string, rate float64) *models.CTV {
	t.Helper()
	ctv := &models.CTV{
		FullName:       "Trần Thị B",
		Phone:          phone,
		City:           "Hà Nội",
		ReferralCode:   code,
		Status:         "Mới",
		CommissionRate: models.NewDecimal(rate),
	}
	if err := db.Create(ctv).Error; err != nil {
		t.Fatalf("create ctv failed: %v", err)
	}
	return ctv
}

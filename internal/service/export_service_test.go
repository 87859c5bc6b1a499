package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"
	"github.com/shopvd/backoffice/internal/storage"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func setupExportServiceTest(t *testing.T) (*ExportService, *gorm.DB) {
	t.Helper()
	db := setupServiceTestDB(t)
	bucket, err := storage.NewLocal(t.TempDir(), "")
	if err != nil {
		t.Fatalf("local bucket failed: %v", err)
	}
	svc := NewExportService(repository.NewExportRepository(db), repository.NewOrderRepository(db), bucket)
	svc.now = func() time.Time { return time.Date(2026, 4, 2, 3, 0, 0, 0, time.UTC) }
	return svc, db
}

func seedExportOrder(t *testing.T, db *gorm.DB, code, status string) {
	t.Helper()
	order := &models.Order{
		OrderCode:     code,
		CustomerName:  "Lê Văn C",
		CustomerPhone: "0987654321",
		Address:       "12 Lý Thường Kiệt, Hà Nội",
		TotalAmount:   150000,
		Status:        status,
		PaymentMethod: constants.PaymentMethodCOD,
		IsPriority:    true,
		CreatedAtUnix: models.NowMillis(),
		Items:         []models.OrderItem{{ProductName: "Vòng dâu", ProductPrice: 150000, Quantity: 1}},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
}

func TestExportSaveAndDownload(t *testing.T) {
	svc, db := setupExportServiceTest(t)
	ctx := context.Background()
	seedExportOrder(t, db, "DH100", constants.OrderStatusPending)
	seedExportOrder(t, db, "DH101", constants.OrderStatusDelivered)

	if _, err := svc.Save(ctx, []string{" ", ""}); !errors.Is(err, ErrExportOrdersEmpty) {
		t.Fatalf("expected empty orders error, got %v", err)
	}
	if _, err := svc.Save(ctx, []string{"NOPE"}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}

	result, err := svc.Save(ctx, []string{"DH100", "DH101", "DH100"})
	if err != nil {
		t.Fatalf("save export failed: %v", err)
	}
	if result.OrderCount != 2 || result.FileName != "SPX_DonHang_20260402_2don.xlsx" {
		t.Fatalf("unexpected result: %+v", result)
	}

	history, err := svc.History()
	if err != nil || len(history) != 1 || history[0].Status != constants.ExportStatusPending {
		t.Fatalf("unexpected history: %+v err=%v", history, err)
	}
	if !strings.HasPrefix(history[0].FilePath, "exports/") {
		t.Fatalf("unexpected key %s", history[0].FilePath)
	}

	download, err := svc.Download(ctx, result.ExportID)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	raw, err := io.ReadAll(download.Body)
	_ = download.Body.Close()
	if err != nil {
		t.Fatalf("read body failed: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open workbook failed: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Tạo đơn")
	if err != nil || len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d err=%v", len(rows), err)
	}
	if len(download.OrderIDs) != 2 {
		t.Fatalf("unexpected order ids %v", download.OrderIDs)
	}
}

func TestExportMarkDownloadedAndDelete(t *testing.T) {
	svc, db := setupExportServiceTest(t)
	ctx := context.Background()
	seedExportOrder(t, db, "DH200", constants.OrderStatusPending)
	seedExportOrder(t, db, "DH201", constants.OrderStatusDelivered)

	result, err := svc.Save(ctx, []string{"DH200", "DH201"})
	if err != nil {
		t.Fatalf("save export failed: %v", err)
	}
	updated, err := svc.MarkDownloaded(ctx, result.ExportID)
	if err != nil || updated != 1 {
		t.Fatalf("expected 1 shipped order, got %d err=%v", updated, err)
	}
	var order models.Order
	db.Where("order_id = ?", "DH200").First(&order)
	if order.Status != constants.OrderStatusShipped || order.IsPriority {
		t.Fatalf("unexpected order after download: %+v", order)
	}
	var record models.ExportHistory
	db.First(&record, result.ExportID)
	if record.Status != constants.ExportStatusDownloaded || record.DownloadedAt == 0 {
		t.Fatalf("unexpected export record: %+v", record)
	}

	if err := svc.Delete(ctx, result.ExportID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.Download(ctx, result.ExportID); !errors.Is(err, ErrExportNotFound) {
		t.Fatalf("expected export not found, got %v", err)
	}
	if err := svc.Delete(ctx, 0); !errors.Is(err, ErrExportIDRequired) {
		t.Fatalf("expected id required, got %v", err)
	}
}

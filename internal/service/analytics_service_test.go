package service

import (
	"testing"
	"time"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"

	"gorm.io/gorm"
)

func setupAnalyticsServiceTest(t *testing.T, now time.Time) (*AnalyticsService, *gorm.DB) {
	t.Helper()
	db := setupServiceTestDB(t)
	svc := NewAnalyticsService(repository.NewAnalyticsRepository(db))
	svc.now = func() time.Time { return now }
	return svc, db
}

// seedAnalyticsOrder 单商品订单：total = price*qty + shipping
func seedAnalyticsOrder(t *testing.T, db *gorm.DB, code string, at time.Time, price, cost int64, qty int, shippingCost, commission int64) {
	t.Helper()
	order := &models.Order{
		OrderCode:     code,
		CustomerName:  "Khách",
		CustomerPhone: "0912345678",
		TotalAmount:   price * int64(qty),
		ShippingCost:  shippingCost,
		Commission:    commission,
		Status:        constants.OrderStatusDelivered,
		PaymentMethod: constants.PaymentMethodCOD,
		CreatedAtUnix: at.UnixMilli(),
		OrderDate:     at.UnixMilli(),
		Items: []models.OrderItem{{
			ProductName:   "Vòng " + code,
			ProductPrice:  price,
			ProductCost:   cost,
			Quantity:      qty,
			CreatedAtUnix: at.UnixMilli(),
		}},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
}

func TestPeriodStartUsesVietnamOffset(t *testing.T) {
	// 2026-03-18 20:00 UTC = 2026-03-19 03:00 ICT (Thursday)
	now := time.Date(2026, 3, 18, 20, 0, 0, 0, time.UTC)

	today := periodStart(constants.PeriodToday, now)
	if today.Day() != 19 || today.Hour() != 0 {
		t.Fatalf("expected VN midnight of 19th, got %v", today)
	}
	week := periodStart(constants.PeriodWeek, now)
	if week.Weekday() != time.Monday || week.Day() != 16 {
		t.Fatalf("expected monday 16th, got %v", week)
	}
	month := periodStart(constants.PeriodMonth, now)
	if month.Day() != 1 || month.Month() != time.March {
		t.Fatalf("expected march 1st, got %v", month)
	}
	if !periodStart(constants.PeriodAll, now).IsZero() {
		t.Fatalf("expected zero start for all")
	}
}

func TestProfitOverview(t *testing.T) {
	now := time.Date(2026, 3, 19, 10, 0, 0, 0, VNLocation)
	svc, db := setupAnalyticsServiceTest(t, now)
	seedAnalyticsOrder(t, db, "A1", now.Add(-time.Hour), 100000, 40000, 2, 20000, 10000)
	seedAnalyticsOrder(t, db, "A2", now.AddDate(0, -2, 0), 50000, 20000, 1, 0, 0)

	overview, err := svc.ProfitOverview(constants.PeriodToday, "")
	if err != nil {
		t.Fatalf("profit overview failed: %v", err)
	}
	summary := overview.Overview
	if summary.TotalOrders != 1 || summary.TotalRevenue != 200000 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	// cost = 80000 product + 20000 shipping + 10000 commission
	if summary.TotalCost != 110000 || summary.TotalProfit != 90000 {
		t.Fatalf("unexpected cost/profit: %+v", summary)
	}
	if summary.ProfitMargin != 45 || summary.AvgProfitPerProduct != 45000 {
		t.Fatalf("unexpected ratios: %+v", summary)
	}

	all, err := svc.ProfitOverview(constants.PeriodAll, "")
	if err != nil || all.Overview.TotalOrders != 2 || all.StartDate != 0 {
		t.Fatalf("unexpected all overview: %+v err=%v", all, err)
	}
}

func TestRevenueChartWeek(t *testing.T) {
	now := time.Date(2026, 3, 19, 10, 0, 0, 0, VNLocation)
	svc, db := setupAnalyticsServiceTest(t, now)
	monday := time.Date(2026, 3, 16, 9, 0, 0, 0, VNLocation)
	seedAnalyticsOrder(t, db, "W1", monday, 100000, 50000, 1, 0, 0)
	seedAnalyticsOrder(t, db, "W2", monday.AddDate(0, 0, 2), 100000, 50000, 2, 0, 0)
	seedAnalyticsOrder(t, db, "P1", monday.AddDate(0, 0, -7), 100000, 50000, 1, 0, 0)

	chart, err := svc.RevenueChart(constants.PeriodWeek, "", "")
	if err != nil {
		t.Fatalf("revenue chart failed: %v", err)
	}
	if len(chart.Labels) != 7 || chart.Labels[0] != "T2" {
		t.Fatalf("unexpected labels: %v", chart.Labels)
	}
	if chart.CurrentPeriod.Revenue[0] != 100000 || chart.CurrentPeriod.Revenue[2] != 200000 {
		t.Fatalf("unexpected current buckets: %v", chart.CurrentPeriod.Revenue)
	}
	if chart.PreviousPeriod.Total.Orders != 1 || chart.PreviousPeriod.Revenue[0] != 100000 {
		t.Fatalf("unexpected previous period: %+v", chart.PreviousPeriod)
	}
	if chart.Comparison.RevenueChange != 200 || chart.Comparison.OrdersChange != 100 {
		t.Fatalf("unexpected comparison: %+v", chart.Comparison)
	}
	if chart.CurrentPeriod.Total.Profit != 150000 {
		t.Fatalf("expected profit 150000, got %d", chart.CurrentPeriod.Total.Profit)
	}
}

func TestRevenueChartMonthLabels(t *testing.T) {
	now := time.Date(2026, 2, 10, 10, 0, 0, 0, VNLocation)
	svc, _ := setupAnalyticsServiceTest(t, now)
	chart, err := svc.RevenueChart(constants.PeriodMonth, "", "")
	if err != nil {
		t.Fatalf("revenue chart failed: %v", err)
	}
	if len(chart.Labels) != 28 {
		t.Fatalf("expected 28 labels for february, got %d", len(chart.Labels))
	}
	if _, err := svc.RevenueChart(constants.PeriodAll, "2026-02-10", "2026-02-01"); err == nil {
		t.Fatalf("expected invalid range error")
	}
}

func TestTopProductsAndDashboard(t *testing.T) {
	now := time.Date(2026, 3, 19, 10, 0, 0, 0, VNLocation)
	svc, db := setupAnalyticsServiceTest(t, now)
	seedAnalyticsOrder(t, db, "T1", now.Add(-time.Hour), 100000, 60000, 3, 0, 0)
	seedAnalyticsOrder(t, db, "T2", now.Add(-2*time.Hour), 80000, 20000, 1, 0, 0)
	seedTestCTV(t, db, "CTV001", "0911111111", 0.1)

	top, err := svc.TopProducts(0, constants.PeriodMonth, "")
	if err != nil {
		t.Fatalf("top products failed: %v", err)
	}
	if len(top.Products) != 2 || top.Products[0].TotalSold != 3 {
		t.Fatalf("unexpected ranking: %+v", top.Products)
	}
	if top.Products[0].ProfitMargin != 40 || top.Products[1].ProfitMargin != 75 {
		t.Fatalf("unexpected margins: %v / %v", top.Products[0].ProfitMargin, top.Products[1].ProfitMargin)
	}

	stats, err := svc.Dashboard()
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if stats.TotalCTV != 1 || stats.TotalOrders != 2 || stats.TotalRevenue != 380000 {
		t.Fatalf("unexpected dashboard: %+v", stats)
	}
}

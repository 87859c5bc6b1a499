package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/events"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/notify"
	"github.com/shopvd/backoffice/internal/queue"
	"github.com/shopvd/backoffice/internal/repository"

	"gorm.io/gorm"
)

type recordingMessenger struct {
	mu    sync.Mutex
	texts []string
}

func (m *recordingMessenger) SendHTML(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	envs []events.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, env events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envs = append(p.envs, env)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type channelSheets struct {
	calls chan string
}

func (s *channelSheets) Sync(_ context.Context, action string, _ json.RawMessage) error {
	s.calls <- action
	return nil
}

func newTestNotificationService(db *gorm.DB, messenger notify.Messenger, sheets notify.SheetsSyncer, publisher events.Publisher) *NotificationService {
	return NewNotificationService(
		repository.NewOrderRepository(db),
		repository.NewCTVRepository(db),
		repository.NewAnalyticsRepository(db),
		messenger,
		sheets,
		publisher,
		"Shop Test",
		21,
	)
}

func TestFormatOrderMessageEscapesHTML(t *testing.T) {
	svc := newTestNotificationService(setupServiceTestDB(t), nil, nil, nil)
	order := &models.Order{
		OrderCode:     "DH001",
		CustomerName:  "<b>An & Bình",
		CustomerPhone: "0912345678",
		Address:       "12 Lê Lợi",
		TotalAmount:   220000,
		PaymentMethod: constants.PaymentMethodCOD,
		ReferralCode:  "CTV001",
		Commission:    22000,
		OrderDate:     time.Date(2026, 1, 2, 3, 4, 0, 0, VNLocation).UnixMilli(),
		Items:         []models.OrderItem{{ProductName: "Vòng dâu", Quantity: 2, Size: "5kg"}},
	}
	text := svc.FormatOrderMessage(order, "Trần B")
	for _, want := range []string{
		"&lt;b&gt;An &amp; Bình",
		"💰 <b>Tổng tiền: 220.000đ</b>",
		"COD (Thanh toán khi nhận)",
		"02/01/2026 03:04",
		"Cân nặng: 5kg",
		"👤 Partner: Trần B",
		"💰 Hoa hồng: <b>22.000đ</b>",
		"🏪 <i>Shop Test</i>",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("message missing %q:\n%s", want, text)
		}
	}
}

func TestNotifyNewOrderAndPublish(t *testing.T) {
	db := setupServiceTestDB(t)
	messenger := &recordingMessenger{}
	publisher := &recordingPublisher{}
	svc := newTestNotificationService(db, messenger, nil, publisher)
	ctx := context.Background()
	now := time.Now()
	seedAnalyticsOrder(t, db, "DH500", now, 100000, 40000, 1, 0, 0)

	if err := svc.NotifyNewOrder(ctx, "DH500"); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if err := svc.NotifyNewOrder(ctx, "MISSING"); err != nil {
		t.Fatalf("missing order should be skipped, got %v", err)
	}
	if len(messenger.texts) != 1 || !strings.Contains(messenger.texts[0], "DH500") {
		t.Fatalf("unexpected messages: %v", messenger.texts)
	}

	if err := svc.PublishOrderEvent(ctx, queue.OrderEventPayload{Event: constants.EventOrderCreated, OrderCode: "DH500"}); err != nil {
		t.Fatalf("publish created failed: %v", err)
	}
	if err := svc.PublishOrderEvent(ctx, queue.OrderEventPayload{
		Event:     constants.EventOrderStatusChanged,
		OrderCode: "DH500",
		OldStatus: constants.OrderStatusPending,
		Status:    constants.OrderStatusShipped,
	}); err != nil {
		t.Fatalf("publish status failed: %v", err)
	}
	if err := svc.PublishOrderEvent(ctx, queue.OrderEventPayload{Event: "Weird", OrderCode: "DH500"}); err == nil {
		t.Fatalf("expected unknown event error")
	}
	if len(publisher.envs) != 2 {
		t.Fatalf("expected 2 envelopes, got %d", len(publisher.envs))
	}
	var created events.OrderCreatedPayload
	if err := json.Unmarshal(publisher.envs[0].Payload, &created); err != nil || created.TotalAmount != 100000 {
		t.Fatalf("unexpected created payload: %+v err=%v", created, err)
	}
	if publisher.envs[1].EventType != constants.EventOrderStatusChanged || publisher.envs[1].CorrelationID != "DH500" {
		t.Fatalf("unexpected status envelope: %+v", publisher.envs[1])
	}
}

func TestBuildDailyReport(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := newTestNotificationService(db, &recordingMessenger{}, nil, nil)
	day := time.Date(2026, 3, 19, 0, 0, 0, 0, VNLocation)

	seedAnalyticsOrder(t, db, "Y1", day.Add(-5*time.Hour), 100000, 40000, 1, 0, 0)
	seedAnalyticsOrder(t, db, "T1", day.Add(9*time.Hour), 100000, 40000, 2, 0, 0)
	seedAnalyticsOrder(t, db, "T2", day.Add(20*time.Hour), 50000, 20000, 1, 0, 0)
	db.Model(&models.Order{}).Where("order_id = ?", "T2").Updates(map[string]interface{}{
		"customer_phone": "0987000111",
		"referral_code":  "CTV001",
		"commission":     5000,
	})

	report, err := svc.BuildDailyReport(day.Add(12 * time.Hour))
	if err != nil {
		t.Fatalf("build report failed: %v", err)
	}
	if report.Date != "19/03/2026" || report.TodayCount != 2 || report.TodayRevenue != 250000 {
		t.Fatalf("unexpected totals: %+v", report)
	}
	if report.YesterdayCount != 1 || report.RevenueChange != 150 || report.OrderChange != 100 {
		t.Fatalf("unexpected comparison: %+v", report)
	}
	if report.NewCustomers != 1 || report.CTVOrders != 1 || report.TotalCommission != 5000 {
		t.Fatalf("unexpected customer/ctv stats: %+v", report)
	}
	if report.TodayAvg != 125000 || report.LatestOrders[0].OrderCode != "T2" {
		t.Fatalf("unexpected avg/latest: %+v", report)
	}

	text := svc.FormatDailyReport(report)
	if !strings.Contains(text, "📈 +150%") || !strings.Contains(text, "⏰ Báo cáo tự động lúc 21:00") {
		t.Fatalf("unexpected report text:\n%s", text)
	}
}

func TestPercentChangeAndTrend(t *testing.T) {
	if percentChange(50, 0) != 0 {
		t.Fatalf("expected 0 for zero base")
	}
	if got := percentChange(2, 3); got != -33.3 {
		t.Fatalf("expected -33.3, got %v", got)
	}
	if got := trendText(-33.3); got != "📉 -33.3%" {
		t.Fatalf("unexpected trend %q", got)
	}
}

func TestGoroutineDispatcherRunsSheetsSync(t *testing.T) {
	db := setupServiceTestDB(t)
	sheets := &channelSheets{calls: make(chan string, 1)}
	notifier := newTestNotificationService(db, nil, sheets, nil)
	dispatcher := NewTaskDispatcher(nil, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	dispatcher.SheetsSync(ctx, constants.SheetsActionRegisterCTV, map[string]string{"referralCode": "CTV001"})
	cancel()

	select {
	case action := <-sheets.calls:
		if action != constants.SheetsActionRegisterCTV {
			t.Fatalf("unexpected action %s", action)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("sheets sync was not dispatched")
	}
}

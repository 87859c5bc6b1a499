package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/events"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/notify"
	"github.com/shopvd/backoffice/internal/queue"
	"github.com/shopvd/backoffice/internal/repository"
)

const reportSeparator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// NotificationService 订单通知、表格同步、事件发布与日报
type NotificationService struct {
	orderRepo     repository.OrderRepository
	ctvRepo       repository.CTVRepository
	analyticsRepo repository.AnalyticsRepository
	messenger     notify.Messenger
	sheets        notify.SheetsSyncer
	publisher     events.Publisher
	shopName      string
	reportHour    int
}

// NewNotificationService 创建通知服务，messenger / sheets / publisher 均可为空
func NewNotificationService(
	orderRepo repository.OrderRepository,
	ctvRepo repository.CTVRepository,
	analyticsRepo repository.AnalyticsRepository,
	messenger notify.Messenger,
	sheets notify.SheetsSyncer,
	publisher events.Publisher,
	shopName string,
	reportHour int,
) *NotificationService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &NotificationService{
		orderRepo:     orderRepo,
		ctvRepo:       ctvRepo,
		analyticsRepo: analyticsRepo,
		messenger:     messenger,
		sheets:        sheets,
		publisher:     publisher,
		shopName:      orDefault(shopName, "Vòng Dâu Tằm By Ánh"),
		reportHour:    reportHour,
	}
}

// ReportHour 日报发送时刻（越南时间），负数表示关闭
func (s *NotificationService) ReportHour() int {
	if s == nil || s.messenger == nil {
		return -1
	}
	return s.reportHour
}

// NotifyNewOrder 发送新订单 Telegram 消息
func (s *NotificationService) NotifyNewOrder(ctx context.Context, orderCode string) error {
	log := logger.FromContext(ctx)
	if s.messenger == nil {
		log.Debugw("telegram_notify_skip_disabled", "order_id", orderCode)
		return nil
	}
	order, err := s.orderRepo.GetByCodeWithItems(orderCode)
	if err != nil {
		return err
	}
	if order == nil {
		log.Warnw("telegram_notify_skip_order_not_found", "order_id", orderCode)
		return nil
	}

	partner := ""
	if order.ReferralCode != "" {
		ctv, err := s.ctvRepo.GetByReferralCode(order.ReferralCode)
		if err != nil {
			log.Warnw("telegram_notify_ctv_lookup_failed", "referral_code", order.ReferralCode, "error", err)
		} else if ctv != nil {
			partner = ctv.FullName
		}
	}

	if err := s.messenger.SendHTML(ctx, s.FormatOrderMessage(order, partner)); err != nil {
		log.Warnw("telegram_send_failed", "order_id", orderCode, "error", err)
		return err
	}
	log.Infow("telegram_order_notified", "order_id", orderCode)
	return nil
}

// FormatOrderMessage 新订单 HTML 消息
func (s *NotificationService) FormatOrderMessage(order *models.Order, partner string) string {
	var b strings.Builder
	b.WriteString("🔔 <b>ĐƠN HÀNG MỚI</b>\n")
	b.WriteString(reportSeparator + "\n\n")

	orderAt := order.OrderDate
	if orderAt == 0 {
		orderAt = order.CreatedAtUnix
	}
	b.WriteString("📋 <b>THÔNG TIN ĐƠN HÀNG</b>\n")
	fmt.Fprintf(&b, "🆔 Mã đơn: <code>%s</code>\n", html.EscapeString(order.OrderCode))
	fmt.Fprintf(&b, "📅 Thời gian: %s\n", time.UnixMilli(orderAt).In(VNLocation).Format("02/01/2006 15:04"))
	fmt.Fprintf(&b, "💰 <b>Tổng tiền: %s</b>\n", FormatVND(order.TotalAmount))
	fmt.Fprintf(&b, "💳 Thanh toán: %s\n\n", paymentMethodText(order.PaymentMethod))

	b.WriteString("👤 <b>KHÁCH HÀNG</b>\n")
	fmt.Fprintf(&b, "📝 Tên: %s\n", html.EscapeString(order.CustomerName))
	fmt.Fprintf(&b, "📞 SĐT: <code>%s</code>\n", html.EscapeString(order.CustomerPhone))
	fmt.Fprintf(&b, "📍 Địa chỉ: %s\n", html.EscapeString(orDefault(order.Address, "Chưa có")))
	if notes := strings.TrimSpace(order.Notes); notes != "" {
		fmt.Fprintf(&b, "💬 Ghi chú: <i>%s</i>\n", html.EscapeString(notes))
	}
	b.WriteString("\n")

	b.WriteString("🛍️ <b>CHI TIẾT SẢN PHẨM</b>\n")
	if len(order.Items) == 0 {
		b.WriteString("Không có sản phẩm\n")
	}
	for i, item := range order.Items {
		fmt.Fprintf(&b, "%d. <b>%s</b>\n", i+1, html.EscapeString(item.ProductName))
		fmt.Fprintf(&b, "   • SL: %d", item.Quantity)
		if size := strings.TrimSpace(item.Size); size != "" && size != "Không có" {
			fmt.Fprintf(&b, " | Cân nặng: %s", html.EscapeString(size))
		}
		b.WriteString("\n")
		if notes := strings.TrimSpace(item.Notes); notes != "" {
			fmt.Fprintf(&b, "   📝 <i>%s</i>\n", html.EscapeString(notes))
		}
		if i < len(order.Items)-1 {
			b.WriteString("\n")
		}
	}

	if code := strings.TrimSpace(order.ReferralCode); code != "" {
		b.WriteString("\n🤝 <b>REFERRAL</b>\n")
		fmt.Fprintf(&b, "📋 Mã: <code>%s</code>\n", html.EscapeString(code))
		if partner != "" {
			fmt.Fprintf(&b, "👤 Partner: %s\n", html.EscapeString(partner))
		}
		if order.Commission > 0 {
			fmt.Fprintf(&b, "💰 Hoa hồng: <b>%s</b>\n", FormatVND(order.Commission))
		}
	}

	b.WriteString("\n" + reportSeparator + "\n")
	fmt.Fprintf(&b, "🏪 <i>%s</i>", html.EscapeString(s.shopName))
	return b.String()
}

func paymentMethodText(method string) string {
	switch method {
	case constants.PaymentMethodCOD:
		return "COD (Thanh toán khi nhận)"
	case constants.PaymentMethodBankTransfer:
		return "Chuyển khoản ngân hàng"
	default:
		return orDefault(method, "Không xác định")
	}
}

// SyncSheets 推送到 Google Sheets
func (s *NotificationService) SyncSheets(ctx context.Context, action string, data json.RawMessage) error {
	if s.sheets == nil {
		logger.FromContext(ctx).Debugw("sheets_sync_skip_disabled", "action", action)
		return nil
	}
	if err := s.sheets.Sync(ctx, action, data); err != nil {
		logger.FromContext(ctx).Warnw("sheets_sync_failed", "action", action, "error", err)
		return err
	}
	return nil
}

// PublishOrderEvent 发布订单事件
func (s *NotificationService) PublishOrderEvent(ctx context.Context, payload queue.OrderEventPayload) error {
	at := time.Now()
	if payload.OccurredAt > 0 {
		at = time.UnixMilli(payload.OccurredAt)
	}

	var body interface{}
	switch payload.Event {
	case constants.EventOrderCreated:
		order, err := s.orderRepo.GetByCode(payload.OrderCode)
		if err != nil {
			return err
		}
		if order == nil {
			logger.FromContext(ctx).Warnw("order_event_skip_order_not_found", "order_id", payload.OrderCode)
			return nil
		}
		body = events.OrderCreatedPayload{
			OrderID:      order.OrderCode,
			TotalAmount:  order.TotalAmount,
			ReferralCode: order.ReferralCode,
			Commission:   order.Commission,
			DiscountCode: order.DiscountCode,
		}
	case constants.EventOrderStatusChanged:
		body = events.OrderStatusChangedPayload{
			OrderID:   payload.OrderCode,
			OldStatus: payload.OldStatus,
			NewStatus: payload.Status,
		}
	default:
		return fmt.Errorf("unknown order event %q", payload.Event)
	}

	env, err := events.NewEnvelope(payload.Event, payload.OrderCode, body, at)
	if err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, env); err != nil {
		logger.FromContext(ctx).Warnw("order_event_publish_failed",
			"order_id", payload.OrderCode,
			"event", payload.Event,
			"error", err,
		)
		return err
	}
	return nil
}

// DailyReport 日报数据
type DailyReport struct {
	Date             string
	TodayCount       int
	TodayRevenue     int64
	TodayAvg         int64
	YesterdayCount   int
	YesterdayRevenue int64
	RevenueChange    float64
	OrderChange      float64
	TopProducts      []repository.ItemSalesRow
	NewCustomers     int
	CTVOrders        int
	TotalCommission  int64
	LatestOrders     []models.Order
}

// BuildDailyReport 汇总某个越南自然日的数据
func (s *NotificationService) BuildDailyReport(day time.Time) (*DailyReport, error) {
	start := startOfVNDay(day)
	end := start.Add(24 * time.Hour)
	yesterday := start.Add(-24 * time.Hour)

	todayOrders, err := s.analyticsRepo.ListOrdersInWindow(repository.TimeRange{StartMs: start.UnixMilli(), EndMs: end.UnixMilli()})
	if err != nil {
		return nil, err
	}
	yesterdayOrders, err := s.analyticsRepo.ListOrdersInWindow(repository.TimeRange{StartMs: yesterday.UnixMilli(), EndMs: start.UnixMilli()})
	if err != nil {
		return nil, err
	}
	top, err := s.analyticsRepo.TopItemsByName(repository.TimeRange{StartMs: start.UnixMilli(), EndMs: end.UnixMilli()}, 5)
	if err != nil {
		return nil, err
	}

	report := &DailyReport{
		Date:           start.Format("02/01/2006"),
		TodayCount:     len(todayOrders),
		YesterdayCount: len(yesterdayOrders),
		TopProducts:    top,
	}
	for _, order := range todayOrders {
		report.TodayRevenue += order.TotalAmount
		if order.ReferralCode != "" {
			report.CTVOrders++
		}
		report.TotalCommission += order.Commission

		prior, err := s.analyticsRepo.CountCustomerOrdersBefore(order.CustomerPhone, order.CreatedAtUnix)
		if err != nil {
			return nil, err
		}
		if prior == 0 {
			report.NewCustomers++
		}
	}
	for _, order := range yesterdayOrders {
		report.YesterdayRevenue += order.TotalAmount
	}
	if report.TodayCount > 0 {
		report.TodayAvg = roundDiv(report.TodayRevenue, int64(report.TodayCount))
	}
	report.RevenueChange = percentChange(float64(report.TodayRevenue), float64(report.YesterdayRevenue))
	report.OrderChange = percentChange(float64(report.TodayCount), float64(report.YesterdayCount))
	if len(todayOrders) > 5 {
		todayOrders = todayOrders[:5]
	}
	report.LatestOrders = todayOrders
	return report, nil
}

// FormatDailyReport 日报 HTML 消息
func (s *NotificationService) FormatDailyReport(r *DailyReport) string {
	var b strings.Builder
	b.WriteString("📊 <b>BÁO CÁO CUỐI NGÀY</b>\n")
	fmt.Fprintf(&b, "📅 %s\n", r.Date)
	b.WriteString(reportSeparator + "\n\n")

	b.WriteString("💰 <b>TỔNG QUAN</b>\n")
	fmt.Fprintf(&b, "📦 Đơn hàng: <b>%d</b> %s\n", r.TodayCount, trendText(r.OrderChange))
	fmt.Fprintf(&b, "💵 Doanh thu: <b>%s</b> %s\n", FormatVND(r.TodayRevenue), trendText(r.RevenueChange))
	fmt.Fprintf(&b, "📊 TB/đơn: <b>%s</b>\n\n", FormatVND(r.TodayAvg))

	b.WriteString("📉 <b>SO VỚI HÔM QUA</b>\n")
	fmt.Fprintf(&b, "Đơn hàng: %d → %d\n", r.YesterdayCount, r.TodayCount)
	fmt.Fprintf(&b, "Doanh thu: %s → %s\n\n", FormatVND(r.YesterdayRevenue), FormatVND(r.TodayRevenue))

	if len(r.TopProducts) > 0 {
		b.WriteString("🏆 <b>TOP SẢN PHẨM BÁN CHẠY</b>\n")
		for i, p := range r.TopProducts {
			fmt.Fprintf(&b, "%d. %s\n", i+1, html.EscapeString(p.ProductName))
			fmt.Fprintf(&b, "   • Đã bán: %d sản phẩm (%d đơn)\n", p.TotalQty, p.OrderCount)
		}
		b.WriteString("\n")
	}
	if r.NewCustomers > 0 {
		b.WriteString("🌟 <b>KHÁCH HÀNG MỚI</b>\n")
		fmt.Fprintf(&b, "Có <b>%d</b> khách hàng mới hôm nay!\n\n", r.NewCustomers)
	}
	if r.CTVOrders > 0 {
		b.WriteString("🤝 <b>CỘNG TÁC VIÊN</b>\n")
		fmt.Fprintf(&b, "Đơn từ CTV: <b>%d</b>\n", r.CTVOrders)
		fmt.Fprintf(&b, "Tổng hoa hồng: <b>%s</b>\n\n", FormatVND(r.TotalCommission))
	}
	if len(r.LatestOrders) > 0 {
		b.WriteString("📋 <b>5 ĐƠN HÀNG GẦN NHẤT</b>\n")
		for i, o := range r.LatestOrders {
			fmt.Fprintf(&b, "%d. <code>%s</code> - %s\n", i+1, html.EscapeString(o.OrderCode), html.EscapeString(o.CustomerName))
			fmt.Fprintf(&b, "   💰 %s\n", FormatVND(o.TotalAmount))
		}
		b.WriteString("\n")
	}

	b.WriteString(reportSeparator + "\n")
	fmt.Fprintf(&b, "🏪 <i>%s</i>\n", html.EscapeString(s.shopName))
	fmt.Fprintf(&b, "⏰ Báo cáo tự động lúc %02d:00", s.reportHour)
	return b.String()
}

// SendDailyReport 生成并发送日报，date 为空取越南当天
func (s *NotificationService) SendDailyReport(ctx context.Context, date string) error {
	log := logger.FromContext(ctx)
	if s.messenger == nil {
		log.Debugw("daily_report_skip_disabled")
		return nil
	}
	day := vnNow()
	if date = strings.TrimSpace(date); date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", date, VNLocation)
		if err != nil {
			return fmt.Errorf("invalid report date %q: %w", date, err)
		}
		day = parsed
	}
	report, err := s.BuildDailyReport(day)
	if err != nil {
		return err
	}
	if err := s.messenger.SendHTML(ctx, s.FormatDailyReport(report)); err != nil {
		log.Warnw("daily_report_send_failed", "date", report.Date, "error", err)
		return err
	}
	log.Infow("daily_report_sent", "date", report.Date, "orders", report.TodayCount)
	return nil
}

func trendText(change float64) string {
	icon, sign := "📈", "+"
	if change < 0 {
		icon, sign = "📉", ""
	}
	return fmt.Sprintf("%s %s%s%%", icon, sign, strconv.FormatFloat(change, 'f', -1, 64))
}

// percentChange 环比百分比，保留 1 位小数；基数为 0 时返回 0
func percentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return round1((current - previous) / previous * 100)
}

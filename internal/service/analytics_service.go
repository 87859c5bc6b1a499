package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	defaultTopProductsLimit = 10
	topPerformersLimit      = 5
	chartGroupHour          = "hour"
	chartGroupDay           = "day"
	chartGroupMonth         = "month"
)

var monthLabels = []string{"T1", "T2", "T3", "T4", "T5", "T6", "T7", "T8", "T9", "T10", "T11", "T12"}

// AnalyticsService 统计报表，时间窗均按 UTC+7 计算
type AnalyticsService struct {
	repo repository.AnalyticsRepository
	now  func() time.Time
}

// NewAnalyticsService 创建统计服务
func NewAnalyticsService(repo repository.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo, now: vnNow}
}

// DashboardStats 概览
type DashboardStats struct {
	TotalCTV        int64                         `json:"totalCTV"`
	TotalOrders     int64                         `json:"totalOrders"`
	TotalRevenue    int64                         `json:"totalRevenue"`
	TotalCommission int64                         `json:"totalCommission"`
	TopPerformers   []repository.ReferralStatsRow `json:"topPerformers"`
}

// ProfitSummary 利润汇总
type ProfitSummary struct {
	TotalOrders         int64   `json:"total_orders"`
	TotalProductsSold   int64   `json:"total_products_sold"`
	TotalRevenue        int64   `json:"total_revenue"`
	ProductRevenue      int64   `json:"product_revenue"`
	ShippingFee         int64   `json:"shipping_fee"`
	TotalCost           int64   `json:"total_cost"`
	ProductCost         int64   `json:"product_cost"`
	ShippingCost        int64   `json:"shipping_cost"`
	PackagingCost       int64   `json:"packaging_cost"`
	Commission          int64   `json:"commission"`
	Tax                 int64   `json:"tax"`
	TotalProfit         int64   `json:"total_profit"`
	ProfitMargin        float64 `json:"profit_margin"`
	AvgOrderValue       float64 `json:"avg_order_value"`
	AvgProfitPerProduct float64 `json:"avg_profit_per_product"`
}

// ProfitOverview 某时间段的利润概览
type ProfitOverview struct {
	Period    string        `json:"period"`
	StartDate int64         `json:"startDate"`
	Overview  ProfitSummary `json:"overview"`
}

// ChartTotals 图表合计
type ChartTotals struct {
	Revenue int64 `json:"revenue"`
	Profit  int64 `json:"profit"`
	Orders  int64 `json:"orders"`
}

// ChartSeries 单个时间段的分桶数据
type ChartSeries struct {
	Revenue []int64     `json:"revenue"`
	Profit  []int64     `json:"profit"`
	Orders  []int64     `json:"orders"`
	Total   ChartTotals `json:"total"`
}

// ChartComparison 环比
type ChartComparison struct {
	RevenueChange float64 `json:"revenueChange"`
	ProfitChange  float64 `json:"profitChange"`
	OrdersChange  float64 `json:"ordersChange"`
}

// RevenueChart 收入图表
type RevenueChart struct {
	Period         string          `json:"period"`
	Labels         []string        `json:"labels"`
	CurrentPeriod  ChartSeries     `json:"currentPeriod"`
	PreviousPeriod ChartSeries     `json:"previousPeriod"`
	Comparison     ChartComparison `json:"comparison"`
}

// TopProduct 商品排行
type TopProduct struct {
	repository.ProductRankingRow
	ProfitMargin float64 `json:"profit_margin"`
}

// TopProducts 商品排行结果
type TopProducts struct {
	Period    string       `json:"period"`
	StartDate int64        `json:"startDate"`
	Products  []TopProduct `json:"products"`
}

// ParseAnalyticsTime 支持毫秒时间戳、RFC3339 和 YYYY-MM-DD（按 UTC+7 当天 0 点）
func ParseAnalyticsTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).In(VNLocation), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(VNLocation), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, VNLocation); err == nil {
		return t, nil
	}
	return time.Time{}, ValidationError(fmt.Sprintf("Invalid date: %s", raw))
}

// periodStart 命名时间段的起点；all 返回零值
func periodStart(period string, now time.Time) time.Time {
	today := startOfVNDay(now)
	switch period {
	case constants.PeriodToday:
		return today
	case constants.PeriodWeek:
		return mondayOf(today)
	case constants.PeriodMonth:
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, VNLocation)
	case constants.PeriodYear:
		return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, VNLocation)
	default:
		return time.Time{}
	}
}

func mondayOf(day time.Time) time.Time {
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return day.AddDate(0, 0, -offset)
}

func windowFrom(start time.Time) repository.TimeRange {
	if start.IsZero() {
		return repository.TimeRange{}
	}
	return repository.TimeRange{StartMs: start.UnixMilli()}
}

func (s *AnalyticsService) resolveStart(period, customStart string) (string, time.Time, error) {
	period = orDefault(strings.TrimSpace(period), constants.PeriodAll)
	if strings.TrimSpace(customStart) != "" {
		start, err := ParseAnalyticsTime(customStart)
		return period, start, err
	}
	return period, periodStart(period, s.now()), nil
}

// ratio a*scale/b 保留 2 位小数，b 为 0 返回 0
func ratio(a, b int64, scale int64) float64 {
	if b == 0 {
		return 0
	}
	return decimal.NewFromInt(a).Mul(decimal.NewFromInt(scale)).
		Div(decimal.NewFromInt(b)).Round(2).InexactFloat64()
}

// Dashboard 全量概览，收入 = 商品合计 + 运费
func (s *AnalyticsService) Dashboard() (*DashboardStats, error) {
	totals, err := s.repo.GetTotals()
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopReferrers(topPerformersLimit)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []repository.ReferralStatsRow{}
	}
	return &DashboardStats{
		TotalCTV:        totals.TotalCTV,
		TotalOrders:     totals.TotalOrders,
		TotalRevenue:    totals.ProductRevenue + totals.TotalShippingFee,
		TotalCommission: totals.TotalCommission,
		TopPerformers:   top,
	}, nil
}

// ProfitOverview 利润概览：利润 = 订单额 - 商品成本 - 运费成本 - 包装 - 佣金 - 税
func (s *AnalyticsService) ProfitOverview(period, customStart string) (*ProfitOverview, error) {
	period, start, err := s.resolveStart(period, customStart)
	if err != nil {
		return nil, err
	}
	row, err := s.repo.GetOrderSummary(windowFrom(start))
	if err != nil {
		return nil, err
	}
	summary := ProfitSummary{
		TotalOrders:       row.TotalOrders,
		TotalProductsSold: row.TotalProductsSold,
		TotalRevenue:      row.TotalRevenue,
		ProductRevenue:    row.ProductRevenue,
		ShippingFee:       row.TotalShippingFee,
		ProductCost:       row.ProductCost,
		ShippingCost:      row.TotalShippingCost,
		PackagingCost:     row.TotalPackagingCost,
		Commission:        row.TotalCommission,
		Tax:               row.TotalTax,
	}
	summary.TotalCost = summary.ProductCost + summary.ShippingCost + summary.PackagingCost + summary.Commission + summary.Tax
	summary.TotalProfit = summary.TotalRevenue - summary.TotalCost
	summary.ProfitMargin = ratio(summary.TotalProfit, summary.TotalRevenue, 100)
	summary.AvgOrderValue = ratio(summary.TotalRevenue, summary.TotalOrders, 1)
	summary.AvgProfitPerProduct = ratio(summary.TotalProfit, summary.TotalProductsSold, 1)

	startMs := int64(0)
	if !start.IsZero() {
		startMs = start.UnixMilli()
	}
	return &ProfitOverview{Period: period, StartDate: startMs, Overview: summary}, nil
}

// TopProducts 按销量排行
func (s *AnalyticsService) TopProducts(limit int, period, customStart string) (*TopProducts, error) {
	if limit <= 0 {
		limit = defaultTopProductsLimit
	}
	period, start, err := s.resolveStart(period, customStart)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.GetTopProducts(windowFrom(start), limit)
	if err != nil {
		return nil, err
	}
	products := make([]TopProduct, 0, len(rows))
	for _, row := range rows {
		row.AvgPrice = round2(row.AvgPrice)
		products = append(products, TopProduct{
			ProductRankingRow: row,
			ProfitMargin:      ratio(row.TotalProfit, row.TotalRevenue, 100),
		})
	}
	startMs := int64(0)
	if !start.IsZero() {
		startMs = start.UnixMilli()
	}
	return &TopProducts{Period: period, StartDate: startMs, Products: products}, nil
}

type chartLayout struct {
	currentStart  time.Time
	currentEnd    time.Time
	previousStart time.Time
	groupBy       string
	labels        []string
}

func numberedLabels(n int, format string) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf(format, i)
	}
	return labels
}

func (s *AnalyticsService) chartLayout(period, startRaw, endRaw string) (chartLayout, error) {
	now := s.now()
	today := startOfVNDay(now)
	var layout chartLayout

	if period == constants.PeriodAll && strings.TrimSpace(startRaw) != "" && strings.TrimSpace(endRaw) != "" {
		start, err := ParseAnalyticsTime(startRaw)
		if err != nil {
			return layout, err
		}
		end, err := ParseAnalyticsTime(endRaw)
		if err != nil {
			return layout, err
		}
		if !end.After(start) {
			return layout, ValidationError("endDate phải sau startDate")
		}
		duration := end.Sub(start)
		layout.currentStart, layout.currentEnd = start, end
		layout.previousStart = start.Add(-duration)
		days := int((duration + 24*time.Hour - 1) / (24 * time.Hour))
		switch {
		case days <= 1:
			layout.groupBy, layout.labels = chartGroupHour, numberedLabels(24, "%dh")
		case days <= 365:
			if days > 31 {
				days = 31
			}
			layout.groupBy, layout.labels = chartGroupDay, dayLabels(days)
		default:
			layout.groupBy, layout.labels = chartGroupMonth, monthLabels
		}
		return layout, nil
	}

	switch period {
	case constants.PeriodToday:
		layout.currentStart = today
		layout.currentEnd = today.AddDate(0, 0, 1)
		layout.previousStart = today.AddDate(0, 0, -1)
		layout.groupBy, layout.labels = chartGroupHour, numberedLabels(24, "%dh")
	case constants.PeriodWeek:
		monday := mondayOf(today)
		layout.currentStart = monday
		layout.currentEnd = monday.AddDate(0, 0, 7)
		layout.previousStart = monday.AddDate(0, 0, -7)
		layout.groupBy = chartGroupDay
		layout.labels = []string{"T2", "T3", "T4", "T5", "T6", "T7", "CN"}
	case constants.PeriodMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, VNLocation)
		layout.currentStart = first
		layout.currentEnd = first.AddDate(0, 1, 0)
		layout.previousStart = first.AddDate(0, -1, 0)
		layout.groupBy = chartGroupDay
		layout.labels = dayLabels(int(layout.currentEnd.Sub(first).Hours() / 24))
	case constants.PeriodYear:
		first := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, VNLocation)
		layout.currentStart = first
		layout.currentEnd = first.AddDate(1, 0, 0)
		layout.previousStart = first.AddDate(-1, 0, 0)
		layout.groupBy, layout.labels = chartGroupMonth, monthLabels
	default:
		firstMs, err := s.repo.FirstOrderAt()
		if err != nil {
			return layout, err
		}
		start := now.AddDate(-1, 0, 0)
		if firstMs > 0 {
			start = time.UnixMilli(firstMs).In(VNLocation)
		}
		layout.currentStart = start
		layout.currentEnd = now.Add(time.Millisecond)
		layout.previousStart = start
		layout.groupBy, layout.labels = chartGroupMonth, monthLabels
	}
	return layout, nil
}

func dayLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}
	return labels
}

func newChartSeries(n int) ChartSeries {
	return ChartSeries{
		Revenue: make([]int64, n),
		Profit:  make([]int64, n),
		Orders:  make([]int64, n),
	}
}

func (l chartLayout) bucket(at, base time.Time) int {
	last := len(l.labels) - 1
	var index int
	switch l.groupBy {
	case chartGroupHour:
		index = int(at.Sub(base) / time.Hour)
	case chartGroupDay:
		index = int(at.Sub(base) / (24 * time.Hour))
	default:
		index = int(at.In(VNLocation).Month()) - int(base.In(VNLocation).Month())
		if index < 0 {
			index += 12
		}
	}
	if index < 0 {
		return 0
	}
	if index > last {
		return last
	}
	return index
}

func chartChange(current, previous int64) float64 {
	if previous <= 0 {
		return 0
	}
	return round1(float64(current-previous) / float64(previous) * 100)
}

// RevenueChart 当前时间段与上一时间段的分桶收入、利润、订单数
func (s *AnalyticsService) RevenueChart(period, startRaw, endRaw string) (*RevenueChart, error) {
	period = orDefault(strings.TrimSpace(period), constants.PeriodWeek)
	layout, err := s.chartLayout(period, startRaw, endRaw)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListOrderProfitRows(repository.TimeRange{
		StartMs: layout.previousStart.UnixMilli(),
		EndMs:   layout.currentEnd.UnixMilli(),
	})
	if err != nil {
		return nil, err
	}

	current := newChartSeries(len(layout.labels))
	previous := newChartSeries(len(layout.labels))
	currentStartMs := layout.currentStart.UnixMilli()
	for _, row := range rows {
		at := time.UnixMilli(row.CreatedAtUnix).In(VNLocation)
		series, base := &previous, layout.previousStart
		if row.CreatedAtUnix >= currentStartMs {
			series, base = &current, layout.currentStart
		}
		index := layout.bucket(at, base)
		profit := row.Profit()
		series.Revenue[index] += row.Revenue
		series.Profit[index] += profit
		series.Orders[index]++
		series.Total.Revenue += row.Revenue
		series.Total.Profit += profit
		series.Total.Orders++
	}

	return &RevenueChart{
		Period:         period,
		Labels:         layout.labels,
		CurrentPeriod:  current,
		PreviousPeriod: previous,
		Comparison: ChartComparison{
			RevenueChange: chartChange(current.Total.Revenue, previous.Total.Revenue),
			ProfitChange:  chartChange(current.Total.Profit, previous.Total.Profit),
			OrdersChange:  chartChange(current.Total.Orders, previous.Total.Orders),
		},
	}, nil
}

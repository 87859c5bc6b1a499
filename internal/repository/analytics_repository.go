package repository

import (
	"github.com/shopvd/backoffice/internal/models"

	"gorm.io/gorm"
)

// AnalyticsRepository 统计聚合查询接口
// 说明：仅聚合原始数据，利润与分桶在服务层计算。
type AnalyticsRepository interface {
	GetTotals() (DashboardTotalsRow, error)
	TopReferrers(limit int) ([]ReferralStatsRow, error)
	GetOrderSummary(window TimeRange) (OrderSummaryRow, error)
	ListOrderProfitRows(window TimeRange) ([]OrderProfitRow, error)
	GetTopProducts(window TimeRange, limit int) ([]ProductRankingRow, error)
	FirstOrderAt() (int64, error)
	ListOrdersInWindow(window TimeRange) ([]models.Order, error)
	TopItemsByName(window TimeRange, limit int) ([]ItemSalesRow, error)
	CountCustomerOrdersBefore(phone string, beforeMs int64) (int64, error)
}

// ItemSalesRow 按商品名聚合的销量
type ItemSalesRow struct {
	ProductName string
	TotalQty    int64
	OrderCount  int64
}

// DashboardTotalsRow 全量统计
type DashboardTotalsRow struct {
	TotalCTV         int64
	TotalOrders      int64
	TotalCommission  int64
	TotalShippingFee int64
	ProductRevenue   int64
}

// OrderSummaryRow 时间窗内订单汇总
type OrderSummaryRow struct {
	TotalOrders        int64
	TotalRevenue       int64
	TotalShippingFee   int64
	TotalShippingCost  int64
	TotalCommission    int64
	TotalPackagingCost int64
	TotalTax           int64
	TotalProductsSold  int64
	ProductRevenue     int64
	ProductCost        int64
}

// OrderProfitRow 单个订单的收入与成本
type OrderProfitRow struct {
	CreatedAtUnix int64
	Revenue       int64
	ProductCost   int64
	ShippingCost  int64
	PackagingCost int64
	Commission    int64
	TaxAmount     int64
}

// Profit 订单利润
func (r OrderProfitRow) Profit() int64 {
	return r.Revenue - r.ProductCost - r.ShippingCost - r.PackagingCost - r.Commission - r.TaxAmount
}

// ProductRankingRow 商品排行原始行
type ProductRankingRow struct {
	ProductID    *uint   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	TotalSold    int64   `json:"total_sold"`
	TotalRevenue int64   `json:"total_revenue"`
	TotalCost    int64   `json:"total_cost"`
	TotalProfit  int64   `json:"total_profit"`
	AvgPrice     float64 `json:"avg_price"`
	OrderCount   int64   `json:"order_count"`
}

// GormAnalyticsRepository GORM 实现
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository 创建统计仓库
func NewAnalyticsRepository(db *gorm.DB) *GormAnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

func applyWindow(query *gorm.DB, column string, window TimeRange) *gorm.DB {
	if window.StartMs > 0 {
		query = query.Where(column+" >= ?", window.StartMs)
	}
	if window.EndMs > 0 {
		query = query.Where(column+" < ?", window.EndMs)
	}
	return query
}

// GetTotals 获取全量统计
func (r *GormAnalyticsRepository) GetTotals() (DashboardTotalsRow, error) {
	result := DashboardTotalsRow{}
	if err := r.db.Model(&models.CTV{}).Count(&result.TotalCTV).Error; err != nil {
		return result, err
	}

	type orderRow struct {
		TotalOrders      int64
		TotalCommission  int64
		TotalShippingFee int64
	}
	var orders orderRow
	if err := r.db.Model(&models.Order{}).
		Select("COUNT(*) AS total_orders, COALESCE(SUM(commission), 0) AS total_commission, COALESCE(SUM(shipping_fee), 0) AS total_shipping_fee").
		Scan(&orders).Error; err != nil {
		return result, err
	}
	result.TotalOrders = orders.TotalOrders
	result.TotalCommission = orders.TotalCommission
	result.TotalShippingFee = orders.TotalShippingFee

	if err := r.db.Model(&models.OrderItem{}).
		Select("COALESCE(SUM(product_price * quantity), 0)").
		Scan(&result.ProductRevenue).Error; err != nil {
		return result, err
	}
	return result, nil
}

// TopReferrers 按订单额排名的推荐码
func (r *GormAnalyticsRepository) TopReferrers(limit int) ([]ReferralStatsRow, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []ReferralStatsRow
	err := r.db.Model(&models.Order{}).
		Select("referral_code, COUNT(*) AS order_count, COALESCE(SUM(total_amount), 0) AS total_revenue, COALESCE(SUM(commission), 0) AS total_commission").
		Where("referral_code IS NOT NULL AND referral_code <> ''").
		Group("referral_code").
		Order("total_revenue desc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// GetOrderSummary 时间窗内的订单与商品汇总
func (r *GormAnalyticsRepository) GetOrderSummary(window TimeRange) (OrderSummaryRow, error) {
	result := OrderSummaryRow{}
	orderQuery := applyWindow(r.db.Model(&models.Order{}), "created_at_unix", window)
	if err := orderQuery.Select(`COUNT(*) AS total_orders,
			COALESCE(SUM(total_amount), 0) AS total_revenue,
			COALESCE(SUM(shipping_fee), 0) AS total_shipping_fee,
			COALESCE(SUM(shipping_cost), 0) AS total_shipping_cost,
			COALESCE(SUM(commission), 0) AS total_commission,
			COALESCE(SUM(packaging_cost), 0) AS total_packaging_cost,
			COALESCE(SUM(tax_amount), 0) AS total_tax`).
		Scan(&result).Error; err != nil {
		return result, err
	}

	type itemRow struct {
		TotalProductsSold int64
		ProductRevenue    int64
		ProductCost       int64
	}
	var items itemRow
	itemQuery := applyWindow(r.db.Table("order_items AS oi").Joins("JOIN orders o ON oi.order_id = o.id"), "o.created_at_unix", window)
	if err := itemQuery.Select(`COALESCE(SUM(oi.quantity), 0) AS total_products_sold,
			COALESCE(SUM(oi.product_price * oi.quantity), 0) AS product_revenue,
			COALESCE(SUM(oi.product_cost * oi.quantity), 0) AS product_cost`).
		Scan(&items).Error; err != nil {
		return result, err
	}
	result.TotalProductsSold = items.TotalProductsSold
	result.ProductRevenue = items.ProductRevenue
	result.ProductCost = items.ProductCost
	return result, nil
}

// ListOrderProfitRows 时间窗内每个订单的收入与成本
func (r *GormAnalyticsRepository) ListOrderProfitRows(window TimeRange) ([]OrderProfitRow, error) {
	query := r.db.Table("orders AS o").
		Select(`o.created_at_unix, o.total_amount AS revenue,
			COALESCE(SUM(oi.product_cost * oi.quantity), 0) AS product_cost,
			o.shipping_cost, o.packaging_cost, o.commission, o.tax_amount`).
		Joins("LEFT JOIN order_items oi ON oi.order_id = o.id")
	query = applyWindow(query, "o.created_at_unix", window)
	var rows []OrderProfitRow
	err := query.Group("o.id, o.created_at_unix, o.total_amount, o.shipping_cost, o.packaging_cost, o.commission, o.tax_amount").
		Order("o.created_at_unix asc").
		Scan(&rows).Error
	return rows, err
}

// GetTopProducts 时间窗内销量排行
func (r *GormAnalyticsRepository) GetTopProducts(window TimeRange, limit int) ([]ProductRankingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	query := r.db.Table("order_items AS oi").
		Select(`oi.product_id, oi.product_name,
			SUM(oi.quantity) AS total_sold,
			SUM(oi.product_price * oi.quantity) AS total_revenue,
			SUM(oi.product_cost * oi.quantity) AS total_cost,
			SUM((oi.product_price - oi.product_cost) * oi.quantity) AS total_profit,
			AVG(oi.product_price) AS avg_price,
			COUNT(DISTINCT oi.order_id) AS order_count`).
		Joins("JOIN orders o ON oi.order_id = o.id")
	query = applyWindow(query, "o.created_at_unix", window)
	var rows []ProductRankingRow
	err := query.Group("oi.product_id, oi.product_name").
		Order("total_sold desc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// FirstOrderAt 最早订单时间（毫秒），没有订单返回 0
func (r *GormAnalyticsRepository) FirstOrderAt() (int64, error) {
	var first *int64
	if err := r.db.Model(&models.Order{}).Select("MIN(created_at_unix)").Scan(&first).Error; err != nil {
		return 0, err
	}
	if first == nil {
		return 0, nil
	}
	return *first, nil
}

// ListOrdersInWindow 时间窗内的订单（不含明细），按创建时间倒序
func (r *GormAnalyticsRepository) ListOrdersInWindow(window TimeRange) ([]models.Order, error) {
	var orders []models.Order
	err := applyWindow(r.db.Model(&models.Order{}), "created_at_unix", window).
		Order("created_at_unix desc").
		Find(&orders).Error
	return orders, err
}

// TopItemsByName 时间窗内按商品名统计销量
func (r *GormAnalyticsRepository) TopItemsByName(window TimeRange, limit int) ([]ItemSalesRow, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []ItemSalesRow
	err := applyWindow(r.db.Model(&models.OrderItem{}), "created_at_unix", window).
		Select("product_name, COALESCE(SUM(quantity), 0) AS total_qty, COUNT(*) AS order_count").
		Group("product_name").
		Order("total_qty desc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// CountCustomerOrdersBefore 某手机号在指定时间前的订单数
func (r *GormAnalyticsRepository) CountCustomerOrdersBefore(phone string, beforeMs int64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).
		Where("customer_phone = ? AND created_at_unix < ?", phone, beforeMs).
		Count(&count).Error
	return count, err
}

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/shopvd/backoffice/internal/config"
	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"
	"github.com/shopvd/backoffice/internal/service"

	"github.com/olekukonko/tablewriter"
)

// 命令行利润报表：汇总 + 商品排行，直接读库，不依赖 HTTP 服务
func main() {
	var (
		period string
		start  string
		limit  int
	)
	flag.StringVar(&period, "period", constants.PeriodMonth, "统计周期: today / week / month / year / all")
	flag.StringVar(&start, "start", "", "自定义起始日期 YYYY-MM-DD（越南时间）")
	flag.IntVar(&limit, "limit", 10, "商品排行条数")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	db, err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	}, false)
	if err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	analytics := service.NewAnalyticsService(repository.NewAnalyticsRepository(db))

	overview, err := analytics.ProfitOverview(period, start)
	if err != nil {
		stdLog.Fatalf("Failed to load profit overview: %v", err)
	}
	top, err := analytics.TopProducts(limit, period, start)
	if err != nil {
		stdLog.Fatalf("Failed to load top products: %v", err)
	}

	if err := renderOverview(os.Stdout, overview); err != nil {
		stdLog.Fatalf("Failed to render overview: %v", err)
	}
	fmt.Println()
	if err := renderTopProducts(os.Stdout, top); err != nil {
		stdLog.Fatalf("Failed to render top products: %v", err)
	}
}

func renderOverview(w io.Writer, overview *service.ProfitOverview) error {
	o := overview.Overview
	fmt.Fprintf(w, "Tổng quan lợi nhuận (%s)\n", overview.Period)
	table := tablewriter.NewWriter(w)
	table.Header("Chỉ số", "Giá trị")
	rows := [][]string{
		{"Số đơn", service.FormatNumber(o.TotalOrders)},
		{"Sản phẩm đã bán", service.FormatNumber(o.TotalProductsSold)},
		{"Doanh thu", service.FormatVND(o.TotalRevenue)},
		{"Giá vốn sản phẩm", service.FormatVND(o.ProductCost)},
		{"Chi phí ship", service.FormatVND(o.ShippingCost)},
		{"Đóng gói", service.FormatVND(o.PackagingCost)},
		{"Hoa hồng CTV", service.FormatVND(o.Commission)},
		{"Thuế", service.FormatVND(o.Tax)},
		{"Lợi nhuận", service.FormatVND(o.TotalProfit)},
		{"Tỷ suất", fmt.Sprintf("%.1f%%", o.ProfitMargin)},
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func renderTopProducts(w io.Writer, top *service.TopProducts) error {
	fmt.Fprintf(w, "Top sản phẩm (%s)\n", top.Period)
	table := tablewriter.NewWriter(w)
	table.Header("#", "Sản phẩm", "Đã bán", "Doanh thu", "Lợi nhuận", "Tỷ suất")
	for i, p := range top.Products {
		if err := table.Append([]string{
			fmt.Sprintf("%d", i+1),
			p.ProductName,
			service.FormatNumber(p.TotalSold),
			service.FormatVND(p.TotalRevenue),
			service.FormatVND(p.TotalProfit),
			fmt.Sprintf("%.1f%%", p.ProfitMargin),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

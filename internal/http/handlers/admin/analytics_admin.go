package admin

import (
	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	"github.com/shopvd/backoffice/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetDashboardStats 总览：CTV 数、订单、营收、佣金与 Top CTV
func (h *Handler) GetDashboardStats(c *gin.Context) {
	stats, err := h.AnalyticsService.Dashboard()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"stats": stats})
}

// GetProfitOverview 利润汇总
func (h *Handler) GetProfitOverview(c *gin.Context) {
	overview, err := h.AnalyticsService.ProfitOverview(c.DefaultQuery("period", "all"), c.Query("startDate"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"period":    overview.Period,
		"startDate": overview.StartDate,
		"overview":  overview.Overview,
	})
}

// GetTopProducts 商品销量排行
func (h *Handler) GetTopProducts(c *gin.Context) {
	limit := handlershared.QueryInt(c, "limit", 10)
	top, err := h.AnalyticsService.TopProducts(limit, c.DefaultQuery("period", "all"), c.Query("startDate"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"period":    top.Period,
		"startDate": top.StartDate,
		"products":  top.Products,
	})
}

// GetRevenueChart 营收图表，含上一周期对比
func (h *Handler) GetRevenueChart(c *gin.Context) {
	chart, err := h.AnalyticsService.RevenueChart(c.DefaultQuery("period", "week"), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"period":         chart.Period,
		"labels":         chart.Labels,
		"currentPeriod":  chart.CurrentPeriod,
		"previousPeriod": chart.PreviousPeriod,
		"comparison":     chart.Comparison,
	})
}

package router

import (
	"fmt"

	adminhandlers "github.com/shopvd/backoffice/internal/http/handlers/admin"
	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	publichandlers "github.com/shopvd/backoffice/internal/http/handlers/public"
	"github.com/shopvd/backoffice/internal/http/response"

	"github.com/gin-gonic/gin"
)

const unknownEndpoint = "Unknown endpoint"

// actionTable 按 HTTP 方法区分的 action 分发表
type actionTable map[string]gin.HandlerFunc

func buildGetActions(pub *publichandlers.Handler, adm *adminhandlers.Handler) actionTable {
	return actionTable{
		// 会话与公开查询
		"verifySession":       pub.VerifySession,
		"getOrdersByPhone":    pub.GetOrdersByPhone,
		"getCollaboratorInfo": pub.GetCollaboratorInfo,
		"verifyCTV":           pub.VerifyCTV,
		"validateDiscount":    pub.ValidateDiscount,
		"getShippingFee":      adm.GetShippingFee,

		// 订单
		"getOrders":       adm.GetOrders,
		"getOrder":        adm.GetOrder,
		"getRecentOrders": adm.GetRecentOrders,

		// CTV 与佣金
		"getAllCTV":         adm.GetAllCTV,
		"getPaymentHistory": adm.GetPaymentHistory,
		"getUnpaidOrders":   adm.GetUnpaidOrders,

		// 商品、分类、原材料
		"getAllProducts":           adm.GetAllProducts,
		"getProduct":               adm.GetProduct,
		"getProductCategories":     adm.GetProductCategories,
		"searchProducts":           adm.SearchProducts,
		"getAllCategories":         adm.GetAllCategories,
		"getCategory":              adm.GetCategory,
		"getAllMaterials":          adm.GetAllMaterials,
		"getAllMaterialCategories": adm.GetAllMaterialCategories,
		"getProductMaterials":      adm.GetProductMaterials,

		// 折扣
		"getAllDiscounts":         adm.GetAllDiscounts,
		"getDiscount":             adm.GetDiscount,
		"getDiscountUsageHistory": adm.GetDiscountUsageHistory,

		// 成本配置
		"getPackagingConfig": adm.GetPackagingConfig,
		"getCurrentTaxRate":  adm.GetCurrentTaxRate,

		// 统计
		"getDashboardStats": adm.GetDashboardStats,
		"getRevenueChart":   adm.GetRevenueChart,
		"getTopProducts":    adm.GetTopProducts,
		"getProfitOverview": adm.GetProfitOverview,

		// 导出与地址学习
		"getExportHistory":        adm.GetExportHistory,
		"downloadExport":          adm.DownloadExport,
		"searchAddressLearning":   adm.SearchAddressLearning,
		"getAddressLearningStats": adm.GetAddressLearningStats,
	}
}

func buildPostActions(pub *publichandlers.Handler, adm *adminhandlers.Handler) actionTable {
	return actionTable{
		// 会话
		"login":          pub.Login,
		"logout":         pub.Logout,
		"verifySession":  pub.VerifySession,
		"changePassword": adm.ChangePassword,

		// 下单
		"createOrder": pub.CreateOrderAction,

		// CTV 与佣金
		"registerCTV":          pub.RegisterCTV,
		"updateCTV":            adm.UpdateCTV,
		"updateCommission":     adm.UpdateCommission,
		"bulkUpdateCommission": adm.BulkUpdateCommission,
		"bulkDeleteCTV":        adm.BulkDeleteCTV,
		"paySelectedOrders":    adm.PaySelectedOrders,

		// 折扣
		"createDiscount":          adm.CreateDiscount,
		"createQuickDiscount":     adm.CreateQuickDiscount,
		"updateDiscount":          adm.UpdateDiscount,
		"deleteDiscount":          adm.DeleteDiscount,
		"toggleDiscountStatus":    adm.ToggleDiscountStatus,
		"bulkExtendDiscounts":     adm.BulkExtendDiscounts,
		"getDiscountUsageHistory": adm.GetDiscountUsageHistory,

		// 成本配置
		"getPackagingConfig":    adm.GetPackagingConfig,
		"updatePackagingConfig": adm.UpdatePackagingConfig,
		"updateTaxRate":         adm.UpdateTaxRate,

		// 订单
		"updateOrderProducts": adm.UpdateOrderProducts,
		"updateOrderNotes":    adm.UpdateOrderNotes,
		"updateCustomerInfo":  adm.UpdateCustomerInfo,
		"updateAddress":       adm.UpdateAddress,
		"updateAmount":        adm.UpdateAmount,
		"deleteOrder":         adm.DeleteOrder,
		"updateOrderStatus":   adm.UpdateOrderStatus,
		"toggleOrderPriority": adm.ToggleOrderPriority,

		// 商品与分类
		"createProduct":           adm.CreateProduct,
		"updateProduct":           adm.UpdateProduct,
		"deleteProduct":           adm.DeleteProduct,
		"addProductCategory":      adm.AddProductCategory,
		"removeProductCategory":   adm.RemoveProductCategory,
		"setPrimaryCategory":      adm.SetPrimaryCategory,
		"updateProductCategories": adm.UpdateProductCategories,
		"createCategory":          adm.CreateCategory,
		"updateCategory":          adm.UpdateCategory,
		"deleteCategory":          adm.DeleteCategory,

		// 原材料
		"createMaterial":            adm.CreateMaterial,
		"updateMaterial":            adm.UpdateMaterial,
		"deleteMaterial":            adm.DeleteMaterial,
		"saveProductMaterials":      adm.SaveProductMaterials,
		"createMaterialCategory":    adm.CreateMaterialCategory,
		"updateMaterialCategory":    adm.UpdateMaterialCategory,
		"deleteMaterialCategory":    adm.DeleteMaterialCategory,
		"reorderMaterialCategories": adm.ReorderMaterialCategories,

		"uploadImage": adm.UploadImage,

		// 导出
		"saveExport":           adm.SaveExport,
		"markExportDownloaded": adm.MarkExportDownloaded,
		"deleteExport":         adm.DeleteExport,

		"learnAddress": adm.LearnAddress,
	}
}

// dispatch 根据 action 分发到具体处理器
func dispatch(table actionTable) gin.HandlerFunc {
	return func(c *gin.Context) {
		action := handlershared.Action(c)
		if action == "" {
			response.NotFound(c, unknownEndpoint)
			return
		}
		handler, ok := table[action]
		if !ok {
			response.BadRequest(c, fmt.Sprintf("Unknown action: %s", action))
			return
		}
		handler(c)
	}
}

// pathRoute 兼容旧客户端的路径式接口
type pathRoute struct {
	Path    string
	Action  string
	Handler gin.HandlerFunc
}

func buildPathRoutes(pub *publichandlers.Handler, adm *adminhandlers.Handler) []pathRoute {
	return []pathRoute{
		{Path: "/api/order/create", Action: "createOrder", Handler: pub.CreateOrder},
		{Path: "/api/ctv/register", Action: "registerCTV", Handler: pub.RegisterCTV},
		{Path: "/api/submit", Action: "registerCTV", Handler: pub.RegisterCTV},
		{Path: "/api/ctv/update", Action: "updateCTV", Handler: adm.UpdateCTV},
		{Path: "/api/ctv/update-commission", Action: "updateCommission", Handler: adm.UpdateCommission},
		{Path: "/api/ctv/bulk-update-commission", Action: "bulkUpdateCommission", Handler: adm.BulkUpdateCommission},
	}
}

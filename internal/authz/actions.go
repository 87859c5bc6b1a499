package authz

import "strings"

// 业务资源
const (
	ResourceOrders      = "orders"
	ResourceCTV         = "ctv"
	ResourceCommissions = "commissions"
	ResourceDiscounts   = "discounts"
	ResourceSettings    = "settings"
	ResourceProducts    = "products"
	ResourceCategories  = "categories"
	ResourceMaterials   = "materials"
	ResourceUploads     = "uploads"
	ResourceAnalytics   = "analytics"
	ResourceAddress     = "address"
	ResourceExports     = "exports"
	ResourceAccount     = "account"
)

// Permission 单个 API action 的授权要求
type Permission struct {
	Resource string
	Kind     string
	Public   bool
}

func read(resource string) Permission  { return Permission{Resource: resource, Kind: KindRead} }
func write(resource string) Permission { return Permission{Resource: resource, Kind: KindWrite} }
func public() Permission               { return Permission{Public: true} }

var actionTable = map[string]Permission{
	// 会话
	"login":          public(),
	"logout":         public(),
	"verifySession":  public(),
	"changePassword": write(ResourceAccount),

	// 订单
	"createOrder":         public(),
	"getOrdersByPhone":    public(),
	"getOrders":           read(ResourceOrders),
	"getOrder":            read(ResourceOrders),
	"getRecentOrders":     read(ResourceOrders),
	"updateOrderProducts": write(ResourceOrders),
	"updateOrderNotes":    write(ResourceOrders),
	"updateCustomerInfo":  write(ResourceOrders),
	"updateAddress":       write(ResourceOrders),
	"updateAmount":        write(ResourceOrders),
	"deleteOrder":         write(ResourceOrders),
	"updateOrderStatus":   write(ResourceOrders),
	"toggleOrderPriority": write(ResourceOrders),

	// CTV
	"registerCTV":          public(),
	"verifyCTV":            public(),
	"getCollaboratorInfo":  public(),
	"getAllCTV":            read(ResourceCTV),
	"updateCTV":            write(ResourceCTV),
	"updateCommission":     write(ResourceCTV),
	"bulkUpdateCommission": write(ResourceCTV),
	"bulkDeleteCTV":        write(ResourceCTV),
	"getPaymentHistory":    read(ResourceCommissions),
	"getUnpaidOrders":      read(ResourceCommissions),
	"paySelectedOrders":    write(ResourceCommissions),

	// 折扣
	"validateDiscount":        public(),
	"getAllDiscounts":         read(ResourceDiscounts),
	"getDiscount":             read(ResourceDiscounts),
	"getDiscountUsageHistory": read(ResourceDiscounts),
	"createDiscount":          write(ResourceDiscounts),
	"createQuickDiscount":     write(ResourceDiscounts),
	"updateDiscount":          write(ResourceDiscounts),
	"deleteDiscount":          write(ResourceDiscounts),
	"toggleDiscountStatus":    write(ResourceDiscounts),
	"bulkExtendDiscounts":     write(ResourceDiscounts),

	// 成本配置
	"getPackagingConfig":    read(ResourceSettings),
	"getCurrentTaxRate":     read(ResourceSettings),
	"getShippingFee":        public(),
	"updatePackagingConfig": write(ResourceSettings),
	"updateTaxRate":         write(ResourceSettings),

	// 商品与分类
	"getAllProducts":          read(ResourceProducts),
	"getProduct":              read(ResourceProducts),
	"searchProducts":          read(ResourceProducts),
	"getProductCategories":    read(ResourceProducts),
	"createProduct":           write(ResourceProducts),
	"updateProduct":           write(ResourceProducts),
	"deleteProduct":           write(ResourceProducts),
	"addProductCategory":      write(ResourceProducts),
	"removeProductCategory":   write(ResourceProducts),
	"setPrimaryCategory":      write(ResourceProducts),
	"updateProductCategories": write(ResourceProducts),
	"getAllCategories":        read(ResourceCategories),
	"getCategory":             read(ResourceCategories),
	"createCategory":          write(ResourceCategories),
	"updateCategory":          write(ResourceCategories),
	"deleteCategory":          write(ResourceCategories),

	// 原材料
	"getAllMaterials":           read(ResourceMaterials),
	"getAllMaterialCategories":  read(ResourceMaterials),
	"getProductMaterials":       read(ResourceMaterials),
	"createMaterial":            write(ResourceMaterials),
	"updateMaterial":            write(ResourceMaterials),
	"deleteMaterial":            write(ResourceMaterials),
	"saveProductMaterials":      write(ResourceMaterials),
	"createMaterialCategory":    write(ResourceMaterials),
	"updateMaterialCategory":    write(ResourceMaterials),
	"deleteMaterialCategory":    write(ResourceMaterials),
	"reorderMaterialCategories": write(ResourceMaterials),

	"uploadImage": write(ResourceUploads),

	// 统计
	"getDashboardStats": read(ResourceAnalytics),
	"getRevenueChart":   read(ResourceAnalytics),
	"getTopProducts":    read(ResourceAnalytics),
	"getProfitOverview": read(ResourceAnalytics),

	// 地址学习
	"learnAddress":            write(ResourceAddress),
	"searchAddressLearning":   read(ResourceAddress),
	"getAddressLearningStats": read(ResourceAddress),

	// 导出
	"getExportHistory":     read(ResourceExports),
	"downloadExport":       read(ResourceExports),
	"saveExport":           write(ResourceExports),
	"markExportDownloaded": write(ResourceExports),
	"deleteExport":         write(ResourceExports),
}

// Lookup 查询 action 的授权要求
func Lookup(action string) (Permission, bool) {
	perm, ok := actionTable[strings.TrimSpace(action)]
	return perm, ok
}

// IsPublic action 是否免登录
func IsPublic(action string) bool {
	perm, ok := Lookup(action)
	return ok && perm.Public
}

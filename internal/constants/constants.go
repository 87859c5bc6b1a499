package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 支付方式常量
const (
	PaymentMethodCOD          = "cod"
	PaymentMethodBankTransfer = "bank_transfer"
)

// 优惠码类型常量
const (
	DiscountTypeFixed      = "fixed"
	DiscountTypePercentage = "percentage"
	DiscountTypeFreeship   = "freeship"
	DiscountTypeGift       = "gift"
)

// CTV 状态常量
const (
	CTVStatusNew      = "Mới"
	CTVStatusActive   = "Đang hoạt động"
	CTVStatusInactive = "Tạm ngưng"
)

// 导出状态常量
const (
	ExportStatusPending    = "pending"
	ExportStatusDownloaded = "downloaded"
)

// 管理员角色常量
const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleViewer = "viewer"
)

// cost_config 中的键值行
const (
	CostKeyTaxRate     = "tax_rate"
	CostKeyShippingFee = "customer_shipping_fee"
)

// 分析周期
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
	PeriodAll   = "all"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskOrderNotify = "order:notify"
	TaskSheetsSync  = "sheets:sync"
	TaskOrderEvent  = "order:event"
	TaskDailyReport = "report:daily"
)

// 订单事件类型
const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

// Sheets 同步动作
const (
	SheetsActionOrder            = "createOrder"
	SheetsActionRegisterCTV      = "registerCTV"
	SheetsActionUpdateCTV        = "updateCTV"
	SheetsActionUpdateCommission = "updateCommission"
	SheetsActionBulkCommission   = "bulkUpdateCommission"
	SheetsActionBulkDeleteCTV    = "bulkDeleteCTV"
)

// Redis key 前缀
const (
	RedisPrefixDefault = "svd"
)

// 业务上限
const (
	MaxOrderAmount       = 1_000_000_000
	MinAddressLength     = 10
	MaxUsageHistoryRows  = 1000
	DefaultPageSize      = 20
	MaxPageSize          = 200
	SessionTokenBytes    = 32
	QuickDiscountTTLDays = 7
)

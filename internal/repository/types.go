package repository

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page         int
	PageSize     int
	Status       string
	Search       string
	ReferralCode string
}

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page         int
	PageSize     int
	CategoryID   uint
	Search       string
	OnlyActive   bool
	WithCategory bool
}

// DiscountListFilter 查询优惠码列表的过滤条件
type DiscountListFilter struct {
	Search      string
	Type        string
	OnlyActive  bool
	OnlyVisible bool
}

// TimeRange 毫秒时间窗口 [StartMs, EndMs)，EndMs 为 0 表示不限
type TimeRange struct {
	StartMs int64
	EndMs   int64
}

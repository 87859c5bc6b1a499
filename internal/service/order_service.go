package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	transactor   *repository.Transactor
	orderRepo    repository.OrderRepository
	ctvRepo      repository.CTVRepository
	discountRepo repository.DiscountRepository
	productRepo  repository.ProductRepository
	costs        *CostService
	dispatcher   TaskDispatcher
}

// NewOrderService 创建订单服务
func NewOrderService(
	transactor *repository.Transactor,
	orderRepo repository.OrderRepository,
	ctvRepo repository.CTVRepository,
	discountRepo repository.DiscountRepository,
	productRepo repository.ProductRepository,
	costs *CostService,
	dispatcher TaskDispatcher,
) *OrderService {
	return &OrderService{
		transactor:   transactor,
		orderRepo:    orderRepo,
		ctvRepo:      ctvRepo,
		discountRepo: discountRepo,
		productRepo:  productRepo,
		costs:        costs,
		dispatcher:   dispatcher,
	}
}

// CustomerInput 下单客户信息
type CustomerInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// CartLine 购物车行
type CartLine struct {
	ProductID *uint  `json:"id,omitempty"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	CostPrice *int64 `json:"cost_price,omitempty"`
	Size      string `json:"size,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// CreateOrderInput 创建订单输入（各种字段写法已在 handler 层归一）
type CreateOrderInput struct {
	OrderCode       string
	Customer        CustomerInput
	Cart            []CartLine
	TotalAmount     int64
	PaymentMethod   string
	Status          string
	ReferralCode    string
	ReferralPartner string
	DiscountCode    string
	DiscountID      *uint
	DiscountAmount  int64
	Commission      *int64
	CommissionRate  *float64
	ShippingFee     int64
	ShippingCost    int64
	IsPriority      bool
	OrderDate       int64
	Notes           string
	ProvinceID      string
	ProvinceName    string
	DistrictID      string
	DistrictName    string
	WardID          string
	WardName        string
	StreetAddress   string
}

// CreateOrderResult 创建结果
type CreateOrderResult struct {
	OrderCode  string `json:"orderId"`
	Commission int64  `json:"commission"`
	Timestamp  int64  `json:"timestamp"`
}

// sheetsOrderPayload 推送到表格的订单数据
type sheetsOrderPayload struct {
	OrderID            string        `json:"orderId"`
	OrderDate          int64         `json:"orderDate"`
	Customer           CustomerInput `json:"customer"`
	Cart               []CartLine    `json:"cart"`
	Total              string        `json:"total"`
	PaymentMethod      string        `json:"paymentMethod"`
	ReferralCode       string        `json:"referralCode"`
	ReferralCommission int64         `json:"referralCommission"`
	ReferralPartner    string        `json:"referralPartner"`
}

var validOrderStatuses = map[string]bool{
	constants.OrderStatusPending:    true,
	constants.OrderStatusProcessing: true,
	constants.OrderStatusShipped:    true,
	constants.OrderStatusDelivered:  true,
	constants.OrderStatusCancelled:  true,
}

// IsValidOrderStatus 状态是否在枚举内
func IsValidOrderStatus(status string) bool {
	return validOrderStatuses[status]
}

// CreateOrder 创建订单：校验、计算佣金与成本快照、事务写入，副作用异步派发
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	log := logger.FromContext(ctx)
	orderCode := strings.TrimSpace(input.OrderCode)
	if orderCode == "" {
		return nil, ErrOrderCodeRequired
	}
	customer := input.Customer
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Phone = strings.TrimSpace(customer.Phone)
	if customer.Name == "" || customer.Phone == "" {
		return nil, ErrOrderCustomerRequired
	}
	if len(input.Cart) == 0 {
		return nil, ErrOrderCartEmpty
	}
	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = constants.OrderStatusPending
	}
	if !IsValidOrderStatus(status) {
		return nil, ErrOrderStatusInvalid
	}

	cart := normalizeCart(input.Cart)
	items, err := s.buildOrderItems(cart)
	if err != nil {
		return nil, err
	}
	var productTotal, productCost int64
	for _, item := range items {
		productTotal += item.LineTotal()
		productCost += item.LineCost()
	}

	total := productTotal + input.ShippingFee - input.DiscountAmount
	if input.TotalAmount > 0 && input.TotalAmount != total {
		log.Warnw("order_total_mismatch", "order_id", orderCode, "supplied", input.TotalAmount, "computed", total)
	}

	referralCode, ctvPhone, commission, rate, err := s.resolveCommission(ctx, input, productTotal)
	if err != nil {
		return nil, err
	}

	packaging, err := s.costs.PackagingSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	taxRate, err := s.costs.TaxRate(ctx)
	if err != nil {
		return nil, err
	}

	orderDate := input.OrderDate
	if orderDate <= 0 {
		orderDate = models.NowMillis()
	}
	for i := range items {
		items[i].CreatedAtUnix = orderDate
	}
	paymentMethod := strings.TrimSpace(input.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = constants.PaymentMethodCOD
	}
	notes := strings.TrimSpace(input.Notes)
	if notes == "" {
		notes = strings.TrimSpace(customer.Notes)
	}
	discountCode := strings.ToUpper(strings.TrimSpace(input.DiscountCode))

	order := &models.Order{
		OrderCode:        orderCode,
		OrderDate:        orderDate,
		CustomerName:     customer.Name,
		CustomerPhone:    customer.Phone,
		Address:          strings.TrimSpace(customer.Address),
		ProvinceID:       input.ProvinceID,
		ProvinceName:     input.ProvinceName,
		DistrictID:       input.DistrictID,
		DistrictName:     input.DistrictName,
		WardID:           input.WardID,
		WardName:         input.WardName,
		StreetAddress:    input.StreetAddress,
		TotalAmount:      total,
		ProductCost:      productCost,
		PaymentMethod:    paymentMethod,
		Status:           status,
		ReferralCode:     referralCode,
		CTVPhone:         ctvPhone,
		Commission:       commission,
		CommissionRate:   rate,
		ShippingFee:      input.ShippingFee,
		ShippingCost:     input.ShippingCost,
		PackagingCost:    packaging.TotalCost,
		PackagingDetails: packaging,
		TaxAmount:        models.ApplyRate(total, taxRate),
		TaxRate:          taxRate,
		DiscountCode:     discountCode,
		DiscountAmount:   input.DiscountAmount,
		IsPriority:       input.IsPriority,
		Notes:            notes,
		CreatedAtUnix:    orderDate,
		Items:            items,
	}

	err = s.transactor.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		existing, err := orderRepo.GetByCode(orderCode)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrOrderCodeExists
		}
		if err := orderRepo.Create(order); err != nil {
			return err
		}
		if discountCode == "" {
			return nil
		}
		return s.redeemDiscount(ctx, s.discountRepo.WithTx(tx), order, input.DiscountID)
	})
	if err != nil {
		var appErr *Error
		if !errors.As(err, &appErr) {
			log.Errorw("order_create_failed", "order_id", orderCode, "error", err)
		}
		return nil, err
	}
	log.Infow("order_created", "order_id", orderCode, "total_amount", total, "commission", commission, "referral_code", referralCode)

	if s.dispatcher != nil {
		s.dispatcher.OrderCreated(ctx, orderCode)
		s.dispatcher.SheetsSync(ctx, constants.SheetsActionOrder, sheetsOrderPayload{
			OrderID:            orderCode,
			OrderDate:          orderDate,
			Customer:           customer,
			Cart:               cart,
			Total:              FormatVND(total),
			PaymentMethod:      paymentMethod,
			ReferralCode:       strings.TrimSpace(input.ReferralCode),
			ReferralCommission: commission,
			ReferralPartner:    input.ReferralPartner,
		})
	}

	return &CreateOrderResult{
		OrderCode:  orderCode,
		Commission: commission,
		Timestamp:  time.Now().UnixMilli(),
	}, nil
}

func normalizeCart(cart []CartLine) []CartLine {
	result := make([]CartLine, 0, len(cart))
	for _, line := range cart {
		line.Name = strings.TrimSpace(line.Name)
		if line.Name == "" {
			line.Name = "Unknown"
		}
		if line.Quantity <= 0 {
			line.Quantity = 1
		}
		result = append(result, line)
	}
	return result
}

// buildOrderItems 生成订单项快照，缺失成本价的行按商品 ID 或名称批量补齐
func (s *OrderService) buildOrderItems(cart []CartLine) ([]models.OrderItem, error) {
	var ids []uint
	var names []string
	for _, line := range cart {
		if line.CostPrice != nil && *line.CostPrice > 0 && line.ProductID != nil {
			continue
		}
		if line.ProductID != nil {
			ids = append(ids, *line.ProductID)
		}
		names = append(names, line.Name)
	}

	byID := make(map[uint]repository.ProductCostRow)
	byName := make(map[string]repository.ProductCostRow)
	if len(ids) > 0 || len(names) > 0 {
		rows, err := s.productRepo.FindCosts(ids, names)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			byID[row.ID] = row
			if _, ok := byName[row.Name]; !ok {
				byName[row.Name] = row
			}
		}
	}

	items := make([]models.OrderItem, 0, len(cart))
	for _, line := range cart {
		item := models.OrderItem{
			ProductID:    line.ProductID,
			ProductName:  line.Name,
			ProductPrice: line.Price,
			Quantity:     line.Quantity,
			Size:         strings.TrimSpace(line.Size),
			Notes:        strings.TrimSpace(line.Notes),
		}
		if line.CostPrice != nil {
			item.ProductCost = *line.CostPrice
		}
		var match *repository.ProductCostRow
		if line.ProductID != nil {
			if row, ok := byID[*line.ProductID]; ok {
				match = &row
			}
		}
		if match == nil {
			if row, ok := byName[line.Name]; ok {
				match = &row
			}
		}
		if match != nil {
			if item.ProductID == nil {
				id := match.ID
				item.ProductID = &id
			}
			if item.ProductCost <= 0 {
				item.ProductCost = match.CostPrice
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// resolveCommission 同时提供佣金与比例时直接采用，否则按 CTV 比例计算
func (s *OrderService) resolveCommission(ctx context.Context, input CreateOrderInput, productTotal int64) (string, string, int64, models.Decimal, error) {
	code := strings.TrimSpace(input.ReferralCode)
	if code == "" {
		return "", "", 0, models.Decimal{}, nil
	}
	ctv, err := s.ctvRepo.GetByReferralCode(code)
	if err != nil {
		return "", "", 0, models.Decimal{}, err
	}
	if input.Commission != nil && input.CommissionRate != nil {
		referral, phone := code, ""
		if ctv != nil {
			referral, phone = ctv.ReferralCode, ctv.Phone
		}
		return referral, phone, *input.Commission, models.NewDecimal(*input.CommissionRate), nil
	}
	if ctv == nil {
		logger.FromContext(ctx).Warnw("order_referral_not_found", "referral_code", code, "order_id", input.OrderCode)
		return "", "", 0, models.Decimal{}, nil
	}
	rate := ctv.CommissionRate
	if !rate.IsPositive() {
		rate = s.costs.DefaultCommissionRate()
	}
	return ctv.ReferralCode, ctv.Phone, models.ApplyRate(productTotal, rate), rate, nil
}

// redeemDiscount 在下单事务内核销优惠码，次数上限以条件更新保证
func (s *OrderService) redeemDiscount(ctx context.Context, repo *repository.GormDiscountRepository, order *models.Order, discountID *uint) error {
	var discount *models.Discount
	var err error
	if discountID != nil && *discountID > 0 {
		discount, err = repo.GetByID(*discountID)
	} else {
		discount, err = repo.GetByCode(order.DiscountCode)
	}
	if err != nil {
		return err
	}
	if discount == nil {
		logger.FromContext(ctx).Warnw("order_discount_not_found", "discount_code", order.DiscountCode, "order_id", order.OrderCode)
		return nil
	}
	if !discount.Active || (discount.ExpiryDate != nil && time.Now().After(*discount.ExpiryDate)) {
		logger.FromContext(ctx).Warnw("order_discount_inactive",
			"discount_code", discount.Code,
			"order_id", order.OrderCode,
			"active", discount.Active,
		)
		return nil
	}
	if discount.MaxUsesPerCustomer > 0 {
		count, err := repo.CountUsageByPhone(discount.Code, order.CustomerPhone)
		if err != nil {
			return err
		}
		if count >= int64(discount.MaxUsesPerCustomer) {
			return ErrDiscountPerCustomer
		}
	}
	affected, err := repo.IncrementUsage(discount.ID, order.DiscountAmount)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDiscountUsageExhausted
	}
	return repo.CreateUsage(&models.DiscountUsage{
		DiscountID:     discount.ID,
		DiscountCode:   discount.Code,
		OrderCode:      order.OrderCode,
		CustomerName:   order.CustomerName,
		CustomerPhone:  order.CustomerPhone,
		OrderAmount:    order.TotalAmount,
		DiscountAmount: order.DiscountAmount,
		UsedAtUnix:     order.OrderDate,
	})
}

// resolveOrder 按订单号或数据库 ID 查找订单
func (s *OrderService) resolveOrder(ref string) (*models.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrOrderIDRequired
	}
	order, err := s.orderRepo.GetByCode(ref)
	if err != nil {
		return nil, err
	}
	if order == nil {
		if id, convErr := strconv.ParseUint(ref, 10, 64); convErr == nil && id > 0 {
			order, err = s.orderRepo.GetByID(uint(id))
			if err != nil {
				return nil, err
			}
		}
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateNotes 更新备注
func (s *OrderService) UpdateNotes(ctx context.Context, ref, notes string) error {
	order, err := s.resolveOrder(ref)
	if err != nil {
		return err
	}
	if err := s.orderRepo.UpdateColumns(order.ID, map[string]interface{}{"notes": strings.TrimSpace(notes)}); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("order_notes_updated", "order_id", order.OrderCode)
	return nil
}

// UpdateCustomerInfo 更新客户姓名与手机号
func (s *OrderService) UpdateCustomerInfo(ctx context.Context, ref, name, phone string) error {
	if strings.TrimSpace(ref) == "" || strings.TrimSpace(name) == "" || strings.TrimSpace(phone) == "" {
		return ValidationError("Thiếu orderId, customerName hoặc customerPhone")
	}
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if !IsValidVNPhone(phone) {
		return ErrInvalidPhone
	}
	order, err := s.resolveOrder(ref)
	if err != nil {
		return err
	}
	columns := map[string]interface{}{}
	if order.CustomerName != name {
		columns["customer_name"] = name
	}
	if order.CustomerPhone != phone {
		columns["customer_phone"] = phone
	}
	if err := s.orderRepo.UpdateColumns(order.ID, columns); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("order_customer_updated", "order_id", order.OrderCode)
	return nil
}

// AddressInput 地址修改
type AddressInput struct {
	Address       string
	ProvinceID    string
	ProvinceName  string
	DistrictID    string
	DistrictName  string
	WardID        string
	WardName      string
	StreetAddress string
}

// UpdateAddress 更新地址，完整地址至少 10 个字符
func (s *OrderService) UpdateAddress(ctx context.Context, ref string, input AddressInput) error {
	address := strings.TrimSpace(input.Address)
	if strings.TrimSpace(ref) == "" || address == "" {
		return ValidationError("Thiếu orderId hoặc address")
	}
	if len([]rune(address)) < constants.MinAddressLength {
		return ErrAddressTooShort
	}
	order, err := s.resolveOrder(ref)
	if err != nil {
		return err
	}
	columns := map[string]interface{}{"address": address}
	optional := map[string]string{
		"province_id":    input.ProvinceID,
		"province_name":  input.ProvinceName,
		"district_id":    input.DistrictID,
		"district_name":  input.DistrictName,
		"ward_id":        input.WardID,
		"ward_name":      input.WardName,
		"street_address": input.StreetAddress,
	}
	for column, value := range optional {
		if value = strings.TrimSpace(value); value != "" {
			columns[column] = value
		}
	}
	if err := s.orderRepo.UpdateColumns(order.ID, columns); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("order_address_updated", "order_id", order.OrderCode)
	return nil
}

// UpdateAmount 直接修改订单金额与佣金，0 < amount <= 10 亿
func (s *OrderService) UpdateAmount(ctx context.Context, ref string, totalAmount *int64, commission *int64) error {
	if strings.TrimSpace(ref) == "" || totalAmount == nil {
		return ValidationError("Thiếu orderId hoặc totalAmount")
	}
	if *totalAmount <= 0 {
		return ErrOrderAmountNotPositive
	}
	if *totalAmount > constants.MaxOrderAmount {
		return ErrOrderAmountTooLarge
	}
	order, err := s.resolveOrder(ref)
	if err != nil {
		return err
	}
	var newCommission int64
	if commission != nil {
		newCommission = *commission
	}
	if err := s.orderRepo.UpdateColumns(order.ID, map[string]interface{}{
		"total_amount": *totalAmount,
		"commission":   newCommission,
	}); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("order_amount_updated", "order_id", order.OrderCode, "total_amount", *totalAmount, "commission", newCommission)
	return nil
}

// UpdateStatus 修改订单状态
func (s *OrderService) UpdateStatus(ctx context.Context, ref, status string) error {
	status = strings.TrimSpace(status)
	if strings.TrimSpace(ref) == "" || status == "" {
		return ValidationError("Thiếu orderId hoặc status")
	}
	if !IsValidOrderStatus(status) {
		return ErrOrderStatusInvalid
	}
	order, err := s.resolveOrder(ref)
	if err != nil {
		return err
	}
	if order.Status == status {
		return nil
	}
	if err := s.orderRepo.UpdateColumns(order.ID, map[string]interface{}{"status": status}); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("order_status_updated", "order_id", order.OrderCode, "from", order.Status, "to", status)
	if s.dispatcher != nil {
		s.dispatcher.OrderStatusChanged(ctx, order.OrderCode, order.Status, status)
	}
	return nil
}

// TogglePriority 设置或翻转优先标记，返回新值
func (s *OrderService) TogglePriority(ctx context.Context, ref string, isPriority *bool) (bool, error) {
	order, err := s.resolveOrder(ref)
	if err != nil {
		return false, err
	}
	next := !order.IsPriority
	if isPriority != nil {
		next = *isPriority
	}
	if err := s.orderRepo.UpdateColumns(order.ID, map[string]interface{}{"is_priority": next}); err != nil {
		return false, err
	}
	logger.FromContext(ctx).Infow("order_priority_updated", "order_id", order.OrderCode, "is_priority", next)
	return next, nil
}

// DeleteOrder 删除订单及其订单项
func (s *OrderService) DeleteOrder(ctx context.Context, ref string) error {
	order, err := s.resolveOrder(ref)
	if err != nil {
		return err
	}
	if err := s.transactor.Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.WithTx(tx).Delete(order.ID)
	}); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("order_deleted", "order_id", order.OrderCode)
	return nil
}

// ProductLineInput 订单商品修改行
type ProductLineInput struct {
	ProductID *uint
	Name      string
	Price     int64
	CostPrice int64
	Quantity  int
	Size      string
	Notes     string
}

// UpdateProductsResult 商品修改后的重算结果，无推荐人时 Commission 为空
type UpdateProductsResult struct {
	TotalAmount int64  `json:"total_amount"`
	ProductCost int64  `json:"product_cost"`
	Commission  *int64 `json:"commission"`
}

// UpdateProducts 整体替换订单项并重算金额、成本、税额与佣金
func (s *OrderService) UpdateProducts(ctx context.Context, ref string, products []ProductLineInput) (*UpdateProductsResult, error) {
	if strings.TrimSpace(ref) == "" || products == nil {
		return nil, ErrOrderProductsMissing
	}
	order, err := s.resolveOrder(ref)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(products))
	var productTotal, productCost int64
	for _, p := range products {
		item := models.OrderItem{
			ProductID:    p.ProductID,
			ProductName:  orDefault(strings.TrimSpace(p.Name), "Unknown"),
			ProductPrice: p.Price,
			ProductCost:  p.CostPrice,
			Quantity:     p.Quantity,
			Size:         strings.TrimSpace(p.Size),
			Notes:        strings.TrimSpace(p.Notes),
		}
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		productTotal += item.LineTotal()
		productCost += item.LineCost()
		items = append(items, item)
	}
	total := productTotal + order.ShippingFee - order.DiscountAmount

	var commission *int64
	if order.ReferralCode != "" {
		ctv, err := s.ctvRepo.GetByReferralCode(order.ReferralCode)
		if err != nil {
			return nil, err
		}
		if ctv != nil {
			value := models.ApplyRate(productTotal, ctv.CommissionRate)
			commission = &value
		}
	}

	columns := map[string]interface{}{
		"total_amount": total,
		"product_cost": productCost,
		"tax_amount":   models.ApplyRate(total, order.TaxRate),
	}
	if commission != nil {
		columns["commission"] = *commission
	}
	err = s.transactor.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		if err := repo.ReplaceItems(order.ID, items); err != nil {
			return err
		}
		return repo.UpdateColumns(order.ID, columns)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("order_products_updated", "order_id", order.OrderCode, "items", len(items), "total_amount", total)
	return &UpdateProductsResult{TotalAmount: total, ProductCost: productCost, Commission: commission}, nil
}

// GetOrder 订单详情（含订单项）
func (s *OrderService) GetOrder(ref string) (*models.Order, error) {
	order, err := s.resolveOrder(ref)
	if err != nil {
		return nil, err
	}
	withItems, err := s.orderRepo.GetByCodeWithItems(order.OrderCode)
	if err != nil {
		return nil, err
	}
	if withItems == nil {
		return nil, ErrOrderNotFound
	}
	return withItems, nil
}

// ListOrders 分页订单列表
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = constants.DefaultPageSize
	}
	if filter.PageSize > constants.MaxPageSize {
		filter.PageSize = constants.MaxPageSize
	}
	if filter.Status != "" && !IsValidOrderStatus(filter.Status) {
		return nil, 0, ErrOrderStatusInvalid
	}
	return s.orderRepo.List(filter)
}

// ListRecent 最近订单
func (s *OrderService) ListRecent(limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > constants.MaxPageSize {
		limit = constants.MaxPageSize
	}
	return s.orderRepo.ListRecent(limit)
}

// CTVInfo 查询订单时附带的 CTV 摘要
type CTVInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CTVOrders CTV 订单查询结果
type CTVOrders struct {
	Orders       []models.Order `json:"orders"`
	ReferralCode string         `json:"referralCode"`
	Phone        string         `json:"phone,omitempty"`
	CTVInfo      CTVInfo        `json:"ctvInfo"`
}

// phoneVariants 同一号码的两种写法：去掉前导 0 与补上前导 0
func phoneVariants(phone string) []string {
	normalized := strings.TrimLeft(strings.TrimSpace(phone), "0")
	if normalized == "" {
		return nil
	}
	return []string{normalized, "0" + normalized}
}

// ListByCTVPhone 按 CTV 手机号查询其推荐的订单
func (s *OrderService) ListByCTVPhone(phone string) (*CTVOrders, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ValidationError("Số điện thoại không được để trống")
	}
	variants := phoneVariants(phone)
	orders, err := s.orderRepo.ListByCTVPhone(variants)
	if err != nil {
		return nil, err
	}
	result := &CTVOrders{
		Orders:  orders,
		Phone:   phone,
		CTVInfo: CTVInfo{Name: "Không tìm thấy", Phone: phone, Address: "Không tìm thấy"},
	}
	if len(orders) > 0 {
		result.ReferralCode = orders[0].ReferralCode
	}
	ctv, err := s.ctvRepo.GetByPhone(variants)
	if err != nil {
		return nil, err
	}
	if ctv != nil {
		result.CTVInfo = CTVInfo{Name: ctv.FullName, Phone: ctv.Phone, Address: ctv.City}
	}
	if result.Orders == nil {
		result.Orders = []models.Order{}
	}
	return result, nil
}

// ListByReferral 按推荐码查询订单
func (s *OrderService) ListByReferral(code string) (*CTVOrders, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ValidationError("Mã referral không được để trống")
	}
	orders, err := s.orderRepo.ListByReferral(code, 0)
	if err != nil {
		return nil, err
	}
	result := &CTVOrders{
		Orders:       orders,
		ReferralCode: code,
		CTVInfo:      CTVInfo{Name: "Chưa cập nhật", Phone: "Chưa cập nhật", Address: "Chưa cập nhật"},
	}
	ctv, err := s.ctvRepo.GetByReferralCode(code)
	if err != nil {
		return nil, err
	}
	if ctv != nil {
		result.ReferralCode = ctv.ReferralCode
		result.CTVInfo = CTVInfo{
			Name:    orDefault(ctv.FullName, "Chưa cập nhật"),
			Phone:   orDefault(ctv.Phone, "Chưa cập nhật"),
			Address: orDefault(ctv.City, "Chưa cập nhật"),
		}
	}
	if result.Orders == nil {
		result.Orders = []models.Order{}
	}
	return result, nil
}

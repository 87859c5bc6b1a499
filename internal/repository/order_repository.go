package repository

import (
	"errors"
	"strings"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByCode(code string) (*models.Order, error)
	GetByCodeWithItems(code string) (*models.Order, error)
	UpdateColumns(id uint, columns map[string]interface{}) error
	ReplaceItems(orderID uint, items []models.OrderItem) error
	Delete(id uint) error
	List(filter OrderListFilter) ([]models.Order, int64, error)
	ListRecent(limit int) ([]models.Order, error)
	ListByCTVPhone(phones []string) ([]models.Order, error)
	ListByReferral(code string, limit int) ([]models.Order, error)
	ListByCodesWithItems(codes []string) ([]models.Order, error)
	ListUnpaidCommission(referralCode string) ([]models.Order, error)
	MarkCommissionPaid(referralCode string, codes []string, paymentID uint) (int64, error)
	MarkExportedShipped(codes []string) (int64, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单（连同订单项）
func (r *GormOrderRepository) Create(order *models.Order) error {
	now := models.NowMillis()
	if order.CreatedAtUnix == 0 {
		order.CreatedAtUnix = now
	}
	order.UpdatedAtUnix = now
	for i := range order.Items {
		if order.Items[i].CreatedAtUnix == 0 {
			order.Items[i].CreatedAtUnix = now
		}
	}
	return r.db.Create(order).Error
}

// GetByID 根据主键获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByCode 根据订单号获取订单
func (r *GormOrderRepository) GetByCode(code string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Where("order_id = ?", code).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByCodeWithItems 获取订单及订单项
func (r *GormOrderRepository) GetByCodeWithItems(code string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}).Where("order_id = ?", code).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// UpdateColumns 只更新给定列
func (r *GormOrderRepository) UpdateColumns(id uint, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return nil
	}
	columns["updated_at_unix"] = models.NowMillis()
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(columns).Error
}

// ReplaceItems 删除并重建订单项
func (r *GormOrderRepository) ReplaceItems(orderID uint, items []models.OrderItem) error {
	if err := r.db.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	now := models.NowMillis()
	for i := range items {
		items[i].ID = 0
		items[i].OrderID = orderID
		items[i].CreatedAtUnix = now
	}
	return r.db.Create(&items).Error
}

// Delete 删除订单及订单项
func (r *GormOrderRepository) Delete(id uint) error {
	if err := r.db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Order{}, id).Error
}

// List 订单列表
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if code := strings.TrimSpace(filter.ReferralCode); code != "" {
		query = query.Where("referral_code = ?", code)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, args := buildLikeCondition(r.db, search, "order_id", "customer_name", "customer_phone", "address")
		query = query.Where(condition, args...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var orders []models.Order
	if err := query.Preload("Items").Order("is_priority desc").Order("created_at_unix desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListRecent 最近订单
func (r *GormOrderRepository) ListRecent(limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").Order("created_at_unix desc").Limit(limit).Find(&orders).Error
	return orders, err
}

// ListByCTVPhone 按 CTV 手机号查询订单（可传入多种写法）
func (r *GormOrderRepository) ListByCTVPhone(phones []string) ([]models.Order, error) {
	if len(phones) == 0 {
		return nil, nil
	}
	var orders []models.Order
	err := r.db.Preload("Items").Where("ctv_phone IN ?", phones).Order("created_at_unix desc").Find(&orders).Error
	return orders, err
}

// ListByReferral 按推荐码查询订单，limit<=0 不限
func (r *GormOrderRepository) ListByReferral(code string, limit int) ([]models.Order, error) {
	query := r.db.Where("UPPER(TRIM(referral_code)) = ?", normalizeReferralCode(code)).Order("created_at_unix desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var orders []models.Order
	err := query.Find(&orders).Error
	return orders, err
}

// ListByCodesWithItems 按订单号批量查询（导出用）
func (r *GormOrderRepository) ListByCodesWithItems(codes []string) ([]models.Order, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var orders []models.Order
	err := r.db.Preload("Items").Where("order_id IN ?", codes).Order("created_at_unix asc").Find(&orders).Error
	return orders, err
}

// ListUnpaidCommission 未结算佣金的订单，referralCode 为空则查询全部 CTV
func (r *GormOrderRepository) ListUnpaidCommission(referralCode string) ([]models.Order, error) {
	query := r.db.Where("referral_code <> '' AND commission > 0 AND commission_payment_id IS NULL").
		Where("status <> ?", constants.OrderStatusCancelled)
	if code := strings.TrimSpace(referralCode); code != "" {
		query = query.Where("referral_code = ?", code)
	}
	var orders []models.Order
	err := query.Order("created_at_unix asc").Find(&orders).Error
	return orders, err
}

// MarkCommissionPaid 标记订单佣金已结算，只处理仍未结算的订单
func (r *GormOrderRepository) MarkCommissionPaid(referralCode string, codes []string, paymentID uint) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Order{}).
		Where("referral_code = ? AND order_id IN ? AND commission_payment_id IS NULL", referralCode, codes).
		Updates(map[string]interface{}{
			"commission_payment_id": paymentID,
			"updated_at_unix":       models.NowMillis(),
		})
	return result.RowsAffected, result.Error
}

// MarkExportedShipped 导出单下载后：未发货订单置为已发货，全部取消优先标记
func (r *GormOrderRepository) MarkExportedShipped(codes []string) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	now := models.NowMillis()
	result := r.db.Model(&models.Order{}).
		Where("order_id IN ? AND status NOT IN ?", codes, []string{constants.OrderStatusShipped, constants.OrderStatusDelivered, constants.OrderStatusCancelled}).
		Updates(map[string]interface{}{
			"status":          constants.OrderStatusShipped,
			"is_priority":     false,
			"updated_at_unix": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if err := r.db.Model(&models.Order{}).
		Where("order_id IN ? AND is_priority = ?", codes, true).
		Updates(map[string]interface{}{"is_priority": false, "updated_at_unix": now}).Error; err != nil {
		return 0, err
	}
	return result.RowsAffected, nil
}

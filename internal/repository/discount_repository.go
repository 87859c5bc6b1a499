package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/models"

	"gorm.io/gorm"
)

// DiscountRepository 优惠码数据访问接口
type DiscountRepository interface {
	GetByID(id uint) (*models.Discount, error)
	GetByCode(code string) (*models.Discount, error)
	ExistsCode(code string, excludeID uint) (bool, error)
	Create(discount *models.Discount) error
	Update(discount *models.Discount) error
	Delete(id uint) error
	List(filter DiscountListFilter) ([]models.Discount, error)
	SetActive(id uint, active bool) (int64, error)
	ExtendExpiry(id uint, expiry time.Time) (int64, error)
	IncrementUsage(id uint, discountAmount int64) (int64, error)
	CreateUsage(usage *models.DiscountUsage) error
	CountUsage(discountID uint) (int64, error)
	CountUsageByPhone(code, phone string) (int64, error)
	ListUsageHistory(discountID uint) ([]DiscountUsageRow, error)
	WithTx(tx *gorm.DB) *GormDiscountRepository
}

// DiscountUsageRow 使用记录（关联优惠码与订单）
type DiscountUsageRow struct {
	ID               uint   `json:"id"`
	DiscountID       uint   `json:"discount_id"`
	DiscountCode     string `json:"discount_code"`
	OrderID          string `json:"order_id"`
	CustomerName     string `json:"customer_name"`
	CustomerPhone    string `json:"customer_phone"`
	OrderAmount      int64  `json:"order_amount"`
	DiscountAmount   int64  `json:"discount_amount"`
	UsedAtUnix       int64  `json:"used_at_unix"`
	DiscountTitle    string `json:"discount_title"`
	DiscountType     string `json:"discount_type"`
	OrderTotalAmount *int64 `json:"-"`
}

// GormDiscountRepository GORM 实现
type GormDiscountRepository struct {
	db *gorm.DB
}

// NewDiscountRepository 创建优惠码仓库
func NewDiscountRepository(db *gorm.DB) *GormDiscountRepository {
	return &GormDiscountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountRepository) WithTx(tx *gorm.DB) *GormDiscountRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountRepository{db: tx}
}

// GetByID 根据 ID 获取
func (r *GormDiscountRepository) GetByID(id uint) (*models.Discount, error) {
	var discount models.Discount
	if err := r.db.First(&discount, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

// GetByCode 根据优惠码获取（不区分大小写）
func (r *GormDiscountRepository) GetByCode(code string) (*models.Discount, error) {
	var discount models.Discount
	if err := r.db.Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&discount).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

// ExistsCode 检查优惠码是否被占用，excludeID 用于更新时排除自身
func (r *GormDiscountRepository) ExistsCode(code string, excludeID uint) (bool, error) {
	query := r.db.Model(&models.Discount{}).Where("code = ?", strings.ToUpper(strings.TrimSpace(code)))
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 创建优惠码
func (r *GormDiscountRepository) Create(discount *models.Discount) error {
	now := models.NowMillis()
	discount.CreatedAtUnix = now
	discount.UpdatedAtUnix = now
	return r.db.Create(discount).Error
}

// Update 整行更新（零值字段也写入）
func (r *GormDiscountRepository) Update(discount *models.Discount) error {
	discount.UpdatedAtUnix = models.NowMillis()
	return r.db.Save(discount).Error
}

// Delete 删除优惠码
func (r *GormDiscountRepository) Delete(id uint) error {
	return r.db.Delete(&models.Discount{}, id).Error
}

// List 优惠码列表
func (r *GormDiscountRepository) List(filter DiscountListFilter) ([]models.Discount, error) {
	query := r.db.Model(&models.Discount{})
	if filter.OnlyActive {
		query = query.Where("active = ?", true)
	}
	if filter.OnlyVisible {
		query = query.Where("visible = ?", true)
	}
	if typ := strings.TrimSpace(filter.Type); typ != "" {
		query = query.Where("type = ?", typ)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, args := buildLikeCondition(r.db, search, "code", "title", "description")
		query = query.Where(condition, args...)
	}
	var items []models.Discount
	err := query.Order("created_at_unix desc").Order("id desc").Find(&items).Error
	return items, err
}

// SetActive 启用 / 停用
func (r *GormDiscountRepository) SetActive(id uint, active bool) (int64, error) {
	result := r.db.Model(&models.Discount{}).Where("id = ?", id).Updates(map[string]interface{}{
		"active":          active,
		"updated_at_unix": models.NowMillis(),
	})
	return result.RowsAffected, result.Error
}

// ExtendExpiry 修改过期时间
func (r *GormDiscountRepository) ExtendExpiry(id uint, expiry time.Time) (int64, error) {
	result := r.db.Model(&models.Discount{}).Where("id = ?", id).Updates(map[string]interface{}{
		"expiry_date":     expiry,
		"updated_at_unix": models.NowMillis(),
	})
	return result.RowsAffected, result.Error
}

// IncrementUsage 条件累加使用次数，已达上限时影响行数为 0
func (r *GormDiscountRepository) IncrementUsage(id uint, discountAmount int64) (int64, error) {
	result := r.db.Model(&models.Discount{}).
		Where("id = ? AND (max_total_uses = 0 OR usage_count < max_total_uses)", id).
		Updates(map[string]interface{}{
			"usage_count":           gorm.Expr("usage_count + 1"),
			"total_discount_amount": gorm.Expr("total_discount_amount + ?", discountAmount),
			"updated_at_unix":       models.NowMillis(),
		})
	return result.RowsAffected, result.Error
}

// CreateUsage 写入使用记录
func (r *GormDiscountRepository) CreateUsage(usage *models.DiscountUsage) error {
	if usage.UsedAtUnix == 0 {
		usage.UsedAtUnix = models.NowMillis()
	}
	if usage.UsedAt.IsZero() {
		usage.UsedAt = time.UnixMilli(usage.UsedAtUnix)
	}
	return r.db.Create(usage).Error
}

// CountUsage 某优惠码的使用记录数
func (r *GormDiscountRepository) CountUsage(discountID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.DiscountUsage{}).Where("discount_id = ?", discountID).Count(&count).Error
	return count, err
}

// CountUsageByPhone 某手机号对某优惠码的使用次数
func (r *GormDiscountRepository) CountUsageByPhone(code, phone string) (int64, error) {
	var count int64
	err := r.db.Model(&models.DiscountUsage{}).
		Where("discount_code = ? AND customer_phone = ?", strings.ToUpper(strings.TrimSpace(code)), strings.TrimSpace(phone)).
		Count(&count).Error
	return count, err
}

// ListUsageHistory 使用记录，discountID 为 0 时返回全部
func (r *GormDiscountRepository) ListUsageHistory(discountID uint) ([]DiscountUsageRow, error) {
	query := r.db.Table("discount_usage AS du").
		Select(`du.id, du.discount_id, du.discount_code, du.order_id, du.customer_name, du.customer_phone,
			du.order_amount, du.discount_amount, du.used_at_unix,
			d.title AS discount_title, d.type AS discount_type, o.total_amount AS order_total_amount`).
		Joins("LEFT JOIN discounts d ON du.discount_id = d.id").
		Joins("LEFT JOIN orders o ON du.order_id = o.order_id")
	if discountID > 0 {
		query = query.Where("du.discount_id = ?", discountID)
	}
	var rows []DiscountUsageRow
	err := query.Order("du.used_at_unix desc").Limit(constants.MaxUsageHistoryRows).Scan(&rows).Error
	return rows, err
}

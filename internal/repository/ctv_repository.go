package repository

import (
	"errors"
	"strings"

	"github.com/shopvd/backoffice/internal/models"

	"gorm.io/gorm"
)

// CTVRepository CTV 数据访问接口
type CTVRepository interface {
	Create(ctv *models.CTV) error
	GetByReferralCode(code string) (*models.CTV, error)
	GetByPhone(phones []string) (*models.CTV, error)
	ExistsReferralCode(code string) (bool, error)
	List() ([]models.CTV, error)
	UpdateColumns(code string, columns map[string]interface{}) (int64, error)
	BulkUpdateRate(codes []string, rate models.Decimal) (int64, error)
	BulkDelete(codes []string) (int64, error)
	CountCreatedSince(sinceMs int64) (int64, error)
	ReferralStats() ([]ReferralStatsRow, error)
	ReferralStatsByCode(code string) (ReferralStatsRow, error)
	CreatePayment(payment *models.CommissionPayment) error
	ListPayments(code string) ([]models.CommissionPayment, error)
	WithTx(tx *gorm.DB) *GormCTVRepository
}

// ReferralStatsRow 按推荐码汇总的订单统计
type ReferralStatsRow struct {
	ReferralCode    string `json:"referral_code"`
	OrderCount      int64  `json:"orderCount"`
	TotalRevenue    int64  `json:"totalRevenue"`
	TotalCommission int64  `json:"totalCommission"`
}

// GormCTVRepository GORM 实现
type GormCTVRepository struct {
	db *gorm.DB
}

// NewCTVRepository 创建 CTV 仓库
func NewCTVRepository(db *gorm.DB) *GormCTVRepository {
	return &GormCTVRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCTVRepository) WithTx(tx *gorm.DB) *GormCTVRepository {
	if tx == nil {
		return r
	}
	return &GormCTVRepository{db: tx}
}

func normalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create 创建 CTV
func (r *GormCTVRepository) Create(ctv *models.CTV) error {
	now := models.NowMillis()
	if ctv.CreatedAtUnix == 0 {
		ctv.CreatedAtUnix = now
	}
	ctv.UpdatedAtUnix = now
	return r.db.Create(ctv).Error
}

// GetByReferralCode 按推荐码查询，忽略大小写与首尾空格
func (r *GormCTVRepository) GetByReferralCode(code string) (*models.CTV, error) {
	normalized := normalizeReferralCode(code)
	if normalized == "" {
		return nil, nil
	}
	var ctv models.CTV
	if err := r.db.Where("UPPER(TRIM(referral_code)) = ?", normalized).First(&ctv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ctv, nil
}

// GetByPhone 按手机号查询（可传入多种写法）
func (r *GormCTVRepository) GetByPhone(phones []string) (*models.CTV, error) {
	if len(phones) == 0 {
		return nil, nil
	}
	var ctv models.CTV
	if err := r.db.Where("phone IN ?", phones).Order("id asc").First(&ctv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ctv, nil
}

// ExistsReferralCode 推荐码是否已存在
func (r *GormCTVRepository) ExistsReferralCode(code string) (bool, error) {
	var count int64
	err := r.db.Model(&models.CTV{}).Where("UPPER(TRIM(referral_code)) = ?", normalizeReferralCode(code)).Count(&count).Error
	return count > 0, err
}

// List 全部 CTV，按创建时间倒序
func (r *GormCTVRepository) List() ([]models.CTV, error) {
	var items []models.CTV
	err := r.db.Order("created_at_unix desc").Find(&items).Error
	return items, err
}

// UpdateColumns 更新 CTV 字段，返回影响行数
func (r *GormCTVRepository) UpdateColumns(code string, columns map[string]interface{}) (int64, error) {
	if len(columns) == 0 {
		return 0, nil
	}
	columns["updated_at_unix"] = models.NowMillis()
	result := r.db.Model(&models.CTV{}).
		Where("UPPER(TRIM(referral_code)) = ?", normalizeReferralCode(code)).
		Updates(columns)
	return result.RowsAffected, result.Error
}

// BulkUpdateRate 批量更新佣金比例
func (r *GormCTVRepository) BulkUpdateRate(codes []string, rate models.Decimal) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.CTV{}).
		Where("referral_code IN ?", codes).
		Updates(map[string]interface{}{
			"commission_rate": rate,
			"updated_at_unix": models.NowMillis(),
		})
	return result.RowsAffected, result.Error
}

// BulkDelete 批量删除
func (r *GormCTVRepository) BulkDelete(codes []string) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	result := r.db.Where("referral_code IN ?", codes).Delete(&models.CTV{})
	return result.RowsAffected, result.Error
}

// CountCreatedSince 统计某时间后注册的 CTV
func (r *GormCTVRepository) CountCreatedSince(sinceMs int64) (int64, error) {
	var count int64
	err := r.db.Model(&models.CTV{}).Where("created_at_unix >= ?", sinceMs).Count(&count).Error
	return count, err
}

// ReferralStats 按推荐码聚合订单
func (r *GormCTVRepository) ReferralStats() ([]ReferralStatsRow, error) {
	var rows []ReferralStatsRow
	err := r.db.Model(&models.Order{}).
		Select("referral_code, COUNT(*) as order_count, COALESCE(SUM(total_amount), 0) as total_revenue, COALESCE(SUM(commission), 0) as total_commission").
		Where("referral_code IS NOT NULL AND referral_code <> ''").
		Group("referral_code").
		Order("total_revenue desc").
		Scan(&rows).Error
	return rows, err
}

// ReferralStatsByCode 单个推荐码的订单汇总
func (r *GormCTVRepository) ReferralStatsByCode(code string) (ReferralStatsRow, error) {
	row := ReferralStatsRow{ReferralCode: code}
	err := r.db.Model(&models.Order{}).
		Select("COUNT(*) as order_count, COALESCE(SUM(total_amount), 0) as total_revenue, COALESCE(SUM(commission), 0) as total_commission").
		Where("UPPER(TRIM(referral_code)) = ?", normalizeReferralCode(code)).
		Scan(&row).Error
	row.ReferralCode = code
	return row, err
}

// CreatePayment 写入佣金结算单
func (r *GormCTVRepository) CreatePayment(payment *models.CommissionPayment) error {
	if payment.CreatedAtUnix == 0 {
		payment.CreatedAtUnix = models.NowMillis()
	}
	return r.db.Create(payment).Error
}

// ListPayments 结算记录，code 为空返回全部
func (r *GormCTVRepository) ListPayments(code string) ([]models.CommissionPayment, error) {
	query := r.db.Model(&models.CommissionPayment{})
	if normalized := normalizeReferralCode(code); normalized != "" {
		query = query.Where("UPPER(TRIM(referral_code)) = ?", normalized)
	}
	var items []models.CommissionPayment
	err := query.Order("payment_date desc").Order("id desc").Find(&items).Error
	return items, err
}

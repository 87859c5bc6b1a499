package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopvd/backoffice/internal/cache"
	"github.com/shopvd/backoffice/internal/config"
	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	packagingCacheKey = "cost:packaging"
	taxRateCacheKey   = "cost:tax_rate"
)

// CostService 成本核算：包装快照、税率、运费
type CostService struct {
	repo  repository.CostRepository
	store cache.Store
	cfg   config.CostingConfig
}

// NewCostService 创建成本服务，store 为空时退化为直连数据库
func NewCostService(repo repository.CostRepository, store cache.Store, cfg config.CostingConfig) *CostService {
	if store == nil {
		store = cache.Null{}
	}
	if cfg.DefaultTaxRate <= 0 {
		cfg.DefaultTaxRate = 0.015
	}
	if cfg.DefaultShippingFee <= 0 {
		cfg.DefaultShippingFee = 21000
	}
	if cfg.DefaultCommissionRate <= 0 {
		cfg.DefaultCommissionRate = 0.1
	}
	return &CostService{repo: repo, store: store, cfg: cfg}
}

// PackagingItemInput 包装配置项
type PackagingItemInput struct {
	ItemName    string
	ItemCost    *float64
	DisplayName string
	IsDefault   *bool
}

// TaxRateInfo 当前税率
type TaxRateInfo struct {
	TaxRate       float64 `json:"taxRate"`
	EffectiveFrom string  `json:"effectiveFrom"`
	Description   string  `json:"description"`
}

func (s *CostService) cacheTTL() time.Duration {
	if s.cfg.CacheTTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(s.cfg.CacheTTLSeconds) * time.Second
}

// PackagingSnapshot 当前包装成本快照，优先读缓存
func (s *CostService) PackagingSnapshot(ctx context.Context) (models.PackagingSnapshot, error) {
	var snapshot models.PackagingSnapshot
	if ok, err := s.store.GetJSON(ctx, packagingCacheKey, &snapshot); err != nil {
		logger.FromContext(ctx).Warnw("packaging_cache_get_failed", "error", err)
	} else if ok {
		return snapshot, nil
	}

	rows, err := s.repo.ListByCategory(s.cfg.PackagingCategoryID)
	if err != nil {
		return models.PackagingSnapshot{}, err
	}
	snapshot = buildPackagingSnapshot(rows)
	if err := s.store.SetJSON(ctx, packagingCacheKey, snapshot, s.cacheTTL()); err != nil {
		logger.FromContext(ctx).Warnw("packaging_cache_set_failed", "error", err)
	}
	return snapshot, nil
}

func buildPackagingSnapshot(rows []models.CostConfig) models.PackagingSnapshot {
	snapshot := models.PackagingSnapshot{Items: make([]models.PackagingLine, 0, len(rows))}
	for _, row := range rows {
		cost := row.ItemCost.Round(0).IntPart()
		snapshot.Items = append(snapshot.Items, models.PackagingLine{
			ItemName:    row.ItemName,
			DisplayName: row.DisplayName,
			ItemCost:    cost,
		})
		snapshot.TotalCost += cost
	}
	return snapshot
}

// TaxRate 当前税率，> 1 视为百分比
func (s *CostService) TaxRate(ctx context.Context) (models.Decimal, error) {
	var cached float64
	if ok, err := s.store.GetJSON(ctx, taxRateCacheKey, &cached); err != nil {
		logger.FromContext(ctx).Warnw("tax_rate_cache_get_failed", "error", err)
	} else if ok {
		return models.NewDecimal(cached), nil
	}

	rate := decimal.NewFromFloat(s.cfg.DefaultTaxRate)
	row, err := s.repo.GetByItemName(constants.CostKeyTaxRate)
	if err != nil {
		return models.Decimal{}, err
	}
	if row != nil && row.ItemCost.IsPositive() {
		rate = normalizeTaxRate(row.ItemCost.Decimal)
	}
	if err := s.store.SetJSON(ctx, taxRateCacheKey, rate.InexactFloat64(), s.cacheTTL()); err != nil {
		logger.FromContext(ctx).Warnw("tax_rate_cache_set_failed", "error", err)
	}
	return models.Decimal{Decimal: rate}, nil
}

func normalizeTaxRate(raw decimal.Decimal) decimal.Decimal {
	if raw.GreaterThan(decimal.NewFromInt(1)) {
		return raw.Div(decimal.NewFromInt(100))
	}
	return raw
}

// ShippingFee 向客户收取的默认运费
func (s *CostService) ShippingFee() (int64, error) {
	row, err := s.repo.GetByItemName(constants.CostKeyShippingFee)
	if err != nil {
		return 0, err
	}
	if row == nil || !row.ItemCost.IsPositive() {
		return s.cfg.DefaultShippingFee, nil
	}
	return row.ItemCost.Round(0).IntPart(), nil
}

// DefaultCommissionRate CTV 未设置比例时的默认佣金率
func (s *CostService) DefaultCommissionRate() models.Decimal {
	return models.NewDecimal(s.cfg.DefaultCommissionRate)
}

// GetPackagingConfig 全部价目行
func (s *CostService) GetPackagingConfig() ([]models.CostConfig, error) {
	return s.repo.ListConfig()
}

// UpdatePackagingConfig 批量写入价目，完成后清除缓存
func (s *CostService) UpdatePackagingConfig(ctx context.Context, items []PackagingItemInput) error {
	if len(items) == 0 {
		return ErrPackagingConfigRequired
	}
	for _, item := range items {
		if strings.TrimSpace(item.ItemName) == "" || item.ItemCost == nil {
			return ErrPackagingItemInvalid
		}
		if math.IsNaN(*item.ItemCost) || *item.ItemCost < 0 {
			return ValidationError(fmt.Sprintf("Invalid cost for %s", item.ItemName))
		}
	}

	for _, item := range items {
		isDefault := true
		if item.IsDefault != nil {
			isDefault = *item.IsDefault
		}
		row := models.CostConfig{
			ItemName:    strings.TrimSpace(item.ItemName),
			DisplayName: strings.TrimSpace(item.DisplayName),
			ItemCost:    models.NewDecimal(*item.ItemCost),
			IsDefault:   isDefault,
		}
		if err := s.repo.UpsertItem(&row); err != nil {
			return err
		}
	}
	s.invalidate(ctx, packagingCacheKey, taxRateCacheKey)
	return nil
}

// GetCurrentTaxRate 税率与生效日期
func (s *CostService) GetCurrentTaxRate() (TaxRateInfo, error) {
	row, err := s.repo.GetByItemName(constants.CostKeyTaxRate)
	if err != nil {
		return TaxRateInfo{}, err
	}
	if row == nil {
		return TaxRateInfo{
			TaxRate:       s.cfg.DefaultTaxRate,
			EffectiveFrom: "2024-01-01",
			Description:   "Thuế mặc định 1.5%",
		}, nil
	}
	effective := row.UpdatedAt
	if effective.IsZero() {
		effective = row.CreatedAt
	}
	return TaxRateInfo{
		TaxRate:       normalizeTaxRate(row.ItemCost.Decimal).InexactFloat64(),
		EffectiveFrom: effective.In(VNLocation).Format("2006-01-02"),
		Description:   row.DisplayName,
	}, nil
}

// UpdateTaxRate 更新税率，0 < rate <= 1
func (s *CostService) UpdateTaxRate(ctx context.Context, rate float64, description string) (TaxRateInfo, error) {
	if math.IsNaN(rate) || rate <= 0 || rate > 1 {
		return TaxRateInfo{}, ErrTaxRateInvalid
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = fmt.Sprintf("Thuế %s%%", decimal.NewFromFloat(rate*100).Round(2).String())
	}
	row := models.CostConfig{
		ItemName:    constants.CostKeyTaxRate,
		DisplayName: description,
		ItemCost:    models.NewDecimal(rate),
		IsDefault:   true,
	}
	if err := s.repo.UpsertItem(&row); err != nil {
		return TaxRateInfo{}, err
	}
	s.invalidate(ctx, taxRateCacheKey)
	logger.FromContext(ctx).Infow("tax_rate_updated", "tax_rate", rate)
	return TaxRateInfo{
		TaxRate:       rate,
		EffectiveFrom: vnNow().Format("2006-01-02"),
		Description:   description,
	}, nil
}

func (s *CostService) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			logger.FromContext(ctx).Warnw("cost_cache_delete_failed", "key", key, "error", err)
		}
	}
}

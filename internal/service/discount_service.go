package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/logger"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"
)

var (
	quickCodePattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)
	isoDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var validDiscountTypes = map[string]bool{
	constants.DiscountTypeFixed:      true,
	constants.DiscountTypePercentage: true,
	constants.DiscountTypeFreeship:   true,
	constants.DiscountTypeGift:       true,
}

// DiscountService 优惠码服务
type DiscountService struct {
	repo repository.DiscountRepository
	now  func() time.Time
}

// NewDiscountService 创建优惠码服务
func NewDiscountService(repo repository.DiscountRepository) *DiscountService {
	return &DiscountService{repo: repo, now: time.Now}
}

// DiscountInput 创建 / 更新优惠码
type DiscountInput struct {
	Code                  string
	Title                 string
	Description           string
	Type                  string
	DiscountValue         int64
	MaxDiscountAmount     int64
	GiftProductID         string
	GiftProductName       string
	GiftQuantity          int
	MinOrderAmount        int64
	MinItems              int
	MaxTotalUses          int
	MaxUsesPerCustomer    int
	CustomerType          string
	AllowedCustomerPhones []string
	Combinable            bool
	Active                *bool
	Visible               *bool
	StartDate             string
	ExpiryDate            string
	SpecialEvent          string
	EventIcon             string
	EventDate             string
}

// QuickDiscountInput 为单个客户快速生成的专属码
type QuickDiscountInput struct {
	CustomerPhone     string
	Type              string
	DiscountValue     int64
	MaxDiscountAmount int64
	MinOrderAmount    int64
	Code              string
	ExpiryDays        int
}

// QuickDiscountResult 专属码创建结果
type QuickDiscountResult struct {
	ID             uint   `json:"id"`
	Code           string `json:"code"`
	CustomerPhone  string `json:"customerPhone"`
	Type           string `json:"type"`
	DiscountValue  int64  `json:"discountValue"`
	MinOrderAmount int64  `json:"minOrderAmount"`
	ExpiryDate     string `json:"expiryDate"`
	ExpiryDays     int    `json:"expiryDays"`
}

// BulkExtendResult 批量延期结果
type BulkExtendResult struct {
	UpdatedCount   int    `json:"updatedCount"`
	NewExpiryDate  string `json:"newExpiryDate"`
	FailedIDs      []uint `json:"failedIds"`
	TotalRequested int    `json:"totalRequested"`
}

// Validate 按固定顺序检查优惠码，遇到第一个失败即返回
func (s *DiscountService) Validate(ctx context.Context, code, customerPhone string, orderAmount int64) (*models.Discount, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	customerPhone = strings.TrimSpace(customerPhone)
	if code == "" {
		return nil, ErrDiscountCodeRequired
	}
	discount, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if discount == nil || !discount.Active {
		return nil, ErrDiscountUnavailable
	}
	now := s.now()
	if discount.ExpiryDate != nil && now.After(*discount.ExpiryDate) {
		return nil, ErrDiscountExpired
	}
	if discount.StartDate != nil && now.Before(*discount.StartDate) {
		return nil, ErrDiscountNotStarted
	}
	if discount.MinOrderAmount > 0 && orderAmount < discount.MinOrderAmount {
		return nil, ValidationError(fmt.Sprintf("Đơn hàng tối thiểu %s", FormatVND(discount.MinOrderAmount)))
	}
	if discount.MaxTotalUses > 0 && discount.UsageCount >= discount.MaxTotalUses {
		return nil, ErrDiscountUsageExhausted
	}
	if customerPhone != "" && discount.MaxUsesPerCustomer > 0 {
		count, err := s.repo.CountUsageByPhone(code, customerPhone)
		if err != nil {
			return nil, err
		}
		if count >= int64(discount.MaxUsesPerCustomer) {
			return nil, ErrDiscountPerCustomer
		}
	}
	if customerPhone != "" && len(discount.AllowedCustomerPhones) > 0 && !discount.AllowedCustomerPhones.Contains(customerPhone) {
		return nil, ErrDiscountPhoneNotAllowed
	}
	logger.FromContext(ctx).Debugw("discount_validated", "code", code)
	return discount, nil
}

// List 全部优惠码
func (s *DiscountService) List(filter repository.DiscountListFilter) ([]models.Discount, error) {
	return s.repo.List(filter)
}

// Get 单个优惠码
func (s *DiscountService) Get(id uint) (*models.Discount, error) {
	discount, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if discount == nil {
		return nil, ErrDiscountNotFound
	}
	return discount, nil
}

// Create 新建优惠码
func (s *DiscountService) Create(ctx context.Context, input DiscountInput) (*models.Discount, error) {
	discount := &models.Discount{}
	if err := s.apply(discount, input); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsCode(discount.Code, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDiscountCodeExists
	}
	if err := s.repo.Create(discount); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDiscountCodeExists
		}
		return nil, err
	}
	logger.FromContext(ctx).Infow("discount_created", "discount_id", discount.ID, "code", discount.Code)
	return discount, nil
}

// Update 整体更新优惠码，使用统计保持不变
func (s *DiscountService) Update(ctx context.Context, id uint, input DiscountInput) (*models.Discount, error) {
	discount, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(discount, input); err != nil {
		return nil, err
	}
	taken, err := s.repo.ExistsCode(discount.Code, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDiscountCodeTaken
	}
	if err := s.repo.Update(discount); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("discount_updated", "discount_id", id, "code", discount.Code)
	return discount, nil
}

// apply 校验输入并写入模型，缺省值与创建页保持一致
func (s *DiscountService) apply(discount *models.Discount, input DiscountInput) error {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	title := strings.TrimSpace(input.Title)
	typ := strings.TrimSpace(input.Type)
	if code == "" || title == "" || typ == "" {
		return ErrDiscountFieldsRequired
	}
	if !validDiscountTypes[typ] {
		return ErrDiscountTypeInvalid
	}
	startDate, err := parseDiscountDate(input.StartDate, false)
	if err != nil {
		return err
	}
	expiryDate, err := parseDiscountDate(input.ExpiryDate, true)
	if err != nil {
		return err
	}

	discount.Code = code
	discount.Title = title
	discount.Description = strings.TrimSpace(input.Description)
	discount.Type = typ
	discount.DiscountValue = input.DiscountValue
	discount.MaxDiscountAmount = input.MaxDiscountAmount
	discount.GiftProductID = strings.TrimSpace(input.GiftProductID)
	discount.GiftProductName = strings.TrimSpace(input.GiftProductName)
	discount.GiftQuantity = input.GiftQuantity
	if discount.GiftQuantity <= 0 {
		discount.GiftQuantity = 1
	}
	discount.MinOrderAmount = input.MinOrderAmount
	discount.MinItems = input.MinItems
	discount.MaxTotalUses = input.MaxTotalUses
	discount.MaxUsesPerCustomer = input.MaxUsesPerCustomer
	if discount.MaxUsesPerCustomer <= 0 {
		discount.MaxUsesPerCustomer = 1
	}
	discount.CustomerType = orDefault(strings.TrimSpace(input.CustomerType), "all")
	discount.AllowedCustomerPhones = normalizePhoneList(input.AllowedCustomerPhones)
	discount.Combinable = input.Combinable
	discount.Active = input.Active == nil || *input.Active
	discount.Visible = input.Visible == nil || *input.Visible
	discount.StartDate = startDate
	discount.ExpiryDate = expiryDate
	discount.SpecialEvent = strings.TrimSpace(input.SpecialEvent)
	discount.EventIcon = strings.TrimSpace(input.EventIcon)
	discount.EventDate = strings.TrimSpace(input.EventDate)
	return nil
}

func normalizePhoneList(phones []string) models.StringArray {
	result := models.StringArray{}
	seen := make(map[string]struct{}, len(phones))
	for _, phone := range phones {
		phone = strings.TrimSpace(phone)
		if phone == "" {
			continue
		}
		if _, ok := seen[phone]; ok {
			continue
		}
		seen[phone] = struct{}{}
		result = append(result, phone)
	}
	return result
}

// parseDiscountDate 支持 YYYY-MM-DD（越南时区，过期日取当天结束）与 RFC3339
func parseDiscountDate(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if isoDatePattern.MatchString(raw) {
		day, err := time.ParseInLocation("2006-01-02", raw, VNLocation)
		if err != nil {
			return nil, ErrExpiryDateFormat
		}
		if endOfDay {
			day = day.Add(24*time.Hour - time.Millisecond)
		}
		return &day, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, ErrExpiryDateFormat
	}
	return &parsed, nil
}

// Delete 删除未被使用过的优惠码
func (s *DiscountService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	used, err := s.repo.CountUsage(id)
	if err != nil {
		return err
	}
	if used > 0 {
		return ErrDiscountInUse
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("discount_deleted", "discount_id", id)
	return nil
}

// SetActive 启用 / 停用
func (s *DiscountService) SetActive(ctx context.Context, id uint, active bool) error {
	affected, err := s.repo.SetActive(id, active)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDiscountNotFound
	}
	logger.FromContext(ctx).Infow("discount_status_updated", "discount_id", id, "active", active)
	return nil
}

// CreateQuick 专属码：单次使用、限定手机号、前台不可见
func (s *DiscountService) CreateQuick(ctx context.Context, input QuickDiscountInput) (*QuickDiscountResult, error) {
	phone := strings.TrimSpace(input.CustomerPhone)
	typ := strings.TrimSpace(input.Type)
	if phone == "" || typ == "" || input.DiscountValue == 0 {
		return nil, ErrQuickDiscountFields
	}
	if !IsValidVNPhone(phone) {
		return nil, ErrQuickDiscountPhone
	}
	if !validDiscountTypes[typ] {
		return nil, ErrDiscountTypeInvalid
	}

	code, err := s.resolveQuickCode(phone, input.Code)
	if err != nil {
		return nil, err
	}
	days := input.ExpiryDays
	if days <= 0 {
		days = constants.QuickDiscountTTLDays
	}
	expiryDay := startOfVNDay(s.now()).AddDate(0, 0, days)
	expiry := expiryDay.Add(24*time.Hour - time.Millisecond)

	discount := &models.Discount{
		Code:                  code,
		Title:                 "Mã cá nhân - " + phone,
		Description:           "Mã giảm giá cá nhân cho khách hàng " + phone,
		Type:                  typ,
		DiscountValue:         input.DiscountValue,
		MaxDiscountAmount:     input.MaxDiscountAmount,
		MinOrderAmount:        input.MinOrderAmount,
		MaxTotalUses:          1,
		MaxUsesPerCustomer:    1,
		CustomerType:          "all",
		AllowedCustomerPhones: models.StringArray{phone},
		Active:                true,
		Visible:               false,
		ExpiryDate:            &expiry,
	}
	if err := s.repo.Create(discount); err != nil {
		if isUniqueViolation(err) {
			return nil, ConflictError(fmt.Sprintf("Mã \"%s\" đã tồn tại. Vui lòng chọn mã khác", code))
		}
		return nil, err
	}
	logger.FromContext(ctx).Infow("quick_discount_created", "discount_id", discount.ID, "code", code, "phone", phone)
	return &QuickDiscountResult{
		ID:             discount.ID,
		Code:           code,
		CustomerPhone:  phone,
		Type:           typ,
		DiscountValue:  input.DiscountValue,
		MinOrderAmount: input.MinOrderAmount,
		ExpiryDate:     expiryDay.Format("2006-01-02"),
		ExpiryDays:     days,
	}, nil
}

// resolveQuickCode 自定义码需满足格式，否则生成 VIP{后四位}-{10..99}
func (s *DiscountService) resolveQuickCode(phone, custom string) (string, error) {
	if custom = strings.ToUpper(strings.TrimSpace(custom)); custom != "" {
		if !quickCodePattern.MatchString(custom) {
			return "", ErrQuickDiscountCodeChars
		}
		if len(custom) < 3 || len(custom) > 20 {
			return "", ErrQuickDiscountCodeLength
		}
		exists, err := s.repo.ExistsCode(custom, 0)
		if err != nil {
			return "", err
		}
		if exists {
			return "", ConflictError(fmt.Sprintf("Mã \"%s\" đã tồn tại. Vui lòng chọn mã khác", custom))
		}
		return custom, nil
	}

	last4 := phone[len(phone)-4:]
	var code string
	for attempt := 0; attempt < 5; attempt++ {
		suffix, err := randomIntRange(10, 99)
		if err != nil {
			return "", err
		}
		code = fmt.Sprintf("VIP%s-%d", last4, suffix)
		exists, err := s.repo.ExistsCode(code, 0)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return code, nil
}

// BulkExtend 批量修改过期日期，新日期必须晚于今天
func (s *DiscountService) BulkExtend(ctx context.Context, ids []uint, newExpiryDate string) (*BulkExtendResult, error) {
	if len(ids) == 0 {
		return nil, ErrDiscountIDsRequired
	}
	newExpiryDate = strings.TrimSpace(newExpiryDate)
	if newExpiryDate == "" {
		return nil, ErrExpiryDateRequired
	}
	if !isoDatePattern.MatchString(newExpiryDate) {
		return nil, ErrExpiryDateFormat
	}
	day, err := time.ParseInLocation("2006-01-02", newExpiryDate, VNLocation)
	if err != nil {
		return nil, ErrExpiryDateFormat
	}
	if !day.After(startOfVNDay(s.now())) {
		return nil, ErrExpiryDateNotFuture
	}
	expiry := day.Add(24*time.Hour - time.Millisecond)

	result := &BulkExtendResult{NewExpiryDate: newExpiryDate, FailedIDs: []uint{}, TotalRequested: len(ids)}
	for _, id := range ids {
		affected, err := s.repo.ExtendExpiry(id, expiry)
		if err != nil {
			logger.FromContext(ctx).Warnw("discount_extend_failed", "discount_id", id, "error", err)
		}
		if err != nil || affected == 0 {
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.UpdatedCount++
	}
	logger.FromContext(ctx).Infow("discounts_extended", "updated", result.UpdatedCount, "requested", len(ids))
	return result, nil
}

// UsageHistory 使用记录，订单仍存在时以订单实付金额为准
func (s *DiscountService) UsageHistory(discountID uint) ([]repository.DiscountUsageRow, error) {
	rows, err := s.repo.ListUsageHistory(discountID)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].OrderTotalAmount != nil {
			rows[i].OrderAmount = *rows[i].OrderTotalAmount
		}
		rows[i].OrderTotalAmount = nil
	}
	if rows == nil {
		rows = []repository.DiscountUsageRow{}
	}
	return rows, nil
}
